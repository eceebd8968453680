package orderstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/types"
)

// MemoryStore is an in-memory OrderStore used for dry runs and tests. It
// honors the same conditional-transition contract as the Postgres store.
type MemoryStore struct {
	orders map[string]types.TriggerOrder
	nextID int
	mu     sync.RWMutex
}

var _ interfaces.OrderStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[string]types.TriggerOrder),
		nextID: 1,
	}
}

func (s *MemoryStore) CreateOrder(ctx context.Context, order types.TriggerOrder) (types.TriggerOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.ID == "" {
		order.ID = fmt.Sprintf("%d", s.nextID)
		s.nextID++
	}
	if order.Status == "" {
		order.Status = types.StatusPending
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	if _, exists := s.orders[order.ID]; exists {
		return types.TriggerOrder{}, fmt.Errorf("order %s already exists", order.ID)
	}

	s.orders[order.ID] = order
	return order, nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (types.TriggerOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return types.TriggerOrder{}, interfaces.ErrOrderNotFound
	}
	return o, nil
}

// ListActiveOrders returns every non-terminal order, oldest first
func (s *MemoryStore) ListActiveOrders(ctx context.Context) ([]types.TriggerOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.TriggerOrder
	for _, o := range s.orders {
		if !o.Status.IsTerminal() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateOrder(ctx context.Context, id string, upd types.OrderUpdate) (types.TriggerOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return types.TriggerOrder{}, interfaces.ErrOrderNotFound
	}

	applyUpdate(&o, upd)
	s.orders[id] = o
	return o, nil
}

func (s *MemoryStore) TransitionStatus(ctx context.Context, id string, from, to types.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return false, interfaces.ErrOrderNotFound
	}
	if o.Status != from {
		return false, nil
	}

	o.Status = to
	s.orders[id] = o
	return true, nil
}

func applyUpdate(o *types.TriggerOrder, upd types.OrderUpdate) {
	if upd.BasePrice != nil {
		o.BasePrice = *upd.BasePrice
	}
	if upd.TargetPrice != nil {
		o.TargetPrice = *upd.TargetPrice
	}
	if upd.Status != nil {
		o.Status = *upd.Status
	}
	if upd.LastCheckedAt != nil {
		o.LastCheckedAt = *upd.LastCheckedAt
	}
	if upd.TriggeredAt != nil {
		o.TriggeredAt = upd.TriggeredAt
	}
	if upd.ExecutedAt != nil {
		o.ExecutedAt = upd.ExecutedAt
	}
	if upd.ExecutionPrice != nil {
		o.ExecutionPrice = *upd.ExecutionPrice
	}
	if upd.BrokerOrderID != nil {
		o.BrokerOrderID = *upd.BrokerOrderID
	}
	if upd.BrokerStatus != nil {
		o.BrokerStatus = *upd.BrokerStatus
	}
	if upd.FailureReason != nil {
		o.FailureReason = *upd.FailureReason
	}
}
