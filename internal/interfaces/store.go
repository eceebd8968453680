package interfaces

import (
	"context"
	"errors"

	"trigger-trading-bot/internal/types"
)

// ErrOrderNotFound is returned when the store has no order with the given id.
var ErrOrderNotFound = errors.New("order not found")

// OrderStore is the persisted-order collaborator. The monitor only ever
// mutates orders through it.
type OrderStore interface {
	CreateOrder(ctx context.Context, order types.TriggerOrder) (types.TriggerOrder, error)
	GetOrder(ctx context.Context, id string) (types.TriggerOrder, error)

	// ListActiveOrders returns every order whose status is not terminal.
	ListActiveOrders(ctx context.Context) ([]types.TriggerOrder, error)

	// UpdateOrder applies a partial update and returns the updated order.
	UpdateOrder(ctx context.Context, id string, upd types.OrderUpdate) (types.TriggerOrder, error)

	// TransitionStatus moves the order from one status to another only if it
	// currently holds the expected status. It returns false when another
	// writer won the race; this is the lock point that prevents a tick and a
	// cancellation from double-executing the same order.
	TransitionStatus(ctx context.Context, id string, from, to types.Status) (bool, error)
}
