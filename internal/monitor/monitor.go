package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/metrics"
	"trigger-trading-bot/internal/notify"
	"trigger-trading-bot/internal/types"
)

// TriggerMonitor is the scheduler at the center of the pipeline. On every
// tick it loads the active orders, fetches one batch of quotes, and walks the
// orders through their lifecycle. Ticks never overlap: if an evaluation pass
// is still running when the next tick fires, the new tick is skipped.
type TriggerMonitor struct {
	store  interfaces.OrderStore
	feed   interfaces.QuoteFeed
	bus    interfaces.Publisher
	policy *ExecutorPolicy

	interval time.Duration
	dryRun   bool
	now      func() time.Time

	ticking atomic.Bool
	running atomic.Bool
	stopCh  chan struct{}
	loopWG  sync.WaitGroup

	// execWG tracks detached executions so Stop can wait them out
	execWG sync.WaitGroup

	onRecord func(RecordEvent)
}

var _ interfaces.Monitor = (*TriggerMonitor)(nil)

// RecordEvent is handed to the optional record hook after each trigger or
// execution, so an audit log can be kept without the monitor knowing about it.
type RecordEvent struct {
	Kind        string
	Order       types.TriggerOrder
	FiringPrice float64
	Detail      string
	At          time.Time
}

// Option customizes a TriggerMonitor
type Option func(*TriggerMonitor)

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(m *TriggerMonitor) { m.now = now }
}

// WithDryRun suppresses real executions: triggered orders are marked executed
// at the firing price without touching any executor.
func WithDryRun(dryRun bool) Option {
	return func(m *TriggerMonitor) { m.dryRun = dryRun }
}

// WithRecordHook registers a callback invoked after triggers and executions
func WithRecordHook(fn func(RecordEvent)) Option {
	return func(m *TriggerMonitor) { m.onRecord = fn }
}

// NewTriggerMonitor wires the monitor's collaborators
func NewTriggerMonitor(store interfaces.OrderStore, feed interfaces.QuoteFeed, bus interfaces.Publisher, policy *ExecutorPolicy, interval time.Duration, opts ...Option) *TriggerMonitor {
	m := &TriggerMonitor{
		store:    store,
		feed:     feed,
		bus:      bus,
		policy:   policy,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the tick loop. It returns an error if the monitor is
// already running.
func (m *TriggerMonitor) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("monitor already running")
	}

	logger.Info(ctx, "Trigger monitor started", "interval", m.interval.String(), "dry_run", m.dryRun)

	m.loopWG.Add(1)
	go func() {
		defer m.loopWG.Done()
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := m.Tick(ctx); err != nil {
					logger.ErrorWithErr(ctx, "Tick failed", err)
				}
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop halts the tick loop and waits for any detached executions to finish
func (m *TriggerMonitor) Stop(ctx context.Context) {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	close(m.stopCh)
	m.loopWG.Wait()

	done := make(chan struct{})
	go func() {
		m.execWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn(ctx, "Stopped with executions still in flight")
	}

	logger.Info(ctx, "Trigger monitor stopped")
}

// Tick runs a single evaluation pass. A pass that would overlap a still
// running one is skipped and reported with Skipped set. When there are no
// active orders the pass is a no-op: no feed call, no events.
func (m *TriggerMonitor) Tick(ctx context.Context) (*types.TickResult, error) {
	if !m.ticking.CompareAndSwap(false, true) {
		metrics.TicksSkipped.Inc()
		logger.Warn(ctx, "Tick overlap, skipping")
		return &types.TickResult{Started: m.now(), Skipped: 1}, nil
	}
	defer m.ticking.Store(false)

	started := m.now()
	res := &types.TickResult{Started: started}
	defer func() {
		res.DurationMs = time.Since(started).Milliseconds()
		metrics.TicksTotal.Inc()
		metrics.TickDuration.Observe(time.Since(started).Seconds())
	}()

	orders, err := m.store.ListActiveOrders(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list active orders: %w", err)
	}
	res.Active = len(orders)
	if len(orders) == 0 {
		return res, nil
	}

	symbols := make([]string, 0, len(orders))
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.Symbol]; !ok {
			seen[o.Symbol] = struct{}{}
			symbols = append(symbols, o.Symbol)
		}
	}

	quotes := m.feed.FetchLatest(ctx, symbols)

	// One price update per symbol per tick, regardless of how many orders
	// share the symbol.
	for _, sym := range symbols {
		if q, ok := quotes[sym]; ok {
			m.bus.Publish(notify.SymbolTopic(sym), notify.PriceUpdate(q))
		}
	}

	for _, o := range orders {
		q, ok := quotes[o.Symbol]
		var quote *types.Quote
		if ok {
			quote = &q
		}
		m.evaluateOrder(ctx, o, quote, res)
	}

	logger.Debug(ctx, "Tick complete",
		"active", res.Active,
		"evaluated", res.Evaluated,
		"triggered", res.Triggered,
		"executed", res.Executed,
		"failed", res.Failed)

	return res, nil
}

// Cancel moves a Pending or Monitoring order to Cancelled. Orders that have
// already triggered cannot be cancelled.
func (m *TriggerMonitor) Cancel(ctx context.Context, orderID string) error {
	for _, from := range []types.Status{types.StatusPending, types.StatusMonitoring} {
		ok, err := m.transition(ctx, orderID, from, types.StatusCancelled)
		if err != nil {
			return err
		}
		if ok {
			o, err := m.store.GetOrder(ctx, orderID)
			if err == nil {
				m.bus.Publish(notify.OrderTopic(orderID), notify.OrderStatusUpdate(o))
			}
			logger.Info(ctx, "Order cancelled", "order_id", orderID)
			return nil
		}
	}

	o, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return fmt.Errorf("order %s cannot be cancelled in status %s", orderID, o.Status)
}

// transition guards the store's conditional update with the lifecycle table
func (m *TriggerMonitor) transition(ctx context.Context, id string, from, to types.Status) (bool, error) {
	if !CanTransition(from, to) {
		return false, fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	return m.store.TransitionStatus(ctx, id, from, to)
}

func (m *TriggerMonitor) record(ev RecordEvent) {
	if m.onRecord != nil {
		ev.At = m.now()
		m.onRecord(ev)
	}
}
