package monitor

import (
	"context"
	"fmt"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/metrics"
	"trigger-trading-bot/internal/notify"
	"trigger-trading-bot/internal/types"
)

// evaluateOrder runs one order through a tick. A panic in any step marks the
// order Failed and lets the rest of the tick proceed.
func (m *TriggerMonitor) evaluateOrder(ctx context.Context, o types.TriggerOrder, quote *types.Quote, res *types.TickResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Panic evaluating order", "order_id", o.ID, "panic", fmt.Sprint(r))
			reason := fmt.Sprintf("evaluation panic: %v", r)
			if _, err := m.store.UpdateOrder(ctx, o.ID, types.OrderUpdate{
				Status:        statusPtr(types.StatusFailed),
				FailureReason: &reason,
			}); err != nil {
				logger.ErrorWithErr(ctx, "Failed to mark panicked order", err, "order_id", o.ID)
			}
			res.Failed++
		}
	}()

	res.Evaluated++
	metrics.OrdersEvaluated.Inc()

	// The check timestamp advances whether or not a quote is available, so an
	// operator can always see when the order was last looked at.
	checkedAt := m.now()
	o2, err := m.store.UpdateOrder(ctx, o.ID, types.OrderUpdate{LastCheckedAt: &checkedAt})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to touch order", err, "order_id", o.ID)
		res.Failed++
		return
	}
	o = o2

	if quote == nil {
		logger.Debug(ctx, "No quote this tick", "order_id", o.ID, "symbol", o.Symbol)
		m.bus.Publish(notify.OrderTopic(o.ID), notify.OrderStatusUpdate(o))
		res.Skipped++
		return
	}
	price := quote.LastPrice

	if !o.HasBasePrice() {
		o = m.captureBase(ctx, o, price)
		if o.ID == "" {
			res.Failed++
			return
		}
	}

	if o.Status == types.StatusMonitoring && conditionMet(o, price) {
		m.fire(ctx, o, price, res)
		return
	}

	m.bus.Publish(notify.OrderTopic(o.ID), notify.OrderStatusUpdate(o))
}

// captureBase sets the reference and target prices exactly once, on the
// order's first evaluation with a usable quote, and promotes it to
// Monitoring. Returns the zero order on store failure.
func (m *TriggerMonitor) captureBase(ctx context.Context, o types.TriggerOrder, price float64) types.TriggerOrder {
	target := targetPrice(o.Side, price, o.TriggerPercent)

	upd := types.OrderUpdate{
		BasePrice:   &price,
		TargetPrice: &target,
	}
	if o.Status == types.StatusPending {
		upd.Status = statusPtr(types.StatusMonitoring)
	}

	o2, err := m.store.UpdateOrder(ctx, o.ID, upd)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to capture base price", err, "order_id", o.ID)
		return types.TriggerOrder{}
	}

	logger.Info(ctx, "Monitoring order",
		"order_id", o2.ID,
		"symbol", o2.Symbol,
		"side", o2.Side,
		"base_price", o2.BasePrice,
		"target_price", o2.TargetPrice,
		"trigger_percent", o2.TriggerPercent)

	return o2
}

// targetPrice derives the firing threshold from the base price. A buy fires
// when price rises to the target, a sell when it falls to it. A zero percent
// makes the target equal the base, so the order fires on the capturing tick.
func targetPrice(side types.Side, base, pct float64) float64 {
	if side == types.SideSell {
		return base * (1 - pct/100)
	}
	return base * (1 + pct/100)
}

// conditionMet applies the inclusive trigger comparison
func conditionMet(o types.TriggerOrder, price float64) bool {
	if o.Side == types.SideSell {
		return price <= o.TargetPrice
	}
	return price >= o.TargetPrice
}

// fire claims the trigger via the conditional transition and, if this tick
// won the claim, runs the execution. Losing the claim means another writer
// got there first and the order is left alone.
func (m *TriggerMonitor) fire(ctx context.Context, o types.TriggerOrder, price float64, res *types.TickResult) {
	won, err := m.transition(ctx, o.ID, types.StatusMonitoring, types.StatusTriggered)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to claim trigger", err, "order_id", o.ID)
		res.Failed++
		return
	}
	if !won {
		logger.Warn(ctx, "Lost trigger claim", "order_id", o.ID)
		return
	}

	triggeredAt := m.now()
	o2, err := m.store.UpdateOrder(ctx, o.ID, types.OrderUpdate{TriggeredAt: &triggeredAt})
	if err == nil {
		o = o2
	}

	res.Triggered++
	metrics.OrdersTriggered.Inc()
	logger.TriggerFired(ctx, o.ID, o.Symbol, string(o.Side), o.TargetPrice, price)

	ev := notify.TriggerNotification(o, price)
	m.bus.Publish(notify.OrderTopic(o.ID), ev)
	m.bus.Publish(notify.SymbolTopic(o.Symbol), ev)
	m.record(RecordEvent{Kind: "TRIGGER", Order: o, FiringPrice: price})

	if m.dryRun {
		m.finishExecution(ctx, o, price, types.ExecutionResult{
			Success:     true,
			Status:      "DRY_RUN",
			ProcessedAt: m.now(),
		}, "dry-run", res)
		return
	}

	exec, detached := m.policy.Select(o)
	if exec == nil {
		m.failExecution(ctx, o, "no executor configured", "none", res)
		return
	}

	if detached {
		// Browser automation takes far longer than a tick; run it off the
		// scheduler path and let subsequent ticks proceed.
		m.execWG.Add(1)
		go func() {
			defer m.execWG.Done()
			m.runExecution(context.WithoutCancel(ctx), o, price, exec, nil)
		}()
		return
	}

	m.runExecution(ctx, o, price, exec, res)
}

// runExecution invokes the executor and records the terminal outcome. res is
// nil for detached executions, which finish after the tick has been counted.
func (m *TriggerMonitor) runExecution(ctx context.Context, o types.TriggerOrder, price float64, exec interfaces.OrderExecutor, res *types.TickResult) {
	result, err := exec.Execute(ctx, o, price)
	if err != nil {
		metrics.Executions.WithLabelValues(exec.Name(), "error").Inc()
		m.failExecution(ctx, o, err.Error(), exec.Name(), res)
		return
	}
	if !result.Success {
		metrics.Executions.WithLabelValues(exec.Name(), "rejected").Inc()
		reason := result.Error
		if reason == "" {
			reason = "execution rejected"
		}
		m.failExecution(ctx, o, reason, exec.Name(), res)
		return
	}

	metrics.Executions.WithLabelValues(exec.Name(), "success").Inc()
	m.finishExecution(ctx, o, price, result, exec.Name(), res)
}

func (m *TriggerMonitor) finishExecution(ctx context.Context, o types.TriggerOrder, price float64, result types.ExecutionResult, executor string, res *types.TickResult) {
	won, err := m.transition(ctx, o.ID, types.StatusTriggered, types.StatusExecuted)
	if err != nil || !won {
		logger.Error(ctx, "Failed to finalize execution", "order_id", o.ID, "error", err)
		return
	}

	executedAt := m.now()
	upd := types.OrderUpdate{
		ExecutedAt:     &executedAt,
		ExecutionPrice: &price,
	}
	if result.BrokerOrderID != "" {
		upd.BrokerOrderID = &result.BrokerOrderID
	}
	if result.Status != "" {
		upd.BrokerStatus = &result.Status
	}

	o2, err := m.store.UpdateOrder(ctx, o.ID, upd)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to record execution details", err, "order_id", o.ID)
		o2 = o
		o2.Status = types.StatusExecuted
	}

	if res != nil {
		res.Executed++
	}
	logger.Execution(ctx, o2.ID, o2.Symbol, string(o2.Side), o2.Quantity, price, o2.BrokerOrderID, "executor", executor)

	m.bus.Publish(notify.OrderTopic(o2.ID), notify.OrderStatusUpdate(o2))
	m.record(RecordEvent{Kind: "EXECUTION", Order: o2, FiringPrice: price, Detail: executor})
}

func (m *TriggerMonitor) failExecution(ctx context.Context, o types.TriggerOrder, reason, executor string, res *types.TickResult) {
	won, err := m.transition(ctx, o.ID, types.StatusTriggered, types.StatusExecutionFailed)
	if err != nil || !won {
		logger.Error(ctx, "Failed to record execution failure", "order_id", o.ID, "error", err)
		return
	}

	o2, err := m.store.UpdateOrder(ctx, o.ID, types.OrderUpdate{FailureReason: &reason})
	if err != nil {
		o2 = o
		o2.Status = types.StatusExecutionFailed
		o2.FailureReason = reason
	}

	if res != nil {
		res.Failed++
	}
	logger.Error(ctx, "Execution failed",
		"order_id", o.ID,
		"symbol", o.Symbol,
		"executor", executor,
		"reason", reason)

	m.bus.Publish(notify.OrderTopic(o2.ID), notify.OrderStatusUpdate(o2))
	m.record(RecordEvent{Kind: "EXECUTION_FAILED", Order: o2, Detail: reason})
}

func statusPtr(s types.Status) *types.Status { return &s }
