package monitorobs

import (
	"context"
	"time"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/trace"
	"trigger-trading-bot/internal/types"
)

type observableMonitor struct {
	monitor interfaces.Monitor
}

var _ interfaces.Monitor = (*observableMonitor)(nil)

func Wrap(m interfaces.Monitor) interfaces.Monitor {
	return &observableMonitor{
		monitor: m,
	}
}

func (om *observableMonitor) Start(ctx context.Context) error {
	return om.monitor.Start(ctx)
}

func (om *observableMonitor) Stop(ctx context.Context) {
	om.monitor.Stop(ctx)
}

func (om *observableMonitor) Tick(ctx context.Context) (*types.TickResult, error) {
	ctx, span := trace.StartSpan(ctx, "monitor.Tick")
	defer span.End()

	start := time.Now()

	result, err := om.monitor.Tick(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Evaluation tick failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, err
	}

	if result.Active > 0 {
		logger.InfoSkip(ctx, 1, "Evaluation tick completed",
			"active", result.Active,
			"evaluated", result.Evaluated,
			"triggered", result.Triggered,
			"executed", result.Executed,
			"failed", result.Failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	return result, nil
}

func (om *observableMonitor) Cancel(ctx context.Context, orderID string) error {
	ctx, span := trace.StartSpan(ctx, "monitor.Cancel")
	defer span.End()

	if err := om.monitor.Cancel(ctx, orderID); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Order cancellation failed", err,
			"order_id", orderID,
		)
		return err
	}
	return nil
}
