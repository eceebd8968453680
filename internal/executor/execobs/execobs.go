package execobs

import (
	"context"
	"time"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/trace"
	"trigger-trading-bot/internal/types"
)

type observableExecutor struct {
	executor interfaces.OrderExecutor
}

var _ interfaces.OrderExecutor = (*observableExecutor)(nil)

func Wrap(exec interfaces.OrderExecutor) interfaces.OrderExecutor {
	return &observableExecutor{
		executor: exec,
	}
}

func (oe *observableExecutor) Name() string { return oe.executor.Name() }

func (oe *observableExecutor) Execute(ctx context.Context, order types.TriggerOrder, price float64) (types.ExecutionResult, error) {
	ctx, span := trace.StartSpan(ctx, "executor.Execute")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting execution",
		"executor", oe.executor.Name(),
		"order_id", order.ID,
		"symbol", order.Symbol,
		"side", order.Side,
		"quantity", order.Quantity,
		"price", price,
	)

	result, err := oe.executor.Execute(ctx, order, price)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Execution errored", err,
			"executor", oe.executor.Name(),
			"order_id", order.ID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return result, err
	}

	logger.InfoSkip(ctx, 1, "Execution finished",
		"executor", oe.executor.Name(),
		"order_id", order.ID,
		"success", result.Success,
		"broker_order_id", result.BrokerOrderID,
		"broker_status", result.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
