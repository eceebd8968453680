package interfaces

import (
	"context"

	"trigger-trading-bot/internal/types"
)

// Monitor drives the trigger-order lifecycle. Start launches the periodic
// scheduler; Tick runs a single evaluation pass and is what tests exercise.
type Monitor interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Tick(ctx context.Context) (*types.TickResult, error)

	// Cancel transitions a Pending or Monitoring order to Cancelled.
	Cancel(ctx context.Context, orderID string) error
}
