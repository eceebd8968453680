package interfaces

import (
	"context"

	"trigger-trading-bot/internal/types"
)

// OrderExecutor attempts to place a trade with the brokerage at the given
// price. An unsuccessful result is terminal for the order; the monitor does
// not retry.
type OrderExecutor interface {
	Execute(ctx context.Context, order types.TriggerOrder, price float64) (types.ExecutionResult, error)
	Name() string
}

// CredentialProvider resolves broker credentials at execution time.
// Credentials are never stored on the order itself.
type CredentialProvider interface {
	Get(ctx context.Context, orderID string) (types.Credentials, error)
}
