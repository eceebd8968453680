package interfaces

import (
	"context"

	"trigger-trading-bot/internal/types"
)

// QuoteFeed serves the most recent quotes for a set of symbols. It degrades
// to cached data on upstream failure and never returns an error: a symbol
// missing from the result simply has no quote available this tick.
type QuoteFeed interface {
	FetchLatest(ctx context.Context, symbols []string) map[string]types.Quote
}
