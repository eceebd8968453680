package quote

import (
	"context"
	"sync"
	"time"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/metrics"
	"trigger-trading-bot/internal/types"
)

// FeedConfig tunes the fetch cadence and retry behaviour
type FeedConfig struct {
	// MinRefresh is the minimum interval between upstream calls; fetches
	// inside the window are served from cache.
	MinRefresh time.Duration
	// MaxAttempts bounds the retries per fetch
	MaxAttempts int
	// RetryDelay is the fixed wait between attempts
	RetryDelay time.Duration
}

// DefaultFeedConfig returns the production defaults
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		MinRefresh:  5 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  2 * time.Second,
	}
}

// Feed is the read-through quote layer: it rate-limits upstream calls,
// retries transient failures, and degrades to cached quotes so the monitor
// never sees a feed error. A symbol absent from the result simply has no
// quote available this tick.
type Feed struct {
	source Source
	cache  *Cache
	cfg    FeedConfig

	mu          sync.Mutex
	lastSuccess time.Time

	now func() time.Time
}

var _ interfaces.QuoteFeed = (*Feed)(nil)

// NewFeed creates a feed over the given source and cache
func NewFeed(source Source, cache *Cache, cfg FeedConfig) *Feed {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Feed{
		source: source,
		cache:  cache,
		cfg:    cfg,
		now:    time.Now,
	}
}

// FetchLatest returns the freshest available quote per requested symbol.
// One upstream call covers the whole set; every quote the upstream returns
// is written to the cache, requested or not.
func (f *Feed) FetchLatest(ctx context.Context, symbols []string) map[string]types.Quote {
	if len(symbols) == 0 {
		return map[string]types.Quote{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.lastSuccess.IsZero() && f.now().Sub(f.lastSuccess) < f.cfg.MinRefresh {
		logger.Debug(ctx, "Serving quotes from cache inside min refresh window",
			"symbols", len(symbols), "last_success", f.lastSuccess)
		metrics.FeedCacheServes.Inc()
		return f.fromCache(symbols)
	}

	quotes, err := f.fetchWithRetries(ctx)
	if err != nil {
		logger.Warn(ctx, "Quote fetch failed after retries, serving cache",
			"attempts", f.cfg.MaxAttempts, "error", err)
		return f.fromCache(symbols)
	}

	f.cache.PutAll(quotes)
	f.lastSuccess = f.now()

	return f.fromCache(symbols)
}

// fetchWithRetries issues up to MaxAttempts upstream calls with a fixed
// delay between them
func (f *Feed) fetchWithRetries(ctx context.Context) ([]types.Quote, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		quotes, err := f.source.MarketSummary(ctx)
		if err == nil {
			metrics.FeedRequests.WithLabelValues("ok").Inc()
			return quotes, nil
		}

		metrics.FeedRequests.WithLabelValues("error").Inc()
		lastErr = err
		logger.Debug(ctx, "Market summary attempt failed",
			"attempt", attempt, "max_attempts", f.cfg.MaxAttempts, "error", err)

		if attempt < f.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.cfg.RetryDelay):
			}
		}
	}
	return nil, lastErr
}

func (f *Feed) fromCache(symbols []string) map[string]types.Quote {
	out := make(map[string]types.Quote, len(symbols))
	for _, s := range symbols {
		if q, ok := f.cache.Get(s); ok {
			out[s] = q
		}
	}
	return out
}
