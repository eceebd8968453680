package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigger-trading-bot/internal/types"
)

type fakeSource struct {
	calls   int
	quotes  []types.Quote
	failing bool
}

func (s *fakeSource) MarketSummary(ctx context.Context) ([]types.Quote, error) {
	s.calls++
	if s.failing {
		return nil, errors.New("upstream unavailable")
	}
	return s.quotes, nil
}

func newTestFeed(src Source) *Feed {
	f := NewFeed(src, NewCache(), FeedConfig{
		MinRefresh:  5 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	})
	return f
}

func TestFeedEmptySymbolsNoCall(t *testing.T) {
	src := &fakeSource{quotes: []types.Quote{{Symbol: "GMLI", LastPrice: 2424}}}
	f := newTestFeed(src)

	out := f.FetchLatest(context.Background(), nil)
	assert.Empty(t, out)
	assert.Equal(t, 0, src.calls)
}

func TestFeedServesCacheInsideRefreshWindow(t *testing.T) {
	src := &fakeSource{quotes: []types.Quote{{Symbol: "GMLI", LastPrice: 2424}}}
	f := newTestFeed(src)

	clock := time.Date(2026, 8, 26, 11, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return clock }

	out := f.FetchLatest(context.Background(), []string{"GMLI"})
	require.Contains(t, out, "GMLI")
	assert.Equal(t, 1, src.calls)

	// Two seconds later: still inside the window, no network call
	clock = clock.Add(2 * time.Second)
	out = f.FetchLatest(context.Background(), []string{"GMLI"})
	require.Contains(t, out, "GMLI")
	assert.Equal(t, 1, src.calls)

	// Past the window: fetches again
	clock = clock.Add(4 * time.Second)
	f.FetchLatest(context.Background(), []string{"GMLI"})
	assert.Equal(t, 2, src.calls)
}

func TestFeedFallsBackToCacheOnTotalFailure(t *testing.T) {
	src := &fakeSource{quotes: []types.Quote{{Symbol: "GMLI", LastPrice: 2424}}}
	f := newTestFeed(src)

	clock := time.Date(2026, 8, 26, 11, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return clock }

	out := f.FetchLatest(context.Background(), []string{"GMLI"})
	require.Contains(t, out, "GMLI")

	// Upstream dies; next fetch outside the window retries then serves
	// the stale quote.
	src.failing = true
	clock = clock.Add(10 * time.Second)

	out = f.FetchLatest(context.Background(), []string{"GMLI"})
	require.Contains(t, out, "GMLI")
	assert.Equal(t, 2424.0, out["GMLI"].LastPrice)
	assert.Equal(t, 1+3, src.calls, "3 retry attempts expected")
}

func TestFeedEmptyResultWhenNothingCached(t *testing.T) {
	src := &fakeSource{failing: true}
	f := newTestFeed(src)

	out := f.FetchLatest(context.Background(), []string{"GMLI"})
	assert.Empty(t, out)
}

func TestFeedCachesUnrequestedSymbols(t *testing.T) {
	src := &fakeSource{quotes: []types.Quote{
		{Symbol: "GMLI", LastPrice: 2424},
		{Symbol: "NABIL", LastPrice: 510},
	}}
	f := newTestFeed(src)

	out := f.FetchLatest(context.Background(), []string{"GMLI"})
	assert.Len(t, out, 1)

	// NABIL was cached opportunistically from the same batch
	q, ok := f.cache.Get("NABIL")
	require.True(t, ok)
	assert.Equal(t, 510.0, q.LastPrice)
}
