package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trigger-trading-bot/internal/api"
	"trigger-trading-bot/internal/types"
)

// Source produces one batch of quotes per call. The monitor never talks to a
// source directly; it goes through Feed, which adds rate limiting, retries
// and the cache fallback.
type Source interface {
	MarketSummary(ctx context.Context) ([]types.Quote, error)
}

// NepseClient fetches the NEPSE market summary: a single GET returning
// every traded symbol's last price, percent change and volume.
type NepseClient struct {
	client       *api.Client
	summaryPath  string
	htmlFallback *htmlSource
}

// NepseOption configures the client
type NepseOption func(*NepseClient)

// WithHTMLFallback enables parsing the today's-price HTML page when the JSON
// endpoint returns something unusable.
func WithHTMLFallback(path string) NepseOption {
	return func(n *NepseClient) {
		n.htmlFallback = &htmlSource{client: n.client, path: path}
	}
}

// NewNepseClient creates a market-summary client against baseURL
func NewNepseClient(baseURL string, timeout time.Duration, opts ...NepseOption) *NepseClient {
	n := &NepseClient{
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(timeout),
			api.WithLogging(true),
		),
		summaryPath: "/market-summary",
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// marketSummaryResponse mirrors the upstream payload:
// { "stock": { "date": "...", "detail": [ {"s","lp","c","q"}, ... ] } }
type marketSummaryResponse struct {
	Stock struct {
		Date   string `json:"date"`
		Detail []struct {
			Symbol        string      `json:"s"`
			LastPrice     json.Number `json:"lp"`
			PercentChange json.Number `json:"c"`
			Volume        json.Number `json:"q"`
		} `json:"detail"`
	} `json:"stock"`
}

// MarketSummary performs one fetch and maps the response to quotes. A parse
// failure is reported as an error so the feed treats it as feed-unavailable.
func (n *NepseClient) MarketSummary(ctx context.Context) ([]types.Quote, error) {
	resp, err := n.client.GET(ctx, n.summaryPath, api.BrowserHeaders())
	if err != nil {
		return n.tryHTMLFallback(ctx, err)
	}

	var body marketSummaryResponse
	if err := resp.ParseJSON(&body); err != nil {
		return n.tryHTMLFallback(ctx, err)
	}
	if len(body.Stock.Detail) == 0 {
		return n.tryHTMLFallback(ctx, fmt.Errorf("market summary contained no symbols"))
	}

	observedAt := time.Now()
	quotes := make([]types.Quote, 0, len(body.Stock.Detail))
	for _, d := range body.Stock.Detail {
		if d.Symbol == "" {
			continue
		}
		lp, err := d.LastPrice.Float64()
		if err != nil || lp <= 0 {
			continue
		}
		pc, _ := d.PercentChange.Float64()
		vol, _ := d.Volume.Float64()
		quotes = append(quotes, types.Quote{
			Symbol:        d.Symbol,
			LastPrice:     lp,
			PercentChange: pc,
			Volume:        vol,
			ObservedAt:    observedAt,
		})
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("market summary contained no usable quotes")
	}

	return quotes, nil
}

func (n *NepseClient) tryHTMLFallback(ctx context.Context, cause error) ([]types.Quote, error) {
	if n.htmlFallback == nil {
		return nil, cause
	}
	quotes, err := n.htmlFallback.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("json endpoint failed (%v), html fallback failed: %w", cause, err)
	}
	return quotes, nil
}
