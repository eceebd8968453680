package quote

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"trigger-trading-bot/internal/api"
	"trigger-trading-bot/internal/types"
)

// htmlSource parses the today's-price HTML table. It exists only as a
// fallback for when the JSON market-summary endpoint is down or returns
// garbage; the exchange's HTML page tends to stay up longer.
type htmlSource struct {
	client *api.Client
	path   string
}

func (h *htmlSource) fetch(ctx context.Context) ([]types.Quote, error) {
	resp, err := h.client.GET(ctx, h.path, api.BrowserHeaders())
	if err != nil {
		return nil, err
	}
	return parseTodaysPrice(resp.Body, time.Now())
}

// parseTodaysPrice extracts symbol, LTP, percent change and volume from the
// first table whose rows carry at least four cells in that order.
func parseTodaysPrice(body []byte, observedAt time.Time) ([]types.Quote, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse today's price page: %w", err)
	}

	var quotes []types.Quote
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		symbol := strings.TrimSpace(cells.Eq(0).Text())
		if symbol == "" {
			return
		}

		lp, err := parseNumberCell(cells.Eq(1).Text())
		if err != nil || lp <= 0 {
			return
		}
		pc, _ := parseNumberCell(cells.Eq(2).Text())
		vol, _ := parseNumberCell(cells.Eq(3).Text())

		quotes = append(quotes, types.Quote{
			Symbol:        symbol,
			LastPrice:     lp,
			PercentChange: pc,
			Volume:        vol,
			ObservedAt:    observedAt,
		})
	})

	if len(quotes) == 0 {
		return nil, fmt.Errorf("today's price page contained no usable rows")
	}

	return quotes, nil
}

// parseNumberCell tolerates thousands separators and a trailing percent sign
func parseNumberCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "-" {
		return 0, fmt.Errorf("empty cell")
	}
	return strconv.ParseFloat(s, 64)
}
