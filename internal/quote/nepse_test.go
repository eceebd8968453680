package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryPayload = `{
  "stock": {
    "date": "2026-08-26",
    "detail": [
      {"s": "GMLI", "lp": 2424.0, "c": 1.2, "q": 1500},
      {"s": "NABIL", "lp": "510.5", "c": "-0.4", "q": "22000"},
      {"s": "", "lp": 100, "c": 0, "q": 0},
      {"s": "BROKEN", "lp": 0, "c": 0, "q": 0}
    ]
  }
}`

func TestMarketSummaryParsesQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/market-summary", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(summaryPayload))
	}))
	defer srv.Close()

	client := NewNepseClient(srv.URL, 5*time.Second)
	quotes, err := client.MarketSummary(context.Background())
	require.NoError(t, err)

	// Empty symbol and non-positive price rows are dropped
	require.Len(t, quotes, 2)
	assert.Equal(t, "GMLI", quotes[0].Symbol)
	assert.Equal(t, 2424.0, quotes[0].LastPrice)
	assert.Equal(t, "NABIL", quotes[1].Symbol)
	assert.Equal(t, 510.5, quotes[1].LastPrice)
	assert.Equal(t, -0.4, quotes[1].PercentChange)
}

func TestMarketSummaryEmptyDetailIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"stock":{"date":"2026-08-26","detail":[]}}`))
	}))
	defer srv.Close()

	client := NewNepseClient(srv.URL, 5*time.Second)
	_, err := client.MarketSummary(context.Background())
	assert.Error(t, err)
}

func TestMarketSummaryHTMLFallback(t *testing.T) {
	page := `<html><body><table><tbody>
		<tr><td>GMLI</td><td>2,424.00</td><td>1.2%</td><td>1,500</td></tr>
		<tr><td>NABIL</td><td>510.50</td><td>-0.4%</td><td>22,000</td></tr>
	</tbody></table></body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/market-summary":
			http.Error(w, "upstream broken", http.StatusBadGateway)
		case "/todays-price":
			w.Write([]byte(page))
		}
	}))
	defer srv.Close()

	client := NewNepseClient(srv.URL, 5*time.Second, WithHTMLFallback("/todays-price"))
	quotes, err := client.MarketSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, 2424.0, quotes[0].LastPrice)
	assert.Equal(t, 22000.0, quotes[1].Volume)
}

func TestParseTodaysPriceRejectsEmptyTable(t *testing.T) {
	_, err := parseTodaysPrice([]byte("<html><body></body></html>"), time.Now())
	assert.Error(t, err)
}
