// Package summary writes a CSV snapshot of the day's executed triggers,
// aggregated per symbol, from the daily trigger log.
package summary

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

type logLine struct {
	Event, Symbol, Side string
	Qty                 int
	FiringPrice         float64
}

type aggRow struct {
	Symbol    string
	BuyQty    int
	BuyValue  float64
	SellQty   int
	SellValue float64
}

func logDir() string {
	if v := os.Getenv("TRIGGER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

var npt = time.FixedZone("NPT", 20700)

func todaysLogFile(t time.Time) string {
	d := t.In(npt).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func summaryCSVPath(t time.Time) string {
	d := t.In(npt).Format("2006-01-02")
	return filepath.Join(logDir(), "summary", d+".csv")
}

// SummarizeDay aggregates the day's EXECUTION entries per symbol and writes
// them to a CSV. Returns the path written, or "" when there was nothing to
// summarize.
func SummarizeDay(t time.Time) (string, error) {
	inPath := todaysLogFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ll logLine
		if err := json.Unmarshal([]byte(sc.Text()), &ll); err != nil {
			continue
		}
		if ll.Event != "EXECUTION" {
			continue
		}
		row := aggs[ll.Symbol]
		if row == nil {
			row = &aggRow{Symbol: ll.Symbol}
			aggs[ll.Symbol] = row
		}
		if ll.Side == "BUY" {
			row.BuyQty += ll.Qty
			row.BuyValue += float64(ll.Qty) * ll.FiringPrice
		}
		if ll.Side == "SELL" {
			row.SellQty += ll.Qty
			row.SellValue += float64(ll.Qty) * ll.FiringPrice
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := summaryCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	headers := []string{"symbol", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "gross_buy_value", "gross_sell_value"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	for _, k := range keys {
		row := aggs[k]
		buyAvg := 0.0
		if row.BuyQty > 0 {
			buyAvg = row.BuyValue / float64(row.BuyQty)
		}
		sellAvg := 0.0
		if row.SellQty > 0 {
			sellAvg = row.SellValue / float64(row.SellQty)
		}
		rec := []string{
			row.Symbol,
			strconv.Itoa(row.BuyQty),
			strconv.FormatFloat(buyAvg, 'f', 2, 64),
			strconv.Itoa(row.SellQty),
			strconv.FormatFloat(sellAvg, 'f', 2, 64),
			strconv.FormatFloat(row.BuyValue, 'f', 2, 64),
			strconv.FormatFloat(row.SellValue, 'f', 2, 64),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	return outPath, nil
}
