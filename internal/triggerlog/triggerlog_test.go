package triggerlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, dir string) []Entry {
	t.Helper()
	name := time.Now().In(npt).Format("2006-01-02") + ".txt"
	f, err := os.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestAppendWritesDailyJSONL(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRIGGER_LOG_DIR", dir)

	require.NoError(t, Append(Entry{
		Event: "TRIGGER", OrderID: "7", Symbol: "GMLI", Side: "BUY",
		Qty: 10, TargetPrice: 2617.92, FiringPrice: 2620,
		Extra: map[string]any{"base_price": 2424.0, "trigger_percent": 8.0},
	}))
	require.NoError(t, Append(Entry{
		Event: "EXECUTION", OrderID: "7", Symbol: "GMLI", Side: "BUY",
		Qty: 10, FiringPrice: 2620, BrokerOrderID: "TMS-1",
	}))

	entries := readLines(t, dir)
	require.Len(t, entries, 2)

	assert.Equal(t, "TRIGGER", entries[0].Event)
	assert.NotEmpty(t, entries[0].Time)
	assert.Equal(t, 2424.0, entries[0].Extra["base_price"])
	assert.Equal(t, 8.0, entries[0].Extra["trigger_percent"])

	assert.Equal(t, "EXECUTION", entries[1].Event)
	assert.Equal(t, "TMS-1", entries[1].BrokerOrderID)
	assert.Nil(t, entries[1].Extra)
}
