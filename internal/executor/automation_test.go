package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigger-trading-bot/internal/types"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "automation.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func TestAutomationExecutorSuccess(t *testing.T) {
	// Echo the args so the test can assert the script saw the order
	script := writeScript(t, "#!/bin/sh\necho \"$@\"\nexit 0\n")

	exec := NewAutomationExecutor("sh", script, 30*time.Second, testCreds())
	result, err := exec.Execute(context.Background(), types.TriggerOrder{
		ID: "7", Symbol: "GMLI", Quantity: 10, Side: types.SideBuy,
	}, 2620.0)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "PLACED", result.Status)
}

// argparseStub mimics the automation script's CLI contract: --order-type is
// case-sensitive and accepts exactly Buy or Sell, anything else exits 2.
const argparseStub = `#!/bin/sh
ot=""
while [ $# -gt 0 ]; do
  case "$1" in
    --order-type) ot="$2"; shift 2 ;;
    --username|--password|--symbol|--quantity) shift 2 ;;
    *) shift ;;
  esac
done
case "$ot" in
  Buy|Sell) exit 0 ;;
  *) echo "error: argument --order-type: invalid choice: '$ot' (choose from 'Buy', 'Sell')" >&2; exit 2 ;;
esac
`

func TestAutomationExecutorOrderTypeCasing(t *testing.T) {
	script := writeScript(t, argparseStub)
	exec := NewAutomationExecutor("sh", script, 30*time.Second, testCreds())

	for _, side := range []types.Side{types.SideBuy, types.SideSell} {
		result, err := exec.Execute(context.Background(), types.TriggerOrder{
			ID: "7", Symbol: "GMLI", Quantity: 10, Side: side,
		}, 2620.0)
		require.NoError(t, err)
		assert.True(t, result.Success, "script rejected order type for side %s: %s", side, result.Error)
	}
}

func TestSideToScriptOrderType(t *testing.T) {
	assert.Equal(t, "Buy", sideToScriptOrderType(types.SideBuy))
	assert.Equal(t, "Sell", sideToScriptOrderType(types.SideSell))
}

func TestAutomationExecutorFailure(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\necho 'login rejected' >&2\nexit 3\n")

	exec := NewAutomationExecutor("sh", script, 30*time.Second, testCreds())
	result, err := exec.Execute(context.Background(), types.TriggerOrder{
		ID: "7", Symbol: "GMLI", Quantity: 10, Side: types.SideSell,
	}, 2230.0)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "login rejected")
}

func TestAutomationExecutorTimeout(t *testing.T) {
	script := writeScript(t, "#!/bin/sh\nsleep 10\n")

	exec := NewAutomationExecutor("sh", script, 100*time.Millisecond, testCreds())
	result, err := exec.Execute(context.Background(), types.TriggerOrder{
		ID: "7", Symbol: "GMLI", Quantity: 1, Side: types.SideBuy,
	}, 2620.0)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "timed out")
}

func TestEnvCredentialProviderMissingVars(t *testing.T) {
	t.Setenv("TMS_USERNAME", "")
	t.Setenv("TMS_PASSWORD", "")

	p := NewEnvCredentialProvider()
	_, err := p.Get(context.Background(), "7")
	assert.Error(t, err)
}

func TestEnvCredentialProvider(t *testing.T) {
	t.Setenv("TMS_USERNAME", "trader")
	t.Setenv("TMS_PASSWORD", "secret")

	p := NewEnvCredentialProvider()
	creds, err := p.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "trader", creds.Username)
	assert.Equal(t, "secret", creds.Password)
}
