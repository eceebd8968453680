package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/types"
)

// AutomationExecutor drives the browser automation script that logs into the
// TMS portal and places the order through the web UI. It is the slow path,
// taking tens of seconds per order, and must never run on the tick loop.
type AutomationExecutor struct {
	command string
	script  string
	timeout time.Duration
	creds   interfaces.CredentialProvider
}

var _ interfaces.OrderExecutor = (*AutomationExecutor)(nil)

// NewAutomationExecutor builds the executor. command is the interpreter
// (python3), script the automation entrypoint.
func NewAutomationExecutor(command, script string, timeout time.Duration, creds interfaces.CredentialProvider) *AutomationExecutor {
	if command == "" {
		command = "python3"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &AutomationExecutor{
		command: command,
		script:  script,
		timeout: timeout,
		creds:   creds,
	}
}

func (e *AutomationExecutor) Name() string { return "automation" }

// sideToScriptOrderType maps the side to the automation script's argparse
// choices. The script is case-sensitive: it accepts exactly "Buy" or "Sell"
// and locates the portal button by that capitalized text.
func sideToScriptOrderType(side types.Side) string {
	if side == types.SideSell {
		return "Sell"
	}
	return "Buy"
}

// Execute runs the script and maps its exit code to the result: zero means
// the order was placed, anything else is a failure with the script's output
// as the reason. Credentials travel on the command line only; they are never
// logged.
func (e *AutomationExecutor) Execute(ctx context.Context, order types.TriggerOrder, price float64) (types.ExecutionResult, error) {
	creds, err := e.creds.Get(ctx, order.ID)
	if err != nil {
		return types.ExecutionResult{}, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{
		e.script,
		"--username", creds.Username,
		"--password", creds.Password,
		"--symbol", order.Symbol,
		"--quantity", strconv.Itoa(order.Quantity),
		"--order-type", sideToScriptOrderType(order.Side),
	}

	cmd := exec.CommandContext(runCtx, e.command, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	logger.Info(ctx, "Launching automation script",
		"order_id", order.ID,
		"symbol", order.Symbol,
		"quantity", order.Quantity,
		"order_type", sideToScriptOrderType(order.Side))

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return types.ExecutionResult{
			Success:     false,
			ProcessedAt: time.Now(),
			Error:       fmt.Sprintf("automation timed out after %s", e.timeout),
		}, nil
	}
	if err != nil {
		reason := strings.TrimSpace(out.String())
		if reason == "" {
			reason = err.Error()
		}
		logger.Error(ctx, "Automation script failed",
			"order_id", order.ID,
			"duration_ms", elapsed.Milliseconds(),
			"output", truncate(reason, 500))
		return types.ExecutionResult{
			Success:     false,
			ProcessedAt: time.Now(),
			Error:       truncate(reason, 500),
		}, nil
	}

	logger.Info(ctx, "Automation script completed",
		"order_id", order.ID,
		"duration_ms", elapsed.Milliseconds())

	return types.ExecutionResult{
		Success:     true,
		Status:      "PLACED",
		ProcessedAt: time.Now(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
