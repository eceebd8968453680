package monitor

import (
	"math"

	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/types"
)

// priceTolerance is the relative distance under which base and target are
// considered equal for the fallback heuristic.
const priceTolerance = 1e-9

// ExecutorPolicy decides which executor places a triggered order. The
// order's explicit execution method always wins; when it is unset the policy
// falls back to the price heuristic: an order whose target equals its base
// was meant to fire immediately and goes through browser automation, anything
// else goes through the broker API.
type ExecutorPolicy struct {
	api        interfaces.OrderExecutor
	automation interfaces.OrderExecutor
}

// NewExecutorPolicy builds a policy over the two executors. Either may be
// nil; Select falls back to the other.
func NewExecutorPolicy(api, automation interfaces.OrderExecutor) *ExecutorPolicy {
	return &ExecutorPolicy{api: api, automation: automation}
}

// Select returns the executor for the order and whether it must run detached
// from the tick. Automation drives a real browser session and takes tens of
// seconds, so it never runs on the scheduler's critical path.
func (p *ExecutorPolicy) Select(order types.TriggerOrder) (exec interfaces.OrderExecutor, detached bool) {
	switch order.ExecutionMethod {
	case types.ExecMethodAPI:
		if p.api != nil {
			return p.api, false
		}
	case types.ExecMethodAutomation:
		if p.automation != nil {
			return p.automation, true
		}
	}

	if p.automation != nil && samePrice(order.BasePrice, order.TargetPrice) {
		return p.automation, true
	}
	if p.api != nil {
		return p.api, false
	}
	return p.automation, true
}

func samePrice(a, b float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= priceTolerance*scale
}
