package monitor

import "trigger-trading-bot/internal/types"

// allowedTransitions encodes the order lifecycle. Movement is strictly
// forward; terminal statuses have no outgoing edges.
var allowedTransitions = map[types.Status][]types.Status{
	types.StatusPending: {
		types.StatusMonitoring,
		types.StatusCancelled,
		types.StatusFailed,
	},
	types.StatusMonitoring: {
		types.StatusTriggered,
		types.StatusCancelled,
		types.StatusFailed,
	},
	types.StatusTriggered: {
		types.StatusExecuted,
		types.StatusExecutionFailed,
	},
}

// CanTransition reports whether the lifecycle permits moving from one status
// to another.
func CanTransition(from, to types.Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
