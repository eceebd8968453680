package types

import "time"

// Side is the direction of a trigger order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Status is the lifecycle state of a trigger order. Transitions are
// monotonic: an order never moves backward, and terminal statuses are final.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusMonitoring      Status = "MONITORING"
	StatusTriggered       Status = "TRIGGERED"
	StatusExecuted        Status = "EXECUTED"
	StatusCancelled       Status = "CANCELLED"
	StatusFailed          Status = "FAILED"
	StatusExecutionFailed Status = "EXECUTION_FAILED"
)

// IsTerminal reports whether s is a terminal status. Terminal orders are
// never evaluated again by the monitor.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusExecuted, StatusCancelled, StatusFailed, StatusExecutionFailed:
		return true
	}
	return false
}

// ExecutionMethod selects which executor places the trade. When empty the
// monitor falls back to the base/target price heuristic.
type ExecutionMethod string

const (
	ExecMethodAPI        ExecutionMethod = "API"
	ExecMethodAutomation ExecutionMethod = "AUTOMATION"
)

// TriggerOrder is the unit of work: execute Side Quantity of Symbol when the
// last traded price moves TriggerPercent from its value at first evaluation.
type TriggerOrder struct {
	ID              string          `json:"id"`
	Symbol          string          `json:"symbol"`
	Quantity        int             `json:"quantity"`
	Side            Side            `json:"side"`
	TriggerPercent  float64         `json:"trigger_percent"`
	ExecutionMethod ExecutionMethod `json:"execution_method,omitempty"`

	// BasePrice and TargetPrice are set together exactly once, on the first
	// evaluation, and never change afterward.
	BasePrice   float64 `json:"base_price,omitempty"`
	TargetPrice float64 `json:"target_price,omitempty"`

	Status         Status     `json:"status"`
	LastCheckedAt  time.Time  `json:"last_checked_at,omitempty"`
	TriggeredAt    *time.Time `json:"triggered_at,omitempty"`
	ExecutedAt     *time.Time `json:"executed_at,omitempty"`
	ExecutionPrice float64    `json:"execution_price,omitempty"`
	BrokerOrderID  string     `json:"broker_order_id,omitempty"`
	BrokerStatus   string     `json:"broker_status,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasBasePrice reports whether the reference price has been captured.
func (o *TriggerOrder) HasBasePrice() bool { return o.BasePrice > 0 }

// Quote is a point-in-time observation of a symbol's market state.
// Quotes are immutable value objects.
type Quote struct {
	Symbol        string    `json:"symbol"`
	LastPrice     float64   `json:"last_price"`
	PercentChange float64   `json:"percent_change"`
	Volume        float64   `json:"volume"`
	ObservedAt    time.Time `json:"observed_at"`
}

// OrderUpdate is a partial update applied atomically by the order store.
// Nil fields are left untouched.
type OrderUpdate struct {
	BasePrice      *float64
	TargetPrice    *float64
	Status         *Status
	LastCheckedAt  *time.Time
	TriggeredAt    *time.Time
	ExecutedAt     *time.Time
	ExecutionPrice *float64
	BrokerOrderID  *string
	BrokerStatus   *string
	FailureReason  *string
}

// ExecutionResult is what an executor reports back after attempting to place
// a trade with the brokerage.
type ExecutionResult struct {
	Success       bool      `json:"success"`
	BrokerOrderID string    `json:"broker_order_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	ProcessedAt   time.Time `json:"processed_at,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Credentials authenticate an execution against the brokerage. They are
// resolved at execution time and never persisted on the order.
type Credentials struct {
	Username string
	Password string
}

// TickResult summarizes one scheduled evaluation pass over active orders.
type TickResult struct {
	Started    time.Time `json:"started"`
	Active     int       `json:"active"`
	Evaluated  int       `json:"evaluated"`
	Skipped    int       `json:"skipped"`
	Triggered  int       `json:"triggered"`
	Executed   int       `json:"executed"`
	Failed     int       `json:"failed"`
	DurationMs int64     `json:"duration_ms"`
}
