// Package executor places triggered orders with the brokerage, either
// through the TMS order API or by driving the browser automation script.
package executor

import (
	"context"
	"fmt"
	"time"

	"trigger-trading-bot/internal/api"
	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/types"
)

// APIExecutor submits orders over the TMS HTTP API. It is the fast path:
// one POST, broker order id back.
type APIExecutor struct {
	client *api.Client
	creds  interfaces.CredentialProvider
}

var _ interfaces.OrderExecutor = (*APIExecutor)(nil)

// NewAPIExecutor builds the executor over a configured HTTP client
func NewAPIExecutor(baseURL string, timeout time.Duration, creds interfaces.CredentialProvider, opts ...api.ClientOption) *APIExecutor {
	clientOpts := append([]api.ClientOption{
		api.WithBaseURL(baseURL),
		api.WithTimeout(timeout),
		api.WithLogging(true),
	}, opts...)

	return &APIExecutor{
		client: api.NewClient(clientOpts...),
		creds:  creds,
	}
}

func (e *APIExecutor) Name() string { return "api" }

type orderRequest struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	Symbol    string  `json:"symbol"`
	Quantity  int     `json:"quantity"`
	OrderType string  `json:"order_type"`
	Price     float64 `json:"price"`
}

type orderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Execute places the order at the given price. A non-2xx response or a
// rejected payload is returned as an unsuccessful result, not an error, so
// the caller can distinguish broker rejection from transport failure.
func (e *APIExecutor) Execute(ctx context.Context, order types.TriggerOrder, price float64) (types.ExecutionResult, error) {
	creds, err := e.creds.Get(ctx, order.ID)
	if err != nil {
		return types.ExecutionResult{}, fmt.Errorf("failed to resolve credentials: %w", err)
	}

	payload := orderRequest{
		Username:  creds.Username,
		Password:  creds.Password,
		Symbol:    order.Symbol,
		Quantity:  order.Quantity,
		OrderType: sideToOrderType(order.Side),
		Price:     price,
	}

	resp, err := e.client.POST(ctx, "/orders", payload)
	if err != nil {
		return types.ExecutionResult{}, fmt.Errorf("order submission failed: %w", err)
	}

	var body orderResponse
	if err := resp.ParseJSON(&body); err != nil {
		return types.ExecutionResult{}, err
	}

	result := types.ExecutionResult{
		Success:       body.Success,
		BrokerOrderID: body.OrderID,
		Status:        body.Status,
		ProcessedAt:   time.Now(),
	}
	if !body.Success {
		result.Error = body.Message
		if result.Error == "" {
			result.Error = "order rejected"
		}
	}
	return result, nil
}

func sideToOrderType(side types.Side) string {
	if side == types.SideSell {
		return "sell"
	}
	return "buy"
}
