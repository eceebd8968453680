package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigger-trading-bot/internal/types"
)

func testCreds() *StaticCredentialProvider {
	return &StaticCredentialProvider{
		Creds: types.Credentials{Username: "trader", Password: "secret"},
	}
}

func TestAPIExecutorSuccess(t *testing.T) {
	var received orderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(orderResponse{
			Success: true,
			OrderID: "TMS-889",
			Status:  "FILLED",
		})
	}))
	defer srv.Close()

	exec := NewAPIExecutor(srv.URL, 5*time.Second, testCreds())
	order := types.TriggerOrder{
		ID: "7", Symbol: "GMLI", Quantity: 10, Side: types.SideBuy,
	}

	result, err := exec.Execute(context.Background(), order, 2620.0)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "TMS-889", result.BrokerOrderID)
	assert.Equal(t, "FILLED", result.Status)

	assert.Equal(t, "trader", received.Username)
	assert.Equal(t, "GMLI", received.Symbol)
	assert.Equal(t, 10, received.Quantity)
	assert.Equal(t, "buy", received.OrderType)
	assert.Equal(t, 2620.0, received.Price)
}

func TestAPIExecutorRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(orderResponse{
			Success: false,
			Message: "market closed",
		})
	}))
	defer srv.Close()

	exec := NewAPIExecutor(srv.URL, 5*time.Second, testCreds())
	result, err := exec.Execute(context.Background(), types.TriggerOrder{
		ID: "7", Symbol: "GMLI", Quantity: 10, Side: types.SideSell,
	}, 2230.0)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "market closed", result.Error)
}

func TestAPIExecutorTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	exec := NewAPIExecutor(srv.URL, 5*time.Second, testCreds())
	_, err := exec.Execute(context.Background(), types.TriggerOrder{
		ID: "7", Symbol: "GMLI", Quantity: 10, Side: types.SideBuy,
	}, 2620.0)
	assert.Error(t, err)
}

func TestSideToOrderType(t *testing.T) {
	assert.Equal(t, "buy", sideToOrderType(types.SideBuy))
	assert.Equal(t, "sell", sideToOrderType(types.SideSell))
}
