package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigger-trading-bot/internal/types"
)

func dialTestServer(t *testing.T, srv *WSServer) *websocket.Conn {
	t.Helper()
	hs := httptest.NewServer(http.HandlerFunc(srv.HandleWS))
	t.Cleanup(hs.Close)

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	var ev Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestWSConnectionEstablished(t *testing.T) {
	bus := NewBus()
	srv := NewWSServer(bus, 4)

	conn := dialTestServer(t, srv)

	ev := readEvent(t, conn)
	assert.Equal(t, KindConnectionEstablished, ev.Kind)
}

func TestWSSubscribeAndReceive(t *testing.T) {
	bus := NewBus()
	srv := NewWSServer(bus, 4)

	conn := dialTestServer(t, srv)
	readEvent(t, conn) // CONNECTION_ESTABLISHED

	require.NoError(t, conn.WriteJSON(subscriptionRequest{
		Type:   KindSubscribeSymbol,
		Symbol: "GMLI",
	}))

	ev := readEvent(t, conn)
	require.Equal(t, KindSubscriptionConfirmed, ev.Kind)
	assert.Equal(t, SymbolTopic("GMLI"), ev.Topic)

	// Wait until the subscription is registered, then publish
	require.Eventually(t, func() bool {
		return bus.SubscriberCount(SymbolTopic("GMLI")) == 1
	}, time.Second, 10*time.Millisecond)

	bus.Publish(SymbolTopic("GMLI"), PriceUpdate(types.Quote{Symbol: "GMLI", LastPrice: 2424}))

	ev = readEvent(t, conn)
	assert.Equal(t, KindPriceUpdate, ev.Kind)
	assert.Equal(t, 2424.0, ev.Price)
}

func TestWSUnknownSubscriptionKind(t *testing.T) {
	bus := NewBus()
	srv := NewWSServer(bus, 4)

	conn := dialTestServer(t, srv)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(subscriptionRequest{Type: Kind("NONSENSE")}))

	ev := readEvent(t, conn)
	assert.Equal(t, KindError, ev.Kind)
}

func TestWSDisconnectCleansSubscriptions(t *testing.T) {
	bus := NewBus()
	srv := NewWSServer(bus, 4)

	conn := dialTestServer(t, srv)
	readEvent(t, conn)

	require.NoError(t, conn.WriteJSON(subscriptionRequest{
		Type:    KindSubscribeOrder,
		OrderID: "42",
	}))
	readEvent(t, conn)

	require.Eventually(t, func() bool {
		return bus.SubscriberCount(OrderTopic("42")) == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return bus.SubscriberCount(OrderTopic("42")) == 0
	}, time.Second, 10*time.Millisecond)
}
