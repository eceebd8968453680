package notify

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WSServer exposes the bus to external observers over a persistent
// websocket connection per observer. Observers manage their own
// subscriptions with SUBSCRIBE_*/UNSUBSCRIBE_* messages.
type WSServer struct {
	bus      *Bus
	upgrader websocket.Upgrader
	sendBuf  int

	mu    sync.Mutex
	conns map[*wsObserver]struct{}
	srv   *http.Server
}

// NewWSServer creates a websocket front for the bus. sendBuf is the
// per-observer event buffer; an observer whose buffer is full has events
// dropped rather than queued.
func NewWSServer(bus *Bus, sendBuf int) *WSServer {
	if sendBuf < 1 {
		sendBuf = 16
	}
	return &WSServer{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBuf: sendBuf,
		conns:   make(map[*wsObserver]struct{}),
	}
}

// Start serves the /ws endpoint on addr in a background goroutine
func (s *WSServer) Start(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorWithErr(context.Background(), "Websocket server stopped", err, "addr", addr)
		}
	}()
}

// Shutdown closes the listener and every open observer connection
func (s *WSServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for obs := range s.conns {
		obs.close()
	}
	s.conns = make(map[*wsObserver]struct{})
	s.mu.Unlock()

	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}

// HandleWS upgrades the request and runs the observer's read loop
func (s *WSServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context(), "Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	obs := &wsObserver{
		conn: conn,
		send: make(chan Event, s.sendBuf),
		quit: make(chan struct{}),
	}

	s.mu.Lock()
	s.conns[obs] = struct{}{}
	s.mu.Unlock()
	metrics.Observers.Inc()

	logger.Info(r.Context(), "Observer connected", "remote", r.RemoteAddr)

	obs.Deliver(Event{
		Kind:      KindConnectionEstablished,
		Message:   "connected",
		Timestamp: time.Now(),
	})

	go obs.writePump()
	s.readPump(r.Context(), obs)

	s.bus.DropObserver(obs)
	obs.close()

	s.mu.Lock()
	delete(s.conns, obs)
	s.mu.Unlock()
	metrics.Observers.Dec()

	logger.Info(r.Context(), "Observer disconnected", "remote", r.RemoteAddr)
}

// subscriptionRequest is what observers send to manage subscriptions
type subscriptionRequest struct {
	Type    Kind   `json:"type"`
	Symbol  string `json:"symbol,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

// readPump consumes subscription messages until the connection drops
func (s *WSServer) readPump(ctx context.Context, obs *wsObserver) {
	obs.conn.SetReadLimit(1024)
	_ = obs.conn.SetReadDeadline(time.Now().Add(pongWait))
	obs.conn.SetPongHandler(func(string) error {
		return obs.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req subscriptionRequest
		if err := obs.conn.ReadJSON(&req); err != nil {
			return
		}

		topic, ok := s.topicFor(req)
		if !ok {
			obs.Deliver(Event{
				Kind:      KindError,
				Message:   "unknown or incomplete subscription request",
				Timestamp: time.Now(),
			})
			continue
		}

		switch req.Type {
		case KindSubscribeSymbol, KindSubscribeOrder:
			s.bus.Subscribe(obs, topic)
		case KindUnsubscribeSymbol, KindUnsubscribeOrder:
			s.bus.Unsubscribe(obs, topic)
		}

		logger.Debug(ctx, "Subscription updated", "type", req.Type, "topic", topic)
		obs.Deliver(Event{
			Kind:      KindSubscriptionConfirmed,
			Topic:     topic,
			Message:   string(req.Type),
			Timestamp: time.Now(),
		})
	}
}

func (s *WSServer) topicFor(req subscriptionRequest) (Topic, bool) {
	switch req.Type {
	case KindSubscribeSymbol, KindUnsubscribeSymbol:
		if req.Symbol == "" {
			return "", false
		}
		return SymbolTopic(req.Symbol), true
	case KindSubscribeOrder, KindUnsubscribeOrder:
		if req.OrderID == "" {
			return "", false
		}
		return OrderTopic(req.OrderID), true
	}
	return "", false
}

// wsObserver is one connected observer. Deliver is non-blocking: a full
// send buffer means the event is dropped for this observer.
type wsObserver struct {
	conn   *websocket.Conn
	send   chan Event
	quit   chan struct{}
	closed atomic.Bool
}

var _ Observer = (*wsObserver)(nil)

func (o *wsObserver) Deliver(ev Event) bool {
	if o.closed.Load() {
		return false
	}
	select {
	case o.send <- ev:
		return true
	default:
		return false
	}
}

func (o *wsObserver) close() {
	if o.closed.CompareAndSwap(false, true) {
		close(o.quit)
		_ = o.conn.Close()
	}
}

func (o *wsObserver) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-o.send:
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteJSON(ev); err != nil {
				o.close()
				return
			}
		case <-ticker.C:
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				o.close()
				return
			}
		case <-o.quit:
			return
		}
	}
}
