package notify

import (
	"time"

	"trigger-trading-bot/internal/types"
)

// Kind discriminates the JSON messages exchanged with observers.
type Kind string

const (
	KindPriceUpdate         Kind = "PRICE_UPDATE"
	KindOrderStatusUpdate   Kind = "ORDER_STATUS_UPDATE"
	KindTriggerNotification Kind = "TRIGGER_NOTIFICATION"

	// Subscription management, observer -> server
	KindSubscribeSymbol   Kind = "SUBSCRIBE_SYMBOL"
	KindUnsubscribeSymbol Kind = "UNSUBSCRIBE_SYMBOL"
	KindSubscribeOrder    Kind = "SUBSCRIBE_ORDER"
	KindUnsubscribeOrder  Kind = "UNSUBSCRIBE_ORDER"

	// Server -> observer control messages
	KindSubscriptionConfirmed Kind = "SUBSCRIPTION_CONFIRMED"
	KindConnectionEstablished Kind = "CONNECTION_ESTABLISHED"
	KindError                 Kind = "ERROR"
)

// Topic identifies a fan-out channel: "symbol:<SYM>" or "order:<ID>".
type Topic string

// SymbolTopic returns the topic carrying price updates for a symbol
func SymbolTopic(symbol string) Topic { return Topic("symbol:" + symbol) }

// OrderTopic returns the topic carrying status updates for an order
func OrderTopic(orderID string) Topic { return Topic("order:" + orderID) }

// Event is the JSON-shaped message delivered to observers. Unused fields are
// omitted per kind.
type Event struct {
	Kind          Kind      `json:"type"`
	Symbol        string    `json:"symbol,omitempty"`
	OrderID       string    `json:"order_id,omitempty"`
	Side          string    `json:"side,omitempty"`
	Quantity      int       `json:"quantity,omitempty"`
	Status        string    `json:"status,omitempty"`
	Price         float64   `json:"price,omitempty"`
	PercentChange float64   `json:"percent_change,omitempty"`
	Volume        float64   `json:"volume,omitempty"`
	TargetPrice   float64   `json:"target_price,omitempty"`
	FiringPrice   float64   `json:"firing_price,omitempty"`
	LastCheckedAt time.Time `json:"last_checked_at,omitempty"`
	Topic         Topic     `json:"topic,omitempty"`
	Message       string    `json:"message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// PriceUpdate builds the event published to a symbol's subscribers on every
// evaluated quote.
func PriceUpdate(q types.Quote) Event {
	return Event{
		Kind:          KindPriceUpdate,
		Symbol:        q.Symbol,
		Price:         q.LastPrice,
		PercentChange: q.PercentChange,
		Volume:        q.Volume,
		Timestamp:     time.Now(),
	}
}

// OrderStatusUpdate builds the event published to an order's subscribers
// after an evaluation, whether or not the status changed.
func OrderStatusUpdate(o types.TriggerOrder) Event {
	return Event{
		Kind:          KindOrderStatusUpdate,
		OrderID:       o.ID,
		Symbol:        o.Symbol,
		Status:        string(o.Status),
		TargetPrice:   o.TargetPrice,
		LastCheckedAt: o.LastCheckedAt,
		Timestamp:     time.Now(),
	}
}

// TriggerNotification builds the event published when a trigger fires. It is
// distinct from a plain status update: it carries the firing price, and it
// goes to both the order's and the symbol's subscribers.
func TriggerNotification(o types.TriggerOrder, firingPrice float64) Event {
	return Event{
		Kind:        KindTriggerNotification,
		OrderID:     o.ID,
		Symbol:      o.Symbol,
		Side:        string(o.Side),
		Quantity:    o.Quantity,
		Status:      string(o.Status),
		TargetPrice: o.TargetPrice,
		FiringPrice: firingPrice,
		Timestamp:   time.Now(),
	}
}
