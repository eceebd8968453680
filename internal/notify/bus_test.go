package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trigger-trading-bot/internal/types"
)

type recordingObserver struct {
	events []Event
	ready  bool
}

func (o *recordingObserver) Deliver(ev Event) bool {
	if !o.ready {
		return false
	}
	o.events = append(o.events, ev)
	return true
}

func TestBusPublishReachesSubscribers(t *testing.T) {
	bus := NewBus()
	obs := &recordingObserver{ready: true}

	bus.Subscribe(obs, SymbolTopic("GMLI"))
	bus.Publish(SymbolTopic("GMLI"), PriceUpdate(types.Quote{Symbol: "GMLI", LastPrice: 2424}))

	assert.Len(t, obs.events, 1)
	assert.Equal(t, KindPriceUpdate, obs.events[0].Kind)
	assert.Equal(t, 2424.0, obs.events[0].Price)
}

func TestBusPublishSkipsOtherTopics(t *testing.T) {
	bus := NewBus()
	obs := &recordingObserver{ready: true}

	bus.Subscribe(obs, SymbolTopic("GMLI"))
	bus.Publish(SymbolTopic("NABIL"), PriceUpdate(types.Quote{Symbol: "NABIL"}))

	assert.Empty(t, obs.events)
}

func TestBusDuplicateSubscribeDeliversOnce(t *testing.T) {
	bus := NewBus()
	obs := &recordingObserver{ready: true}

	bus.Subscribe(obs, OrderTopic("42"))
	bus.Subscribe(obs, OrderTopic("42"))
	bus.Publish(OrderTopic("42"), Event{Kind: KindOrderStatusUpdate})

	assert.Len(t, obs.events, 1)
	assert.Equal(t, 1, bus.SubscriberCount(OrderTopic("42")))
}

func TestBusDropOnNotReady(t *testing.T) {
	bus := NewBus()
	obs := &recordingObserver{ready: false}

	bus.Subscribe(obs, SymbolTopic("GMLI"))
	// Delivery is fire-and-forget: a not-ready observer loses the event and
	// nothing blocks.
	bus.Publish(SymbolTopic("GMLI"), Event{Kind: KindPriceUpdate})

	assert.Empty(t, obs.events)
	assert.Equal(t, 1, bus.SubscriberCount(SymbolTopic("GMLI")))
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	obs := &recordingObserver{ready: true}

	bus.Subscribe(obs, SymbolTopic("GMLI"))
	bus.Unsubscribe(obs, SymbolTopic("GMLI"))
	bus.Publish(SymbolTopic("GMLI"), Event{Kind: KindPriceUpdate})

	assert.Empty(t, obs.events)
	assert.Equal(t, 0, bus.SubscriberCount(SymbolTopic("GMLI")))
}

func TestBusDropObserverClearsAllSubscriptions(t *testing.T) {
	bus := NewBus()
	obs := &recordingObserver{ready: true}
	other := &recordingObserver{ready: true}

	bus.Subscribe(obs, SymbolTopic("GMLI"))
	bus.Subscribe(obs, OrderTopic("42"))
	bus.Subscribe(other, SymbolTopic("GMLI"))

	bus.DropObserver(obs)

	bus.Publish(SymbolTopic("GMLI"), Event{Kind: KindPriceUpdate})
	bus.Publish(OrderTopic("42"), Event{Kind: KindOrderStatusUpdate})

	assert.Empty(t, obs.events)
	assert.Len(t, other.events, 1)
}

func TestTriggerNotificationCarriesFiringPrice(t *testing.T) {
	o := types.TriggerOrder{
		ID:          "7",
		Symbol:      "GMLI",
		Side:        types.SideBuy,
		Quantity:    10,
		Status:      types.StatusTriggered,
		TargetPrice: 2618.0,
	}
	ev := TriggerNotification(o, 2620.5)

	assert.Equal(t, KindTriggerNotification, ev.Kind)
	assert.Equal(t, "7", ev.OrderID)
	assert.Equal(t, 2618.0, ev.TargetPrice)
	assert.Equal(t, 2620.5, ev.FiringPrice)
}
