package interfaces

import "trigger-trading-bot/internal/notify"

// Publisher is the slice of the notification bus the monitor needs.
type Publisher interface {
	Publish(topic notify.Topic, ev notify.Event)
}
