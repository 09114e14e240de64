package service

import "github.com/iliyamo/hotel-reservation/internal/queue"

// Notifier receives booking events after the state change committed.
// Implementations must not block the caller.
type Notifier interface {
	Notify(ev queue.BookingEvent)
}

// NopNotifier drops every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(queue.BookingEvent) {}
