// Package events is the minimal in-process publish/subscribe facility
// that the booking coordinator and lifecycle scheduler use to announce
// domain events. Publication never blocks or fails the originating
// transaction: a slow subscriber whose buffer is full loses the event
// (it is dropped and logged), and the caller is never held up.
package events

import (
	"log/slog"
	"sync"
)

type Topic string

const (
	ReservationCreated   Topic = "ReservationCreated"
	ReservationConfirmed Topic = "ReservationConfirmed"
	ReservationCancelled Topic = "ReservationCancelled"
	ReservationRejected  Topic = "ReservationRejected"
	ReservationStarted   Topic = "ReservationStarted"
	ReservationFinished  Topic = "ReservationFinished"
	ReminderDue          Topic = "ReminderDue"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Topic   Topic
	Payload any
}

// Subscriber receives events on Ch until Unsubscribe closes it. Slow
// subscribers are given a small buffer; if it fills, the event is
// dropped for that subscriber and logged, never blocking the publisher.
type Subscriber struct {
	Ch chan Event
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscriber]struct{}
	logger      *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[*Subscriber]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new subscriber with a bounded buffer. Callers
// must call Unsubscribe when done (e.g. on WebSocket disconnect).
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{Ch: make(chan Event, 32)}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	delete(b.subscribers, sub)
	b.mu.Unlock()
	close(sub.Ch)
}

// Publish fans an event out to every current subscriber without
// blocking the caller.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ev := Event{Topic: topic, Payload: payload}
	for sub := range b.subscribers {
		select {
		case sub.Ch <- ev:
		default:
			b.logger.Warn("dropping event for slow subscriber", "topic", topic)
		}
	}
}
