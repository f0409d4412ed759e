package events

import (
	"fmt"
	"sync"

	"github.com/globalfoundation/gnf/logx"
	"github.com/google/uuid"
)

const subscriberBuffer = 50

type SubscriberID string

type Subscriber struct {
	ID      SubscriberID
	Channel chan LedgerEvent
	// types is nil for a subscriber that wants everything.
	types map[EventType]struct{}
}

func (s *Subscriber) wants(t EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// EventBus fans ledger events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[SubscriberID]*Subscriber
	dropped     map[SubscriberID]uint64
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[SubscriberID]*Subscriber),
		dropped:     make(map[SubscriberID]uint64),
	}
}

// Subscribe registers a subscriber for the given event types, or for every type when
// none are given.
func (eb *EventBus) Subscribe(types ...EventType) (SubscriberID, chan LedgerEvent) {
	return eb.SubscribeBuffered(subscriberBuffer, types...)
}

// SubscribeBuffered is Subscribe with a channel of size events. Sizes below one get the
// default buffer.
func (eb *EventBus) SubscribeBuffered(size int, types ...EventType) (SubscriberID, chan LedgerEvent) {
	if size < 1 {
		size = subscriberBuffer
	}
	eb.mu.Lock()
	defer eb.mu.Unlock()

	id := SubscriberID(uuid.Must(uuid.NewV7()).String())
	sub := &Subscriber{ID: id, Channel: make(chan LedgerEvent, size)}
	if len(types) > 0 {
		sub.types = make(map[EventType]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}
	eb.subscribers[id] = sub

	logx.Debug("EVENTBUS", fmt.Sprintf("subscribed | subscriber_id=%s | types=%v | total_subscribers=%d", id, types, len(eb.subscribers)))
	return id, sub.Channel
}

// Unsubscribe removes a subscription and closes its channel.
func (eb *EventBus) Unsubscribe(id SubscriberID) bool {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sub, ok := eb.subscribers[id]
	if !ok {
		return false
	}
	if n := eb.dropped[id]; n > 0 {
		logx.Warn("EVENTBUS", fmt.Sprintf("subscriber %s left after missing %d events", id, n))
	}
	delete(eb.subscribers, id)
	delete(eb.dropped, id)
	close(sub.Channel)
	return true
}

func (eb *EventBus) Publish(event LedgerEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for id, sub := range eb.subscribers {
		if !sub.wants(event.Type()) {
			continue
		}
		select {
		case sub.Channel <- event:
		default:
			eb.dropped[id]++
			logx.Warn("EVENTBUS", fmt.Sprintf("subscriber channel full | subscriber_id=%s | event_type=%s", id, event.Type()))
		}
	}
}

// Dropped is how many events id has missed because its buffer was full.
func (eb *EventBus) Dropped(id SubscriberID) uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.dropped[id]
}

func (eb *EventBus) GetTotalSubscriptions() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

func (eb *EventBus) HasSubscriber(id SubscriberID) bool {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	_, ok := eb.subscribers[id]
	return ok
}
