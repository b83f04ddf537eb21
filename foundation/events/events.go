// Package events fans node events out to websocket subscribers.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the number of events held for a slow subscriber before
// new events are dropped for it.
const messageBuffer = 100

type subscriber struct {
	ch       chan string
	prefixes []string
}

// wants reports whether the subscriber asked for the message. A subscriber
// without prefixes receives everything.
func (s subscriber) wants(msg string) bool {
	if len(s.prefixes) == 0 {
		return true
	}

	for _, p := range s.prefixes {
		if strings.HasPrefix(msg, p) {
			return true
		}
	}

	return false
}

// Events maintains the set of subscribers keyed by a unique id, usually the
// trace id of the websocket request.
type Events struct {
	mu      sync.RWMutex
	subs    map[string]subscriber
	dropped uint64
}

// New constructs an empty set of subscribers.
func New() *Events {
	return &Events{
		subs: make(map[string]subscriber),
	}
}

// Shutdown closes and removes every subscriber.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.subs {
		delete(evt.subs, id)
		close(sub.ch)
	}
}

// Acquire registers a subscriber and returns the channel it receives events
// on. When prefixes are given only events starting with one of them are
// delivered. Acquiring an id twice returns the existing channel.
func (evt *Events) Acquire(id string, prefixes ...string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.subs[id]; exists {
		return sub.ch
	}

	sub := subscriber{
		ch:       make(chan string, messageBuffer),
		prefixes: prefixes,
	}
	evt.subs[id] = sub

	return sub.ch
}

// Release closes and removes the subscriber registered under id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(sub.ch)

	return nil
}

// Count returns the number of subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Dropped returns the number of events that were not delivered because a
// subscriber's buffer was full.
func (evt *Events) Dropped() uint64 {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return evt.dropped
}

// Send delivers the event to every subscriber that wants it. Send never
// blocks; a full subscriber misses the event.
func (evt *Events) Send(msg string) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for _, sub := range evt.subs {
		if !sub.wants(msg) {
			continue
		}

		select {
		case sub.ch <- msg:
		default:
			evt.dropped++
		}
	}
}
