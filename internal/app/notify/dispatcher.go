// Package notify fans playback events out to UI subscribers.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/cueplay/cueplay/internal/app/playback"
)

// sendTimeout bounds how long a single subscriber may block a broadcast.
const sendTimeout = 1 * time.Second

// Listener receives broadcast notifications.
type Listener interface {
	Notify(n Notification) error
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(n Notification) error

// Notify implements Listener.
func (f ListenerFunc) Notify(n Notification) error {
	return f(n)
}

// Notification wraps a playback event with delivery bookkeeping.
type Notification struct {
	SequenceNo uint64 // Monotonically increasing per dispatcher
	Event      playback.Event
	At         time.Time
}

// subscription represents a subscriber's registration.
type subscription struct {
	id       string
	listener Listener
}

// Dispatcher manages subscriptions and broadcasts playback events.
type Dispatcher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewDispatcher creates a dispatcher with no subscribers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe registers a listener and returns its subscription id.
func (d *Dispatcher) Subscribe(l Listener) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := uuid.New().String()
	d.subscriptions[id] = &subscription{id: id, listener: l}
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (d *Dispatcher) Unsubscribe(subscriptionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subscriptions, subscriptionID)
}

// SubscriberCount returns the number of active subscriptions.
func (d *Dispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscriptions)
}

// Broadcast delivers an event to every subscriber. Each delivery runs in
// its own goroutine with a timeout so one slow listener cannot stall the
// rest; Broadcast returns once every delivery finished or timed out.
func (d *Dispatcher) Broadcast(e playback.Event) {
	d.sequenceNoMu.Lock()
	d.sequenceNo++
	n := Notification{
		SequenceNo: d.sequenceNo,
		Event:      e,
		At:         time.Now(),
	}
	d.sequenceNoMu.Unlock()

	d.mu.RLock()
	subs := make([]*subscription, 0, len(d.subscriptions))
	for _, sub := range d.subscriptions {
		subs = append(subs, sub)
	}
	d.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()

			done := make(chan error, 1)
			go func() {
				done <- s.listener.Notify(n)
			}()
			select {
			case err := <-done:
				if err != nil {
					zlog.Warn().Err(err).Str("subscription", s.id).Msg("notify: listener failed")
				}
			case <-time.After(sendTimeout):
				zlog.Warn().Str("subscription", s.id).Msg("notify: delivery timed out")
			}
		}(sub)
	}
	wg.Wait()
}

// Run drains the given event channel, broadcasting each event. It returns
// when the channel is closed; run it in its own goroutine.
func (d *Dispatcher) Run(events <-chan playback.Event) {
	for e := range events {
		d.Broadcast(e)
	}
}
