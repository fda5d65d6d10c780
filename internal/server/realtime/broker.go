// Package realtime implements the collaborative-edit engine: authenticated
// WebSocket sessions, destination routing for diary commands, and the
// in-process broadcast broker fanning results out to subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Junhyukkkk/anondocs-server/internal/logging"
)

// Subscriber is one delivery handle, owned by a session. The session's
// writer pump drains C; the broker never blocks on a slow subscriber, it
// drops the frame for that subscriber instead.
type Subscriber struct {
	C chan []byte
}

func NewSubscriber(buffer int) *Subscriber {
	return &Subscriber{C: make(chan []byte, buffer)}
}

// Broker is a process-wide pub/sub table mapping topic key to the set of
// active subscriber handles. A single broker instance serves the whole
// process; there is no cross-process fan-out and no delivery guarantee
// beyond best effort to currently connected subscribers.
type Broker struct {
	logger logging.Logger

	mu   sync.RWMutex
	subs map[string]map[*Subscriber]struct{}
	keys map[*Subscriber]map[string]struct{}
}

func NewBroker(logger logging.Logger) *Broker {
	return &Broker{
		logger: logger.With("module", "broker"),
		subs:   make(map[string]map[*Subscriber]struct{}),
		keys:   make(map[*Subscriber]map[string]struct{}),
	}
}

func (b *Broker) Subscribe(key string, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[key] == nil {
		b.subs[key] = make(map[*Subscriber]struct{})
	}
	b.subs[key][sub] = struct{}{}

	if b.keys[sub] == nil {
		b.keys[sub] = make(map[string]struct{})
	}
	b.keys[sub][key] = struct{}{}
}

func (b *Broker) Unsubscribe(key string, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(key, sub)
}

// DropSubscriber removes the handle from every topic it is registered on.
// Called on disconnect so dead handles never accumulate in the table.
func (b *Broker) DropSubscriber(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key := range b.keys[sub] {
		b.removeLocked(key, sub)
	}
}

func (b *Broker) removeLocked(key string, sub *Subscriber) {
	if set, ok := b.subs[key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, key)
		}
	}
	if set, ok := b.keys[sub]; ok {
		delete(set, key)
		if len(set) == 0 {
			delete(b.keys, sub)
		}
	}
}

// Publish marshals the frame once and fans it out to every subscriber of
// key. destination is the client-visible address, which differs from key
// only for per-user queues.
func (b *Broker) Publish(ctx context.Context, key, destination string, body any) {
	raw, err := json.Marshal(ServerFrame{Destination: destination, Body: body})
	if err != nil {
		b.logger.Error(ctx, "marshal broadcast", "destination", destination, "error", err)
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[key] {
		select {
		case sub.C <- raw:
		default:
			b.logger.Warn(ctx, "dropping frame for slow subscriber", "destination", destination)
		}
	}
}

// PublishToUser delivers to the private queue of one principal, addressed
// by email.
func (b *Broker) PublishToUser(ctx context.Context, email, queue string, body any) {
	b.Publish(ctx, userQueueKey(email, queue), queue, body)
}

// SubscriberCount reports the number of handles on a key.
func (b *Broker) SubscriberCount(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[key])
}
