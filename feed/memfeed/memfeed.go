package memfeed

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-shared-list/feed"
)

var _ feed.Source = (*Broker)(nil)

// Broker is an in-process change channel for the in-memory backend and tests.
type Broker struct {
	mu       sync.RWMutex
	handlers map[int]feed.Handler
	nextID   int
	err      error
}

func New() *Broker {
	return &Broker{handlers: make(map[int]feed.Handler)}
}

func (b *Broker) Subscribe(ctx context.Context, handler feed.Handler) (feed.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return nil, b.err
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return &subscription{broker: b, id: id}, nil
}

// Publish delivers an event to every subscriber synchronously.
func (b *Broker) Publish(op string) {
	b.mu.RLock()
	handlers := make([]feed.Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	ev := feed.ParseEvent(op)
	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// FailSubscribe makes Subscribe return err; nil restores it.
func (b *Broker) FailSubscribe(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

type subscription struct {
	broker *Broker
	id     int
	once   sync.Once
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.broker.mu.Lock()
		delete(s.broker.handlers, s.id)
		s.broker.mu.Unlock()
	})
	return nil
}
