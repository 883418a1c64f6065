package feed

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/metrics"
	"github.com/jrsteele09/go-shared-list/items"
	"github.com/rs/zerolog/log"
)

// Refresher reloads the whole list.
type Refresher interface {
	Fetch(ctx context.Context) ([]items.ListItem, error)
}

// ChangeSubscriber turns every feed event into a full list refresh.
type ChangeSubscriber struct {
	source    Source
	refresher Refresher
	metrics   *metrics.Metrics

	mu       sync.Mutex
	sub      Subscription
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// SubscriberOption defines a function type to modify the ChangeSubscriber instance.
type SubscriberOption func(*ChangeSubscriber)

func WithMetrics(m *metrics.Metrics) SubscriberOption {
	return func(c *ChangeSubscriber) {
		c.metrics = m
	}
}

func NewChangeSubscriber(source Source, refresher Refresher, options ...SubscriberOption) (*ChangeSubscriber, error) {
	if source == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewChangeSubscriber] feed source is required")
	}
	if refresher == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewChangeSubscriber] refresher is required")
	}
	c := &ChangeSubscriber{source: source, refresher: refresher}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Start subscribes to the source. Starting twice is an error; Close first.
func (c *ChangeSubscriber) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sub != nil {
		return errors.Wrapf(errors.ErrUnsupported, "[ChangeSubscriber Start] already subscribed")
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub, err := c.source.Subscribe(subCtx, func(ev Event) {
		c.handle(subCtx, ev)
	})
	if err != nil {
		cancel()
		log.Err(err).Msg("Error subscribing to change feed")
		return errors.Backend(errors.Wrapf(err, "[ChangeSubscriber Start]"))
	}
	c.sub = sub
	c.cancel = cancel
	log.Debug().Msg("Subscribed to list changes")
	return nil
}

func (c *ChangeSubscriber) handle(ctx context.Context, ev Event) {
	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	c.metrics.FeedEvent()
	log.Debug().Str("op", ev.Op).Msg("Change received")

	go func() {
		defer c.inflight.Done()
		// errors are logged by the store and the view is left as is
		_, _ = c.refresher.Fetch(ctx)
	}()
}

// Close releases the subscription and waits for in-flight refreshes.
// It is safe to call more than once.
func (c *ChangeSubscriber) Close() error {
	c.mu.Lock()
	sub, cancel := c.sub, c.cancel
	c.sub, c.cancel = nil, nil
	if cancel != nil {
		cancel()
	}
	c.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	c.inflight.Wait()
	return err
}

// Active reports whether a subscription is held.
func (c *ChangeSubscriber) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub != nil
}
