package redisfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-shared-list/feed"
	"github.com/jrsteele09/go-shared-list/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const connectTimeout = 5 * time.Second

var _ feed.Source = (*Feed)(nil)

// Feed carries list change notifications over Redis Pub/Sub.
type Feed struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	channel    string
}

// New connects to Redis using the feed configuration.
func New(ctx context.Context, cfg config.FeedConfig) (*Feed, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[redisfeed New] failed to connect to Redis: %w", err)
	}

	return &Feed{client: client, ownsClient: true, channel: cfg.GetFeedChannel()}, nil
}

// NewWithClient uses an existing client. The caller keeps ownership of it.
func NewWithClient(client *redis.Client, channel string) *Feed {
	return &Feed{client: client, channel: channel}
}

// Subscribe listens on the channel until ctx is done or the subscription is closed.
func (f *Feed) Subscribe(ctx context.Context, handler feed.Handler) (feed.Subscription, error) {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := f.client.Subscribe(subCtx, f.channel)

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("[redisfeed Subscribe] failed to subscribe to channel: %w", err)
	}
	log.Info().Str("channel", f.channel).Msg("Subscribed to change channel")

	s := &subscription{pubsub: pubsub, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		pump(subCtx, pubsub.Channel(), handler)
	}()
	return s, nil
}

// Publish announces a change. Writers call it after a successful write.
func (f *Feed) Publish(ctx context.Context, op string) error {
	if err := f.client.Publish(ctx, f.channel, feed.EncodeEvent(op, "list_items")).Err(); err != nil {
		return fmt.Errorf("[redisfeed Publish] %w", err)
	}
	return nil
}

// Close releases the client if this feed created it.
func (f *Feed) Close() error {
	if f.ownsClient {
		return f.client.Close()
	}
	return nil
}

func pump(ctx context.Context, ch <-chan *redis.Message, handler feed.Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				log.Warn().Msg("Change channel closed")
				return
			}
			handler(feed.ParseEvent(msg.Payload))
		}
	}
}

type subscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.err = s.pubsub.Close()
		<-s.done
	})
	return s.err
}
