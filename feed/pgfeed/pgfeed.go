package pgfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-shared-list/feed"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

var _ feed.Source = (*Feed)(nil)

// Feed listens for NOTIFY messages sent by the list_items trigger.
type Feed struct {
	connStr string
	channel string
}

func New(connStr, channel string) *Feed {
	return &Feed{connStr: connStr, channel: channel}
}

func (f *Feed) Subscribe(ctx context.Context, handler feed.Handler) (feed.Subscription, error) {
	listener := pq.NewListener(f.connStr, minReconnectInterval, maxReconnectInterval, logListenerEvent)
	if err := listener.Listen(f.channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("[pgfeed Subscribe] listen %s: %w", f.channel, err)
	}
	log.Info().Str("channel", f.channel).Msg("Listening for list changes")

	subCtx, cancel := context.WithCancel(ctx)
	s := &subscription{listener: listener, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(s.done)
		pump(subCtx, listener.Notify, listener.Ping, pingInterval, handler)
	}()
	return s, nil
}

// pump forwards notifications. lib/pq sends nil after a reconnect; notifications
// may have been lost while disconnected, so that also counts as a change.
func pump(ctx context.Context, notify <-chan *pq.Notification, ping func() error, every time.Duration, handler feed.Handler) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notify:
			if !ok {
				return
			}
			if n == nil {
				handler(feed.Event{Op: feed.OpUnknown, ReceivedAt: time.Now()})
				continue
			}
			handler(feed.ParseEvent(n.Extra))
		case <-ticker.C:
			if err := ping(); err != nil {
				log.Err(err).Msg("Change listener ping failed")
			}
		}
	}
}

func logListenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		log.Err(err).Int("event", int(ev)).Msg("Change listener connection problem")
	case pq.ListenerEventReconnected:
		log.Info().Msg("Change listener reconnected")
	}
}

type subscription struct {
	listener *pq.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
	err      error
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.err = s.listener.Close()
	})
	return s.err
}
