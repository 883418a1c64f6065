package feed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-shared-list/feed"
	"github.com/jrsteele09/go-shared-list/feed/memfeed"
	ierrors "github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/metrics"
	"github.com/jrsteele09/go-shared-list/items"
	fakeitemrepo "github.com/jrsteele09/go-shared-list/items/repofake"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	broker *memfeed.Broker
	repo   *fakeitemrepo.FakeItemRepo
	store  *items.Store
	sub    *feed.ChangeSubscriber
	m      *metrics.Metrics
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{broker: memfeed.New(), repo: fakeitemrepo.NewFakeItemRepo(), m: metrics.New()}
	f.repo.SetNotifier(f.broker.Publish)

	var err error
	f.store, err = items.NewStore(f.repo)
	require.NoError(t, err)
	f.sub, err = feed.NewChangeSubscriber(f.broker, f.store, feed.WithMetrics(f.m))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.sub.Close() })
	return f
}

func TestChangeSubscriber_RefreshesOnAnyEvent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.sub.Start(ctx))
	require.True(t, f.sub.Active())

	// a write made by another client reaches us only through the feed
	it, err := f.repo.Insert(ctx, items.NewItem{Text: "Milk", CreatedBy: "other-device"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(f.store.Items()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.repo.SetCompleted(ctx, it.ID, true))
	require.Eventually(t, func() bool {
		got, ok := f.store.Find(it.ID)
		return ok && got.Completed
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, f.repo.Delete(ctx, it.ID))
	require.Eventually(t, func() bool { return len(f.store.Items()) == 0 }, time.Second, 5*time.Millisecond)

	require.Equal(t, 3.0, testutil.ToFloat64(f.m.FeedEvents()))
}

func TestChangeSubscriber_CloseReleases(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.sub.Start(context.Background()))
	require.Equal(t, 1, f.broker.Subscribers())

	require.NoError(t, f.sub.Close())
	require.NoError(t, f.sub.Close(), "closing twice is fine")
	require.Equal(t, 0, f.broker.Subscribers())
	require.False(t, f.sub.Active())

	// after teardown events no longer refresh
	f.broker.Publish(feed.OpInsert)
	require.Equal(t, 0.0, testutil.ToFloat64(f.m.FeedEvents()))
}

func TestChangeSubscriber_CloseOnContextCancel(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, f.sub.Start(ctx))
	cancel()

	f.broker.Publish(feed.OpUpdate)
	require.Equal(t, 0.0, testutil.ToFloat64(f.m.FeedEvents()))
}

func TestChangeSubscriber_StartTwice(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.sub.Start(context.Background()))
	require.Error(t, f.sub.Start(context.Background()))

	require.NoError(t, f.sub.Close())
	require.NoError(t, f.sub.Start(context.Background()), "can restart after close")
}

func TestChangeSubscriber_SubscribeFailure(t *testing.T) {
	f := setup(t)
	f.broker.FailSubscribe(errors.New("channel error"))

	err := f.sub.Start(context.Background())
	require.Error(t, err)
	require.True(t, ierrors.Is(err, ierrors.ErrBackend))
	require.False(t, f.sub.Active())
}

func TestNewChangeSubscriber_Validation(t *testing.T) {
	_, err := feed.NewChangeSubscriber(nil, nil)
	require.Error(t, err)
	_, err = feed.NewChangeSubscriber(memfeed.New(), nil)
	require.Error(t, err)
}
