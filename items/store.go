package items

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Store is the client's view of the shared list. Every Fetch replaces the whole
// view; responses that are overtaken by a later Fetch are discarded.
type Store struct {
	repo    Repo
	metrics *metrics.Metrics

	notifyMu sync.Mutex // orders listener delivery
	notified uint64     // seq of the last view handed to listeners

	mu        sync.Mutex
	issued    uint64 // sequence number of the most recently started fetch
	applied   uint64 // sequence number of the fetch that produced items
	items     []ListItem
	listeners map[int]func([]ListItem)
	nextID    int
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithMetrics records fetch outcomes.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewStore] items repo is required")
	}
	s := &Store{
		repo:      repo,
		items:     []ListItem{},
		listeners: make(map[int]func([]ListItem)),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Fetch reloads the list from the backend, dedups it by id and replaces the view.
// It returns the view as it stands afterwards, which is unchanged when the fetch
// failed or was overtaken by a later one.
func (s *Store) Fetch(ctx context.Context) ([]ListItem, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	rows, err := s.repo.List(ctx)
	if err != nil {
		s.metrics.FetchFailed()
		log.Err(err).Uint64("seq", seq).Msg("Error fetching items")
		return s.Items(), errors.Backend(errors.Wrapf(err, "[Store Fetch]"))
	}
	view := Dedup(rows)

	s.mu.Lock()
	if seq != s.issued {
		latest := s.issued
		current := copyItems(s.items)
		s.mu.Unlock()
		s.metrics.FetchDiscarded()
		log.Debug().Uint64("seq", seq).Uint64("latest", latest).Msg("Discarding stale fetch")
		return current, nil
	}
	s.items = view
	s.applied = seq
	s.mu.Unlock()

	s.metrics.FetchApplied()
	s.notify()
	return copyItems(view), nil
}

// notify hands listeners the current view. A view older than one already
// delivered is never delivered.
func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	applied := s.applied
	view := copyItems(s.items)
	listeners := make([]func([]ListItem), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	if applied <= s.notified {
		return
	}
	s.notified = applied
	for _, fn := range listeners {
		fn(copyItems(view))
	}
}

// Items returns a copy of the current view.
func (s *Store) Items() []ListItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.items)
}

// Find returns the item with id from the current view.
func (s *Store) Find(id string) (ListItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return ListItem{}, false
}

// Clear drops the view, used when the session ends.
func (s *Store) Clear() {
	s.mu.Lock()
	s.issued++ // in-flight fetches must not repopulate the view
	s.items = []ListItem{}
	s.mu.Unlock()
}

// OnChange registers fn to receive every applied view. The returned func unregisters it.
func (s *Store) OnChange(fn func([]ListItem)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func copyItems(in []ListItem) []ListItem {
	out := make([]ListItem, len(in))
	copy(out, in)
	return out
}
