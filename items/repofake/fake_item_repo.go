package fakeitemrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/items"
)

var _ items.Repo = (*FakeItemRepo)(nil)

// NameLookup resolves a creator's display name for the joined read view.
type NameLookup func(userID string) string

type row struct {
	item items.ListItem
	seq  int
}

type FakeItemRepo struct {
	rows       map[string]*row
	seq        int
	names      NameLookup
	duplicates bool
	notify     func(op string)
	beforeList func()
	now        func() time.Time
	err        error
	lock       sync.RWMutex
}

// Option defines a function type to modify the FakeItemRepo instance.
type Option func(*FakeItemRepo)

// WithNames joins creator names from lookup.
func WithNames(lookup NameLookup) Option {
	return func(r *FakeItemRepo) {
		r.names = lookup
	}
}

// WithNotifier calls notify with "INSERT", "UPDATE" or "DELETE" after every write,
// the way a database trigger feeds the change channel.
func WithNotifier(notify func(op string)) Option {
	return func(r *FakeItemRepo) {
		r.notify = notify
	}
}

// WithNowTime sets the clock used for created_at.
func WithNowTime(now func() time.Time) Option {
	return func(r *FakeItemRepo) {
		r.now = now
	}
}

func NewFakeItemRepo(options ...Option) *FakeItemRepo {
	r := &FakeItemRepo{
		rows: make(map[string]*row),
		now:  time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (ir *FakeItemRepo) List(_ context.Context) ([]items.ListItem, error) {
	ir.lock.RLock()
	hook := ir.beforeList
	ir.lock.RUnlock()
	if hook != nil {
		hook()
	}

	ir.lock.RLock()
	defer ir.lock.RUnlock()

	if ir.err != nil {
		return nil, ir.err
	}

	sorted := make([]*row, 0, len(ir.rows))
	for _, r := range ir.rows {
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.item.CreatedAt.Equal(b.item.CreatedAt) {
			return a.item.CreatedAt.After(b.item.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]items.ListItem, 0, len(sorted))
	for _, r := range sorted {
		it := r.item
		if ir.names != nil {
			it.CreatorName = ir.names(it.CreatedBy)
		}
		out = append(out, it)
		if ir.duplicates {
			// join fan-out: same id, later row carries different data
			dup := it
			dup.CreatorName = it.CreatorName + " (dup)"
			out = append(out, dup)
		}
	}
	return out, nil
}

func (ir *FakeItemRepo) Insert(_ context.Context, item items.NewItem) (*items.ListItem, error) {
	ir.lock.Lock()
	if ir.err != nil {
		ir.lock.Unlock()
		return nil, ir.err
	}
	ir.seq++
	it := items.ListItem{
		ID:        uuid.New().String(),
		Text:      item.Text,
		CreatedAt: ir.now(),
		CreatedBy: item.CreatedBy,
	}
	ir.rows[it.ID] = &row{item: it, seq: ir.seq}
	ir.lock.Unlock()

	ir.changed("INSERT")
	return &it, nil
}

func (ir *FakeItemRepo) UpdateText(_ context.Context, id, text string) error {
	return ir.update(id, func(it *items.ListItem) { it.Text = text })
}

func (ir *FakeItemRepo) SetCompleted(_ context.Context, id string, completed bool) error {
	return ir.update(id, func(it *items.ListItem) { it.Completed = completed })
}

func (ir *FakeItemRepo) update(id string, apply func(*items.ListItem)) error {
	ir.lock.Lock()
	if ir.err != nil {
		ir.lock.Unlock()
		return ir.err
	}
	r, ok := ir.rows[id]
	if !ok {
		ir.lock.Unlock()
		return errors.ErrNotFound
	}
	apply(&r.item)
	ir.lock.Unlock()

	ir.changed("UPDATE")
	return nil
}

func (ir *FakeItemRepo) Delete(_ context.Context, id string) error {
	ir.lock.Lock()
	if ir.err != nil {
		ir.lock.Unlock()
		return ir.err
	}
	if _, ok := ir.rows[id]; !ok {
		ir.lock.Unlock()
		return errors.ErrNotFound
	}
	delete(ir.rows, id)
	ir.lock.Unlock()

	ir.changed("DELETE")
	return nil
}

func (ir *FakeItemRepo) DeleteAll(_ context.Context) error {
	ir.lock.Lock()
	if ir.err != nil {
		ir.lock.Unlock()
		return ir.err
	}
	ir.rows = make(map[string]*row)
	ir.lock.Unlock()

	ir.changed("DELETE")
	return nil
}

func (ir *FakeItemRepo) changed(op string) {
	ir.lock.RLock()
	notify := ir.notify
	ir.lock.RUnlock()
	if notify != nil {
		notify(op)
	}
}

// SetNotifier replaces the write notifier after construction.
func (ir *FakeItemRepo) SetNotifier(notify func(op string)) {
	ir.lock.Lock()
	defer ir.lock.Unlock()
	ir.notify = notify
}

// EmitDuplicates makes List repeat every row, as a fanned-out join would.
func (ir *FakeItemRepo) EmitDuplicates(on bool) {
	ir.lock.Lock()
	defer ir.lock.Unlock()
	ir.duplicates = on
}

// BeforeList installs a hook run at the start of every List call, outside the lock.
func (ir *FakeItemRepo) BeforeList(hook func()) {
	ir.lock.Lock()
	defer ir.lock.Unlock()
	ir.beforeList = hook
}

func (ir *FakeItemRepo) FailWith(err error) {
	ir.lock.Lock()
	defer ir.lock.Unlock()
	ir.err = err
}

// Get returns the stored row regardless of the read view.
func (ir *FakeItemRepo) Get(id string) (items.ListItem, bool) {
	ir.lock.RLock()
	defer ir.lock.RUnlock()
	r, ok := ir.rows[id]
	if !ok {
		return items.ListItem{}, false
	}
	return r.item, true
}

func (ir *FakeItemRepo) Count() int {
	ir.lock.RLock()
	defer ir.lock.RUnlock()
	return len(ir.rows)
}
