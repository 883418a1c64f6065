package fakepermissionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-shared-list/permissions"
)

var _ permissions.Repo = (*FakePermissionRepo)(nil)

type FakePermissionRepo struct {
	records map[string]*permissions.Record
	creates int
	err     error
	lock    sync.RWMutex
}

func NewFakePermissionRepo() *FakePermissionRepo {
	return &FakePermissionRepo{
		records: make(map[string]*permissions.Record),
	}
}

func (pr *FakePermissionRepo) Get(_ context.Context, userID string) (*permissions.Record, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	if pr.err != nil {
		return nil, pr.err
	}
	r, ok := pr.records[userID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (pr *FakePermissionRepo) CreateIfAbsent(_ context.Context, userID string, hasAccess bool) (*permissions.Record, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if pr.err != nil {
		return nil, pr.err
	}
	if r, ok := pr.records[userID]; ok {
		cp := *r
		return &cp, nil
	}
	r := &permissions.Record{UserID: userID, HasAccess: hasAccess, CreatedAt: time.Now()}
	pr.records[userID] = r
	pr.creates++
	cp := *r
	return &cp, nil
}

// SetAccess plays the administrator granting or revoking access.
func (pr *FakePermissionRepo) SetAccess(userID string, hasAccess bool) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if r, ok := pr.records[userID]; ok {
		r.HasAccess = hasAccess
		return
	}
	pr.records[userID] = &permissions.Record{UserID: userID, HasAccess: hasAccess, CreatedAt: time.Now()}
}

// FailWith makes every subsequent call return err; nil restores normal behaviour.
func (pr *FakePermissionRepo) FailWith(err error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	pr.err = err
}

// Creates returns how many records CreateIfAbsent actually inserted.
func (pr *FakePermissionRepo) Creates() int {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	return pr.creates
}

func (pr *FakePermissionRepo) Count() int {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	return len(pr.records)
}
