package fakeprofilerepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-shared-list/profiles"
)

var _ profiles.Repo = (*FakeProfileRepo)(nil)

type FakeProfileRepo struct {
	profiles map[string]profiles.Profile
	changes  int
	err      error
	lock     sync.RWMutex
}

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{
		profiles: make(map[string]profiles.Profile),
	}
}

func (pr *FakeProfileRepo) Upsert(_ context.Context, profile *profiles.Profile) (*profiles.Profile, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if pr.err != nil {
		return nil, pr.err
	}
	if existing, ok := pr.profiles[profile.UserID]; !ok || existing != *profile {
		pr.changes++
	}
	pr.profiles[profile.UserID] = *profile
	cp := *profile
	return &cp, nil
}

func (pr *FakeProfileRepo) Get(_ context.Context, userID string) (*profiles.Profile, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	if pr.err != nil {
		return nil, pr.err
	}
	p, ok := pr.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// DisplayName is a join helper for the fake item repo's read view.
func (pr *FakeProfileRepo) DisplayName(userID string) string {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	return pr.profiles[userID].DisplayName
}

// Changes counts upserts that actually changed stored data.
func (pr *FakeProfileRepo) Changes() int {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	return pr.changes
}

func (pr *FakeProfileRepo) FailWith(err error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	pr.err = err
}
