package fakesessionrepo

import (
	"sync"

	"github.com/jrsteele09/go-shared-list/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	session *sessions.Session
	lock    sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

func (sr *FakeSessionRepo) Load() (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.session == nil {
		return nil, nil
	}
	s := *sr.session
	return &s, nil
}

func (sr *FakeSessionRepo) Save(session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	s := *session
	sr.session = &s
	return nil
}

func (sr *FakeSessionRepo) Delete() error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.session = nil
	return nil
}
