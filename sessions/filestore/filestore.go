package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-shared-list/sessions"
)

const sessionFileName = "session.json"

var _ sessions.Repo = (*Store)(nil)

// Store keeps the session as JSON in an owner-only file.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, sessionFileName)
}

func (s *Store) Load() (*sessions.Session, error) {
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not signed in
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var session sessions.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &session, nil
}

func (s *Store) Save(session *sessions.Session) error {
	if session == nil {
		return errors.New("nil session")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// tokens inside: owner-only
	if err := os.WriteFile(s.path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (s *Store) Delete() error {
	if err := os.Remove(s.path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
