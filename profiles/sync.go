package profiles

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/sessions"
)

// Sync writes the signed-in identity into the profile table once per session establishment.
type Sync struct {
	repo Repo
}

func NewSync(repo Repo) (*Sync, error) {
	if repo == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewSync] profiles repo is required")
	}
	return &Sync{repo: repo}, nil
}

// Upsert writes display name and email keyed by the session's user id.
// Repeating it with the same session leaves the stored profile unchanged.
func (s *Sync) Upsert(ctx context.Context, session *sessions.Session) (*Profile, error) {
	if session == nil || strings.TrimSpace(session.UserID) == "" {
		return nil, errors.Validation("session with a user id is required")
	}

	profile, err := s.repo.Upsert(ctx, &Profile{
		UserID:      session.UserID,
		DisplayName: displayName(session),
		Email:       strings.TrimSpace(session.Email),
	})
	if err != nil {
		return nil, errors.Backend(errors.Wrapf(err, "[Sync Upsert] failed to save profile"))
	}
	return profile, nil
}

// displayName prefers the provider's name claim and falls back to the email's local part.
func displayName(session *sessions.Session) string {
	if name := strings.TrimSpace(session.DisplayName); name != "" {
		return name
	}
	email := strings.TrimSpace(session.Email)
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
