package permissions

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Service answers whether a user may use the list. It never fails open.
type Service struct {
	repo  Repo
	group singleflight.Group
}

func NewService(repo Repo) (*Service, error) {
	if repo == nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[NewService] permissions repo is required")
	}
	return &Service{repo: repo}, nil
}

// CheckAccess looks up the user's record. A missing record is a first contact:
// one is created with no access and false is returned. Lookup or creation
// failures also return false.
func (s *Service) CheckAccess(ctx context.Context, userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}

	// Concurrent checks for the same user share one lookup/create round trip.
	v, err, _ := s.group.Do(userID, func() (interface{}, error) {
		return s.lookupOrCreate(ctx, userID)
	})
	if err != nil {
		log.Err(err).Str("user_id", userID).Msg("Permission check failed, denying access")
		return false
	}
	return v.(bool)
}

func (s *Service) lookupOrCreate(ctx context.Context, userID string) (bool, error) {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		return false, errors.Backend(errors.Wrapf(err, "[Service CheckAccess] lookup"))
	}
	if record != nil {
		return record.HasAccess, nil
	}

	log.Info().Str("user_id", userID).Msg("No permission record found for user, creating one")
	record, err = s.repo.CreateIfAbsent(ctx, userID, false)
	if err != nil {
		return false, errors.Backend(errors.Wrapf(err, "[Service CheckAccess] create"))
	}
	if record == nil {
		return false, nil
	}
	return record.HasAccess, nil
}
