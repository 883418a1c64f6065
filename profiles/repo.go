package profiles

import "context"

type Repo interface {
	// Upsert stores the profile keyed by user id and returns the stored row
	Upsert(ctx context.Context, profile *Profile) (*Profile, error)

	// Get returns the profile for userID, or nil when none exists
	Get(ctx context.Context, userID string) (*Profile, error)
}
