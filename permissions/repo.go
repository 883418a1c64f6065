package permissions

import "context"

type Repo interface {
	// Get returns the record for userID, or nil when none exists
	Get(ctx context.Context, userID string) (*Record, error)

	// CreateIfAbsent inserts a record with the given access flag unless one already
	// exists, and returns whichever record is stored afterwards
	CreateIfAbsent(ctx context.Context, userID string, hasAccess bool) (*Record, error)
}
