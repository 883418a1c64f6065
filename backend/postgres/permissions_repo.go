package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/permissions"
)

var _ permissions.Repo = (*PermissionRepo)(nil)

const (
	getPermissionQuery    = `SELECT user_id, has_access, created_at FROM permissions WHERE user_id = $1`
	insertPermissionQuery = `INSERT INTO permissions (user_id, has_access) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`
)

type PermissionRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPermissionRepo(db *sql.DB, timeout time.Duration) *PermissionRepo {
	return &PermissionRepo{db: db, timeout: timeout}
}

func (r *PermissionRepo) Get(ctx context.Context, userID string) (*permissions.Record, error) {
	ctx, cancel := queryTimeout(ctx, r.timeout)
	defer cancel()

	var rec permissions.Record
	err := r.db.QueryRowContext(ctx, getPermissionQuery, userID).Scan(&rec.UserID, &rec.HasAccess, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, backendError(err, "[PermissionRepo Get]")
	}
	return &rec, nil
}

// CreateIfAbsent relies on the primary key: a concurrent insert for the same
// user is a no-op and the stored row is read back.
func (r *PermissionRepo) CreateIfAbsent(ctx context.Context, userID string, hasAccess bool) (*permissions.Record, error) {
	ctx, cancel := queryTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, insertPermissionQuery, userID, hasAccess); err != nil {
		return nil, backendError(err, "[PermissionRepo CreateIfAbsent]")
	}
	rec, err := r.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.Backend(errors.Wrapf(errors.ErrNotFound, "[PermissionRepo CreateIfAbsent] record vanished for %s", userID))
	}
	return rec, nil
}
