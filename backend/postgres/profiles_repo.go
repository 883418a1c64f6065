package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/profiles"
)

var _ profiles.Repo = (*ProfileRepo)(nil)

const (
	upsertProfileQuery = `INSERT INTO profiles (user_id, display_name, email, updated_at) VALUES ($1, $2, $3, now())
ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name, email = EXCLUDED.email, updated_at = now()
RETURNING user_id, display_name, email`
	getProfileQuery = `SELECT user_id, display_name, email FROM profiles WHERE user_id = $1`
)

type ProfileRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewProfileRepo(db *sql.DB, timeout time.Duration) *ProfileRepo {
	return &ProfileRepo{db: db, timeout: timeout}
}

func (r *ProfileRepo) Upsert(ctx context.Context, profile *profiles.Profile) (*profiles.Profile, error) {
	ctx, cancel := queryTimeout(ctx, r.timeout)
	defer cancel()

	var stored profiles.Profile
	err := r.db.QueryRowContext(ctx, upsertProfileQuery, profile.UserID, profile.DisplayName, profile.Email).
		Scan(&stored.UserID, &stored.DisplayName, &stored.Email)
	if err != nil {
		return nil, backendError(err, "[ProfileRepo Upsert]")
	}
	return &stored, nil
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (*profiles.Profile, error) {
	ctx, cancel := queryTimeout(ctx, r.timeout)
	defer cancel()

	var stored profiles.Profile
	err := r.db.QueryRowContext(ctx, getProfileQuery, userID).Scan(&stored.UserID, &stored.DisplayName, &stored.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, backendError(err, "[ProfileRepo Get]")
	}
	return &stored, nil
}
