package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jrsteele09/go-shared-list/internal/config"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Open connects to the database named by cfg and checks it answers.
func Open(ctx context.Context, cfg config.BackendConfig) (*sql.DB, error) {
	if cfg.GetDatabaseURL() == "" {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[postgres Open] DATABASE_URL is not set")
	}
	db, err := sql.Open("postgres", cfg.GetDatabaseURL())
	if err != nil {
		return nil, errors.Backend(errors.Wrapf(err, "[postgres Open]"))
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.GetBackendTimeout())
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Backend(errors.Wrapf(err, "[postgres Open] ping"))
	}
	return db, nil
}

// queryTimeout bounds each statement when the caller's context has no deadline.
func queryTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// backendError logs the Postgres error code, if any, and marks err as a backend failure.
func backendError(err error, format string, args ...interface{}) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		log.Err(err).Str("pg_code", string(pqErr.Code)).Str("pg_error", pqErr.Code.Name()).Msg("Postgres error")
	}
	return errors.Backend(errors.Wrapf(err, format, args...))
}
