package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/items"
)

var _ items.Repo = (*ItemRepo)(nil)

const (
	listItemsQuery = `SELECT id, text, completed, created_at, created_by, COALESCE(creator_name, '')
FROM list_items_with_creator
ORDER BY created_at DESC`
	insertItemQuery      = `INSERT INTO list_items (text, completed, created_by) VALUES ($1, false, $2) RETURNING id, created_at`
	updateItemTextQuery  = `UPDATE list_items SET text = $2 WHERE id = $1`
	setItemCompleteQuery = `UPDATE list_items SET completed = $2 WHERE id = $1`
	deleteItemQuery      = `DELETE FROM list_items WHERE id = $1`
	deleteAllItemsQuery  = `DELETE FROM list_items`
)

// ItemRepo reads the joined view and writes the list_items table.
type ItemRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewItemRepo(db *sql.DB, timeout time.Duration) *ItemRepo {
	return &ItemRepo{db: db, timeout: timeout}
}

func (r *ItemRepo) List(ctx context.Context) ([]items.ListItem, error) {
	ctx, cancel := queryTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, listItemsQuery)
	if err != nil {
		return nil, backendError(err, "[ItemRepo List] query")
	}
	defer rows.Close()

	out := []items.ListItem{}
	for rows.Next() {
		var it items.ListItem
		if err := rows.Scan(&it.ID, &it.Text, &it.Completed, &it.CreatedAt, &it.CreatedBy, &it.CreatorName); err != nil {
			return nil, backendError(err, "[ItemRepo List] scan")
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, backendError(err, "[ItemRepo List] rows")
	}
	return out, nil
}

func (r *ItemRepo) Insert(ctx context.Context, item items.NewItem) (*items.ListItem, error) {
	ctx, cancel := queryTimeout(ctx, r.timeout)
	defer cancel()

	created := items.ListItem{Text: item.Text, CreatedBy: item.CreatedBy}
	err := r.db.QueryRowContext(ctx, insertItemQuery, item.Text, item.CreatedBy).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, backendError(err, "[ItemRepo Insert]")
	}
	return &created, nil
}

func (r *ItemRepo) UpdateText(ctx context.Context, id, text string) error {
	return r.exec(ctx, "UpdateText", id, updateItemTextQuery, id, text)
}

func (r *ItemRepo) SetCompleted(ctx context.Context, id string, completed bool) error {
	return r.exec(ctx, "SetCompleted", id, setItemCompleteQuery, id, completed)
}

func (r *ItemRepo) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "Delete", id, deleteItemQuery, id)
}

func (r *ItemRepo) DeleteAll(ctx context.Context) error {
	ctx, cancel := queryTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, deleteAllItemsQuery); err != nil {
		return backendError(err, "[ItemRepo DeleteAll]")
	}
	return nil
}

// exec runs a single-row statement. Ids that are not UUIDs cannot exist and
// are reported as not found without a round trip.
func (r *ItemRepo) exec(ctx context.Context, method, id, query string, args ...interface{}) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrapf(errors.ErrNotFound, "[ItemRepo %s] item %q", method, id)
	}

	ctx, cancel := queryTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return backendError(err, "[ItemRepo %s]", method)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return backendError(err, "[ItemRepo %s] rows affected", method)
	}
	if affected == 0 {
		return errors.Wrapf(errors.ErrNotFound, "[ItemRepo %s] item %s", method, id)
	}
	return nil
}
