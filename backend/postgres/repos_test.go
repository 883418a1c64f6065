package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/items"
	"github.com/jrsteele09/go-shared-list/profiles"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func q(query string) string {
	return regexp.QuoteMeta(query)
}

func TestItemRepo_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db, time.Second)

	newer := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	mock.ExpectQuery(q(listItemsQuery)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "text", "completed", "created_at", "created_by", "creator_name"}).
			AddRow("a", "Milk", false, newer, "user-ada", "Ada").
			AddRow("a", "Milk", false, newer, "user-ada", "Ada L").
			AddRow("b", "Bread", true, older, "user-bob", ""),
	)

	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ada", rows[0].CreatorName)
	assert.True(t, rows[2].Completed)

	// the store, not the repo, removes join duplicates
	view := items.Dedup(rows)
	require.Len(t, view, 2)
	assert.Equal(t, "Ada", view[0].CreatorName)
}

func TestItemRepo_ListFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db, time.Second)

	mock.ExpectQuery(q(listItemsQuery)).WillReturnError(&pq.Error{Code: "57P01", Message: "terminating connection"})

	_, err := repo.List(context.Background())
	require.True(t, errors.Is(err, errors.ErrBackend))
}

func TestItemRepo_Insert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db, time.Second)

	id := uuid.New().String()
	created := time.Now().UTC()
	mock.ExpectQuery(q(insertItemQuery)).WithArgs("Milk", "user-ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id, created))

	item, err := repo.Insert(context.Background(), items.NewItem{Text: "Milk", CreatedBy: "user-ada"})
	require.NoError(t, err)
	assert.Equal(t, id, item.ID)
	assert.Equal(t, "Milk", item.Text)
	assert.False(t, item.Completed)
	assert.Equal(t, created, item.CreatedAt)
}

func TestItemRepo_Updates(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db, time.Second)
	id := uuid.New().String()

	mock.ExpectExec(q(updateItemTextQuery)).WithArgs(id, "Oat milk").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(setItemCompleteQuery)).WithArgs(id, true).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(deleteItemQuery)).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(deleteAllItemsQuery)).WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.UpdateText(context.Background(), id, "Oat milk"))
	require.NoError(t, repo.SetCompleted(context.Background(), id, true))
	require.NoError(t, repo.Delete(context.Background(), id))
	require.NoError(t, repo.DeleteAll(context.Background()))
}

func TestItemRepo_MissingRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewItemRepo(db, time.Second)
	id := uuid.New().String()

	mock.ExpectExec(q(deleteItemQuery)).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), id)
	require.True(t, errors.Is(err, errors.ErrNotFound))

	// malformed ids never reach the database
	err = repo.SetCompleted(context.Background(), "not-a-uuid", true)
	require.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestPermissionRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPermissionRepo(db, time.Second)
	created := time.Now().UTC()

	mock.ExpectQuery(q(getPermissionQuery)).WithArgs("user-ada").WillReturnError(sql.ErrNoRows)
	rec, err := repo.Get(context.Background(), "user-ada")
	require.NoError(t, err)
	require.Nil(t, rec)

	mock.ExpectExec(q(insertPermissionQuery)).WithArgs("user-ada", false).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q(getPermissionQuery)).WithArgs("user-ada").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "has_access", "created_at"}).AddRow("user-ada", false, created))
	rec, err = repo.CreateIfAbsent(context.Background(), "user-ada", false)
	require.NoError(t, err)
	assert.Equal(t, "user-ada", rec.UserID)
	assert.False(t, rec.HasAccess)

	// conflict: the existing grant wins
	mock.ExpectExec(q(insertPermissionQuery)).WithArgs("user-bob", false).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(getPermissionQuery)).WithArgs("user-bob").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "has_access", "created_at"}).AddRow("user-bob", true, created))
	rec, err = repo.CreateIfAbsent(context.Background(), "user-bob", false)
	require.NoError(t, err)
	assert.True(t, rec.HasAccess)
}

func TestPermissionRepo_Failure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPermissionRepo(db, time.Second)

	mock.ExpectExec(q(insertPermissionQuery)).WithArgs("user-ada", false).WillReturnError(sql.ErrConnDone)
	_, err := repo.CreateIfAbsent(context.Background(), "user-ada", false)
	require.True(t, errors.Is(err, errors.ErrBackend))
}

func TestProfileRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepo(db, time.Second)

	mock.ExpectQuery(q(upsertProfileQuery)).WithArgs("user-ada", "Ada", "ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "display_name", "email"}).AddRow("user-ada", "Ada", "ada@example.com"))
	stored, err := repo.Upsert(context.Background(), &profiles.Profile{UserID: "user-ada", DisplayName: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.DisplayName)

	mock.ExpectQuery(q(getProfileQuery)).WithArgs("user-bob").WillReturnError(sql.ErrNoRows)
	missing, err := repo.Get(context.Background(), "user-bob")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestMigrationFiles(t *testing.T) {
	names, err := MigrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_create_list.down.sql",
		"000001_create_list.up.sql",
		"000002_list_items_notify.down.sql",
		"000002_list_items_notify.up.sql",
	}, names)

	notify, err := migrations.ReadFile("migrations/000002_list_items_notify.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(notify), "pg_notify('list_items_changes', TG_OP)")
}
