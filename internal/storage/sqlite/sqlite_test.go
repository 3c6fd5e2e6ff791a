package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"
)

var _ storage.Storage = (*SQLiteDB)(nil)

func setupTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "bookshelf.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { db.Close() })
	return db
}

func newReading(title, modified string) models.NewBookReading {
	return models.NewBookReading{
		Title:        title,
		Author:       "Octavia E. Butler",
		Genre:        "Science Fiction",
		NumOfPages:   300,
		CurrentPage:  10,
		DateModified: modified,
	}
}

func TestSQLiteDB_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.InsertBookReading(ctx, newReading("Kindred", "2024-05-01 09:00:00"))
	require.NoError(t, err)
	assert.NotZero(t, created.BookID)
	assert.NotZero(t, created.ReadingID)

	got, err := db.GetBookAndReadingByID(ctx, created.ReadingID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = db.GetBookAndReadingByID(ctx, 404)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteDB_UpdateWritesZeroValues(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.InsertBookReading(ctx, newReading("Dawn", "2024-05-01 09:00:00"))
	require.NoError(t, err)

	updated := created
	updated.Title = "Adulthood Rites"
	updated.CurrentPage = 0
	updated.DateModified = "2024-05-01 09:00:01"
	updated.BookID = 999
	require.NoError(t, db.UpdateBookReading(ctx, updated))

	got, err := db.GetBookAndReadingByID(ctx, created.ReadingID)
	require.NoError(t, err)
	assert.Equal(t, "Adulthood Rites", got.Title)
	assert.Equal(t, 0, got.CurrentPage)
	assert.Equal(t, "2024-05-01 09:00:01", got.DateModified)
	assert.Equal(t, created.BookID, got.BookID)

	err = db.UpdateBookReading(ctx, models.BookReading{ReadingID: 404})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteDB_Trash(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.InsertBookReading(ctx, newReading("Fledgling", "2024-05-01 09:00:00"))
	require.NoError(t, err)

	require.NoError(t, db.SoftDelete(ctx, created.ReadingID))

	active, err := db.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	trashed, err := db.ListTrashed(ctx)
	require.NoError(t, err)
	require.Len(t, trashed, 1)
	assert.True(t, trashed[0].IsDeleted)

	require.NoError(t, db.Restore(ctx, created.ReadingID))
	require.NoError(t, db.Restore(ctx, created.ReadingID))

	active, err = db.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, db.Purge(ctx, created.ReadingID))
	_, err = db.GetBookAndReadingByID(ctx, created.ReadingID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var books int64
	require.NoError(t, db.db.Model(&Book{}).Count(&books).Error)
	assert.Zero(t, books)

	assert.ErrorIs(t, db.Purge(ctx, created.ReadingID), storage.ErrNotFound)
	assert.ErrorIs(t, db.Restore(ctx, created.ReadingID), storage.ErrNotFound)
}

func TestSQLiteDB_ListOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	older, err := db.InsertBookReading(ctx, newReading("Older", "2024-05-01 09:00:00"))
	require.NoError(t, err)
	newer, err := db.InsertBookReading(ctx, newReading("Newer", "2024-05-02 09:00:00"))
	require.NoError(t, err)
	tie, err := db.InsertBookReading(ctx, newReading("Tie", "2024-05-02 09:00:00"))
	require.NoError(t, err)

	list, err := db.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, tie.ReadingID, list[0].ReadingID)
	assert.Equal(t, newer.ReadingID, list[1].ReadingID)
	assert.Equal(t, older.ReadingID, list[2].ReadingID)

	trashed, err := db.ListTrashed(ctx)
	require.NoError(t, err)
	assert.NotNil(t, trashed)
	assert.Empty(t, trashed)
}

func TestSQLiteDB_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookshelf.db")
	ctx := context.Background()

	db, err := NewSQLiteDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Initialize(ctx))
	created, err := db.InsertBookReading(ctx, newReading("Parable of the Sower", "2024-05-01 09:00:00"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewSQLiteDB(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Initialize(ctx))

	got, err := db.GetBookAndReadingByID(ctx, created.ReadingID)
	require.NoError(t, err)
	assert.Equal(t, "Parable of the Sower", got.Title)
}
