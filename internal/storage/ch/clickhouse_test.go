package ch

import (
	"context"
	"sync"
	"testing"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clickhouseTC "github.com/testcontainers/testcontainers-go/modules/clickhouse"
)

// runMigrations manually runs ClickHouse migrations
func runMigrations(ctx context.Context, db *ClickHouseDB) error {
	_ = db.conn.Exec(ctx, "DROP TABLE IF EXISTS readings")
	_ = db.conn.Exec(ctx, "DROP TABLE IF EXISTS books")

	err := db.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS books (
			book_id Int64,
			title String,
			author String,
			genre String,
			num_of_pages Int32,
			version UInt64
		) ENGINE = ReplacingMergeTree(version)
		ORDER BY book_id
	`)
	if err != nil {
		return err
	}

	return db.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS readings (
			reading_id Int64,
			book_id Int64,
			current_page Int32,
			date_modified String,
			is_deleted Bool DEFAULT false,
			version UInt64
		) ENGINE = ReplacingMergeTree(version)
		ORDER BY reading_id
	`)
}

// setupTestDB creates a test ClickHouse instance using testcontainers
func setupTestDB(t *testing.T) (*ClickHouseDB, func()) {
	ctx := context.Background()

	clickhouseContainer, err := clickhouseTC.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouseTC.WithUsername("default"),
		clickhouseTC.WithPassword(""),
		clickhouseTC.WithDatabase("default"),
	)
	require.NoError(t, err, "Failed to start ClickHouse container")

	host, err := clickhouseContainer.Host(ctx)
	require.NoError(t, err)

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	db, err := NewClickHouseDB(host, port.Int(), "default", "default", "", false)
	require.NoError(t, err, "Failed to connect to ClickHouse")

	// Run migrations manually (goose doesn't work well with ClickHouse)
	err = runMigrations(ctx, db)
	require.NoError(t, err, "Failed to run migrations")

	require.NoError(t, db.Initialize(ctx))

	cleanup := func() {
		db.Close()
		clickhouseContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newReading(title, modified string) models.NewBookReading {
	return models.NewBookReading{
		Title:        title,
		Author:       "Ursula K. Le Guin",
		Genre:        "Fantasy",
		NumOfPages:   250,
		DateModified: modified,
	}
}

// TestClickHouseDB_InsertAndGet tests inserting and reading back a record
func TestClickHouseDB_InsertAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := db.InsertBookReading(ctx, newReading("A Wizard of Earthsea", "2024-05-01 09:00:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.BookID)
	assert.Equal(t, int64(1), created.ReadingID)

	got, err := db.GetBookAndReadingByID(ctx, created.ReadingID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = db.GetBookAndReadingByID(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// TestClickHouseDB_InitializeContinuesIDs tests that counters resume after restart
func TestClickHouseDB_InitializeContinuesIDs(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := db.InsertBookReading(ctx, newReading("First", "2024-05-01 09:00:00"))
	require.NoError(t, err)

	// Simulate a restart
	db.nextBookID, db.nextReadingID = 0, 0
	require.NoError(t, db.Initialize(ctx))

	second, err := db.InsertBookReading(ctx, newReading("Second", "2024-05-01 09:00:01"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ReadingID)
}

// TestClickHouseDB_Update tests that updates replace the visible version
func TestClickHouseDB_Update(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := db.InsertBookReading(ctx, newReading("The Tombs of Atuan", "2024-05-01 09:00:00"))
	require.NoError(t, err)

	updated := created
	updated.Title = "The Farthest Shore"
	updated.CurrentPage = 120
	updated.DateModified = "2024-05-01 10:00:00"
	updated.BookID = 42
	require.NoError(t, db.UpdateBookReading(ctx, updated))

	got, err := db.GetBookAndReadingByID(ctx, created.ReadingID)
	require.NoError(t, err)
	assert.Equal(t, "The Farthest Shore", got.Title)
	assert.Equal(t, 120, got.CurrentPage)
	assert.Equal(t, "2024-05-01 10:00:00", got.DateModified)
	assert.Equal(t, created.BookID, got.BookID)

	active, err := db.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	err = db.UpdateBookReading(ctx, models.BookReading{ReadingID: 77})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// TestClickHouseDB_Trash tests soft delete, restore and purge
func TestClickHouseDB_Trash(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := db.InsertBookReading(ctx, newReading("Tehanu", "2024-05-01 09:00:00"))
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

	assert.ErrorIs(t, db.Purge(ctx, created.ReadingID), storage.ErrNotFound)
	assert.ErrorIs(t, db.SoftDelete(ctx, created.ReadingID), storage.ErrNotFound)
}

// TestClickHouseDB_ListOrder tests most-recent-first ordering
func TestClickHouseDB_ListOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

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
}

// TestClickHouseDB_ConcurrentInserts tests that concurrent inserts get distinct ids
func TestClickHouseDB_ConcurrentInserts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.InsertBookReading(ctx, newReading("Concurrent", "2024-05-01 09:00:00"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := db.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n)

	seen := make(map[int64]bool)
	for _, r := range list {
		seen[r.ReadingID] = true
	}
	assert.Len(t, seen, n)
}

// TestClickHouseDB_PurgeDuringUpdates tests that a purged reading stays gone
// while updates and trash moves race with the purge
func TestClickHouseDB_PurgeDuringUpdates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	created, err := db.InsertBookReading(ctx, newReading("Earthsea", "2024-05-01 09:00:00"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(page int) {
			defer wg.Done()
			br := created
			br.CurrentPage = page
			if err := db.UpdateBookReading(ctx, br); err != nil {
				assert.ErrorIs(t, err, storage.ErrNotFound)
			}
		}(i)
		go func() {
			defer wg.Done()
			if err := db.SoftDelete(ctx, created.ReadingID); err != nil {
				assert.ErrorIs(t, err, storage.ErrNotFound)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, db.Purge(ctx, created.ReadingID))
	}()
	wg.Wait()

	_, err = db.GetBookAndReadingByID(ctx, created.ReadingID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	active, err := db.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	trashed, err := db.ListTrashed(ctx)
	require.NoError(t, err)
	assert.Empty(t, trashed)
}

// TestClickHouseDB_Close tests connection closing
func TestClickHouseDB_Close(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	err := db.Close()
	assert.NoError(t, err)
}
