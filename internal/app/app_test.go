package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bookshelf/internal/config"
	"bookshelf/internal/models"
	"bookshelf/internal/storage/sqlite"
	"bookshelf/internal/storage/stubs"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger("chatty")
	assert.Error(t, err)
}

func TestOpenStorage_Mock(t *testing.T) {
	db, err := OpenStorage(context.Background(), config.StorageConfig{Backend: config.BackendMock}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	_, ok := db.(*stubs.MockDB)
	assert.True(t, ok, "expected the in-memory store, got %T", db)
}

func TestOpenStorage_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.StorageConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "bookshelf.db"),
	}

	db, err := OpenStorage(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	_, ok := db.(*sqlite.SQLiteDB)
	require.True(t, ok, "expected the SQLite store, got %T", db)

	created, err := db.InsertBookReading(ctx, models.NewBookReading{
		Title:        "Dune",
		Author:       "Frank Herbert",
		Genre:        "Science Fiction",
		NumOfPages:   412,
		DateModified: "2024-05-01 09:30:00",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ReadingID)
}

func TestOpenStorage_UnknownBackend(t *testing.T) {
	_, err := OpenStorage(context.Background(), config.StorageConfig{Backend: "postgres"}, zap.NewNop())
	assert.Error(t, err)
}
