package storage

import (
	"context"
	"errors"

	"bookshelf/internal/models"
)

// ErrNotFound is returned when the identified reading record does not exist
var ErrNotFound = errors.New("reading not found")

// Storage defines the interface for book and reading persistence
type Storage interface {
	// Book and reading operations
	InsertBookReading(ctx context.Context, in models.NewBookReading) (models.BookReading, error)
	GetBookAndReadingByID(ctx context.Context, readingID int64) (models.BookReading, error)

	// UpdateBookReading overwrites the mutable fields of both the book and the
	// reading identified by r.ReadingID. Identifiers are never changed.
	// Returns ErrNotFound if the reading does not exist.
	UpdateBookReading(ctx context.Context, r models.BookReading) error

	// Trash operations
	SoftDelete(ctx context.Context, readingID int64) error
	Restore(ctx context.Context, readingID int64) error
	Purge(ctx context.Context, readingID int64) error

	// Listing operations
	// Both lists are ordered by DateModified descending, then ReadingID descending
	ListActive(ctx context.Context) ([]models.BookReading, error)
	ListTrashed(ctx context.Context) ([]models.BookReading, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
