package stubs

import (
	"context"
	"sort"
	"sync"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"
)

type book struct {
	id         int64
	title      string
	author     string
	genre      string
	numOfPages int
}

type reading struct {
	id           int64
	bookID       int64
	currentPage  int
	dateModified string
	isDeleted    bool
}

// MockDB is an in-memory implementation of the Storage interface for testing
type MockDB struct {
	mu            sync.RWMutex
	books         map[int64]book
	readings      map[int64]reading
	nextBookID    int64
	nextReadingID int64
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		books:    make(map[int64]book),
		readings: make(map[int64]reading),
	}
}

// Initialize does nothing for mock DB; identifiers start at 1
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// InsertBookReading stores a new book together with its reading record
func (m *MockDB) InsertBookReading(ctx context.Context, in models.NewBookReading) (models.BookReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextBookID++
	m.nextReadingID++

	b := book{
		id:         m.nextBookID,
		title:      in.Title,
		author:     in.Author,
		genre:      in.Genre,
		numOfPages: in.NumOfPages,
	}
	r := reading{
		id:           m.nextReadingID,
		bookID:       b.id,
		currentPage:  in.CurrentPage,
		dateModified: in.DateModified,
	}
	m.books[b.id] = b
	m.readings[r.id] = r

	return join(b, r), nil
}

// GetBookAndReadingByID returns the joined record for a reading
func (m *MockDB) GetBookAndReadingByID(ctx context.Context, readingID int64) (models.BookReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.readings[readingID]
	if !ok {
		return models.BookReading{}, storage.ErrNotFound
	}
	return join(m.books[r.bookID], r), nil
}

// UpdateBookReading overwrites the mutable fields of a book and its reading
func (m *MockDB) UpdateBookReading(ctx context.Context, br models.BookReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.readings[br.ReadingID]
	if !ok {
		return storage.ErrNotFound
	}

	b := m.books[r.bookID]
	b.title = br.Title
	b.author = br.Author
	b.genre = br.Genre
	b.numOfPages = br.NumOfPages
	m.books[b.id] = b

	r.currentPage = br.CurrentPage
	r.dateModified = br.DateModified
	m.readings[r.id] = r

	return nil
}

// SoftDelete marks a reading as deleted
func (m *MockDB) SoftDelete(ctx context.Context, readingID int64) error {
	return m.setDeleted(readingID, true)
}

// Restore clears the deleted flag of a reading
func (m *MockDB) Restore(ctx context.Context, readingID int64) error {
	return m.setDeleted(readingID, false)
}

func (m *MockDB) setDeleted(readingID int64, deleted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.readings[readingID]
	if !ok {
		return storage.ErrNotFound
	}
	r.isDeleted = deleted
	m.readings[readingID] = r
	return nil
}

// Purge physically removes a reading and its book
func (m *MockDB) Purge(ctx context.Context, readingID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.readings[readingID]
	if !ok {
		return storage.ErrNotFound
	}
	delete(m.readings, readingID)
	delete(m.books, r.bookID)
	return nil
}

// ListActive returns all readings that are not in the trash
func (m *MockDB) ListActive(ctx context.Context) ([]models.BookReading, error) {
	return m.list(false), nil
}

// ListTrashed returns all soft-deleted readings
func (m *MockDB) ListTrashed(ctx context.Context) ([]models.BookReading, error) {
	return m.list(true), nil
}

func (m *MockDB) list(deleted bool) []models.BookReading {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.BookReading
	for _, r := range m.readings {
		if r.isDeleted == deleted {
			result = append(result, join(m.books[r.bookID], r))
		}
	}

	// Most recently modified first
	sort.Slice(result, func(i, j int) bool {
		if result[i].DateModified != result[j].DateModified {
			return result[i].DateModified > result[j].DateModified
		}
		return result[i].ReadingID > result[j].ReadingID
	})

	return result
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}

func join(b book, r reading) models.BookReading {
	return models.BookReading{
		BookID:       b.id,
		ReadingID:    r.id,
		Title:        b.title,
		Author:       b.author,
		Genre:        b.genre,
		NumOfPages:   b.numOfPages,
		CurrentPage:  r.currentPage,
		DateModified: r.dateModified,
		IsDeleted:    r.isDeleted,
	}
}
