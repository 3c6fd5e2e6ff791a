package ch

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseDB stores books and readings in ReplacingMergeTree tables.
// Every write inserts a full row with a higher version; reads use FINAL
// so only the newest version of each row is visible.
type ClickHouseDB struct {
	conn clickhouse.Conn

	mu            sync.Mutex
	nextBookID    int64
	nextReadingID int64
	lastVersion   uint64
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn}, nil
}

// Initialize loads the identifier counters. Tables are managed via migrations.
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	var maxBook, maxReading int64

	if err := db.conn.QueryRow(ctx, `SELECT max(book_id) FROM books`).Scan(&maxBook); err != nil {
		return fmt.Errorf("failed to read max book id: %w", err)
	}
	if err := db.conn.QueryRow(ctx, `SELECT max(reading_id) FROM readings`).Scan(&maxReading); err != nil {
		return fmt.Errorf("failed to read max reading id: %w", err)
	}

	db.mu.Lock()
	db.nextBookID = maxBook
	db.nextReadingID = maxReading
	db.mu.Unlock()

	return nil
}

// nextVersion returns a row version greater than any handed out before
func (db *ClickHouseDB) nextVersion() uint64 {
	v := uint64(time.Now().UnixNano())
	if v <= db.lastVersion {
		v = db.lastVersion + 1
	}
	db.lastVersion = v
	return v
}

const selectJoined = `
	SELECT r.reading_id, r.book_id, b.title, b.author, b.genre, b.num_of_pages,
	       r.current_page, r.date_modified, r.is_deleted
	FROM (SELECT * FROM readings FINAL) AS r
	INNER JOIN (SELECT * FROM books FINAL) AS b ON b.book_id = r.book_id`

type row struct {
	readingID   int64
	bookID      int64
	title       string
	author      string
	genre       string
	numOfPages  int32
	currentPage int32
	modified    string
	deleted     bool
}

func (r row) model() models.BookReading {
	return models.BookReading{
		BookID:       r.bookID,
		ReadingID:    r.readingID,
		Title:        r.title,
		Author:       r.author,
		Genre:        r.genre,
		NumOfPages:   int(r.numOfPages),
		CurrentPage:  int(r.currentPage),
		DateModified: r.modified,
		IsDeleted:    r.deleted,
	}
}

func (r *row) dest() []any {
	return []any{
		&r.readingID, &r.bookID, &r.title, &r.author, &r.genre,
		&r.numOfPages, &r.currentPage, &r.modified, &r.deleted,
	}
}

// InsertBookReading creates a book and its reading record
func (db *ClickHouseDB) InsertBookReading(ctx context.Context, in models.NewBookReading) (models.BookReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	bookID := db.nextBookID + 1
	readingID := db.nextReadingID + 1
	version := db.nextVersion()

	err := db.conn.Exec(ctx, `INSERT INTO books (book_id, title, author, genre, num_of_pages, version) VALUES (?, ?, ?, ?, ?, ?)`,
		bookID, in.Title, in.Author, in.Genre, int32(in.NumOfPages), version)
	if err != nil {
		return models.BookReading{}, fmt.Errorf("failed to insert book: %w", err)
	}

	err = db.conn.Exec(ctx, `INSERT INTO readings (reading_id, book_id, current_page, date_modified, is_deleted, version) VALUES (?, ?, ?, ?, ?, ?)`,
		readingID, bookID, int32(in.CurrentPage), in.DateModified, false, version)
	if err != nil {
		return models.BookReading{}, fmt.Errorf("failed to insert reading: %w", err)
	}

	db.nextBookID = bookID
	db.nextReadingID = readingID

	return models.BookReading{
		BookID:       bookID,
		ReadingID:    readingID,
		Title:        in.Title,
		Author:       in.Author,
		Genre:        in.Genre,
		NumOfPages:   in.NumOfPages,
		CurrentPage:  in.CurrentPage,
		DateModified: in.DateModified,
	}, nil
}

// GetBookAndReadingByID returns the joined record for a reading
func (db *ClickHouseDB) GetBookAndReadingByID(ctx context.Context, readingID int64) (models.BookReading, error) {
	rows, err := db.conn.Query(ctx, selectJoined+` WHERE r.reading_id = ?`, readingID)
	if err != nil {
		return models.BookReading{}, fmt.Errorf("failed to get reading: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return models.BookReading{}, fmt.Errorf("failed to get reading: %w", err)
		}
		return models.BookReading{}, storage.ErrNotFound
	}

	var r row
	if err := rows.Scan(r.dest()...); err != nil {
		return models.BookReading{}, fmt.Errorf("failed to scan reading: %w", err)
	}
	return r.model(), nil
}

// UpdateBookReading writes a new version of both the book and the reading
func (db *ClickHouseDB) UpdateBookReading(ctx context.Context, br models.BookReading) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, err := db.GetBookAndReadingByID(ctx, br.ReadingID)
	if err != nil {
		return err
	}

	br.BookID = existing.BookID
	br.IsDeleted = existing.IsDeleted
	return db.write(ctx, br)
}

// SoftDelete marks a reading as deleted
func (db *ClickHouseDB) SoftDelete(ctx context.Context, readingID int64) error {
	return db.setDeleted(ctx, readingID, true)
}

// Restore clears the deleted flag of a reading
func (db *ClickHouseDB) Restore(ctx context.Context, readingID int64) error {
	return db.setDeleted(ctx, readingID, false)
}

func (db *ClickHouseDB) setDeleted(ctx context.Context, readingID int64, deleted bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, err := db.GetBookAndReadingByID(ctx, readingID)
	if err != nil {
		return err
	}
	if existing.IsDeleted == deleted {
		return nil
	}

	existing.IsDeleted = deleted
	return db.write(ctx, existing)
}

// write inserts a new row version. The caller holds db.mu across the read
// that produced br so a concurrent Purge cannot be undone.
func (db *ClickHouseDB) write(ctx context.Context, br models.BookReading) error {
	version := db.nextVersion()

	err := db.conn.Exec(ctx, `INSERT INTO books (book_id, title, author, genre, num_of_pages, version) VALUES (?, ?, ?, ?, ?, ?)`,
		br.BookID, br.Title, br.Author, br.Genre, int32(br.NumOfPages), version)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}

	err = db.conn.Exec(ctx, `INSERT INTO readings (reading_id, book_id, current_page, date_modified, is_deleted, version) VALUES (?, ?, ?, ?, ?, ?)`,
		br.ReadingID, br.BookID, int32(br.CurrentPage), br.DateModified, br.IsDeleted, version)
	if err != nil {
		return fmt.Errorf("failed to update reading: %w", err)
	}
	return nil
}

// Purge physically removes a reading and its book
func (db *ClickHouseDB) Purge(ctx context.Context, readingID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	existing, err := db.GetBookAndReadingByID(ctx, readingID)
	if err != nil {
		return err
	}

	if err := db.conn.Exec(ctx, `DELETE FROM readings WHERE reading_id = ?`, readingID); err != nil {
		return fmt.Errorf("failed to purge reading: %w", err)
	}
	if err := db.conn.Exec(ctx, `DELETE FROM books WHERE book_id = ?`, existing.BookID); err != nil {
		return fmt.Errorf("failed to purge book: %w", err)
	}
	return nil
}

// ListActive returns readings not in the trash
func (db *ClickHouseDB) ListActive(ctx context.Context) ([]models.BookReading, error) {
	return db.list(ctx, false)
}

// ListTrashed returns soft-deleted readings
func (db *ClickHouseDB) ListTrashed(ctx context.Context) ([]models.BookReading, error) {
	return db.list(ctx, true)
}

func (db *ClickHouseDB) list(ctx context.Context, deleted bool) ([]models.BookReading, error) {
	rows, err := db.conn.Query(ctx,
		selectJoined+` WHERE r.is_deleted = ? ORDER BY r.date_modified DESC, r.reading_id DESC`, deleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()

	var result []models.BookReading
	for rows.Next() {
		var r row
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		result = append(result, r.model())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return result, nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
