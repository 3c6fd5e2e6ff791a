// Package sqlite stores books and readings in a local SQLite file through GORM.
//
// The schema mirrors the two-entity layout used by every backend: one row in
// books per title and one row in readings tracking progress through it.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"
)

// Book is the GORM entity for the books table
type Book struct {
	BookID     int64  `gorm:"primaryKey"`
	Title      string `gorm:"not null"`
	Author     string `gorm:"not null"`
	Genre      string `gorm:"not null"`
	NumOfPages int    `gorm:"not null"`
}

// Reading is the GORM entity for the readings table
type Reading struct {
	ReadingID    int64  `gorm:"primaryKey"`
	BookID       int64  `gorm:"not null;index"`
	CurrentPage  int    `gorm:"not null;default:0"`
	DateModified string `gorm:"not null;index"`
	IsDeleted    bool   `gorm:"not null;default:false;index"`
}

// joined is the scan target for readings joined with their book
type joined struct {
	ReadingID    int64
	BookID       int64
	Title        string
	Author       string
	Genre        string
	NumOfPages   int
	CurrentPage  int
	DateModified string
	IsDeleted    bool
}

func (j joined) model() models.BookReading {
	return models.BookReading{
		BookID:       j.BookID,
		ReadingID:    j.ReadingID,
		Title:        j.Title,
		Author:       j.Author,
		Genre:        j.Genre,
		NumOfPages:   j.NumOfPages,
		CurrentPage:  j.CurrentPage,
		DateModified: j.DateModified,
		IsDeleted:    j.IsDeleted,
	}
}

// SQLiteDB implements storage.Storage on SQLite
type SQLiteDB struct {
	db *gorm.DB
}

// NewSQLiteDB opens (or creates) the database file at path
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := gorm.Open(sqlitedriver.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	return &SQLiteDB{db: db}, nil
}

// Initialize creates or migrates the tables
func (s *SQLiteDB) Initialize(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Book{}, &Reading{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// InsertBookReading creates a book and its reading in one transaction
func (s *SQLiteDB) InsertBookReading(ctx context.Context, in models.NewBookReading) (models.BookReading, error) {
	book := Book{
		Title:      in.Title,
		Author:     in.Author,
		Genre:      in.Genre,
		NumOfPages: in.NumOfPages,
	}
	var reading Reading

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&book).Error; err != nil {
			return fmt.Errorf("failed to insert book: %w", err)
		}
		reading = Reading{
			BookID:       book.BookID,
			CurrentPage:  in.CurrentPage,
			DateModified: in.DateModified,
		}
		if err := tx.Create(&reading).Error; err != nil {
			return fmt.Errorf("failed to insert reading: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.BookReading{}, err
	}

	return joined{
		ReadingID:    reading.ReadingID,
		BookID:       book.BookID,
		Title:        book.Title,
		Author:       book.Author,
		Genre:        book.Genre,
		NumOfPages:   book.NumOfPages,
		CurrentPage:  reading.CurrentPage,
		DateModified: reading.DateModified,
	}.model(), nil
}

func (s *SQLiteDB) joinedQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("readings").
		Select("readings.reading_id, readings.book_id, books.title, books.author, books.genre, " +
			"books.num_of_pages, readings.current_page, readings.date_modified, readings.is_deleted").
		Joins("JOIN books ON books.book_id = readings.book_id")
}

// GetBookAndReadingByID returns the joined record for a reading
func (s *SQLiteDB) GetBookAndReadingByID(ctx context.Context, readingID int64) (models.BookReading, error) {
	var rows []joined
	err := s.joinedQuery(ctx).Where("readings.reading_id = ?", readingID).Limit(1).Scan(&rows).Error
	if err != nil {
		return models.BookReading{}, fmt.Errorf("failed to get reading: %w", err)
	}
	if len(rows) == 0 {
		return models.BookReading{}, storage.ErrNotFound
	}
	return rows[0].model(), nil
}

func findReading(tx *gorm.DB, readingID int64) (Reading, error) {
	var r Reading
	err := tx.First(&r, readingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r, storage.ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("failed to find reading: %w", err)
	}
	return r, nil
}

// UpdateBookReading overwrites the mutable fields of the book and reading
func (s *SQLiteDB) UpdateBookReading(ctx context.Context, br models.BookReading) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := findReading(tx, br.ReadingID)
		if err != nil {
			return err
		}

		// Maps so zero values are written too
		err = tx.Model(&Book{}).Where("book_id = ?", r.BookID).Updates(map[string]any{
			"title":        br.Title,
			"author":       br.Author,
			"genre":        br.Genre,
			"num_of_pages": br.NumOfPages,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update book: %w", err)
		}

		err = tx.Model(&Reading{}).Where("reading_id = ?", r.ReadingID).Updates(map[string]any{
			"current_page":  br.CurrentPage,
			"date_modified": br.DateModified,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update reading: %w", err)
		}
		return nil
	})
}

// SoftDelete marks a reading as deleted
func (s *SQLiteDB) SoftDelete(ctx context.Context, readingID int64) error {
	return s.setDeleted(ctx, readingID, true)
}

// Restore clears the deleted flag of a reading
func (s *SQLiteDB) Restore(ctx context.Context, readingID int64) error {
	return s.setDeleted(ctx, readingID, false)
}

func (s *SQLiteDB) setDeleted(ctx context.Context, readingID int64, deleted bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findReading(tx, readingID); err != nil {
			return err
		}
		err := tx.Model(&Reading{}).Where("reading_id = ?", readingID).Update("is_deleted", deleted).Error
		if err != nil {
			return fmt.Errorf("failed to set deleted flag: %w", err)
		}
		return nil
	})
}

// Purge physically removes a reading and its book
func (s *SQLiteDB) Purge(ctx context.Context, readingID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := findReading(tx, readingID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&Reading{}, r.ReadingID).Error; err != nil {
			return fmt.Errorf("failed to purge reading: %w", err)
		}
		if err := tx.Delete(&Book{}, r.BookID).Error; err != nil {
			return fmt.Errorf("failed to purge book: %w", err)
		}
		return nil
	})
}

// ListActive returns readings not in the trash
func (s *SQLiteDB) ListActive(ctx context.Context) ([]models.BookReading, error) {
	return s.list(ctx, false)
}

// ListTrashed returns soft-deleted readings
func (s *SQLiteDB) ListTrashed(ctx context.Context) ([]models.BookReading, error) {
	return s.list(ctx, true)
}

func (s *SQLiteDB) list(ctx context.Context, deleted bool) ([]models.BookReading, error) {
	var rows []joined
	err := s.joinedQuery(ctx).
		Where("readings.is_deleted = ?", deleted).
		Order("readings.date_modified DESC").
		Order("readings.reading_id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	result := make([]models.BookReading, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.model())
	}
	return result, nil
}

// Close closes the underlying connection pool
func (s *SQLiteDB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
