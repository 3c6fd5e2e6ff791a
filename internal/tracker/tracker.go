package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"
)

// Repository is the storage the tracker needs: plain persistence plus
// change streams. storage.Observable satisfies it.
type Repository interface {
	storage.Storage
	Watch(ctx context.Context, readingID int64) <-chan *models.BookReading
	WatchActive(ctx context.Context) <-chan []models.BookReading
	WatchTrashed(ctx context.Context) <-chan []models.BookReading
}

// BookInput is the user-editable part of a reading
type BookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	NumOfPages  int    `json:"num_of_pages"`
	CurrentPage int    `json:"current_page"`
}

// Options tune a Tracker. Zero values pick the defaults.
type Options struct {
	Bound    ProgressBound
	Location *time.Location
	Now      func() time.Time
}

// Tracker applies the reading rules on top of a Repository
type Tracker struct {
	repo   Repository
	bound  ProgressBound
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// New creates a tracker. Timestamps are in UTC unless opts.Location is set.
// A nil logger discards log output.
func New(repo Repository, opts Options, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Bound == BoundExclusive {
		logger.Warn("Exclusive progress bound is active, books cannot be finished with a single update")
	}

	return &Tracker{
		repo:   repo,
		bound:  opts.Bound,
		loc:    opts.Location,
		now:    opts.Now,
		logger: logger,
	}
}

// Bound returns the progress bound in effect
func (t *Tracker) Bound() ProgressBound {
	return t.bound
}

// CanIncrement reports whether a counter at amount may go up given pagesLeft
func (t *Tracker) CanIncrement(amount, pagesLeft int) bool {
	return CanIncrement(amount, pagesLeft, t.bound)
}

// ValidateBook checks the invariants every stored reading must hold
func ValidateBook(in BookInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "must not be blank")
	}
	if strings.TrimSpace(in.Author) == "" {
		return invalid("author", "must not be blank")
	}
	if strings.TrimSpace(in.Genre) == "" {
		return invalid("genre", "must not be blank")
	}
	if in.NumOfPages <= 0 {
		return invalid("num_of_pages", "must be positive")
	}
	if in.NumOfPages > MaxPages {
		return invalid("num_of_pages", fmt.Sprintf("must be at most %d", MaxPages))
	}
	if in.CurrentPage < 0 || in.CurrentPage > in.NumOfPages {
		return invalid("current_page", fmt.Sprintf("must be between 0 and %d", in.NumOfPages))
	}
	return nil
}

func (in BookInput) normalized() BookInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = strings.TrimSpace(in.Genre)
	return in
}

func (t *Tracker) stamp(prior string) string {
	return NextTimestamp(prior, t.now().In(t.loc))
}

// Get returns a reading, trashed or not
func (t *Tracker) Get(ctx context.Context, readingID int64) (models.BookReading, error) {
	r, err := t.repo.GetBookAndReadingByID(ctx, readingID)
	if err != nil {
		return models.BookReading{}, repoError("get reading", err)
	}
	return r, nil
}

// Insert creates a new book with its reading, stamped with the current time
func (t *Tracker) Insert(ctx context.Context, in BookInput) (models.BookReading, error) {
	in = in.normalized()
	if err := ValidateBook(in); err != nil {
		return models.BookReading{}, err
	}

	created, err := t.repo.InsertBookReading(ctx, models.NewBookReading{
		Title:        in.Title,
		Author:       in.Author,
		Genre:        in.Genre,
		NumOfPages:   in.NumOfPages,
		CurrentPage:  in.CurrentPage,
		DateModified: t.stamp(""),
	})
	if err != nil {
		return models.BookReading{}, repoError("insert reading", err)
	}

	t.logger.Info("Reading created",
		zap.Int64("reading_id", created.ReadingID),
		zap.Int64("book_id", created.BookID),
		zap.String("title", created.Title),
	)
	return created, nil
}

// Update replaces the editable fields of an active reading
func (t *Tracker) Update(ctx context.Context, readingID int64, in BookInput) (models.BookReading, error) {
	in = in.normalized()
	if err := ValidateBook(in); err != nil {
		return models.BookReading{}, err
	}

	existing, err := t.repo.GetBookAndReadingByID(ctx, readingID)
	if err != nil {
		return models.BookReading{}, repoError("get reading", err)
	}
	if existing.IsDeleted {
		return models.BookReading{}, invalid("reading", "is in the trash, restore it first")
	}

	existing.Title = in.Title
	existing.Author = in.Author
	existing.Genre = in.Genre
	existing.NumOfPages = in.NumOfPages
	existing.CurrentPage = in.CurrentPage
	existing.DateModified = t.stamp(existing.DateModified)

	if err := t.repo.UpdateBookReading(ctx, existing); err != nil {
		return models.BookReading{}, repoError("update reading", err)
	}

	t.logger.Info("Reading updated", zap.Int64("reading_id", readingID))
	return existing, nil
}

// AddPages records delta newly read pages on an active reading
func (t *Tracker) AddPages(ctx context.Context, readingID int64, delta int) (models.Progress, error) {
	existing, err := t.repo.GetBookAndReadingByID(ctx, readingID)
	if err != nil {
		return models.Progress{}, repoError("get reading", err)
	}
	if existing.IsDeleted {
		return models.Progress{}, invalid("reading", "is in the trash, restore it first")
	}

	before, err := ComputeCompletion(existing.NumOfPages, existing.CurrentPage)
	if err != nil {
		return models.Progress{}, err
	}
	page, err := ApplyProgress(existing.CurrentPage, before.PagesLeft, delta, t.bound)
	if err != nil {
		return models.Progress{}, err
	}
	after, err := ComputeCompletion(existing.NumOfPages, page)
	if err != nil {
		return models.Progress{}, err
	}

	existing.CurrentPage = page
	existing.DateModified = t.stamp(existing.DateModified)
	if err := t.repo.UpdateBookReading(ctx, existing); err != nil {
		return models.Progress{}, repoError("update progress", err)
	}

	t.logger.Info("Progress updated",
		zap.Int64("reading_id", readingID),
		zap.Int("delta", delta),
		zap.Int("current_page", page),
		zap.Int("percent", after.PercentComplete),
	)

	return models.Progress{
		ReadingID:    readingID,
		CurrentPage:  page,
		DateModified: existing.DateModified,
		Completion:   after,
	}, nil
}

// SoftDelete moves a reading to the trash. Trashing a trashed reading is a no-op.
func (t *Tracker) SoftDelete(ctx context.Context, readingID int64) error {
	if err := t.repo.SoftDelete(ctx, readingID); err != nil {
		return repoError("move reading to trash", err)
	}
	t.logger.Info("Reading moved to trash", zap.Int64("reading_id", readingID))
	return nil
}

// Restore brings a reading back from the trash. Restoring an active reading is a no-op.
func (t *Tracker) Restore(ctx context.Context, readingID int64) error {
	if err := t.repo.Restore(ctx, readingID); err != nil {
		return repoError("restore reading", err)
	}
	t.logger.Info("Reading restored", zap.Int64("reading_id", readingID))
	return nil
}

// Purge deletes a reading and its book permanently
func (t *Tracker) Purge(ctx context.Context, readingID int64) error {
	if err := t.repo.Purge(ctx, readingID); err != nil {
		return repoError("purge reading", err)
	}
	t.logger.Info("Reading purged", zap.Int64("reading_id", readingID))
	return nil
}

// ListActive returns readings not in the trash, most recently modified first
func (t *Tracker) ListActive(ctx context.Context) ([]models.BookReading, error) {
	list, err := t.repo.ListActive(ctx)
	if err != nil {
		return nil, repoError("list readings", err)
	}
	return list, nil
}

// ListTrashed returns trashed readings, most recently modified first
func (t *Tracker) ListTrashed(ctx context.Context) ([]models.BookReading, error) {
	list, err := t.repo.ListTrashed(ctx)
	if err != nil {
		return nil, repoError("list trash", err)
	}
	return list, nil
}

// Watch streams a reading until ctx is done. nil means it no longer exists.
func (t *Tracker) Watch(ctx context.Context, readingID int64) <-chan *models.BookReading {
	return t.repo.Watch(ctx, readingID)
}

// WatchActive streams the active list until ctx is done
func (t *Tracker) WatchActive(ctx context.Context) <-chan []models.BookReading {
	return t.repo.WatchActive(ctx)
}

// WatchTrashed streams the trash until ctx is done
func (t *Tracker) WatchTrashed(ctx context.Context) <-chan []models.BookReading {
	return t.repo.WatchTrashed(ctx)
}
