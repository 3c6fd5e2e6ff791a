// Package viewmodel groups tracker operations by the screen that uses them.
//
// A Factory hands out one of three screens selected by Kind. Each screen is a
// concrete type, so callers switch on Screen.Kind and use the matching field
// without any runtime type inspection.
package viewmodel

import (
	"context"
	"fmt"

	"bookshelf/internal/models"
	"bookshelf/internal/tracker"
)

// Kind identifies a screen
type Kind int

const (
	KindMain Kind = iota
	KindUpsert
	KindTrash
)

func (k Kind) String() string {
	switch k {
	case KindMain:
		return "main"
	case KindUpsert:
		return "upsert"
	case KindTrash:
		return "trash"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Screen is a tagged union: exactly the field matching Kind is set
type Screen struct {
	Kind   Kind
	Main   *Main
	Upsert *Upsert
	Trash  *Trash
}

// Factory builds screens that share one tracker
type Factory struct {
	tracker *tracker.Tracker
}

// NewFactory creates a screen factory
func NewFactory(t *tracker.Tracker) *Factory {
	return &Factory{tracker: t}
}

// Tracker returns the tracker every screen delegates to
func (f *Factory) Tracker() *tracker.Tracker {
	return f.tracker
}

// New returns the screen for kind
func (f *Factory) New(kind Kind) (Screen, error) {
	switch kind {
	case KindMain:
		return Screen{Kind: kind, Main: f.Main()}, nil
	case KindUpsert:
		return Screen{Kind: kind, Upsert: f.Upsert()}, nil
	case KindTrash:
		return Screen{Kind: kind, Trash: f.Trash()}, nil
	default:
		return Screen{}, fmt.Errorf("unknown screen kind: %s", kind)
	}
}

// Main returns the book list screen
func (f *Factory) Main() *Main {
	return &Main{tracker: f.tracker}
}

// Upsert returns the add/edit/detail screen
func (f *Factory) Upsert() *Upsert {
	return &Upsert{tracker: f.tracker}
}

// Trash returns the trash screen
func (f *Factory) Trash() *Trash {
	return &Trash{tracker: f.tracker}
}

// Main lists active books
type Main struct {
	tracker *tracker.Tracker
}

// Books returns active books, most recently modified first
func (m *Main) Books(ctx context.Context) ([]models.BookReading, error) {
	return m.tracker.ListActive(ctx)
}

// Watch streams the active list until ctx is done
func (m *Main) Watch(ctx context.Context) <-chan []models.BookReading {
	return m.tracker.WatchActive(ctx)
}

// Completion derives the progress badge shown next to a book
func (m *Main) Completion(r models.BookReading) (models.Completion, error) {
	return tracker.ComputeCompletion(r.NumOfPages, r.CurrentPage)
}

// Detail is everything the detail screen renders for one reading
type Detail struct {
	Reading     models.BookReading `json:"reading"`
	Completion  models.Completion  `json:"completion"`
	LastUpdated string             `json:"last_updated"`
}

// NewDetail derives the rendered fields of r
func NewDetail(r models.BookReading) (Detail, error) {
	c, err := tracker.ComputeCompletion(r.NumOfPages, r.CurrentPage)
	if err != nil {
		return Detail{}, err
	}
	return Detail{
		Reading:     r,
		Completion:  c,
		LastUpdated: tracker.FormatForDisplay(r.DateModified),
	}, nil
}

// Upsert creates, edits and advances a single reading
type Upsert struct {
	tracker *tracker.Tracker
}

// Get returns a reading
func (u *Upsert) Get(ctx context.Context, readingID int64) (models.BookReading, error) {
	return u.tracker.Get(ctx, readingID)
}

// Detail returns a reading with its derived display fields
func (u *Upsert) Detail(ctx context.Context, readingID int64) (Detail, error) {
	r, err := u.tracker.Get(ctx, readingID)
	if err != nil {
		return Detail{}, err
	}
	return NewDetail(r)
}

// Watch streams a reading until ctx is done
func (u *Upsert) Watch(ctx context.Context, readingID int64) <-chan *models.BookReading {
	return u.tracker.Watch(ctx, readingID)
}

// Create adds a new book
func (u *Upsert) Create(ctx context.Context, in tracker.BookInput) (models.BookReading, error) {
	return u.tracker.Insert(ctx, in)
}

// Edit replaces the editable fields of a reading
func (u *Upsert) Edit(ctx context.Context, readingID int64, in tracker.BookInput) (models.BookReading, error) {
	return u.tracker.Update(ctx, readingID, in)
}

// AddPages records newly read pages
func (u *Upsert) AddPages(ctx context.Context, readingID int64, delta int) (models.Progress, error) {
	return u.tracker.AddPages(ctx, readingID, delta)
}

// CanIncrement is the guard for the page counter's "+" button
func (u *Upsert) CanIncrement(amount, pagesLeft int) bool {
	return u.tracker.CanIncrement(amount, pagesLeft)
}

// MoveToTrash soft-deletes a reading
func (u *Upsert) MoveToTrash(ctx context.Context, readingID int64) error {
	return u.tracker.SoftDelete(ctx, readingID)
}

// Trash lists and manages soft-deleted books
type Trash struct {
	tracker *tracker.Tracker
}

// Books returns trashed books, most recently modified first
func (t *Trash) Books(ctx context.Context) ([]models.BookReading, error) {
	return t.tracker.ListTrashed(ctx)
}

// Watch streams the trash until ctx is done
func (t *Trash) Watch(ctx context.Context) <-chan []models.BookReading {
	return t.tracker.WatchTrashed(ctx)
}

// Restore moves a reading back to the active list
func (t *Trash) Restore(ctx context.Context, readingID int64) error {
	return t.tracker.Restore(ctx, readingID)
}

// DeletePermanently purges a reading
func (t *Trash) DeletePermanently(ctx context.Context, readingID int64) error {
	return t.tracker.Purge(ctx, readingID)
}
