package storage

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"bookshelf/internal/models"
)

// Observable wraps a Storage and notifies subscribers whenever a mutation
// made through it changes a record or the active/trashed lists.
//
// Subscriber channels have a buffer of one and only ever hold the newest
// value: a slow consumer skips intermediate states instead of blocking writers.
type Observable struct {
	Storage

	logger *zap.Logger

	mu      sync.Mutex
	nextID  int
	records map[int]*recordSub
	lists   map[int]*listSub
}

type recordSub struct {
	readingID int64
	ch        chan *models.BookReading
}

type listSub struct {
	trashed bool
	ch      chan []models.BookReading
}

// NewObservable creates an observable view over the given storage
func NewObservable(s Storage, logger *zap.Logger) *Observable {
	return &Observable{
		Storage: s,
		logger:  logger,
		records: make(map[int]*recordSub),
		lists:   make(map[int]*listSub),
	}
}

// Watch streams the current value of a reading on subscribe and after every
// change to it. A nil value means the reading does not exist (or was purged).
// The channel is closed when ctx is done.
func (o *Observable) Watch(ctx context.Context, readingID int64) <-chan *models.BookReading {
	sub := &recordSub{readingID: readingID, ch: make(chan *models.BookReading, 1)}

	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.records[id] = sub
	if value, ok := o.loadRecord(ctx, readingID); ok {
		offer(sub.ch, value)
	}
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.records, id)
		close(sub.ch)
		o.mu.Unlock()
	}()

	return sub.ch
}

// WatchActive streams the list of non-deleted readings
func (o *Observable) WatchActive(ctx context.Context) <-chan []models.BookReading {
	return o.watchList(ctx, false)
}

// WatchTrashed streams the list of soft-deleted readings
func (o *Observable) WatchTrashed(ctx context.Context) <-chan []models.BookReading {
	return o.watchList(ctx, true)
}

func (o *Observable) watchList(ctx context.Context, trashed bool) <-chan []models.BookReading {
	sub := &listSub{trashed: trashed, ch: make(chan []models.BookReading, 1)}

	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.lists[id] = sub
	if value, ok := o.loadList(ctx, trashed); ok {
		offer(sub.ch, value)
	}
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.lists, id)
		close(sub.ch)
		o.mu.Unlock()
	}()

	return sub.ch
}

// InsertBookReading inserts through the wrapped storage and notifies list subscribers
func (o *Observable) InsertBookReading(ctx context.Context, in models.NewBookReading) (models.BookReading, error) {
	created, err := o.Storage.InsertBookReading(ctx, in)
	if err != nil {
		return models.BookReading{}, err
	}
	o.publish(ctx, created.ReadingID)
	return created, nil
}

// UpdateBookReading updates through the wrapped storage and notifies subscribers
func (o *Observable) UpdateBookReading(ctx context.Context, r models.BookReading) error {
	if err := o.Storage.UpdateBookReading(ctx, r); err != nil {
		return err
	}
	o.publish(ctx, r.ReadingID)
	return nil
}

// SoftDelete moves a reading to the trash and notifies subscribers
func (o *Observable) SoftDelete(ctx context.Context, readingID int64) error {
	if err := o.Storage.SoftDelete(ctx, readingID); err != nil {
		return err
	}
	o.publish(ctx, readingID)
	return nil
}

// Restore takes a reading out of the trash and notifies subscribers
func (o *Observable) Restore(ctx context.Context, readingID int64) error {
	if err := o.Storage.Restore(ctx, readingID); err != nil {
		return err
	}
	o.publish(ctx, readingID)
	return nil
}

// Purge removes a reading permanently and notifies subscribers
func (o *Observable) Purge(ctx context.Context, readingID int64) error {
	if err := o.Storage.Purge(ctx, readingID); err != nil {
		return err
	}
	o.publish(ctx, readingID)
	return nil
}

// publish re-reads the changed state once and fans it out.
// The mutation already happened, so a cancelled caller context must not stop it.
func (o *Observable) publish(ctx context.Context, readingID int64) {
	ctx = context.WithoutCancel(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	var (
		record       *models.BookReading
		recordLoaded bool
	)
	for _, sub := range o.records {
		if sub.readingID != readingID {
			continue
		}
		if !recordLoaded {
			var ok bool
			if record, ok = o.loadRecord(ctx, readingID); !ok {
				break
			}
			recordLoaded = true
		}
		offer(sub.ch, record)
	}

	loaded := make(map[bool][]models.BookReading)
	for _, sub := range o.lists {
		value, ok := loaded[sub.trashed]
		if !ok {
			if value, ok = o.loadList(ctx, sub.trashed); !ok {
				continue
			}
			loaded[sub.trashed] = value
		}
		offer(sub.ch, value)
	}
}

func (o *Observable) loadRecord(ctx context.Context, readingID int64) (*models.BookReading, bool) {
	r, err := o.Storage.GetBookAndReadingByID(ctx, readingID)
	if errors.Is(err, ErrNotFound) {
		return nil, true
	}
	if err != nil {
		o.logger.Error("Failed to load reading for subscribers",
			zap.Error(err),
			zap.Int64("reading_id", readingID),
		)
		return nil, false
	}
	return &r, true
}

func (o *Observable) loadList(ctx context.Context, trashed bool) ([]models.BookReading, bool) {
	var (
		list []models.BookReading
		err  error
	)
	if trashed {
		list, err = o.Storage.ListTrashed(ctx)
	} else {
		list, err = o.Storage.ListActive(ctx)
	}
	if err != nil {
		o.logger.Error("Failed to load list for subscribers",
			zap.Error(err),
			zap.Bool("trashed", trashed),
		)
		return nil, false
	}
	return list, true
}

// offer replaces whatever is buffered in ch with v. Callers hold o.mu,
// so there is never a concurrent sender.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
