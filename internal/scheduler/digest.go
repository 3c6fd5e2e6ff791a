// Package scheduler runs the periodic reading digest.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"bookshelf/internal/models"
	"bookshelf/internal/tracker"
)

// Lister returns the active readings
type Lister interface {
	ListActive(ctx context.Context) ([]models.BookReading, error)
}

// Notifier delivers a text message to a chat
type Notifier interface {
	SendNotification(ctx context.Context, chatID int64, text string) error
}

// Config configures the digest job
type Config struct {
	Schedule string
	ChatID   int64
	Location *time.Location
}

// DigestScheduler periodically sends a summary of books in progress
type DigestScheduler struct {
	books    Lister
	notifier Notifier
	config   Config
	logger   *zap.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isSending  bool
	cancelFunc context.CancelFunc
}

// NewDigestScheduler creates a new scheduler instance
func NewDigestScheduler(books Lister, notifier Notifier, config Config, logger *zap.Logger) *DigestScheduler {
	if config.Location == nil {
		config.Location = time.Local
	}

	return &DigestScheduler{
		books:    books,
		notifier: notifier,
		config:   config,
		logger:   logger,
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
			cron.WithLocation(config.Location),
		),
	}
}

// Start schedules the digest job. It stops by itself when ctx is done.
func (s *DigestScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.config.ChatID == 0 {
		s.logger.Info("Digest scheduler: chat not configured, skipping")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		if err := s.RunNow(context.Background()); err != nil {
			s.logger.Error("Digest failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Digest scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Time("next_run", s.cron.Entry(entryID).Next),
	)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running digest to finish and stops the scheduler
func (s *DigestScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	cancel()

	// Running jobs take s.mu, so wait for them without holding it
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.logger.Info("Digest scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *DigestScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next digest will be sent
func (s *DigestScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	next := s.cron.Entry(s.entryID).Next
	return &next
}

// RunNow builds and sends the digest immediately. Nothing is sent when no
// book is in progress, and an overlapping run is skipped.
func (s *DigestScheduler) RunNow(ctx context.Context) error {
	s.mu.Lock()
	if s.isSending {
		s.mu.Unlock()
		s.logger.Info("Digest skipped (already sending)")
		return nil
	}
	s.isSending = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isSending = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	list, err := s.books.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list readings: %w", err)
	}

	text, count := BuildDigest(list)
	if count == 0 {
		s.logger.Info("Digest skipped (no books in progress)")
		return nil
	}

	if err := s.notifier.SendNotification(ctx, s.config.ChatID, text); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}

	s.logger.Info("Digest sent",
		zap.Int64("chat_id", s.config.ChatID),
		zap.Int("books", count),
	)
	return nil
}

// BuildDigest renders the books in progress and returns how many it listed
func BuildDigest(list []models.BookReading) (string, int) {
	var b strings.Builder
	count := 0

	for _, r := range list {
		if !r.InProgress() {
			continue
		}
		c, err := tracker.ComputeCompletion(r.NumOfPages, r.CurrentPage)
		if err != nil {
			continue
		}
		if count == 0 {
			b.WriteString("📚 Reading digest\n")
		}
		count++
		fmt.Fprintf(&b, "\n• %s by %s: %d%% (%d pages left)", r.Title, r.Author, c.PercentComplete, c.PagesLeft)
	}

	return b.String(), count
}
