package tracker

import (
	"fmt"
	"math"
	"strings"

	"bookshelf/internal/models"
)

// ProgressBound selects how far a single progress update may advance
type ProgressBound int

const (
	// BoundInclusive allows an update to reach the last page (delta <= pagesLeft)
	BoundInclusive ProgressBound = iota
	// BoundExclusive keeps the stricter delta < pagesLeft rule, under which a
	// book can never be finished in one update
	BoundExclusive
)

func (b ProgressBound) String() string {
	switch b {
	case BoundInclusive:
		return "inclusive"
	case BoundExclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("ProgressBound(%d)", int(b))
	}
}

// MaxPages is the largest page count a reading may have. Stores keep page
// numbers in 32-bit columns.
const MaxPages = math.MaxInt32

// ParseProgressBound parses "inclusive" or "exclusive". Empty means inclusive.
func ParseProgressBound(s string) (ProgressBound, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inclusive":
		return BoundInclusive, nil
	case "exclusive":
		return BoundExclusive, nil
	default:
		return BoundInclusive, fmt.Errorf("unknown progress bound %q (choose inclusive or exclusive)", s)
	}
}

// ComputeCompletion derives pages left and the rounded completion percentage.
// Rounding is half-up: 0.5% shows as 1%.
func ComputeCompletion(numOfPages, currentPage int) (models.Completion, error) {
	if numOfPages <= 0 {
		return models.Completion{}, invalid("num_of_pages", "must be positive")
	}
	if numOfPages > MaxPages {
		return models.Completion{}, invalid("num_of_pages", fmt.Sprintf("must be at most %d", MaxPages))
	}
	if currentPage < 0 || currentPage > numOfPages {
		return models.Completion{}, invalid("current_page", fmt.Sprintf("must be between 0 and %d", numOfPages))
	}

	pct := math.Round(float64(currentPage) * 100 / float64(numOfPages))

	return models.Completion{
		PagesLeft:       numOfPages - currentPage,
		PercentComplete: int(pct),
	}, nil
}

// ApplyProgress advances currentPage by delta pages within the given bound
func ApplyProgress(currentPage, pagesLeft, delta int, bound ProgressBound) (int, error) {
	if pagesLeft < 0 || pagesLeft > MaxPages {
		return currentPage, invalid("pages_left", fmt.Sprintf("must be between 0 and %d", MaxPages))
	}
	if currentPage < 0 || currentPage > MaxPages-pagesLeft {
		return currentPage, invalid("current_page", fmt.Sprintf("must keep the page count at most %d", MaxPages))
	}
	if delta < 0 {
		return currentPage, invalid("pages", "must not be negative")
	}

	switch bound {
	case BoundExclusive:
		if delta > 0 && delta >= pagesLeft {
			return currentPage, invalid("pages", fmt.Sprintf("must be less than %d pages left", pagesLeft))
		}
	default:
		if delta > pagesLeft {
			return currentPage, invalid("pages", fmt.Sprintf("must be at most %d pages left", pagesLeft))
		}
	}

	return currentPage + delta, nil
}

// CanIncrement reports whether a page counter showing amount may go up by one
func CanIncrement(amount, pagesLeft int, bound ProgressBound) bool {
	if amount < 0 {
		return false
	}
	if bound == BoundExclusive {
		return amount+1 < pagesLeft
	}
	return amount < pagesLeft
}
