package tracker

import "time"

const (
	// TimestampLayout is the canonical stored form of DateModified.
	// Values in this layout sort lexicographically in time order.
	TimestampLayout = "2006-01-02 15:04:05"

	// DisplayLayout is the human-readable form shown to readers
	DisplayLayout = "Jan 02, 2006 15:04"
)

// FormatTimestamp renders t in the canonical layout
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// NextTimestamp returns the timestamp to store for a mutation happening at now.
// The result is always strictly greater than prior: when now does not format
// past it (same second, or a clock that went backwards) prior plus one
// second is used.
func NextTimestamp(prior string, now time.Time) string {
	next := FormatTimestamp(now)
	if next > prior {
		return next
	}
	p, err := time.Parse(TimestampLayout, prior)
	if err != nil {
		return next
	}
	return FormatTimestamp(p.Add(time.Second))
}

// FormatForDisplay converts a stored timestamp for display.
// Unparseable values are returned unchanged.
func FormatForDisplay(stored string) string {
	t, err := time.Parse(TimestampLayout, stored)
	if err != nil {
		return stored
	}
	return t.Format(DisplayLayout)
}
