package scheduling

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTermNotConfigured is returned when no anchor date exists for a term.
	ErrTermNotConfigured = errors.New("academic term not configured")
	// ErrAnchorMismatch is returned when a submitted anchor differs from the configured one.
	ErrAnchorMismatch = errors.New("term anchor date mismatch")
)

// TermCalendar maps term codes (e.g. "2025-2026-1") to the Monday of week 1.
type TermCalendar map[string]time.Time

// Anchor returns the configured anchor date for term.
func (c TermCalendar) Anchor(term string) (time.Time, error) {
	anchor, ok := c[strings.TrimSpace(term)]
	if !ok || anchor.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTermNotConfigured, term)
	}
	return anchor, nil
}

// Validate checks that a submitted anchor date equals the configured one.
func (c TermCalendar) Validate(term string, submitted time.Time) error {
	anchor, err := c.Anchor(term)
	if err != nil {
		return err
	}
	if !sameDate(anchor, submitted) {
		return fmt.Errorf("%w: term %q expects %s, got %s", ErrAnchorMismatch, term, anchor.Format(time.DateOnly), submitted.Format(time.DateOnly))
	}
	return nil
}

// Slot builds a normalised time slot anchored to the term's week 1.
func (c TermCalendar) Slot(term string, weekday int, periods, weeks []int) (TimeSlot, error) {
	anchor, err := c.Anchor(term)
	if err != nil {
		return TimeSlot{}, err
	}
	return NewTimeSlot(weekday, periods, weeks, anchor), nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
