// Package scheduling holds the time-slot model, occurrence expansion, conflict
// detection, eligibility rules and the greedy enrollment assigner. It performs no I/O.
package scheduling

import (
	"sort"
	"time"
)

// Unscheduled marks a course without a fixed weekday. It never conflicts.
const Unscheduled = -1

// MaxPeriod is the last teaching period of a day.
const MaxPeriod = 13

// TimeSlot describes when a course meets within a term.
type TimeSlot struct {
	Weekday    int       `json:"weekday"`
	Periods    []int     `json:"periods"`
	Weeks      []int     `json:"weeks"`
	TermAnchor time.Time `json:"term_anchor"`
}

// NewTimeSlot normalises raw slot fields: periods and weeks are de-duplicated and
// sorted, week numbers below 1 are dropped and out-of-range weekdays collapse to
// Unscheduled.
func NewTimeSlot(weekday int, periods, weeks []int, anchor time.Time) TimeSlot {
	if weekday < 1 || weekday > 7 {
		weekday = Unscheduled
	}
	return TimeSlot{
		Weekday:    weekday,
		Periods:    normalizeInts(periods, 1),
		Weeks:      normalizeInts(weeks, 1),
		TermAnchor: anchor,
	}
}

// Scheduled reports whether the slot occupies any concrete time.
func (s TimeSlot) Scheduled() bool {
	return s.Weekday >= 1 && s.Weekday <= 7 && len(s.Periods) > 0 && len(s.Weeks) > 0
}

// FirstPeriod returns the lowest requested period, or 0 when none.
func (s TimeSlot) FirstPeriod() int {
	if len(s.Periods) == 0 {
		return 0
	}
	return minInt(s.Periods)
}

// LastPeriod returns the highest requested period, or 0 when none.
func (s TimeSlot) LastPeriod() int {
	if len(s.Periods) == 0 {
		return 0
	}
	return maxInt(s.Periods)
}

func normalizeInts(values []int, min int) []int {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(values))
	result := make([]int, 0, len(values))
	for _, v := range values {
		if v < min {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	sort.Ints(result)
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []int) []int {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[int]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []int
	seen := make(map[int]struct{})
	for _, v := range b {
		if _, ok := set[v]; !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func minInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
