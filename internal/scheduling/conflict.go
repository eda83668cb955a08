package scheduling

import "time"

// ConflictPair records two overlapping slots found by DetectAll.
type ConflictPair struct {
	Left           int   `json:"left"`
	Right          int   `json:"right"`
	Weekday        int   `json:"weekday"`
	OverlapWeeks   []int `json:"overlap_weeks"`
	OverlapPeriods []int `json:"overlap_periods"`
}

// Conflicts reports whether two slots meet at the same time: same weekday with a
// shared week and a shared period. Unscheduled slots never conflict.
func Conflicts(a, b TimeSlot) bool {
	_, _, ok := overlap(a, b)
	return ok
}

// ConflictsAny reports whether slot conflicts with any of the held slots.
func ConflictsAny(slot TimeSlot, held []TimeSlot) bool {
	for _, other := range held {
		if Conflicts(slot, other) {
			return true
		}
	}
	return false
}

// DetectAll compares every slot with every later slot once and returns the
// conflicting pairs in discovery order.
func DetectAll(slots []TimeSlot) []ConflictPair {
	var pairs []ConflictPair
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			weeks, periods, ok := overlap(slots[i], slots[j])
			if !ok {
				continue
			}
			pairs = append(pairs, ConflictPair{
				Left:           i,
				Right:          j,
				Weekday:        slots[i].Weekday,
				OverlapWeeks:   weeks,
				OverlapPeriods: periods,
			})
		}
	}
	return pairs
}

// IntervalConflicts reports whether [start, end) overlaps any occurrence of the slots.
func IntervalConflicts(e *Expander, slots []TimeSlot, start, end time.Time) bool {
	if !start.Before(end) {
		return false
	}
	for _, slot := range slots {
		if e.Overlaps(slot, start, end) {
			return true
		}
	}
	return false
}

func overlap(a, b TimeSlot) ([]int, []int, bool) {
	if !a.Scheduled() || !b.Scheduled() || a.Weekday != b.Weekday {
		return nil, nil, false
	}
	weeks := intersect(normalizeInts(a.Weeks, 1), normalizeInts(b.Weeks, 1))
	if len(weeks) == 0 {
		return nil, nil, false
	}
	periods := intersect(normalizeInts(a.Periods, 1), normalizeInts(b.Periods, 1))
	if len(periods) == 0 {
		return nil, nil, false
	}
	return weeks, periods, true
}
