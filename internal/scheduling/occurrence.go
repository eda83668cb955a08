package scheduling

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// PeriodRange holds the start and end clock of one teaching period.
type PeriodRange struct {
	Start ClockTime
	End   ClockTime
}

// PeriodTable maps period numbers to their clock ranges.
type PeriodTable map[int]PeriodRange

// DefaultPeriodTable is the standard 13-period campus timetable.
var DefaultPeriodTable = PeriodTable{
	1:  {Start: ClockTime{8, 0}, End: ClockTime{8, 40}},
	2:  {Start: ClockTime{8, 45}, End: ClockTime{9, 25}},
	3:  {Start: ClockTime{9, 40}, End: ClockTime{10, 20}},
	4:  {Start: ClockTime{10, 35}, End: ClockTime{11, 15}},
	5:  {Start: ClockTime{11, 20}, End: ClockTime{12, 0}},
	6:  {Start: ClockTime{14, 0}, End: ClockTime{14, 40}},
	7:  {Start: ClockTime{14, 45}, End: ClockTime{15, 25}},
	8:  {Start: ClockTime{15, 40}, End: ClockTime{16, 20}},
	9:  {Start: ClockTime{16, 30}, End: ClockTime{17, 10}},
	10: {Start: ClockTime{18, 0}, End: ClockTime{18, 40}},
	11: {Start: ClockTime{18, 45}, End: ClockTime{19, 25}},
	12: {Start: ClockTime{19, 40}, End: ClockTime{20, 20}},
	13: {Start: ClockTime{20, 30}, End: ClockTime{21, 10}},
}

// CampusLocation is the fixed UTC+8 zone the timetable is expressed in.
var CampusLocation = time.FixedZone("CST", 8*60*60)

// Occurrence is one concrete [Start, End) meeting of a course.
type Occurrence struct {
	Week  int       `json:"week"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps applies the half-open interval test, so back-to-back intervals do not overlap.
func (o Occurrence) Overlaps(start, end time.Time) bool {
	return o.Start.Before(end) && o.End.After(start)
}

// Expander turns time slots into concrete occurrences.
type Expander struct {
	table    PeriodTable
	location *time.Location
}

// NewExpander builds an expander. Nil arguments fall back to the campus defaults.
func NewExpander(table PeriodTable, location *time.Location) *Expander {
	if table == nil {
		table = DefaultPeriodTable
	}
	if location == nil {
		location = CampusLocation
	}
	return &Expander{table: table, location: location}
}

// Location returns the zone occurrences are produced in.
func (e *Expander) Location() *time.Location {
	return e.location
}

// Expand returns every occurrence of the slot in ascending week order.
func (e *Expander) Expand(slot TimeSlot) []Occurrence {
	var out []Occurrence
	e.Each(slot, func(o Occurrence) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Each yields occurrences lazily until fn returns false.
func (e *Expander) Each(slot TimeSlot, fn func(Occurrence) bool) {
	first, last, ok := e.bounds(slot)
	if !ok {
		return
	}
	anchor := slot.TermAnchor.In(e.location)
	base := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, e.location)
	for _, week := range normalizeInts(slot.Weeks, 1) {
		day := base.AddDate(0, 0, 7*(week-1)+slot.Weekday-1)
		occ := Occurrence{
			Week:  week,
			Start: atClock(day, first.Start, e.location),
			End:   atClock(day, last.End, e.location),
		}
		if !fn(occ) {
			return
		}
	}
}

// Overlaps reports whether any occurrence of the slot intersects [start, end).
func (e *Expander) Overlaps(slot TimeSlot, start, end time.Time) bool {
	hit := false
	e.Each(slot, func(o Occurrence) bool {
		if o.Overlaps(start, end) {
			hit = true
			return false
		}
		return true
	})
	return hit
}

func (e *Expander) bounds(slot TimeSlot) (PeriodRange, PeriodRange, bool) {
	if !slot.Scheduled() || slot.TermAnchor.IsZero() {
		return PeriodRange{}, PeriodRange{}, false
	}
	first, ok := e.table[slot.FirstPeriod()]
	if !ok {
		return PeriodRange{}, PeriodRange{}, false
	}
	last, ok := e.table[slot.LastPeriod()]
	if !ok {
		return PeriodRange{}, PeriodRange{}, false
	}
	return first, last, true
}

func atClock(day time.Time, clock ClockTime, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour, clock.Minute, 0, 0, loc)
}
