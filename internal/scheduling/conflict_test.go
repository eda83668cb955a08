package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSlotA() TimeSlot {
	weeks := append(append(weekRange(2, 8), weekRange(10, 12)...), weekRange(14, 16)...)
	return NewTimeSlot(3, []int{6, 7, 8, 9}, weeks, testAnchor)
}

func TestConflictsSharedWeekAndPeriod(t *testing.T) {
	a := sampleSlotA()
	b := NewTimeSlot(3, []int{9, 10}, []int{5, 11}, testAnchor)

	assert.True(t, Conflicts(a, b))
	assert.True(t, Conflicts(b, a))
}

func TestConflictsRequiresSameWeekday(t *testing.T) {
	a := sampleSlotA()
	for day := 1; day <= 7; day++ {
		if day == a.Weekday {
			continue
		}
		other := a
		other.Weekday = day
		assert.False(t, Conflicts(a, other), "weekday %d", day)
	}
}

func TestConflictsNeedsBothIntersections(t *testing.T) {
	a := sampleSlotA()
	weekOnly := NewTimeSlot(3, []int{1, 2}, []int{5}, testAnchor)
	periodOnly := NewTimeSlot(3, []int{6}, []int{1, 9, 13}, testAnchor)

	assert.False(t, Conflicts(a, weekOnly))
	assert.False(t, Conflicts(a, periodOnly))
}

func TestUnscheduledNeverConflicts(t *testing.T) {
	a := sampleSlotA()
	cases := []TimeSlot{
		NewTimeSlot(3, nil, a.Weeks, testAnchor),
		NewTimeSlot(3, a.Periods, nil, testAnchor),
		NewTimeSlot(Unscheduled, a.Periods, a.Weeks, testAnchor),
		{Weekday: 0, Periods: a.Periods, Weeks: a.Weeks},
	}
	for _, slot := range cases {
		assert.False(t, Conflicts(a, slot))
		assert.False(t, Conflicts(slot, a))
		assert.False(t, Conflicts(slot, slot))
	}
}

func TestConflictsIsSymmetric(t *testing.T) {
	slots := []TimeSlot{
		sampleSlotA(),
		NewTimeSlot(3, []int{9, 10}, []int{5, 11}, testAnchor),
		NewTimeSlot(3, []int{1, 2}, []int{1}, testAnchor),
		NewTimeSlot(1, []int{6}, []int{2}, testAnchor),
		NewTimeSlot(Unscheduled, nil, nil, testAnchor),
	}
	for _, a := range slots {
		for _, b := range slots {
			assert.Equal(t, Conflicts(a, b), Conflicts(b, a))
		}
	}
}

func TestDetectAllReportsEachPairOnce(t *testing.T) {
	slots := []TimeSlot{
		sampleSlotA(),
		NewTimeSlot(3, []int{9, 10}, []int{5, 11}, testAnchor),
		NewTimeSlot(3, []int{8}, []int{11, 20}, testAnchor),
		NewTimeSlot(4, []int{8}, []int{11}, testAnchor),
	}

	pairs := DetectAll(slots)
	require.Len(t, pairs, 2)
	assert.Equal(t, ConflictPair{Left: 0, Right: 1, Weekday: 3, OverlapWeeks: []int{5, 11}, OverlapPeriods: []int{9}}, pairs[0])
	assert.Equal(t, 0, pairs[1].Left)
	assert.Equal(t, 2, pairs[1].Right)
	assert.Equal(t, []int{11}, pairs[1].OverlapWeeks)
}

func TestIntervalConflicts(t *testing.T) {
	e := NewExpander(nil, nil)
	slots := []TimeSlot{sampleSlotA()}
	// Week 2 Wednesday runs 14:00-17:10.
	day := time.Date(2025, time.September, 17, 0, 0, 0, 0, CampusLocation)

	assert.True(t, IntervalConflicts(e, slots, day.Add(16*time.Hour), day.Add(18*time.Hour)))
	assert.False(t, IntervalConflicts(e, slots, day.Add(17*time.Hour+10*time.Minute), day.Add(19*time.Hour)))
	assert.False(t, IntervalConflicts(e, slots, day.Add(12*time.Hour), day.Add(14*time.Hour)))
	// Week 9 is not taught.
	week9 := day.AddDate(0, 0, 7*7)
	assert.False(t, IntervalConflicts(e, slots, week9.Add(15*time.Hour), week9.Add(16*time.Hour)))
	assert.False(t, IntervalConflicts(e, slots, day.Add(18*time.Hour), day.Add(16*time.Hour)))
}
