package scheduling

import (
	"math/rand"
	"sort"
	"strings"
	"time"
)

// Course is a normalised course record. Several courses may share a Code.
type Course struct {
	ID        string   `json:"id"`
	Code      string   `json:"code"`
	Title     string   `json:"title"`
	Term      string   `json:"term"`
	TeacherID string   `json:"teacher_id"`
	Capacity  int      `json:"capacity"`
	Slot      TimeSlot `json:"slot"`
}

// AssignmentSource tells which assignment mode produced an enrollment.
type AssignmentSource string

const (
	SourceExplicit AssignmentSource = "EXPLICIT"
	SourceManual   AssignmentSource = "MANUAL"
	SourceRandom   AssignmentSource = "RANDOM"
)

// RejectReason is a machine readable rejection cause.
type RejectReason string

const (
	RejectAlreadyEnrolled RejectReason = "ALREADY_ENROLLED"
	RejectDuplicateCode   RejectReason = "DUPLICATE_CODE"
	RejectConflict        RejectReason = "SCHEDULE_CONFLICT"
	RejectCapacity        RejectReason = "CAPACITY_REACHED"
	RejectNotFound        RejectReason = "COURSE_NOT_FOUND"
)

// ExplicitRecord is a pre-known student/course pair.
type ExplicitRecord struct {
	Course             Course
	ExternalCourseCode string
	ExternalStudentID  string
}

// Assignment pairs a student with a course.
type Assignment struct {
	StudentID          string           `json:"student_id"`
	CourseID           string           `json:"course_id"`
	CourseCode         string           `json:"course_code"`
	ExternalCourseCode string           `json:"external_course_code,omitempty"`
	ExternalStudentID  string           `json:"external_student_id,omitempty"`
	Source             AssignmentSource `json:"source"`
}

// Rejection records an assignment attempt that was refused.
type Rejection struct {
	StudentID  string           `json:"student_id"`
	CourseID   string           `json:"course_id,omitempty"`
	CourseCode string           `json:"course_code"`
	Source     AssignmentSource `json:"source"`
	Reason     RejectReason     `json:"reason"`
}

// CountRange bounds the number of random courses drawn for a student.
type CountRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// AssignRequest holds the inputs for one student.
type AssignRequest struct {
	StudentID    string
	Existing     []Course
	Explicit     []ExplicitRecord
	ManualCodes  []string
	Pool         []Course
	Count        CountRange
	SkipExisting bool
}

// AssignResult is the outcome for one student.
type AssignResult struct {
	StudentID string       `json:"student_id"`
	Accepted  []Assignment `json:"accepted"`
	Rejected  []Rejection  `json:"rejected"`
	Skipped   bool         `json:"skipped"`
}

type pairKey struct {
	student string
	course  string
}

// Ledger tracks committed assignments and per-course counts across a batch.
type Ledger struct {
	counts   map[string]int
	pairs    map[pairKey]struct{}
	external map[pairKey]struct{}
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		counts:   make(map[string]int),
		pairs:    make(map[pairKey]struct{}),
		external: make(map[pairKey]struct{}),
	}
}

// SeedCount sets the number of enrollments already stored for a course.
func (l *Ledger) SeedCount(courseID string, count int) {
	l.counts[courseID] = count
}

// SeedAssignment registers an already stored assignment without touching counts.
func (l *Ledger) SeedAssignment(a Assignment) {
	l.pairs[pairKey{student: a.StudentID, course: a.CourseID}] = struct{}{}
	if a.ExternalCourseCode != "" && a.ExternalStudentID != "" {
		l.external[pairKey{student: a.ExternalStudentID, course: a.ExternalCourseCode}] = struct{}{}
	}
}

// Count returns the current number of assignments for a course.
func (l *Ledger) Count(courseID string) int {
	return l.counts[courseID]
}

func (l *Ledger) has(studentID, courseID, extCode, extStudent string) bool {
	if _, ok := l.pairs[pairKey{student: studentID, course: courseID}]; ok {
		return true
	}
	if extCode != "" && extStudent != "" {
		if _, ok := l.external[pairKey{student: extStudent, course: extCode}]; ok {
			return true
		}
	}
	return false
}

func (l *Ledger) full(c Course) bool {
	return c.Capacity > 0 && l.counts[c.ID] >= c.Capacity
}

func (l *Ledger) commit(a Assignment) {
	l.SeedAssignment(a)
	l.counts[a.CourseID]++
}

// Assigner performs greedy conflict-aware enrollment assignment. It keeps state
// in its ledger and must not be shared between goroutines.
type Assigner struct {
	rng    *rand.Rand
	ledger *Ledger
}

// NewAssigner builds an assigner. A nil ledger starts empty and a nil source is
// seeded from the clock.
func NewAssigner(src rand.Source, ledger *Ledger) *Assigner {
	if ledger == nil {
		ledger = NewLedger()
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Assigner{rng: rand.New(src), ledger: ledger}
}

// Ledger exposes the assignment ledger.
func (a *Assigner) Ledger() *Ledger {
	return a.ledger
}

// AssignBatch processes requests sorted by student id.
func (a *Assigner) AssignBatch(reqs []AssignRequest) []AssignResult {
	ordered := make([]AssignRequest, len(reqs))
	copy(ordered, reqs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StudentID < ordered[j].StudentID
	})
	results := make([]AssignResult, 0, len(ordered))
	for _, req := range ordered {
		results = append(results, a.Assign(req))
	}
	return results
}

// Assign runs explicit records, then manual codes, then random fill for one student.
func (a *Assigner) Assign(req AssignRequest) AssignResult {
	res := AssignResult{StudentID: req.StudentID, Accepted: []Assignment{}, Rejected: []Rejection{}}
	st := newStudentState(req.Existing)
	pool := sortedCourses(req.Pool)

	explicit := make([]ExplicitRecord, len(req.Explicit))
	copy(explicit, req.Explicit)
	sort.SliceStable(explicit, func(i, j int) bool {
		return explicit[i].Course.Code < explicit[j].Course.Code
	})
	for _, rec := range explicit {
		reason := a.check(st, req.StudentID, rec.Course, rec.ExternalCourseCode, rec.ExternalStudentID)
		if reason != "" {
			res.Rejected = append(res.Rejected, Rejection{
				StudentID:  req.StudentID,
				CourseID:   rec.Course.ID,
				CourseCode: rec.Course.Code,
				Source:     SourceExplicit,
				Reason:     reason,
			})
			continue
		}
		res.Accepted = append(res.Accepted, a.accept(st, req.StudentID, rec.Course, SourceExplicit, rec.ExternalCourseCode, rec.ExternalStudentID))
	}

	for _, code := range req.ManualCodes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		course, reason := a.pickByCode(st, req.StudentID, code, pool)
		if reason != "" {
			rej := Rejection{StudentID: req.StudentID, CourseCode: code, Source: SourceManual, Reason: reason}
			if course != nil {
				rej.CourseID = course.ID
			}
			res.Rejected = append(res.Rejected, rej)
			continue
		}
		res.Accepted = append(res.Accepted, a.accept(st, req.StudentID, *course, SourceManual, "", ""))
	}

	if len(res.Accepted) > 0 {
		return res
	}
	if req.SkipExisting && len(req.Existing) > 0 {
		res.Skipped = true
		return res
	}
	res.Accepted = append(res.Accepted, a.randomFill(st, req.StudentID, pool, req.Count)...)
	return res
}

func (a *Assigner) randomFill(st *studentState, studentID string, pool []Course, count CountRange) []Assignment {
	target := a.drawCount(count)
	if target == 0 || len(pool) == 0 {
		return nil
	}
	var accepted []Assignment
	for _, idx := range a.rng.Perm(len(pool)) {
		if len(accepted) >= target {
			break
		}
		course := pool[idx]
		if reason := a.check(st, studentID, course, "", ""); reason != "" {
			continue
		}
		accepted = append(accepted, a.accept(st, studentID, course, SourceRandom, "", ""))
	}
	return accepted
}

func (a *Assigner) drawCount(count CountRange) int {
	lo, hi := count.Min, count.Max
	if lo < 0 {
		lo = 0
	}
	if hi < lo {
		hi = lo
	}
	return lo + a.rng.Intn(hi-lo+1)
}

// pickByCode returns the first acceptable candidate sharing code. On failure it
// returns the most relevant reason and the candidate it applies to.
func (a *Assigner) pickByCode(st *studentState, studentID, code string, pool []Course) (*Course, RejectReason) {
	if st.codes[code] {
		return nil, RejectDuplicateCode
	}
	var (
		found     bool
		worst     RejectReason
		worstRank = -1
		blocked   *Course
	)
	for i := range pool {
		candidate := pool[i]
		if candidate.Code != code {
			continue
		}
		found = true
		reason := a.check(st, studentID, candidate, "", "")
		if reason == "" {
			return &pool[i], ""
		}
		if rank := rejectRank[reason]; rank > worstRank {
			worst, worstRank = reason, rank
			blocked = &pool[i]
		}
	}
	if !found {
		return nil, RejectNotFound
	}
	return blocked, worst
}

var rejectRank = map[RejectReason]int{
	RejectCapacity:        1,
	RejectConflict:        2,
	RejectDuplicateCode:   3,
	RejectAlreadyEnrolled: 4,
}

func (a *Assigner) check(st *studentState, studentID string, c Course, extCode, extStudent string) RejectReason {
	if st.ids[c.ID] || a.ledger.has(studentID, c.ID, extCode, extStudent) {
		return RejectAlreadyEnrolled
	}
	if c.Code != "" && st.codes[c.Code] {
		return RejectDuplicateCode
	}
	if ConflictsAny(c.Slot, st.slots) {
		return RejectConflict
	}
	if a.ledger.full(c) {
		return RejectCapacity
	}
	return ""
}

func (a *Assigner) accept(st *studentState, studentID string, c Course, source AssignmentSource, extCode, extStudent string) Assignment {
	assignment := Assignment{
		StudentID:          studentID,
		CourseID:           c.ID,
		CourseCode:         c.Code,
		ExternalCourseCode: extCode,
		ExternalStudentID:  extStudent,
		Source:             source,
	}
	st.hold(c)
	a.ledger.commit(assignment)
	return assignment
}

type studentState struct {
	ids   map[string]bool
	codes map[string]bool
	slots []TimeSlot
}

func newStudentState(existing []Course) *studentState {
	st := &studentState{ids: make(map[string]bool), codes: make(map[string]bool)}
	for _, c := range existing {
		st.hold(c)
	}
	return st
}

func (s *studentState) hold(c Course) {
	s.ids[c.ID] = true
	if c.Code != "" {
		s.codes[c.Code] = true
	}
	if c.Slot.Scheduled() {
		s.slots = append(s.slots, c.Slot)
	}
}

func sortedCourses(pool []Course) []Course {
	out := make([]Course, len(pool))
	copy(out, pool)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code == out[j].Code {
			return out[i].ID < out[j].ID
		}
		return out[i].Code < out[j].Code
	})
	return out
}
