package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
	"github.com/noah-isme/activitypass-api/pkg/calendar"
)

// CourseEventCachePattern matches every cached per-student event list.
const CourseEventCachePattern = "course-events:*"

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentProfile, error)
}

type studentCourseReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentCourse, error)
}

type calendarProvider interface {
	Calendar(ctx context.Context) (scheduling.TermCalendar, error)
}

// CourseEventService exposes a student's timetable as raw slots, expanded events and ICS.
type CourseEventService struct {
	students studentReader
	courses  studentCourseReader
	terms    calendarProvider
	expander *scheduling.Expander
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewCourseEventService constructs the service. cache may be nil.
func NewCourseEventService(students studentReader, courses studentCourseReader, terms calendarProvider, expander *scheduling.Expander, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CourseEventService {
	if expander == nil {
		expander = scheduling.NewExpander(nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseEventService{
		students: students,
		courses:  courses,
		terms:    terms,
		expander: expander,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// ListCourses returns the enrolled courses with their raw schedule fields.
func (s *CourseEventService) ListCourses(ctx context.Context, studentID string) ([]dto.StudentCoursePayload, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	courses, err := s.courses.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, wrapInternal(err, "load student courses")
	}
	cal, err := s.terms.Calendar(ctx)
	if err != nil {
		return nil, err
	}

	payloads := make([]dto.StudentCoursePayload, 0, len(courses))
	for _, c := range courses {
		slot := scheduling.NewTimeSlot(c.Weekday, models.Ints(c.Periods), models.Ints(c.Weeks), time.Time{})
		item := dto.StudentCoursePayload{
			EnrollmentID: c.EnrollmentID,
			CourseID:     c.ID,
			StudentID:    studentID,
			Title:        courseTitle(c.Course),
			Code:         c.Code,
			Location:     c.Location,
			Weekday:      slot.Weekday,
			Periods:      nonNil(slot.Periods),
			Weeks:        nonNil(slot.Weeks),
			Term:         c.TermCode,
		}
		if c.TeacherID != nil {
			item.TeacherID = *c.TeacherID
		}
		if anchor, err := cal.Anchor(c.TermCode); err == nil {
			d := anchor.Format(time.DateOnly)
			item.TermStartDate = &d
		} else if c.TermStartDate != nil {
			d := c.TermStartDate.Format(time.DateOnly)
			item.TermStartDate = &d
		}
		payloads = append(payloads, item)
	}
	return payloads, nil
}

// ListEvents expands every enrolled course into dated occurrences, soonest first.
// The bool reports a cache hit.
func (s *CourseEventService) ListEvents(ctx context.Context, studentID string) ([]dto.CourseEventPayload, bool, error) {
	key := "course-events:" + studentID
	var cached []dto.CourseEventPayload
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, false, err
	}
	courses, err := s.anchoredCourses(ctx, studentID)
	if err != nil {
		return nil, false, err
	}

	events := make([]dto.CourseEventPayload, 0)
	for _, c := range courses {
		s.expander.Each(c.course.Slot, func(o scheduling.Occurrence) bool {
			events = append(events, dto.CourseEventPayload{
				StudentID: studentID,
				CourseID:  c.course.ID,
				Code:      c.course.Code,
				Title:     c.title,
				Location:  c.location,
				Week:      o.Week,
				Start:     o.Start,
				End:       o.End,
			})
			return true
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].CourseID < events[j].CourseID
	})
	for i := range events {
		events[i].ID = i + 1
	}

	s.cache.Set(ctx, key, events, s.ttl)
	return events, false, nil
}

// RenderICS returns the student's course events as an iCalendar document.
func (s *CourseEventService) RenderICS(ctx context.Context, studentID string) ([]byte, error) {
	events, _, err := s.ListEvents(ctx, studentID)
	if err != nil {
		return nil, err
	}
	feed := calendar.Feed{
		Name:     "Courses " + studentID,
		Timezone: s.expander.Location().String(),
		Stamp:    s.now(),
		Events:   make([]calendar.Event, 0, len(events)),
	}
	for _, e := range events {
		feed.Events = append(feed.Events, calendar.Event{
			UID:         fmt.Sprintf("%s-w%d-%s@activitypass", e.CourseID, e.Week, studentID),
			Summary:     e.Title,
			Location:    e.Location,
			Description: fmt.Sprintf("%s week %d", e.Code, e.Week),
			Start:       e.Start,
			End:         e.End,
		})
	}
	out, err := calendar.Render(feed)
	if err != nil {
		return nil, wrapInternal(err, "render calendar")
	}
	return []byte(out), nil
}

// EnrolledSlots returns the anchored time slots of every course the student holds.
func (s *CourseEventService) EnrolledSlots(ctx context.Context, studentID string) ([]scheduling.TimeSlot, error) {
	courses, err := s.anchoredCourses(ctx, studentID)
	if err != nil {
		return nil, err
	}
	slots := make([]scheduling.TimeSlot, 0, len(courses))
	for _, c := range courses {
		slots = append(slots, c.course.Slot)
	}
	return slots, nil
}

// Invalidate drops the cached events of one student.
func (s *CourseEventService) Invalidate(ctx context.Context, studentID string) error {
	return s.cache.Invalidate(ctx, "course-events:"+studentID)
}

type anchoredCourse struct {
	course   scheduling.Course
	title    string
	location string
}

func (s *CourseEventService) anchoredCourses(ctx context.Context, studentID string) ([]anchoredCourse, error) {
	courses, err := s.courses.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, wrapInternal(err, "load student courses")
	}
	if len(courses) == 0 {
		return nil, nil
	}
	cal, err := s.terms.Calendar(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]anchoredCourse, 0, len(courses))
	for _, c := range courses {
		sc, err := toSchedulingCourse(cal, c.Course)
		if err != nil {
			return nil, schedulingError(err)
		}
		out = append(out, anchoredCourse{course: sc, title: courseTitle(c.Course), location: c.Location})
	}
	return out, nil
}

func (s *CourseEventService) ensureStudent(ctx context.Context, studentID string) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		return notFoundOr(err, "student", "load student")
	}
	return nil
}

func courseTitle(c models.Course) string {
	switch {
	case c.Title != "":
		return c.Title
	case c.Code != "":
		return c.Code
	default:
		return "Course"
	}
}

func nonNil(values []int) []int {
	if values == nil {
		return []int{}
	}
	return values
}
