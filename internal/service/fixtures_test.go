package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
)

const testTerm = "2025-2026-1"

// testAnchor is the Monday of week 1 of testTerm.
var testAnchor = time.Date(2025, time.September, 1, 0, 0, 0, 0, scheduling.CampusLocation)

func testCalendar() scheduling.TermCalendar {
	return scheduling.TermCalendar{testTerm: testAnchor}
}

func testCourse(id, code string, weekday int, periods, weeks []int) models.Course {
	return models.Course{
		ID:       id,
		Code:     code,
		Title:    "Course " + code,
		TermCode: testTerm,
		Capacity: 30,
		Weekday:  weekday,
		Periods:  int64Array(periods),
		Weeks:    int64Array(weeks),
		Location: "Room 101",
	}
}

type studentStub struct {
	profiles map[string]*models.StudentProfile
}

func newStudentStub(profiles ...models.StudentProfile) *studentStub {
	s := &studentStub{profiles: map[string]*models.StudentProfile{}}
	for i := range profiles {
		p := profiles[i]
		s.profiles[p.ID] = &p
	}
	return s
}

func (s *studentStub) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("find student by id: %w", sql.ErrNoRows)
	}
	return p, nil
}

func (s *studentStub) ListAll(ctx context.Context) ([]models.StudentProfile, error) {
	out := make([]models.StudentProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentNumber < out[j].StudentNumber })
	return out, nil
}

type studentCourseStub struct {
	courses map[string][]models.StudentCourse
	calls   int
}

func (s *studentCourseStub) ListByStudent(ctx context.Context, studentID string) ([]models.StudentCourse, error) {
	s.calls++
	return s.courses[studentID], nil
}

type calendarStub struct {
	cal scheduling.TermCalendar
	err error
}

func (c calendarStub) Calendar(ctx context.Context) (scheduling.TermCalendar, error) {
	return c.cal, c.err
}

type termReaderStub struct {
	terms []models.AcademicTerm
	err   error
}

func (t termReaderStub) ListAnchored(ctx context.Context) ([]models.AcademicTerm, error) {
	return t.terms, t.err
}

type cacheRepoStub struct {
	data    map[string][]byte
	deleted []string
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{data: map[string][]byte{}}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	c.deleted = append(c.deleted, pattern)
	removed := 0
	for key := range c.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.data, key)
			removed++
		}
	}
	return removed, nil
}

func studentCourse(enrollmentID string, c models.Course) models.StudentCourse {
	return models.StudentCourse{EnrollmentID: enrollmentID, Course: c}
}
