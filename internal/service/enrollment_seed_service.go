package service

import (
	"context"
	"database/sql"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
)

// courseNamespace derives stable course ids from the record tuple.
var courseNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("activitypass/courses"))

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type termStore interface {
	ListAnchored(ctx context.Context) ([]models.AcademicTerm, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, term *models.AcademicTerm) error
}

type courseStore interface {
	ListAll(ctx context.Context) ([]models.Course, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, courses []models.Course) error
}

type studentLister interface {
	ListAll(ctx context.Context) ([]models.StudentProfile, error)
}

type enrollmentStore interface {
	ListAllWithCourse(ctx context.Context) ([]models.EnrollmentWithCourse, error)
	CountByCourse(ctx context.Context) (map[string]int, error)
	Upsert(ctx context.Context, exec sqlx.ExtContext, rows []models.CourseEnrollment) (int, error)
}

// EnrollmentSeedService bulk-assigns students to course sections from records files
// and random fill.
type EnrollmentSeedService struct {
	tx          txProvider
	terms       termStore
	courses     courseStore
	students    studentLister
	enrollments enrollmentStore
	cache       *CacheService
	metrics     *MetricsService
	location    *time.Location
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentSeedService constructs the service.
func NewEnrollmentSeedService(
	tx txProvider,
	terms termStore,
	courses courseStore,
	students studentLister,
	enrollments enrollmentStore,
	cache *CacheService,
	metrics *MetricsService,
	location *time.Location,
	validate *validator.Validate,
	logger *zap.Logger,
) *EnrollmentSeedService {
	if location == nil {
		location = scheduling.CampusLocation
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentSeedService{
		tx:          tx,
		terms:       terms,
		courses:     courses,
		students:    students,
		enrollments: enrollments,
		cache:       cache,
		metrics:     metrics,
		location:    location,
		validator:   validate,
		logger:      logger,
	}
}

// Seed runs one seeding pass. In dry-run mode nothing is written and the summary
// describes what would have been stored.
func (s *EnrollmentSeedService) Seed(ctx context.Context, req dto.SeedRequest) (*dto.SeedSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid seed request")
	}

	terms := s.deriveTerms(req.Records)
	courses, recordCourse := deriveCourses(req.Records)
	summary := &dto.SeedSummary{
		DryRun:          req.DryRun,
		TermsUpserted:   len(terms),
		CoursesUpserted: len(courses),
		BySource:        map[string]int{},
		Rejections:      []scheduling.Rejection{},
	}

	if !req.DryRun {
		if err := s.persistCatalog(ctx, terms, courses); err != nil {
			return nil, err
		}
	}

	cal, err := s.calendar(ctx, terms)
	if err != nil {
		return nil, err
	}
	stored, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, wrapInternal(err, "load courses")
	}
	catalog := mergeCourses(stored, courses)
	pool, err := toSchedulingCourses(cal, catalog)
	if err != nil {
		return nil, schedulingError(err)
	}
	byID := make(map[string]scheduling.Course, len(pool))
	for _, c := range pool {
		byID[c.ID] = c
	}

	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, wrapInternal(err, "load students")
	}
	ledger, existing, err := s.loadLedger(ctx, cal)
	if err != nil {
		return nil, err
	}

	reqs := s.buildRequests(req, students, existing, recordCourse, byID, pool)
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	assigner := scheduling.NewAssigner(rand.NewSource(seed), ledger)
	results := assigner.AssignBatch(reqs)

	summary.Students = len(results)
	summary.Results = results
	for _, res := range results {
		if res.Skipped {
			summary.Skipped++
		}
		summary.Accepted += len(res.Accepted)
		summary.Rejected += len(res.Rejected)
		summary.Rejections = append(summary.Rejections, res.Rejected...)
		for _, a := range res.Accepted {
			summary.BySource[string(a.Source)]++
			s.metrics.RecordAssignments(string(a.Source), "accepted", 1)
		}
		for _, r := range res.Rejected {
			s.metrics.RecordAssignments(string(r.Source), "rejected", 1)
			s.logger.Info("enrollment rejected",
				zap.String("student_id", r.StudentID),
				zap.String("course_code", r.CourseCode),
				zap.String("source", string(r.Source)),
				zap.String("reason", string(r.Reason)))
		}
		if req.DryRun || len(res.Accepted) == 0 {
			continue
		}
		n, err := s.persistAssignments(ctx, res.Accepted)
		if err != nil {
			return nil, err
		}
		summary.Inserted += n
	}

	if !req.DryRun && summary.Inserted > 0 {
		if err := s.cache.Invalidate(ctx, CourseEventCachePattern); err != nil {
			s.logger.Warn("course event cache not invalidated", zap.Error(err))
		}
	}

	s.logger.Info("enrollment seeding finished",
		zap.Bool("dry_run", req.DryRun),
		zap.Int64("seed", seed),
		zap.Int("students", summary.Students),
		zap.Int("accepted", summary.Accepted),
		zap.Int("inserted", summary.Inserted),
		zap.Int("rejected", summary.Rejected),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// deriveTerms collects the terms named by records carrying a start date. A later
// record for the same term overrides the anchor of an earlier one.
func (s *EnrollmentSeedService) deriveTerms(records []dto.CourseRecord) []models.AcademicTerm {
	byCode := make(map[string]models.AcademicTerm)
	order := make([]string, 0)
	for _, rec := range records {
		code := strings.TrimSpace(rec.Term)
		if code == "" || rec.TermStartDate == "" {
			continue
		}
		year, semester, ok := parseTermCode(code)
		if !ok {
			s.logger.Warn("invalid term code", zap.String("term", code))
			continue
		}
		anchor, err := time.ParseInLocation(time.DateOnly, rec.TermStartDate, s.location)
		if err != nil {
			s.logger.Warn("invalid term start date", zap.String("term", code), zap.String("date", rec.TermStartDate))
			continue
		}
		if prev, seen := byCode[code]; seen {
			if !prev.FirstWeekMonday.Equal(anchor) {
				s.logger.Warn("term anchor overridden", zap.String("term", code), zap.String("date", rec.TermStartDate))
			}
		} else {
			order = append(order, code)
		}
		byCode[code] = models.AcademicTerm{Code: code, AcademicYear: year, Semester: semester, FirstWeekMonday: &anchor, IsActive: true}
	}
	out := make([]models.AcademicTerm, 0, len(order))
	for _, code := range order {
		out = append(out, byCode[code])
	}
	return out
}

// parseTermCode splits "2024-2025-1" into its academic year and semester.
func parseTermCode(code string) (string, int, bool) {
	parts := strings.Split(code, "-")
	if len(parts) < 3 {
		return "", 0, false
	}
	semester, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || semester < 1 {
		return "", 0, false
	}
	return strings.Join(parts[:len(parts)-1], "-"), semester, true
}

// deriveCourses dedupes records into course sections and maps each record index to
// its section id.
func deriveCourses(records []dto.CourseRecord) ([]models.Course, []string) {
	courses := make([]models.Course, 0)
	seen := make(map[string]bool)
	recordCourse := make([]string, len(records))
	for i, rec := range records {
		id := courseID(rec)
		recordCourse[i] = id
		if seen[id] {
			continue
		}
		seen[id] = true

		weekday := rec.Weekday
		if weekday < 1 || weekday > 7 {
			weekday = scheduling.Unscheduled
		}
		course := models.Course{
			ID:       id,
			Code:     strings.TrimSpace(rec.Code),
			Title:    rec.Title,
			TermCode: strings.TrimSpace(rec.Term),
			Capacity: rec.Capacity,
			Weekday:  weekday,
			Periods:  int64Array(rec.Periods),
			Weeks:    int64Array(rec.Weeks),
			Location: rec.Location,
		}
		if rec.TeacherID != "" {
			teacher := rec.TeacherID
			course.TeacherID = &teacher
		}
		courses = append(courses, course)
	}
	return courses, recordCourse
}

func courseID(rec dto.CourseRecord) string {
	key := strings.Join([]string{
		strings.TrimSpace(rec.Code),
		rec.Title,
		rec.TeacherID,
		rec.Location,
		strings.TrimSpace(rec.Term),
		joinSorted(rec.Weeks),
		strconv.Itoa(rec.Weekday),
		joinSorted(rec.Periods),
		rec.TermStartDate,
	}, "|")
	return uuid.NewSHA1(courseNamespace, []byte(key)).String()
}

func joinSorted(values []int) string {
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func int64Array(values []int) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(values))
	for _, v := range values {
		out = append(out, int64(v))
	}
	return out
}

// mergeCourses overlays derived sections on stored ones by id.
func mergeCourses(stored, derived []models.Course) []models.Course {
	index := make(map[string]int, len(stored))
	out := make([]models.Course, 0, len(stored)+len(derived))
	for _, c := range stored {
		index[c.ID] = len(out)
		out = append(out, c)
	}
	for _, c := range derived {
		if i, ok := index[c.ID]; ok {
			out[i] = c
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}

func (s *EnrollmentSeedService) persistCatalog(ctx context.Context, terms []models.AcademicTerm, courses []models.Course) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("catalog_upsert", time.Since(start)) }()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return wrapInternal(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range terms {
		if err = s.terms.Upsert(ctx, tx, &terms[i]); err != nil {
			return wrapInternal(err, "upsert academic term")
		}
	}
	if err = s.courses.Upsert(ctx, tx, courses); err != nil {
		return wrapInternal(err, "upsert courses")
	}
	if err = tx.Commit(); err != nil {
		return wrapInternal(err, "commit catalog")
	}
	return nil
}

func (s *EnrollmentSeedService) persistAssignments(ctx context.Context, accepted []scheduling.Assignment) (n int, err error) {
	if s.tx == nil {
		return 0, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	rows := make([]models.CourseEnrollment, 0, len(accepted))
	for _, a := range accepted {
		rows = append(rows, models.CourseEnrollment{
			CourseID:           a.CourseID,
			StudentID:          a.StudentID,
			ExternalCourseCode: optional(a.ExternalCourseCode),
			ExternalStudentID:  optional(a.ExternalStudentID),
			Source:             string(a.Source),
		})
	}

	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("enrollment_upsert", time.Since(start)) }()

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, wrapInternal(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if n, err = s.enrollments.Upsert(ctx, tx, rows); err != nil {
		return 0, wrapInternal(err, "store enrollments")
	}
	if err = tx.Commit(); err != nil {
		return 0, wrapInternal(err, "commit enrollments")
	}
	return n, nil
}

// calendar merges stored anchors with the ones derived from the records.
func (s *EnrollmentSeedService) calendar(ctx context.Context, derived []models.AcademicTerm) (scheduling.TermCalendar, error) {
	stored, err := s.terms.ListAnchored(ctx)
	if err != nil {
		return nil, wrapInternal(err, "load academic terms")
	}
	cal := CalendarFromTerms(stored, s.location)
	for code, anchor := range CalendarFromTerms(derived, s.location) {
		cal[code] = anchor
	}
	return cal, nil
}

// loadLedger seeds capacity counts and stored pairs, returning each student's
// existing sections.
func (s *EnrollmentSeedService) loadLedger(ctx context.Context, cal scheduling.TermCalendar) (*scheduling.Ledger, map[string][]scheduling.Course, error) {
	counts, err := s.enrollments.CountByCourse(ctx)
	if err != nil {
		return nil, nil, wrapInternal(err, "count enrollments")
	}
	rows, err := s.enrollments.ListAllWithCourse(ctx)
	if err != nil {
		return nil, nil, wrapInternal(err, "load enrollments")
	}

	ledger := scheduling.NewLedger()
	for id, n := range counts {
		ledger.SeedCount(id, n)
	}
	existing := make(map[string][]scheduling.Course)
	for _, row := range rows {
		c, err := toSchedulingCourse(cal, row.Course)
		if err != nil {
			return nil, nil, schedulingError(err)
		}
		existing[row.StudentID] = append(existing[row.StudentID], c)
		ledger.SeedAssignment(scheduling.Assignment{
			StudentID:          row.StudentID,
			CourseID:           row.ID,
			CourseCode:         row.Code,
			ExternalCourseCode: valueOf(row.ExternalCourseCode),
			ExternalStudentID:  valueOf(row.ExternalStudentID),
		})
	}
	return ledger, existing, nil
}

func (s *EnrollmentSeedService) buildRequests(
	req dto.SeedRequest,
	students []models.StudentProfile,
	existing map[string][]scheduling.Course,
	recordCourse []string,
	byID map[string]scheduling.Course,
	pool []scheduling.Course,
) []scheduling.AssignRequest {
	known := make(map[string]bool, len(students))
	for _, st := range students {
		known[st.StudentNumber] = true
	}

	explicit := make(map[string][]scheduling.ExplicitRecord)
	for i, rec := range req.Records {
		number := strings.TrimSpace(rec.StudentID)
		if number == "" {
			continue
		}
		if !known[number] {
			s.logger.Warn("record references unknown student", zap.String("student_number", number), zap.String("code", rec.Code))
			continue
		}
		code := rec.ExternalCourseCode
		if code == "" {
			code = strings.TrimSpace(rec.Code)
		}
		explicit[number] = append(explicit[number], scheduling.ExplicitRecord{
			Course:             byID[recordCourse[i]],
			ExternalCourseCode: code,
			ExternalStudentID:  number,
		})
	}

	manual := make(map[string][]string)
	for _, m := range req.Manual {
		number := strings.TrimSpace(m.StudentID)
		if !known[number] {
			s.logger.Warn("manual assignment references unknown student", zap.String("student_number", number))
			continue
		}
		manual[number] = append(manual[number], m.Courses...)
	}

	reqs := make([]scheduling.AssignRequest, 0, len(students))
	for _, st := range students {
		reqs = append(reqs, scheduling.AssignRequest{
			StudentID:    st.ID,
			Existing:     existing[st.ID],
			Explicit:     explicit[st.StudentNumber],
			ManualCodes:  manual[st.StudentNumber],
			Pool:         pool,
			Count:        scheduling.CountRange{Min: req.RandomMin, Max: req.RandomMax},
			SkipExisting: req.SkipExisting,
		})
	}
	return reqs
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func valueOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

