package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/repository"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
)

type activityReader interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]models.Activity, error)
}

type participationStore interface {
	CountApprovedSince(ctx context.Context, studentID string, since time.Time) (int, error)
	FindByStudentAndActivity(ctx context.Context, studentID, activityID string) (*models.Participation, error)
	Create(ctx context.Context, p *models.Participation) error
}

type enrolledSlotSource interface {
	EnrolledSlots(ctx context.Context, studentID string) ([]scheduling.TimeSlot, error)
}

// EligibilityConfig tunes the eligibility service.
type EligibilityConfig struct {
	AnnualCap    int
	Window       time.Duration
	DefaultLimit int
	Now          func() time.Time
}

// EligibilityService evaluates and records activity applications.
type EligibilityService struct {
	students       studentReader
	activities     activityReader
	participations participationStore
	slots          enrolledSlotSource
	evaluator      *scheduling.Evaluator
	metrics        *MetricsService
	logger         *zap.Logger
	limit          int
	now            func() time.Time
}

// NewEligibilityService constructs the service.
func NewEligibilityService(students studentReader, activities activityReader, participations participationStore, slots enrolledSlotSource, expander *scheduling.Expander, metrics *MetricsService, cfg EligibilityConfig, logger *zap.Logger) *EligibilityService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		students:       students,
		activities:     activities,
		participations: participations,
		slots:          slots,
		evaluator: scheduling.NewEvaluator(expander, scheduling.EvaluatorConfig{
			AnnualCap: cfg.AnnualCap,
			Window:    cfg.Window,
			Now:       cfg.Now,
		}),
		metrics: metrics,
		logger:  logger,
		limit:   cfg.DefaultLimit,
		now:     cfg.Now,
	}
}

// studentContext is what every rule evaluation of one student needs.
type studentContext struct {
	profile  *models.StudentProfile
	slots    []scheduling.TimeSlot
	approved int
}

// Check evaluates one student against one activity.
func (s *EligibilityService) Check(ctx context.Context, studentID, activityID string) (*dto.EligibilityResponse, error) {
	sc, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		return nil, notFoundOr(err, "activity", "load activity")
	}
	resp := s.evaluate(sc, activity)
	return &resp, nil
}

// ListEligible returns upcoming activities the student can join, soonest first, up
// to limit entries. A non-positive limit uses the configured default.
func (s *EligibilityService) ListEligible(ctx context.Context, studentID string, limit int) ([]dto.EligibleActivity, error) {
	if limit <= 0 {
		limit = s.limit
	}
	sc, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}
	activities, err := s.activities.ListUpcoming(ctx, s.now())
	if err != nil {
		return nil, wrapInternal(err, "list upcoming activities")
	}

	results := make([]dto.EligibleActivity, 0, limit)
	for i := range activities {
		verdict := s.evaluate(sc, &activities[i])
		if !verdict.Eligible {
			continue
		}
		results = append(results, dto.EligibleActivity{Activity: activities[i], Eligibility: verdict})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Apply records an application after a passing evaluation.
func (s *EligibilityService) Apply(ctx context.Context, studentID, activityID string) (*models.Participation, error) {
	sc, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		return nil, notFoundOr(err, "activity", "load activity")
	}

	existing, err := s.participations.FindByStudentAndActivity(ctx, studentID, activityID)
	if err != nil {
		return nil, wrapInternal(err, "load participation")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "already applied")
	}

	verdict := s.evaluate(sc, activity)
	if !verdict.Eligible {
		return nil, appErrors.WithDetails(appErrors.ErrNotEligible, verdict.Reasons)
	}

	p := &models.Participation{StudentID: studentID, ActivityID: activityID, Status: models.ParticipationApplied}
	if err := s.participations.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateParticipation) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "already applied")
		}
		return nil, wrapInternal(err, "create participation")
	}
	s.logger.Info("activity application recorded", zap.String("student_id", studentID), zap.String("activity_id", activityID))
	return p, nil
}

func (s *EligibilityService) load(ctx context.Context, studentID string) (*studentContext, error) {
	profile, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, "student", "load student")
	}
	slots, err := s.slots.EnrolledSlots(ctx, studentID)
	if err != nil {
		return nil, err
	}
	approved, err := s.participations.CountApprovedSince(ctx, studentID, s.evaluator.WindowStart())
	if err != nil {
		return nil, wrapInternal(err, "count approved participations")
	}
	return &studentContext{profile: profile, slots: slots, approved: approved}, nil
}

func (s *EligibilityService) evaluate(sc *studentContext, activity *models.Activity) dto.EligibilityResponse {
	verdict := s.evaluator.Evaluate(studentAttributes(sc.profile), activityRequirements(activity), sc.slots, sc.approved)

	resp := dto.EligibilityResponse{
		StudentID:  sc.profile.ID,
		ActivityID: activity.ID,
		Eligible:   verdict.Eligible,
		Reasons:    make([]dto.EligibilityReason, 0, len(verdict.Reasons)),
	}
	codes := make([]string, 0, len(verdict.Reasons))
	for _, r := range verdict.Reasons {
		resp.Reasons = append(resp.Reasons, dto.EligibilityReason{Code: string(r), Message: r.Message()})
		codes = append(codes, string(r))
	}
	s.metrics.RecordVerdict(verdict.Eligible, codes)
	return resp
}
