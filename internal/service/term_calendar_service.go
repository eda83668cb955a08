package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/activitypass-api/internal/dto"
	"github.com/noah-isme/activitypass-api/internal/models"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
	appErrors "github.com/noah-isme/activitypass-api/pkg/errors"
)

type termReader interface {
	ListAnchored(ctx context.Context) ([]models.AcademicTerm, error)
}

// TermCalendarService resolves term codes to their week-1 anchors.
type TermCalendarService struct {
	terms     termReader
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTermCalendarService constructs the service.
func NewTermCalendarService(terms termReader, location *time.Location, validate *validator.Validate, logger *zap.Logger) *TermCalendarService {
	if location == nil {
		location = scheduling.CampusLocation
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermCalendarService{terms: terms, location: location, validator: validate, logger: logger}
}

// Calendar builds the anchor map from every anchored term. Terms without an anchor are omitted,
// so courses referencing them fail with ErrTermNotConfigured.
func (s *TermCalendarService) Calendar(ctx context.Context) (scheduling.TermCalendar, error) {
	terms, err := s.terms.ListAnchored(ctx)
	if err != nil {
		return nil, wrapInternal(err, "load academic terms")
	}
	return CalendarFromTerms(terms, s.location), nil
}

// ValidateAnchor checks a submitted week-1 Monday against the configured one.
func (s *TermCalendarService) ValidateAnchor(ctx context.Context, term string, req dto.AnchorValidationRequest) (*dto.AnchorValidationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "first_week_monday must be a YYYY-MM-DD date")
	}
	submitted, err := time.ParseInLocation(time.DateOnly, req.FirstWeekMonday, s.location)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "first_week_monday must be a YYYY-MM-DD date")
	}

	cal, err := s.Calendar(ctx)
	if err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if err := cal.Validate(term, submitted); err != nil {
		s.logger.Warn("term anchor rejected", zap.String("term", term), zap.String("submitted", req.FirstWeekMonday), zap.Error(err))
		return nil, schedulingError(err)
	}
	anchor, _ := cal.Anchor(term)
	return &dto.AnchorValidationResponse{Term: term, FirstWeekMonday: anchor.Format(time.DateOnly), Valid: true}, nil
}

// CalendarFromTerms maps each anchored term to its Monday at campus midnight.
func CalendarFromTerms(terms []models.AcademicTerm, loc *time.Location) scheduling.TermCalendar {
	cal := make(scheduling.TermCalendar, len(terms))
	for _, t := range terms {
		if t.FirstWeekMonday == nil || t.FirstWeekMonday.IsZero() {
			continue
		}
		cal[t.Code] = campusDate(*t.FirstWeekMonday, loc)
	}
	return cal
}

// campusDate keeps the calendar date of d and places it at midnight in loc.
func campusDate(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}
