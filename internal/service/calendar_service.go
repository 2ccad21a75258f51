package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type calendarRepository interface {
	List(ctx context.Context, adminID *int64) ([]models.CalendarEvent, error)
	ListMonth(ctx context.Context, year, month int, adminID *int64) ([]models.CalendarEvent, error)
	FindByID(ctx context.Context, id int64) (*models.CalendarEvent, error)
	Create(ctx context.Context, event *models.CalendarEvent) error
	Update(ctx context.Context, event *models.CalendarEvent) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// CalendarService manages admin calendar events. Events without an owner are shared.
type CalendarService struct {
	repo      calendarRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService constructs the calendar service.
func NewCalendarService(repo calendarRepository, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{repo: repo, validator: validate, logger: logger}
}

// List returns every event, or only the admin's own and shared events when adminID is set.
func (s *CalendarService) List(ctx context.Context, adminID *int64) ([]models.CalendarEvent, error) {
	events, err := s.repo.List(ctx, adminID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list calendar events")
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}
	return events, nil
}

// Month returns the events falling in the given month.
func (s *CalendarService) Month(ctx context.Context, query models.CalendarMonthQuery, adminID *int64) ([]models.CalendarEvent, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Validation(err, "invalid month")
	}
	events, err := s.repo.ListMonth(ctx, query.Year, query.Month, adminID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list calendar events")
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}
	return events, nil
}

// Create adds an event owned by adminID, or a shared one.
func (s *CalendarService) Create(ctx context.Context, adminID int64, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	event := &models.CalendarEvent{}
	if err := s.apply(event, adminID, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, writeError(err, "calendar event conflict", "failed to create calendar event")
	}
	return event, nil
}

// Update replaces an event the admin owns or that is shared.
func (s *CalendarService) Update(ctx context.Context, id, adminID int64, req models.CalendarEventRequest) (*models.CalendarEvent, error) {
	event, err := s.editable(ctx, id, adminID)
	if err != nil {
		return nil, err
	}
	if err := s.apply(event, adminID, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, writeError(err, "calendar event conflict", "failed to update calendar event")
	}
	return event, nil
}

// Delete removes an event the admin owns or that is shared.
func (s *CalendarService) Delete(ctx context.Context, id, adminID int64) error {
	if _, err := s.editable(ctx, id, adminID); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete calendar event")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "calendar event not found")
	}
	return nil
}

func (s *CalendarService) editable(ctx context.Context, id, adminID int64) (*models.CalendarEvent, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "calendar event not found", "failed to load calendar event")
	}
	if event.AdminID != nil && *event.AdminID != adminID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "event belongs to another admin")
	}
	return event, nil
}

func (s *CalendarService) apply(event *models.CalendarEvent, adminID int64, req models.CalendarEventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid calendar event")
	}
	date, err := parseDate(req.EventDate)
	if err != nil {
		return appErrors.Validation(err, "event_date must be YYYY-MM-DD")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	event.Title = title
	event.Description = normalizeOptional(req.Description)
	event.EventDate = date
	if req.Shared {
		event.AdminID = nil
	} else {
		owner := adminID
		event.AdminID = &owner
	}
	return nil
}
