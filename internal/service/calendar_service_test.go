package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type calendarRepoStub struct {
	events map[int64]*models.CalendarEvent
	nextID int64
	month  [2]int
}

func newCalendarRepoStub() *calendarRepoStub {
	return &calendarRepoStub{events: map[int64]*models.CalendarEvent{}, nextID: 1}
}

func (s *calendarRepoStub) List(_ context.Context, adminID *int64) ([]models.CalendarEvent, error) {
	var out []models.CalendarEvent
	for _, e := range s.events {
		if adminID == nil || e.AdminID == nil || *e.AdminID == *adminID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *calendarRepoStub) ListMonth(_ context.Context, year, month int, _ *int64) ([]models.CalendarEvent, error) {
	s.month = [2]int{year, month}
	return nil, nil
}

func (s *calendarRepoStub) FindByID(_ context.Context, id int64) (*models.CalendarEvent, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *e
	return &copied, nil
}

func (s *calendarRepoStub) Create(_ context.Context, event *models.CalendarEvent) error {
	event.EventID = s.nextID
	s.nextID++
	copied := *event
	s.events[event.EventID] = &copied
	return nil
}

func (s *calendarRepoStub) Update(_ context.Context, event *models.CalendarEvent) error {
	copied := *event
	s.events[event.EventID] = &copied
	return nil
}

func (s *calendarRepoStub) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := s.events[id]; !ok {
		return false, nil
	}
	delete(s.events, id)
	return true, nil
}

func TestCalendarCreateOwnedAndShared(t *testing.T) {
	repo := newCalendarRepoStub()
	svc := NewCalendarService(repo, nil, zap.NewNop())
	ctx := context.Background()

	owned, err := svc.Create(ctx, 7, models.CalendarEventRequest{Title: "  Review week ", EventDate: "2024-03-12"})
	require.NoError(t, err)
	require.NotNil(t, owned.AdminID)
	assert.Equal(t, int64(7), *owned.AdminID)
	assert.Equal(t, "Review week", owned.Title)
	assert.Equal(t, 12, owned.EventDate.Day())

	shared, err := svc.Create(ctx, 7, models.CalendarEventRequest{Title: "Holiday", EventDate: "2024-03-20", Shared: true})
	require.NoError(t, err)
	assert.Nil(t, shared.AdminID)

	_, err = svc.Create(ctx, 8, models.CalendarEventRequest{Title: "Other", EventDate: "2024-03-21"})
	require.NoError(t, err)

	adminID := int64(7)
	mine, err := svc.List(ctx, &adminID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCalendarRejectsBadInput(t *testing.T) {
	svc := NewCalendarService(newCalendarRepoStub(), nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Create(ctx, 7, models.CalendarEventRequest{Title: "Exam", EventDate: "12/03/2024"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Month(ctx, models.CalendarMonthQuery{Year: 2024, Month: 13}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalendarEditsAreOwnerOrShared(t *testing.T) {
	repo := newCalendarRepoStub()
	svc := NewCalendarService(repo, nil, zap.NewNop())
	ctx := context.Background()

	owned, err := svc.Create(ctx, 7, models.CalendarEventRequest{Title: "Planning", EventDate: "2024-04-01"})
	require.NoError(t, err)
	shared, err := svc.Create(ctx, 7, models.CalendarEventRequest{Title: "Holiday", EventDate: "2024-04-02", Shared: true})
	require.NoError(t, err)

	_, err = svc.Update(ctx, owned.EventID, 8, models.CalendarEventRequest{Title: "Taken", EventDate: "2024-04-01"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	updated, err := svc.Update(ctx, shared.EventID, 8, models.CalendarEventRequest{Title: "Holiday moved", EventDate: "2024-04-03", Shared: true})
	require.NoError(t, err)
	assert.Equal(t, "Holiday moved", updated.Title)
	assert.Nil(t, updated.AdminID)

	require.NoError(t, svc.Delete(ctx, owned.EventID, 7))
	err = svc.Delete(ctx, owned.EventID, 7)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCalendarMonthPassesRange(t *testing.T) {
	repo := newCalendarRepoStub()
	svc := NewCalendarService(repo, nil, zap.NewNop())

	events, err := svc.Month(context.Background(), models.CalendarMonthQuery{Year: 2024, Month: 2}, nil)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Equal(t, [2]int{2024, 2}, repo.month)
}
