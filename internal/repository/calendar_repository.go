package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
)

const calendarColumns = `event_id, title, description, event_date, admin_id, created_at, updated_at`

// CalendarRepository persists admin calendar events.
type CalendarRepository struct {
	db *sqlx.DB
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(db *sqlx.DB) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// List returns events by date. With an admin id only that admin's and shared events are returned.
func (r *CalendarRepository) List(ctx context.Context, adminID *int64) ([]models.CalendarEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM admin_calendar_events", calendarColumns)
	args := []interface{}{}
	if adminID != nil {
		query += " WHERE admin_id = $1 OR admin_id IS NULL"
		args = append(args, *adminID)
	}
	query += " ORDER BY event_date ASC, event_id ASC"
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}

// ListMonth returns the events within the given month.
func (r *CalendarRepository) ListMonth(ctx context.Context, year, month int, adminID *int64) ([]models.CalendarEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM admin_calendar_events WHERE EXTRACT(YEAR FROM event_date) = $1 AND EXTRACT(MONTH FROM event_date) = $2", calendarColumns)
	args := []interface{}{year, month}
	if adminID != nil {
		query += " AND (admin_id = $3 OR admin_id IS NULL)"
		args = append(args, *adminID)
	}
	query += " ORDER BY event_date ASC, event_id ASC"
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list month calendar events: %w", err)
	}
	return events, nil
}

// FindByID returns an event; sql.ErrNoRows is returned unwrapped.
func (r *CalendarRepository) FindByID(ctx context.Context, id int64) (*models.CalendarEvent, error) {
	query := fmt.Sprintf("SELECT %s FROM admin_calendar_events WHERE event_id = $1", calendarColumns)
	var event models.CalendarEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find calendar event: %w", err)
	}
	return &event, nil
}

// Create inserts an event and fills its id.
func (r *CalendarRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO admin_calendar_events (title, description, event_date, admin_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING event_id`
	if err := r.db.QueryRowxContext(ctx, query, event.Title, event.Description, event.EventDate, event.AdminID, event.CreatedAt, event.UpdatedAt).Scan(&event.EventID); err != nil {
		return fmt.Errorf("create calendar event: %w", err)
	}
	return nil
}

// Update replaces an event's content.
func (r *CalendarRepository) Update(ctx context.Context, event *models.CalendarEvent) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admin_calendar_events SET title = $1, description = $2, event_date = $3, admin_id = $4, updated_at = $5 WHERE event_id = $6`
	if _, err := r.db.ExecContext(ctx, query, event.Title, event.Description, event.EventDate, event.AdminID, event.UpdatedAt, event.EventID); err != nil {
		return fmt.Errorf("update calendar event: %w", err)
	}
	return nil
}

// Delete removes an event. The returned bool is false when no row matched.
func (r *CalendarRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admin_calendar_events WHERE event_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete calendar event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete calendar event: %w", err)
	}
	return affected > 0, nil
}
