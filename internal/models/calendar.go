package models

import "time"

// CalendarEvent represents a row of admin_calendar_events. A nil AdminID marks a shared event.
type CalendarEvent struct {
	EventID     int64     `db:"event_id" json:"event_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	EventDate   time.Time `db:"event_date" json:"event_date"`
	AdminID     *int64    `db:"admin_id" json:"admin_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CalendarEventRequest creates or updates an event.
type CalendarEventRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description"`
	EventDate   string  `json:"event_date" validate:"required,datetime=2006-01-02"`
	Shared      bool    `json:"shared"`
}

// CalendarMonthQuery selects events in a month.
type CalendarMonthQuery struct {
	Year  int `form:"year" validate:"required,gte=1970,lte=9999"`
	Month int `form:"month" validate:"required,gte=1,lte=12"`
}
