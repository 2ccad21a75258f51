package models

import "time"

const (
	DefaultTheme             = "light"
	DefaultAutoLogoutMinutes = 30
)

// AppSettings stores per-admin preferences.
type AppSettings struct {
	AdminID           int64     `db:"admin_id" json:"admin_id"`
	Theme             string    `db:"theme" json:"theme"`
	AutoLogoutMinutes int       `db:"auto_logout_minutes" json:"auto_logout_minutes"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultAppSettings is returned for admins without a stored row.
func DefaultAppSettings(adminID int64) AppSettings {
	return AppSettings{AdminID: adminID, Theme: DefaultTheme, AutoLogoutMinutes: DefaultAutoLogoutMinutes}
}

// SaveSettingsRequest updates an admin's preferences.
type SaveSettingsRequest struct {
	Theme             string `json:"theme" validate:"omitempty,oneof=light dark system"`
	AutoLogoutMinutes int    `json:"auto_logout_minutes" validate:"gte=0,lte=1440"`
}
