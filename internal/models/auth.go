package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole distinguishes the two kinds of principals.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStudent UserRole = "STUDENT"
)

// Permission names an admin capability carried in the access token.
type Permission string

const (
	PermCreateTemplates  Permission = "create_templates"
	PermViewReports      Permission = "view_reports"
	PermManageUsers      Permission = "manage_users"
	PermManageCourses    Permission = "manage_courses"
	PermManageComplaints Permission = "manage_complaints"
)

// AdminLoginRequest holds admin credentials.
type AdminLoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// StudentLoginRequest holds student credentials.
type StudentLoginRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated principal in responses.
type UserInfo struct {
	ID          int64        `json:"id"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Role        UserRole     `json:"role"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. RegisteredClaims.ID is the session jti.
type JWTClaims struct {
	UserID      int64        `json:"user_id"`
	Role        UserRole     `json:"role"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the claims grant p.
func (c *JWTClaims) HasPermission(p Permission) bool {
	if c == nil {
		return false
	}
	for _, granted := range c.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// Info converts the claims to the public user view.
func (c *JWTClaims) Info() UserInfo {
	return UserInfo{ID: c.UserID, Email: c.Email, Name: c.Name, Role: c.Role, Permissions: c.Permissions}
}

// Session is the server side record of an issued access token.
type Session struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Role      UserRole  `json:"role"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	IssuedAt  time.Time `json:"issued_at"`
}
