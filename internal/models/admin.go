package models

import "time"

// Admin represents a row of the admins table.
type Admin struct {
	AdminID             int64     `db:"admin_id" json:"admin_id"`
	Name                string    `db:"name" json:"name"`
	Email               string    `db:"email" json:"email"`
	PasswordHash        string    `db:"password" json:"-"`
	ContactNo           *string   `db:"contact_no" json:"contact_no,omitempty"`
	CanCreateTemplates  bool      `db:"can_create_templates" json:"can_create_templates"`
	CanViewReports      bool      `db:"can_view_reports" json:"can_view_reports"`
	CanManageUsers      bool      `db:"can_manage_users" json:"can_manage_users"`
	CanManageCourses    bool      `db:"can_manage_courses" json:"can_manage_courses"`
	CanManageComplaints bool      `db:"can_manage_complaints" json:"can_manage_complaints"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Permissions expands the capability flags into token permissions.
func (a Admin) Permissions() []Permission {
	perms := make([]Permission, 0, 5)
	if a.CanCreateTemplates {
		perms = append(perms, PermCreateTemplates)
	}
	if a.CanViewReports {
		perms = append(perms, PermViewReports)
	}
	if a.CanManageUsers {
		perms = append(perms, PermManageUsers)
	}
	if a.CanManageCourses {
		perms = append(perms, PermManageCourses)
	}
	if a.CanManageComplaints {
		perms = append(perms, PermManageComplaints)
	}
	return perms
}

// AdminPermissions is the editable capability set of an admin.
type AdminPermissions struct {
	CanCreateTemplates  bool `json:"can_create_templates"`
	CanViewReports      bool `json:"can_view_reports"`
	CanManageUsers      bool `json:"can_manage_users"`
	CanManageCourses    bool `json:"can_manage_courses"`
	CanManageComplaints bool `json:"can_manage_complaints"`
}

// CreateAdminRequest registers an admin.
type CreateAdminRequest struct {
	AdminID   int64   `json:"admin_id" validate:"required,gt=0"`
	Name      string  `json:"name" validate:"required,max=255"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6"`
	ContactNo *string `json:"contact_no" validate:"omitempty,max=32"`
	AdminPermissions
}

// UpdateAdminRequest replaces an admin's attributes. An empty password keeps the current hash.
type UpdateAdminRequest struct {
	Name      string  `json:"name" validate:"required,max=255"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"omitempty,min=6"`
	ContactNo *string `json:"contact_no" validate:"omitempty,max=32"`
	AdminPermissions
}
