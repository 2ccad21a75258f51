package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
)

const adminColumns = `admin_id, name, email, password, contact_no, can_create_templates, can_view_reports, can_manage_users, can_manage_courses, can_manage_complaints, created_at, updated_at`

// AdminRepository provides database access for admin accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByEmail returns an admin by email address.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE LOWER(email) = LOWER($1) LIMIT 1", adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return &admin, nil
}

// FindByID returns an admin by identifier.
func (r *AdminRepository) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins WHERE admin_id = $1 LIMIT 1", adminColumns)
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by id: %w", err)
	}
	return &admin, nil
}

// List returns every admin ordered by name.
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	query := fmt.Sprintf("SELECT %s FROM admins ORDER BY name ASC", adminColumns)
	var admins []models.Admin
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Create inserts a new admin.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	now := time.Now().UTC()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now
	const query = `INSERT INTO admins (admin_id, name, email, password, contact_no, can_create_templates, can_view_reports, can_manage_users, can_manage_courses, can_manage_complaints, created_at, updated_at)
VALUES (:admin_id, :name, :email, :password, :contact_no, :can_create_templates, :can_view_reports, :can_manage_users, :can_manage_courses, :can_manage_complaints, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Update replaces an admin's attributes and permission flags.
func (r *AdminRepository) Update(ctx context.Context, admin *models.Admin) error {
	admin.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admins SET name = :name, email = :email, password = :password, contact_no = :contact_no,
can_create_templates = :can_create_templates, can_view_reports = :can_view_reports, can_manage_users = :can_manage_users,
can_manage_courses = :can_manage_courses, can_manage_complaints = :can_manage_complaints, updated_at = :updated_at WHERE admin_id = :admin_id`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	return nil
}

// Delete removes an admin. The returned bool is false when no row matched.
func (r *AdminRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE admin_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete admin: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete admin: %w", err)
	}
	return affected > 0, nil
}
