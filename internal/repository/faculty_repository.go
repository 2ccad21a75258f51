package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-eval-api/internal/models"
)

const facultyColumns = `faculty_id, name, email, password, contact_no, dob, gender, joining_date, profile_picture, created_at, updated_at`

// FacultyRepository manages persistence for faculty members.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository constructs the repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// List returns all faculty ordered by name.
func (r *FacultyRepository) List(ctx context.Context) ([]models.Faculty, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty ORDER BY name ASC", facultyColumns)
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

// FindByID returns a faculty member; sql.ErrNoRows is returned unwrapped.
func (r *FacultyRepository) FindByID(ctx context.Context, id int64) (*models.Faculty, error) {
	query := fmt.Sprintf("SELECT %s FROM faculty WHERE faculty_id = $1", facultyColumns)
	var member models.Faculty
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find faculty: %w", err)
	}
	return &member, nil
}

// Create inserts a faculty member.
func (r *FacultyRepository) Create(ctx context.Context, member *models.Faculty) error {
	now := time.Now().UTC()
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	const query = `INSERT INTO faculty (faculty_id, name, email, password, contact_no, dob, gender, joining_date, profile_picture, created_at, updated_at)
VALUES (:faculty_id, :name, :email, :password, :contact_no, :dob, :gender, :joining_date, :profile_picture, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create faculty: %w", err)
	}
	return nil
}

// Update replaces a faculty member's attributes.
func (r *FacultyRepository) Update(ctx context.Context, member *models.Faculty) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE faculty SET name = :name, email = :email, password = :password, contact_no = :contact_no, dob = :dob,
gender = :gender, joining_date = :joining_date, profile_picture = :profile_picture, updated_at = :updated_at WHERE faculty_id = :faculty_id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update faculty: %w", err)
	}
	return nil
}

// Delete removes a faculty member. The returned bool is false when no row matched.
func (r *FacultyRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM faculty WHERE faculty_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete faculty: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete faculty: %w", err)
	}
	return affected > 0, nil
}

// Count returns the number of faculty members.
func (r *FacultyRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM faculty`); err != nil {
		return 0, fmt.Errorf("count faculty: %w", err)
	}
	return count, nil
}
