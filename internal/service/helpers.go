package service

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/internal/repository"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeCourseCode maps blank and "N/A" course codes to nil.
func normalizeCourseCode(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "N/A") {
		return nil
	}
	return &trimmed
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(raw), time.UTC)
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// lookupError maps a repository lookup failure onto the API error space.
func lookupError(err error, notFound, failure string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, failure)
}

// writeError maps a repository write failure, surfacing constraint violations.
func writeError(err error, conflict, failure string) error {
	switch {
	case repository.IsUniqueViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict)
	case repository.IsForeignKeyViolation(err):
		return appErrors.Validation(err, "referenced record does not exist")
	case repository.IsCheckViolation(err):
		return appErrors.Validation(err, "record violates a constraint")
	default:
		return appErrors.Internal(err, failure)
	}
}
