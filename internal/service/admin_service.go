package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type adminRepository interface {
	List(ctx context.Context) ([]models.Admin, error)
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	Create(ctx context.Context, admin *models.Admin) error
	Update(ctx context.Context, admin *models.Admin) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// AdminService manages administrator accounts and their capability flags.
type AdminService struct {
	repo      adminRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAdminService constructs the admin service.
func NewAdminService(repo adminRepository, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, validator: validate, logger: logger}
}

// List returns all admins.
func (s *AdminService) List(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list admins")
	}
	if admins == nil {
		admins = []models.Admin{}
	}
	return admins, nil
}

// Get returns one admin.
func (s *AdminService) Get(ctx context.Context, id int64) (*models.Admin, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "admin not found", "failed to load admin")
	}
	return admin, nil
}

// Create registers an admin.
func (s *AdminService) Create(ctx context.Context, req models.CreateAdminRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid admin payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	admin := &models.Admin{
		AdminID:      req.AdminID,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		ContactNo:    normalizeOptional(req.ContactNo),
	}
	applyPermissions(admin, req.AdminPermissions)
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, writeError(err, "admin id or email already used", "failed to create admin")
	}
	return admin, nil
}

// Update replaces an admin's attributes and permissions.
func (s *AdminService) Update(ctx context.Context, id int64, req models.UpdateAdminRequest) (*models.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid admin payload")
	}
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to hash password")
		}
		admin.PasswordHash = string(hash)
	}
	admin.Name = strings.TrimSpace(req.Name)
	admin.Email = strings.TrimSpace(req.Email)
	admin.ContactNo = normalizeOptional(req.ContactNo)
	applyPermissions(admin, req.AdminPermissions)
	if err := s.repo.Update(ctx, admin); err != nil {
		return nil, writeError(err, "email already used", "failed to update admin")
	}
	return admin, nil
}

// Delete removes an admin. Admins cannot delete themselves.
func (s *AdminService) Delete(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrValidation, "cannot delete your own account")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return writeError(err, "admin still referenced", "failed to delete admin")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "admin not found")
	}
	return nil
}

func applyPermissions(admin *models.Admin, perms models.AdminPermissions) {
	admin.CanCreateTemplates = perms.CanCreateTemplates
	admin.CanViewReports = perms.CanViewReports
	admin.CanManageUsers = perms.CanManageUsers
	admin.CanManageCourses = perms.CanManageCourses
	admin.CanManageComplaints = perms.CanManageComplaints
}
