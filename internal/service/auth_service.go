package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/course-eval-api/internal/models"
	"github.com/noah-isme/course-eval-api/internal/repository"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type adminAuthRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type studentAuthRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService authenticates admins and students and tracks their sessions.
type AuthService struct {
	admins    adminAuthRepository
	students  studentAuthRepository
	sessions  repository.SessionStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance. audit may be nil.
func NewAuthService(admins adminAuthRepository, students studentAuthRepository, sessions repository.SessionStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{
		admins:    admins,
		students:  students,
		sessions:  sessions,
		audit:     audit,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// AdminLogin authenticates an admin by email and password.
func (s *AuthService) AdminLogin(ctx context.Context, req models.AdminLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}
	admin, err := s.admins.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch admin")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	user := models.UserInfo{
		ID:          admin.AdminID,
		Email:       admin.Email,
		Name:        admin.Name,
		Role:        models.RoleAdmin,
		Permissions: admin.Permissions(),
	}
	return s.issue(ctx, user, req.IP, req.UserAgent)
}

// StudentLogin authenticates a student by id and password.
func (s *AuthService) StudentLogin(ctx context.Context, req models.StudentLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid login payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid student id or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch student")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid student id or password")
	}
	user := models.UserInfo{
		ID:    student.StudentID,
		Email: student.Email,
		Name:  student.Name,
		Role:  models.RoleStudent,
	}
	return s.issue(ctx, user, req.IP, req.UserAgent)
}

// Logout ends the session bound to the token's jti.
func (s *AuthService) Logout(ctx context.Context, claims *models.JWTClaims, ip, userAgent string) error {
	if claims == nil || claims.ID == "" {
		return appErrors.ErrUnauthorized
	}
	if err := s.sessions.Delete(ctx, claims.ID); err != nil {
		return appErrors.Internal(err, "failed to end session")
	}
	s.record(ctx, claims.Info(), models.AuditActionLogout, `{"status":"logout"}`, ip, userAgent)
	return nil
}

// ValidateToken parses an access token and requires its session to be live.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	session, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or logged out")
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	if session.UserID != claims.UserID || session.Role != claims.Role {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session does not match token")
	}
	return claims, nil
}

func (s *AuthService) issue(ctx context.Context, user models.UserInfo, ip, userAgent string) (*models.LoginResponse, error) {
	issuedAt := s.now().UTC()
	jti := uuid.NewString()
	signed, err := s.generateAccessToken(user, jti, issuedAt)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}
	session := models.Session{
		ID:        jti,
		UserID:    user.ID,
		Role:      user.Role,
		IP:        ip,
		UserAgent: userAgent,
		IssuedAt:  issuedAt,
	}
	if err := s.sessions.Save(ctx, session, s.config.AccessTokenExpiry); err != nil {
		return nil, appErrors.Internal(err, "failed to persist session")
	}
	s.record(ctx, user, models.AuditActionLogin, `{"status":"success"}`, ip, userAgent)
	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		User:        user,
		IssuedAt:    issuedAt,
	}, nil
}

func (s *AuthService) generateAccessToken(user models.UserInfo, jti string, issuedAt time.Time) (string, error) {
	subject := strconv.FormatInt(user.ID, 10)
	claims := &models.JWTClaims{
		UserID:      user.ID,
		Role:        user.Role,
		Email:       user.Email,
		Name:        user.Name,
		Permissions: user.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) record(ctx context.Context, user models.UserInfo, action, payload, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	actor := AuditActor(user.Role, user.ID)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor,
		Action:     action,
		Resource:   "auth",
		ResourceID: &actor,
		NewValues:  []byte(payload),
		IPAddress:  ip,
		UserAgent:  userAgent,
	}); err != nil {
		s.logger.Warn("failed to record auth audit log", zap.String("action", action), zap.Error(err))
	}
}

// AuditActor renders a principal for audit rows, e.g. "ADMIN:7".
func AuditActor(role models.UserRole, id int64) string {
	return fmt.Sprintf("%s:%d", role, id)
}
