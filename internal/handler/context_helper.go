package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-eval-api/internal/middleware"
	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
	"github.com/noah-isme/course-eval-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// currentUser returns the claims or writes a 401 when the route was mounted without JWT.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

// queryID parses a required positive integer query parameter.
func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" required"))
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(name)); err == nil {
		return v
	}
	return fallback
}

// scopedAdmin returns the caller's id unless the request asks for everything via all=true.
func scopedAdmin(c *gin.Context, claims *models.JWTClaims) *int64 {
	if c.Query("all") == "true" {
		return nil
	}
	id := claims.UserID
	return &id
}

// ownedAdmin returns the caller's id only when mine=true.
func ownedAdmin(c *gin.Context, claims *models.JWTClaims) *int64 {
	if c.Query("mine") != "true" {
		return nil
	}
	id := claims.UserID
	return &id
}
