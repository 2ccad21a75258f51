package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-eval-api/internal/models"
	appErrors "github.com/noah-isme/course-eval-api/pkg/errors"
)

type validatorStub struct {
	tokens map[string]*models.JWTClaims
}

func (v validatorStub) ValidateToken(_ context.Context, token string) (*models.JWTClaims, error) {
	claims, ok := v.tokens[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or logged out")
	}
	return claims, nil
}

func newValidator() validatorStub {
	return validatorStub{tokens: map[string]*models.JWTClaims{
		"admin-token":   {UserID: 7, Role: models.RoleAdmin, Permissions: []models.Permission{models.PermViewReports}},
		"student-token": {UserID: 1001, Role: models.RoleStudent},
	}}
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRequiresLiveSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWT(newValidator()), func(c *gin.Context) {
		claims, _ := Claims(c)
		c.JSON(http.StatusOK, gin.H{"id": claims.UserID})
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "revoked").Code)

	rec := serve(r, http.MethodGet, "/me", "admin-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/public", OptionalJWT(newValidator()), func(c *gin.Context) {
		_, ok := Claims(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	assert.JSONEq(t, `{"authenticated":false}`, serve(r, http.MethodGet, "/public", "bogus").Body.String())
	assert.JSONEq(t, `{"authenticated":true}`, serve(r, http.MethodGet, "/public", "student-token").Body.String())
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer   ")
	assert.False(t, ok)
}
