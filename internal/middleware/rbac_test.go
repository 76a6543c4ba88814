package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/famquest-app/famquest-api/internal/models"
)

func performWithClaims(t *testing.T, handler gin.HandlerFunc, claims *models.JWTClaims, path string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	r := gin.New()
	r.GET("/children/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
	}, handler, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRequireRolesAllowsMatchingRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleParent}
	rec := performWithClaims(t, RequireRoles(models.RoleParent, models.RoleAdmin), claims, "/children/child-1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRolesRejectsChildOnParentRoute(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleChild, ChildID: "child-1"}
	rec := performWithClaims(t, RequireRoles(models.RoleParent, models.RoleAdmin), claims, "/children/child-1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesRejectsMissingClaims(t *testing.T) {
	rec := performWithClaims(t, RequireRoles(models.RoleParent), nil, "/children/child-1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChildScopeAllowsOwnProfile(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleChild, ChildID: "child-1", ParentID: "usr-1"}
	rec := performWithClaims(t, ChildScope("id"), claims, "/children/child-1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChildScopeRejectsSibling(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleChild, ChildID: "child-1", ParentID: "usr-1"}
	rec := performWithClaims(t, ChildScope("id"), claims, "/children/child-2")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChildScopePassesParentThrough(t *testing.T) {
	claims := &models.JWTClaims{UserID: "usr-1", Role: models.RoleParent}
	rec := performWithClaims(t, ChildScope("id"), claims, "/children/child-2")
	assert.Equal(t, http.StatusOK, rec.Code)
}
