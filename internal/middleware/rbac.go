package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/models"
	appErrors "github.com/famquest-app/famquest-api/pkg/errors"
	"github.com/famquest-app/famquest-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ChildScope restricts CHILD tokens to their own profile: when the route
// carries the named path parameter, a child session may only access the
// profile its token was issued for. Parent and admin sessions pass through;
// ownership is still checked at the service layer.
func ChildScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if claims.Role == models.RoleChild {
			if target := c.Param(param); target != "" && target != claims.ChildID {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "child sessions may only access their own profile"))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
