package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/famquest-app/famquest-api/internal/middleware"
	"github.com/famquest-app/famquest-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// familyID returns the parent account ID owning the session. Child tokens
// carry their parent's ID as the user ID, so this works for both roles.
func familyID(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}
