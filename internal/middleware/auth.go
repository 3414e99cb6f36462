package middleware

import (
	"github.com/gin-gonic/gin"

	"patient-portal/internal/models"
	"patient-portal/internal/session"
	"patient-portal/internal/utils"
)

const currentUserKey = "currentUser"

// SessionMiddleware puts the signed-in user into the request context. With
// required set, requests without a signed-in user are rejected.
func SessionMiddleware(sess *session.Context, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := sess.CurrentUser()
		if user == nil && required {
			utils.Unauthorized(c, "Please log in to continue")
			c.Abort()
			return
		}

		if user != nil {
			c.Set(currentUserKey, user)
		}
		c.Next()
	}
}

// Helper function to get the signed-in user from context
func GetCurrentUserFromContext(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
