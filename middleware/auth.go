package middleware

import (
	"errors"
	"strings"

	"notesync/utils"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the context key holding the resolved user id.
const UserIDKey = "user_id"

// AuthMiddleware resolves the bearer token to a user id and rejects the
// request before any handler runs when that fails.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.AbortUnauthorized(c, "Missing or invalid token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := utils.ParseAccessToken(secret, tokenString)
		if errors.Is(err, utils.ErrTokenType) {
			utils.AbortUnauthorized(c, "Invalid token type")
			return
		}
		if err != nil {
			utils.AbortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the id set by AuthMiddleware, or "" when absent.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
