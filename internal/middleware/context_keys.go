package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/expenseflow/expense_flow_app/internal/core/domain"
	"github.com/expenseflow/expense_flow_app/internal/core/lifecycle"
)

// userIDKey is the key used to store the authenticated user's ID in the request context.
const userIDKey = contextKey("userID")

// userRoleKey is the key used to store the authenticated user's role in the request context.
const userRoleKey = contextKey("userRole")

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Request.Context().Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// GetActorFromContext builds the authenticated actor from the request context.
func GetActorFromContext(c *gin.Context) (lifecycle.Actor, bool) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return lifecycle.Actor{}, false
	}
	role, ok := c.Request.Context().Value(userRoleKey).(domain.UserRole)
	if !ok {
		return lifecycle.Actor{}, false
	}
	return lifecycle.Actor{UserID: userID, Role: role}, true
}
