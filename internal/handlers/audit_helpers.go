package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-relay/internal/middleware"
)

const requestIDContextKey = "request_id"

// Auditor records user actions on the audit stream.
type Auditor interface {
	Emit(ctx context.Context, level, text, requestID string, userName *string)
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userNameFromContext(c *gin.Context) *string {
	if name := c.GetString(middleware.UserNameKey); name != "" {
		return &name
	}
	return nil
}
