package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/pborman/uuid"

	"chat-engine/internal/middleware"
)

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(middleware.RequestIDKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}
