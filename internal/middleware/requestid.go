package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/pborman/uuid"
)

const RequestIDKey = "requestID"

// RequestID assigns a request id when the client did not supply one and
// echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.New()
		}
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}
