// internal/interfaces/http/middleware/identity.go
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	userIDKey    = "user_id"
	sessionIDKey = "session_id"
	requestIDKey = "request_id"
)

// Identity resolves who the request acts for. Authentication itself
// happens upstream; an authenticated gateway forwards the user id in
// X-User-ID. Guests are tracked by the X-Session-ID header, minted
// here on first contact and echoed back so the client can persist it.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader("X-User-ID"); raw != "" {
			if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
				c.Set(userIDKey, uint(id))
			}
		}

		sessionID := c.GetHeader("X-Session-ID")
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		c.Set(sessionIDKey, sessionID)
		c.Header("X-Session-ID", sessionID)

		c.Next()
	}
}

// RequestID tags every request with a unique id for log correlation
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// GetUserIDFromContext returns the authenticated user id, if any
func GetUserIDFromContext(c *gin.Context) (*uint, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return nil, false
	}
	id, ok := value.(uint)
	if !ok {
		return nil, false
	}
	return &id, true
}

// GetSessionIDFromContext returns the request's session id
func GetSessionIDFromContext(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
