// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token session authentication. Tokens are
// verified by a caller-supplied parser (the auth service), keeping the
// middleware free of signing details. Verified claims are stashed in the Gin
// context for handlers and for the rate-limit/idempotency middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clubnavi/go-club-backend/internal/services"
)

// Context keys for authenticated identity.
const (
	ctxKeyUserID         = "userID"
	ctxKeyUniversityID   = "universityID"
	ctxKeyUniversityName = "universityName"
)

// TokenParser verifies a session token and returns its claims.
type TokenParser func(token string) (*services.Claims, error)

// RequireAuth returns a middleware that rejects requests without a valid
// Authorization: Bearer token. On success the claims are stored in the Gin
// context.
func RequireAuth(parse TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, parse)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "認証が必要です",
			})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present and otherwise
// leaves the request anonymous. Used by endpoints that personalize but do not
// require login (e.g., chat).
func OptionalAuth(parse TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, parse); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, parse TokenParser) (*services.Claims, bool) {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return nil, false
	}
	claims, err := parse(strings.TrimSpace(h[len(prefix):]))
	if err != nil {
		return nil, false
	}
	return claims, true
}

func setIdentity(c *gin.Context, claims *services.Claims) {
	c.Set(ctxKeyUserID, claims.UserID)
	c.Set(ctxKeyUniversityID, claims.UniversityID)
	c.Set(ctxKeyUniversityName, claims.UniversityName)
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c *gin.Context) uint { return userIDFromCtx(c) }

// UniversityID returns the authenticated user's university id, or 0.
func UniversityID(c *gin.Context) uint {
	if v, ok := c.Get(ctxKeyUniversityID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// UniversityName returns the authenticated user's university display name.
func UniversityName(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUniversityName); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// userIDFromCtx extracts the authenticated user id from the Gin context as
// set by RequireAuth/OptionalAuth. Returns 0 when anonymous.
func userIDFromCtx(c *gin.Context) uint {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
