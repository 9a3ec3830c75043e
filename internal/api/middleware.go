package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kinhtot/marketplace/internal/auth"
	"github.com/kinhtot/marketplace/internal/models"
	"github.com/kinhtot/marketplace/internal/store"
)

const userContextKey = "currentUser"

var roleStaffOrAdmin = []string{models.RoleStaff, models.RoleAdmin}

// RequestLogger emits one slog line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

func (s *Server) loadUserFromBearer(c *gin.Context) *models.User {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}

	userID, err := auth.Verify(s.cfg.Auth.JWTSecret, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil
	}

	user, err := store.GetUser(c.Request.Context(), s.db, userID)
	if err != nil {
		return nil
	}
	return user
}

// Authenticated rejects requests without a valid bearer token and
// stashes the loaded user in the request context.
func (s *Server) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := s.loadUserFromBearer(c)
		if user == nil {
			respondUnauthorized(c, "missing or invalid token")
			c.Abort()
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// OptionalAuth loads the user when a valid token is present and
// continues anonymously otherwise. The stylist endpoint uses it to
// persist chat history only for signed-in callers.
func (s *Server) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := s.loadUserFromBearer(c); user != nil {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

// RequireRole gates a route group behind an allow-list of roles. It
// must run after Authenticated.
func (s *Server) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		for _, role := range roles {
			if user != nil && user.Role == role {
				c.Next()
				return
			}
		}
		respond(c, http.StatusForbidden, "insufficient role", nil)
		c.Abort()
	}
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
