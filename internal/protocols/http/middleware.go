package http

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"forumhub/internal/core"
	"forumhub/pkg/logger"
	"forumhub/pkg/models"
)

// AuthMiddleware validates JWT token and sets user context
func AuthMiddleware(authSvc core.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, 401, "missing authorization header")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWithError(c, 401, "invalid authorization format")
			return
		}

		user, err := authSvc.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			abortWithError(c, 401, "unauthorized")
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// GetUserID extracts user ID from gin context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetUser retrieves the authenticated user from the context
func GetUser(c *gin.Context) (models.AuthUser, bool) {
	user, exists := c.Get("user")
	if !exists {
		return models.AuthUser{}, false
	}
	u, ok := user.(models.AuthUser)
	return u, ok
}

// WriteLimiter hands out one token bucket per user
type WriteLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewWriteLimiter allows perSecond writes per user with the given burst.
// A zero rate disables limiting.
func NewWriteLimiter(perSecond float64, burst int) *WriteLimiter {
	if burst < 1 {
		burst = 1
	}
	return &WriteLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow consumes one write token for userID
func (l *WriteLimiter) Allow(userID string) bool {
	if l == nil || l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}

// Middleware rejects writes over the user's budget with 429
func (l *WriteLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" {
			c.Next()
			return
		}
		userID, _ := GetUserID(c)
		if !l.Allow(userID) {
			logger.Warnf("Write rate limit hit by %s on %s", userID, c.Request.URL.Path)
			abortWithError(c, 429, models.ErrRateLimited.Error())
			return
		}
		c.Next()
	}
}

// requestLogger logs one line per request through pkg/logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.HTTP(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), int(time.Since(start).Milliseconds()))
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, models.APIResponse{
		Success:   false,
		Error:     msg,
		Timestamp: time.Now(),
	})
}
