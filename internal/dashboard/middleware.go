package dashboard

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
)

// RateLimit caps requests per client IP. Defaults: 30 per minute.
func RateLimit(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 30
	}
	if period <= 0 {
		period = time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		lctx, err := instance.Get(c, c.ClientIP())
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}
		c.Next()
	}
}

// SameOrigin rejects requests whose Origin header names another host.
// Requests without an Origin (CLI clients, curl) pass.
func SameOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" || u.Host != c.Request.Host {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cross-origin request rejected"})
			return
		}
		c.Next()
	}
}

// RequireJSON rejects bodies not sent as application/json.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != gin.MIMEJSON {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "request must be JSON"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request with a request id.
func RequestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := uuid.NewString()
		c.Header("X-Request-ID", id)

		c.Next()

		entry := log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request")
			return
		}
		entry.Debug("request")
	}
}

// respondError maps an action failure to a JSON {error} body.
func respondError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": apperror.Message(err)})
}

func errorStatus(err error) int {
	switch {
	case apperror.IsValidation(err):
		return http.StatusBadRequest
	case apperror.IsUnauthorized(err):
		return http.StatusUnauthorized
	case apperror.IsHTTP(err):
		if status := apperror.StatusCode(err); status >= 400 && status < 500 {
			return status
		}
		return http.StatusBadGateway
	case apperror.IsNetwork(err), apperror.IsParse(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
