package gin

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arassiq/SafeSenior/internal/logger"
)

// maxRequestIDLength bounds inbound X-Request-ID values; longer IDs are replaced.
const maxRequestIDLength = 128

// LoggerMiddleware logs one line per request after the handler chain
// finishes: method, path, status, duration, and client IP. When the
// request ID middleware ran first, the line also carries request_id so
// access logs line up with handler logs.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Capture before c.Next(); handlers may rewrite the request.
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		method := c.Request.Method

		c.Next()

		fields := []logger.Field{
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
		}
		if id := c.GetString("request_id"); id != "" {
			fields = append(fields, logger.String("request_id", id))
		}
		if query != "" {
			fields = append(fields, logger.String("query", query))
		}

		// Health probes arrive constantly; their user agent is noise.
		if !strings.HasPrefix(path, "/health") {
			fields = append(fields, logger.String("user_agent", c.Request.UserAgent()))
		}

		if len(c.Errors) == 0 {
			log.Info("HTTP request", fields...)
			return
		}

		msgs := make([]string, len(c.Errors))
		for i, ginErr := range c.Errors {
			msgs[i] = ginErr.Err.Error()
		}
		log.Error("HTTP request with errors", append(fields, logger.Strings("errors", msgs))...)
	}
}

// RequestIDLoggerMiddleware assigns each request an ID and stores a
// request-scoped logger (with the request_id field attached) in the
// request context. Inbound X-Request-ID headers are preserved unless
// oversized; generated IDs are 32 hex characters.
func RequestIDLoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = generateRequestID()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		reqLogger := log.With(logger.String("request_id", requestID))
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), reqLogger))

		c.Next()
	}
}

// generateRequestID creates a unique request ID: 32 hex chars
// (a UUID with the dashes stripped).
func generateRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CORSMiddleware applies the configured CORS policy. Header values that
// do not vary per request are joined once up front; a disabled config
// produces a pass-through handler. Preflight OPTIONS requests are
// answered directly with 204.
func CORSMiddleware(cfg CORSConfig) gin.HandlerFunc {
	cfg.SetDefaults()

	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	allowMethods := strings.Join(cfg.AllowedMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowedHeaders, ", ")
	allowCredentials := strconv.FormatBool(cfg.AllowCredentials)
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(c *gin.Context) {
		origin := allowOrigin(c.Request.Header.Get("Origin"), cfg.AllowedOrigins)
		if origin == "" {
			// Disallowed origin: serve the request without CORS headers
			// and let the browser enforce the block.
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", allowCredentials)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Max-Age", maxAge)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// allowOrigin resolves the Access-Control-Allow-Origin value for a
// request. Same-origin requests (no Origin header) get "*"; otherwise
// the origin must match the allow list exactly or via a "*" entry.
// An empty return means no CORS headers are sent.
func allowOrigin(origin string, allowed []string) string {
	if origin == "" {
		return "*"
	}

	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if a == origin {
			return origin
		}
	}

	return ""
}

// RecoveryMiddleware converts panics into generic 500 responses. The
// panic value and request coordinates go to the log only, never to the
// caller.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				fields := []logger.Field{
					logger.Any("error", r),
					logger.String("path", c.Request.URL.Path),
					logger.String("method", c.Request.Method),
					logger.String("client_ip", c.ClientIP()),
				}
				if id := c.GetString("request_id"); id != "" {
					fields = append(fields, logger.String("request_id", id))
				}
				log.Error("Panic recovered", fields...)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "Internal server error",
					"code":    "INTERNAL_ERROR",
					"message": "An unexpected error occurred",
				})
			}
		}()

		c.Next()
	}
}
