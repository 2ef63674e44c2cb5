package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
)

const (
	// TraceIDHeader is the header name for trace ID
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the context key for trace ID
	TraceIDKey = "trace_id"
	// PrincipalHeader carries the authenticated customer set by the edge proxy
	PrincipalHeader = "X-Principal-ID"
	// PrincipalIDKey is the context key for the authenticated customer
	PrincipalIDKey = "principal_id"

	retryAfterSeconds = "5"
)

// ErrorHandler renders the last handler error as the standard error envelope and
// turns panics into a 500. Retryable failures carry a Retry-After hint for webhook senders.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.WithContext(c.Request.Context()).Error("panic recovered",
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
				writeError(c, errors.NewInternal("An internal error occurred", nil))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := errors.HTTPStatus(err)
		fields := []zap.Field{
			zap.Error(err),
			zap.Int("status", status),
			zap.String("path", c.FullPath()),
		}
		if status >= http.StatusInternalServerError {
			log.WithContext(c.Request.Context()).Error("request failed", fields...)
		} else {
			log.WithContext(c.Request.Context()).Warn("request rejected", fields...)
		}

		writeError(c, err)
	}
}

func writeError(c *gin.Context, err error) {
	traceID := c.GetString(TraceIDKey)
	status, body := errors.ToJSON(err, traceID)

	c.Header(TraceIDHeader, traceID)
	if errors.Retryable(err) && status != http.StatusInternalServerError {
		c.Header("Retry-After", retryAfterSeconds)
	}
	c.Abort()
	c.Data(status, "application/json", body)
}

// TraceID is a middleware that generates or extracts trace ID
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		// Add trace ID to request context
		ctx := logger.WithTraceIDContext(c.Request.Context(), traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequestLogger logs all HTTP requests
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if principal := c.GetString(PrincipalIDKey); principal != "" {
			fields = append(fields, zap.String("principal_id", principal))
		}

		log.WithContext(c.Request.Context()).Info("http request", fields...)
	}
}

// CORS is a middleware that handles CORS
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Trace-ID, X-Principal-ID")
		c.Header("Access-Control-Expose-Headers", "X-Trace-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Timeout bounds the request context; handlers observe it through c.Request.Context()
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Principal requires an authenticated customer identity on the request
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		principalID := c.GetHeader(PrincipalHeader)
		if principalID == "" {
			_ = c.Error(errors.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		c.Set(PrincipalIDKey, principalID)
		c.Next()
	}
}
