package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-orders/pkg/errors"
	"go-orders/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(TraceID(), ErrorHandler(logger.NewNop()))
	r.GET("/", handlers...)
	return r
}

func TestPrincipal_MissingHeader(t *testing.T) {
	r := newRouter(Principal(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.CodeUnauthorized, body.Error.Code)
	assert.NotEmpty(t, body.TraceID)
}

func TestPrincipal_SetsContext(t *testing.T) {
	var got string
	r := newRouter(Principal(), func(c *gin.Context) {
		got = c.GetString(PrincipalIDKey)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(PrincipalHeader, "user-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", got)
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var hasDeadline bool
	r := newRouter(Timeout(time.Second), func(c *gin.Context) {
		_, hasDeadline = c.Request.Context().Deadline()
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, hasDeadline)
}

func TestTraceID_PropagatesHeader(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get(TraceIDHeader))
}

func TestErrorHandler_RetryAfterOnTransientFailure(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		retryAfter bool
	}{
		{"store unavailable", errors.NewStoreUnavailable("db down", nil), http.StatusServiceUnavailable, true},
		{"timeout", errors.NewTimeout("slow", nil), http.StatusGatewayTimeout, true},
		{"amount mismatch", errors.NewAmountMismatch(2500, 2600), http.StatusUnprocessableEntity, false},
		{"invalid signature", errors.NewInvalidSignature("bad"), http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(func(c *gin.Context) {
				_ = c.Error(tt.err)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After") != "")
		})
	}
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
}
