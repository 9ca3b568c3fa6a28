package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSecuredRouter(config SecurityConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	sm := NewSecurityMiddleware(config)
	r := gin.New()
	r.Use(sm.SecurityHeaders)
	r.Use(sm.RequestTimeout)
	r.Use(sm.ValidateContentType)
	r.Use(sm.LimitBodySize)
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/submit", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "body too large"})
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestSecurityHeaders(t *testing.T) {
	r := newSecuredRouter(DefaultSecurityConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, w.Header().Get("Referrer-Policy"))
}

func TestValidateContentType(t *testing.T) {
	r := newSecuredRouter(DefaultSecurityConfig())

	tests := []struct {
		name        string
		contentType string
		expected    int
	}{
		{"accepts json", "application/json", http.StatusOK},
		{"accepts json with charset", "application/json; charset=utf-8", http.StatusOK},
		{"accepts empty content type", "", http.StatusOK},
		{"rejects plain text", "text/plain", http.StatusUnsupportedMediaType},
		{"rejects form data", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestValidateContentType_IgnoresGet(t *testing.T) {
	r := newSecuredRouter(DefaultSecurityConfig())

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Content-Type", "text/plain")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLimitBodySize(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxBodyBytes = 64
	r := newSecuredRouter(config)

	req := httptest.NewRequest(http.MethodPost, "/submit",
		strings.NewReader(strings.Repeat("x", 1024)))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestTimeoutSetsDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sm := NewSecurityMiddleware(DefaultSecurityConfig())
	r := gin.New()
	r.Use(sm.RequestTimeout)
	r.GET("/ok", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok, "request context must carry a deadline")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
