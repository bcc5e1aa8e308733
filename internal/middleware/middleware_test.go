package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminAuth("secret"), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRole))
	})

	valid, err := IssueAdminToken("secret", time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueAdminToken("secret", time.Hour, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	otherKey, err := IssueAdminToken("other", time.Hour, time.Now())
	require.NoError(t, err)
	notAdmin, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "provider",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Token " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "Bearer " + otherKey, http.StatusUnauthorized},
		{"not admin", "Bearer " + notAdmin, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := serve(r, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, RoleAdmin, w.Body.String())
			}
		})
	}
}

type providers map[string]*models.Provider

func (p providers) GetProviderByToken(_ context.Context, token string) (*models.Provider, error) {
	if v, ok := p[token]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func TestProviderToken(t *testing.T) {
	r := gin.New()
	r.GET("/p/:token", ProviderToken(providers{"tok": {ID: "prov-1"}}), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextProviderID))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/p/tok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "prov-1", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/p/nope", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimit(t *testing.T) {
	limit, err := RateLimit("2-M", "test")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/x", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)

	_, err = RateLimit("lots", "bad")
	assert.Error(t, err)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}
