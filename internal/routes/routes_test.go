package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BruksfildServices01/beauty-meet/internal/config"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway/gatewaytest"
	"github.com/BruksfildServices01/beauty-meet/internal/infra/memory"
	"github.com/BruksfildServices01/beauty-meet/internal/lock"
	"github.com/BruksfildServices01/beauty-meet/internal/middleware"
	"github.com/BruksfildServices01/beauty-meet/internal/pricing"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/autocharge"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/webhook"
)

func newRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	gw := gatewaytest.New()
	log := zaptest.NewLogger(t)
	engine := booking.NewEngine(booking.Deps{Repo: store, Gateway: gw, Log: log},
		booking.Config{Rates: pricing.DefaultRates()})

	r := gin.New()
	err := RegisterRoutes(r, cfg, Deps{
		Engine:     engine,
		Reconciler: webhook.NewReconciler(webhook.Deps{Repo: store, Gateway: gw, Engine: engine, Log: log}),
		Sweeper:    autocharge.NewSweeper(store, engine, lock.NewLocal(), 0, log),
		Providers:  store,
		Catalog:    store,
		Log:        log,
	})
	require.NoError(t, err)
	return r
}

func TestRegisterRoutes(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret", RateLimit: "100-M", Timezone: "America/New_York"}
	r := newRouter(t, cfg)

	serve := func(method, path, auth string) int {
		req := httptest.NewRequest(method, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", "Bearer "+auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/api/admin/issues", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodPost, "/api/provider/nope/bookings/b/approve", ""))
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodPost, "/api/stripe/webhook", ""))

	token, err := middleware.IssueAdminToken("secret", time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/api/admin/issues", token))
	assert.Equal(t, http.StatusOK, serve(http.MethodPost, "/api/admin/autocharge", token))
}

func TestRegisterRoutes_BadRate(t *testing.T) {
	r := gin.New()
	err := RegisterRoutes(r, &config.Config{RateLimit: "lots"}, Deps{Log: zaptest.NewLogger(t)})
	assert.Error(t, err)
}
