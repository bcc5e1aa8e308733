package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/beauty-meet/internal/audit"
	"github.com/BruksfildServices01/beauty-meet/internal/config"
	"github.com/BruksfildServices01/beauty-meet/internal/handlers"
	"github.com/BruksfildServices01/beauty-meet/internal/middleware"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
)

// Deps are the singletons built by main.
type Deps struct {
	Engine     *booking.Engine
	Reconciler handlers.Reconciler
	Sweeper    handlers.Sweeper
	Providers  middleware.ProviderLookup
	Catalog    handlers.Catalog
	Audit      audit.Reader
	Log        *zap.Logger
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, d Deps) error {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware())

	tokenLimit, err := middleware.RateLimit(cfg.RateLimit, "token")
	if err != nil {
		return err
	}
	webhookLimit, err := middleware.RateLimit(cfg.RateLimit, "webhook")
	if err != nil {
		return err
	}

	// ======================================================
	// HANDLERS
	// ======================================================
	publicHandler := handlers.NewPublicHandler(d.Catalog)
	bookingHandler := handlers.NewBookingHandler(d.Engine, cfg.Timezone)
	providerHandler := handlers.NewProviderHandler(d.Engine)
	adminHandler := handlers.NewAdminHandler(d.Engine, d.Sweeper, d.Log)
	authHandler := handlers.NewAuthHandler(cfg)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.Audit, cfg.Timezone)
	webhookHandler := handlers.NewWebhookHandler(d.Reconciler, d.Log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.GET("/public/providers/:id/services", publicHandler.ListServices)
		api.POST("/bookings", tokenLimit, bookingHandler.Create)
		api.POST("/confirm/:token", tokenLimit, bookingHandler.Confirm)
		api.POST("/cancel/:token", tokenLimit, bookingHandler.Cancel)
		api.POST("/issue/:token", tokenLimit, bookingHandler.ReportIssue)

		api.POST("/stripe/webhook", webhookLimit, webhookHandler.Stripe)

		// ------------------------------
		// PROVIDER DASHBOARD LINK
		// ------------------------------
		provider := api.Group("/provider/:token")
		provider.Use(tokenLimit, middleware.ProviderToken(d.Providers))
		{
			provider.POST("/bookings/:id/:action", providerHandler.Action)
		}

		// ------------------------------
		// ADMIN
		// ------------------------------
		api.POST("/admin/login", tokenLimit, authHandler.Login)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(cfg.JWTSecret))
		{
			admin.POST("/bookings/:id/action", adminHandler.Action)
			admin.POST("/issues/:id/resolve", adminHandler.ResolveIssue)
			admin.GET("/issues", adminHandler.ListIssues)
			admin.POST("/autocharge", adminHandler.AutoCharge)
			admin.GET("/audit-logs", auditLogsHandler.List)
		}
	}
	return nil
}
