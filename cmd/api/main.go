package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/beauty-meet/internal/archive"
	"github.com/BruksfildServices01/beauty-meet/internal/audit"
	"github.com/BruksfildServices01/beauty-meet/internal/config"
	dbpkg "github.com/BruksfildServices01/beauty-meet/internal/db"
	"github.com/BruksfildServices01/beauty-meet/internal/gateway"
	"github.com/BruksfildServices01/beauty-meet/internal/geo"
	"github.com/BruksfildServices01/beauty-meet/internal/infra/repository"
	"github.com/BruksfildServices01/beauty-meet/internal/lock"
	"github.com/BruksfildServices01/beauty-meet/internal/logger"
	"github.com/BruksfildServices01/beauty-meet/internal/notify"
	"github.com/BruksfildServices01/beauty-meet/internal/pricing"
	"github.com/BruksfildServices01/beauty-meet/internal/routes"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/autocharge"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Environment, cfg.LogFile)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := dbpkg.Migrate(ctx, db, log); err != nil {
		log.Fatal("migrations", zap.Error(err))
	}
	repo := repository.NewBookingGormRepository(db)

	// ======================================================
	// INFRA
	// ======================================================
	var gw gateway.Gateway
	if cfg.PaymentsConfigured() {
		gw = gateway.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret, log)
	} else {
		log.Warn("payments not configured; deposits run in demo mode outside production")
	}

	var sender notify.Notifier = notify.NewLogNotifier(log)
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal("amqp notifier", zap.Error(err))
		}
		defer amqpNotifier.Close()
		sender = amqpNotifier
	}
	notifier := notify.NewDispatcher(sender, log, 256)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger, log)

	estimator := geo.NewZipTable(nil)
	if cfg.ZipCoordsPath != "" {
		if estimator, err = geo.LoadZipTable(cfg.ZipCoordsPath); err != nil {
			log.Fatal("zip table", zap.String("path", cfg.ZipCoordsPath), zap.Error(err))
		}
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisURL != "" {
		redisLock, client, err := lock.NewRedisFromURL(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		defer client.Close()
		locker = redisLock
	}

	var payloads archive.Archiver
	if cfg.S3Bucket != "" {
		payloads = archive.NewS3(archive.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
	}

	// ======================================================
	// USE CASES
	// ======================================================
	engine := booking.NewEngine(booking.Deps{
		Repo:      repo,
		Gateway:   gw,
		Geo:       estimator,
		Notifier:  notifier,
		Templates: notify.Templates{Brand: cfg.BrandName, BaseURL: cfg.BaseURL},
		Audit:     auditDispatcher,
		Log:       log,
	}, booking.Config{
		Rates: pricing.Rates{
			DepositBps:             cfg.DepositBps,
			ProcessingFeeBps:       cfg.ProcessingFeeBps,
			PlatformFeeBps:         cfg.PlatformFeeBps,
			AffiliateCommissionBps: cfg.AffiliateCommissionBps,
		},
		BaseURL:    cfg.BaseURL,
		Production: cfg.IsProduction(),
	})

	reconciler := webhook.NewReconciler(webhook.Deps{
		Repo:    repo,
		Gateway: gw,
		Engine:  engine,
		Archive: payloads,
		Log:     log,
	})

	sweeper := autocharge.NewSweeper(repo, engine, locker, cfg.SweepBatchSize, log)
	scheduler := autocharge.NewScheduler(sweeper, cfg.SweepInterval, log)
	scheduler.Start(ctx)

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	if err := routes.RegisterRoutes(r, cfg, routes.Deps{
		Engine:     engine,
		Reconciler: reconciler,
		Sweeper:    sweeper,
		Providers:  repo,
		Catalog:    repo,
		Audit:      auditLogger,
		Log:        log,
	}); err != nil {
		log.Fatal("routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	scheduler.Stop()
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}

	notifier.Close()
	auditDispatcher.Close()
	log.Info("stopped")
}
