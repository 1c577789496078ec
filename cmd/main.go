package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"rentabill/internal/analytics"
	"rentabill/internal/caching"
	"rentabill/internal/config"
	"rentabill/internal/handlers"
	"rentabill/internal/jobs/background"
	"rentabill/internal/repositories"
	"rentabill/internal/services"
	"rentabill/internal/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store client and cache
	store := sheets.NewClient(cfg.Sheets.BaseURL, cfg.Sheets.Token, cfg.Sheets.Timeout)

	var cache caching.Cache
	if cfg.Redis.Addr != "" {
		cache = caching.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.CacheTTL)
	} else {
		cache = caching.NewMemoryCache(cfg.CacheTTL)
	}
	log.Printf("cache backend: %s (ttl %s)", cache.Kind(), cfg.CacheTTL)

	// Repositories
	premiseRepo := repositories.NewPremiseRepo(store, cache)
	tenantRepo := repositories.NewTenantRepo(store, cache)
	meterRepo := repositories.NewMeterRepo(store, cache)
	readingRepo := repositories.NewReadingRepo(store, cache)
	invoiceRepo := repositories.NewInvoiceRepo(store, cache)
	paymentRepo := repositories.NewPaymentRepo(store, cache)
	tariffRepo := repositories.NewTariffRepo(store, cache)
	settingsRepo := repositories.NewSettingsRepo(store, cache)

	// Services
	billingSvc := services.NewBillingService(meterRepo, invoiceRepo, paymentRepo)
	readingsSvc := services.NewReadingsService(meterRepo, readingRepo, tenantRepo)
	managementSvc := services.NewManagementService(premiseRepo, meterRepo, tenantRepo, tariffRepo)
	analyticsSvc := analytics.NewService(meterRepo, readingRepo, invoiceRepo)

	// Receipt storage
	var receiptSvc services.ReceiptService
	if cfg.Storage.Endpoint != "" {
		receiptSvc, err = services.NewReceiptService(cfg.Storage.Endpoint, cfg.Storage.AccessKey,
			cfg.Storage.SecretKey, cfg.Storage.UseSSL, cfg.Storage.Bucket, cfg.Storage.PublicURL)
		if err != nil {
			log.Fatalf("failed to initialize receipt storage: %v", err)
		}
		if err := receiptSvc.EnsureBucket(ctx); err != nil {
			log.Printf("WARN: receipt bucket check failed: %v", err)
		}
	}

	// Push channel
	notifier, err := services.NewTelegramNotifier(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatalf("failed to initialize telegram notifier: %v", err)
	}

	// Background jobs
	scheduler, err := background.NewJobScheduler(billingSvc, analyticsSvc, meterRepo, settingsRepo, notifier)
	if err != nil {
		log.Fatalf("failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("scheduler shutdown: %v", err)
		}
	}()

	// HTTP surface: health probe plus the core API for the chat frontends
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	handlers.NewHealthHandlers(store, cache, receiptSvc).Register(e)
	handlers.NewAPIHandlers(billingSvc, readingsSvc, managementSvc, analyticsSvc, receiptSvc).Register(e)

	go func() {
		if err := e.Start(cfg.HealthAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("health server: %v", err)
		}
	}()

	log.Printf("rentabill started, owner id %d", cfg.Telegram.OwnerID)
	<-ctx.Done()

	if err := e.Shutdown(context.Background()); err != nil {
		log.Printf("health server shutdown: %v", err)
	}
}
