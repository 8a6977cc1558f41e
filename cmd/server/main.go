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
	appallocation "github.com/wms/backend/internal/application/allocation"
	appfulfillment "github.com/wms/backend/internal/application/fulfillment"
	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/infrastructure/cache"
	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/event"
	"github.com/wms/backend/internal/infrastructure/intake"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/infrastructure/persistence"
	"github.com/wms/backend/internal/interfaces/http/handler"
	"github.com/wms/backend/internal/interfaces/http/middleware"
	"github.com/wms/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting WMS Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	entryRepo := persistence.NewGormLedgerEntryRepository(db.DB)
	txLogRepo := persistence.NewGormTransactionRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	claimRepo := persistence.NewGormClaimRepository(db.DB)
	itemRepo := persistence.NewGormStockedItemRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	ledgerService := appinventory.NewLedgerService(txScope, entryRepo, txLogRepo)
	reconcileService := appinventory.NewReconcileService(txScope, log)
	allocator := appallocation.NewAllocator(txScope, log)
	queueService := appfulfillment.NewQueueService(orderRepo, itemRepo, allocator, log)
	claimService := appfulfillment.NewClaimService(txScope, orderRepo, claimRepo, cfg.Claim.LeaseDuration, log)
	pickService := appfulfillment.NewPickService(txScope, orderRepo, itemRepo, txLogRepo, log)
	leaseService := appfulfillment.NewClaimLeaseService(claimRepo, claimService, log)

	// Event bus with the audit trail subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	ledgerService.SetEventPublisher(eventBus)
	queueService.SetEventPublisher(eventBus)
	claimService.SetEventPublisher(eventBus)
	pickService.SetEventPublisher(eventBus)

	// Idempotency store for mutation endpoints
	idemStore, err := cache.NewIdempotencyStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idemStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Background claim lease sweeper
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.Claim.SweepEnabled {
		go leaseService.Run(sweepCtx, cfg.Claim.SweepInterval)
		log.Info("Claim lease sweeper started",
			zap.Duration("lease", cfg.Claim.LeaseDuration),
			zap.Duration("interval", cfg.Claim.SweepInterval),
		)
	}

	// AMQP order intake
	if cfg.Intake.Enabled {
		consumer, err := intake.NewConsumer(cfg.Intake, queueService, log)
		if err != nil {
			log.Fatal("Failed to connect order intake", zap.Error(err))
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				log.Error("Error closing order intake", zap.Error(err))
			}
		}()
		if err := consumer.Start(sweepCtx); err != nil {
			log.Fatal("Failed to start order intake", zap.Error(err))
		}
	}

	// HTTP server
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engine.Use(middleware.Idempotency(idemStore, cfg.Idempotency.TTL))

	ledgerHandler := handler.NewLedgerHandler(ledgerService, reconcileService)
	orderHandler := handler.NewOrderHandler(queueService, claimService, pickService)

	router.NewRouter(engine).
		Register(ledgerHandler).
		Register(orderHandler).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
