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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	catalogapp "github.com/shopsync/backend/internal/application/catalog"
	orderapp "github.com/shopsync/backend/internal/application/order"
	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/auth"
	"github.com/shopsync/backend/internal/infrastructure/cache"
	"github.com/shopsync/backend/internal/infrastructure/config"
	"github.com/shopsync/backend/internal/infrastructure/event"
	"github.com/shopsync/backend/internal/infrastructure/logger"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/scheduler"
	"github.com/shopsync/backend/internal/infrastructure/storage"
	"github.com/shopsync/backend/internal/infrastructure/telemetry"
	"github.com/shopsync/backend/internal/infrastructure/woocommerce"
	"github.com/shopsync/backend/internal/interfaces/http/handler"
	"github.com/shopsync/backend/internal/interfaces/http/middleware"
	"github.com/shopsync/backend/internal/interfaces/http/router"

	_ "github.com/shopsync/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			ShopSync API
//	@version		1.0
//	@description	Multi-storefront product, category and order synchronisation
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

// idempotencyTTL is how long a publish Idempotency-Key is remembered
const idempotencyTTL = 24 * time.Hour

func main() {
	// A missing .env is fine, real deployments use the environment
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Service:    cfg.App.Name,
		Version:    version,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ShopSync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Strings("sites", cfg.SiteCodes()),
	)

	// Telemetry
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
	}
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	syncMetrics, err := telemetry.NewSyncMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	// Initialize database connection with zap-backed GORM logging and query tracing
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithZapLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh),
		persistence.WithTracing(dbTracing),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	progressRepo := persistence.NewGormSyncProgressRepository(db.DB)

	// Storefront clients, reference site first
	stores, err := woocommerce.NewRegistry(siteConfigs(cfg),
		woocommerce.WithLogger(log),
		woocommerce.WithMetrics(syncMetrics),
		woocommerce.WithRetryPolicy(woocommerce.RetryPolicy{
			MaxAttempts: cfg.Sync.MaxAttempts,
			Backoff:     woocommerce.LinearBackoff(cfg.Sync.BackoffStep),
		}),
	)
	if err != nil {
		log.Fatal("Failed to configure storefront clients", zap.Error(err))
	}
	sites := stores.Sites()
	log.Info("Storefront clients ready", zap.Strings("sites", sites.Strings()))

	// Sync events: always logged, shipped to kafka when enabled
	bus := event.NewBus(log)
	bus.Subscribe(event.NewLogPublisher(log))
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := event.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			log.Fatal("Failed to create kafka publisher", zap.Error(err))
		}
		bus.Subscribe(kafkaPublisher)
		log.Info("Kafka event publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	// Mirrored product images
	var imageCleaner integration.ImageCleaner = storage.NoopImageCleaner{}
	if cfg.Storage.Enabled {
		s3Cleaner, err := storage.NewS3ImageCleaner(context.Background(), &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to create image cleaner", zap.Error(err))
		}
		imageCleaner = s3Cleaner
	}

	// Initialize application services
	reconciler := catalogapp.NewCategoryReconciler(stores, categoryRepo, syncMetrics, log)
	variants := catalogapp.NewVariantManager(stores, log)
	productSyncService := catalogapp.NewProductSyncService(stores, productRepo, reconciler, variants,
		catalogapp.WithImageCleaner(imageCleaner),
		catalogapp.WithEventPublisher(bus),
		catalogapp.WithSyncMetrics(syncMetrics),
		catalogapp.WithLogger(log),
		catalogapp.WithPullConcurrency(cfg.Sync.PullConcurrency),
	)
	fullPullService := catalogapp.NewFullPullService(stores, productRepo, progressRepo, catalogapp.FullPullConfig{
		PerPage:          cfg.Sync.PerPage,
		Workers:          cfg.Sync.PullConcurrency,
		BatchSize:        cfg.Sync.FullPullBatchSize,
		CancelCheckEvery: cfg.Sync.CancelCheckEvery,
	}, bus, syncMetrics, log)
	siteService := catalogapp.NewSiteService(stores, log)
	orderService := orderapp.NewOrderService(stores, orderRepo, log)
	sweepService := orderapp.NewSweepService(stores, orderRepo,
		orderapp.WithBatchSize(cfg.Sync.OrderBatchSize),
		orderapp.WithSweepLogger(log),
		orderapp.WithSweepMetrics(syncMetrics),
		orderapp.WithSweepPublisher(bus),
	)

	// Initialize scheduled order sweeps (if enabled)
	var (
		sweepScheduler *scheduler.SweepScheduler
		sweepTrigger   *scheduler.SweepCronTrigger
	)
	if cfg.Scheduler.Enabled {
		watermarks := scheduler.NewMemoryWatermarks()
		executor := scheduler.NewSweepExecutor(sweepService, watermarks, cfg.Sync.PerPage, log)
		sweepScheduler, err = scheduler.NewSweepScheduler(scheduler.SweepSchedulerConfig{
			MaxConcurrentJobs: cfg.Scheduler.MaxWorkers,
			QueueSize:         cfg.Scheduler.QueueSize,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
			HistorySize:       cfg.Scheduler.HistorySize,
		}, executor, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep scheduler", zap.Error(err))
		}
		sweepTrigger = scheduler.NewSweepCronTrigger(scheduler.SweepTriggerConfig{
			Interval: cfg.Scheduler.Interval,
			Lookback: cfg.Scheduler.Lookback,
		}, sweepScheduler, sites, watermarks, orderRepo, log)
		if err := sweepTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep trigger", zap.Error(err))
		}
		log.Info("Order sweep scheduler started",
			zap.Int("max_workers", cfg.Scheduler.MaxWorkers),
			zap.Duration("interval", cfg.Scheduler.Interval),
			zap.Duration("lookback", cfg.Scheduler.Lookback),
		)
	}

	// Idempotency keys for non-repeatable creates
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore(context.Background())
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	jwtService := auth.NewJWTService(cfg.JWT)
	if !jwtService.Enabled() {
		log.Warn("JWT secret not configured, operator API is unauthenticated")
	}

	// Initialize HTTP handlers
	syncHandler := handler.NewSyncHandler(productSyncService, fullPullService, siteService)
	orderHandler := handler.NewOrderHandler(sweepService, orderService, sweepJobs(sweepScheduler), manualSweeper(sweepTrigger))
	systemHandler := handler.NewSystemHandler(db, sites, version)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator(sites)

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. AccessLog - Request-scoped logger and access entries
	// 3. Recover - Catch panics
	// 4. Tracing - Server spans with route attributes
	// 5. Metrics - Request counters and latency
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.AccessLog(log, logger.SkipPaths("/health", "/api/v1/system/ping")))
	engine.Use(logger.Recover(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(meter, log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	operatorAuth := middleware.OperatorAuth(middleware.OperatorAuthConfig{
		JWTService: jwtService,
		SkipPaths:  append(middleware.DefaultOperatorAuthConfig(jwtService).SkipPaths, "/api/v1/system/ping"),
		SkipPathPrefixes: []string{
			"/swagger",
		},
		Logger: log,
	})

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.OperatorAuth(middleware.OperatorAuthConfig{JWTService: jwtService, Logger: log})),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(operatorAuth)

	// Rate limiting keys by operator, so it runs after authentication
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		r.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	guards := handler.RouteGuards{
		SyncRead:    middleware.RequireScope(jwtService, auth.ScopeSyncRead),
		SyncWrite:   middleware.RequireScope(jwtService, auth.ScopeSyncWrite),
		OrdersWrite: middleware.RequireScope(jwtService, auth.ScopeOrdersWrite),
		Idempotency: middleware.Idempotency(idempotencyStore, idempotencyTTL, log),
	}
	r.Register(handler.SyncRoutes(syncHandler, orderHandler, guards)).
		Register(handler.OrderRoutes(orderHandler, guards)).
		Register(handler.SystemRoutes(systemHandler, guards))

	// Setup routes
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if sweepTrigger != nil {
		if err := sweepTrigger.Stop(ctx); err != nil {
			log.Error("Error stopping sweep trigger", zap.Error(err))
		}
	}
	if sweepScheduler != nil {
		if err := sweepScheduler.Stop(ctx); err != nil {
			log.Error("Error stopping sweep scheduler", zap.Error(err))
		}
	}

	// Running full pulls stop at their next cancellation check
	for _, site := range sites {
		if _, err := fullPullService.Cancel(ctx, site); err != nil && !errors.Is(err, catalog.ErrProgressNotFound) {
			log.Warn("Error cancelling full pull", zap.String("site", site.String()), zap.Error(err))
		}
	}
	fullPullService.Wait()

	if err := bus.Close(); err != nil {
		log.Error("Error closing event publishers", zap.Error(err))
	}
	if err := meterProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// siteConfigs maps the configured storefronts to client configs, reference site first
func siteConfigs(cfg *config.Config) []woocommerce.SiteConfig {
	byCode := make(map[string]config.SiteConfig, len(cfg.Sites))
	for _, s := range cfg.Sites {
		byCode[s.Code] = s
	}
	out := make([]woocommerce.SiteConfig, 0, len(cfg.Sites))
	for _, code := range cfg.SiteCodes() {
		s, ok := byCode[code]
		if !ok {
			continue
		}
		out = append(out, woocommerce.SiteConfig{
			Code:              shared.SiteCode(s.Code),
			BaseURL:           s.BaseURL,
			ConsumerKey:       s.ConsumerKey,
			ConsumerSecret:    s.ConsumerSecret,
			Timeout:           cfg.Sync.RequestTimeout,
			PerPage:           cfg.Sync.PerPage,
			PageCeiling:       cfg.Sync.PageCeiling,
			RequestsPerSecond: cfg.Sync.RequestsPerSecond,
			Burst:             cfg.Sync.Burst,
		})
	}
	return out
}

// sweepJobs and manualSweeper keep a disabled scheduler a nil interface
func sweepJobs(s *scheduler.SweepScheduler) handler.SweepJobs {
	if s == nil {
		return nil
	}
	return s
}

func manualSweeper(t *scheduler.SweepCronTrigger) handler.ManualSweeper {
	if t == nil {
		return nil
	}
	return t
}
