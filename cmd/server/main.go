package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	actionplanapp "github.com/compia/backend/internal/application/actionplan"
	ataapp "github.com/compia/backend/internal/application/ata"
	auditapp "github.com/compia/backend/internal/application/audit"
	billingapp "github.com/compia/backend/internal/application/billing"
	checklistapp "github.com/compia/backend/internal/application/checklist"
	crmapp "github.com/compia/backend/internal/application/crm"
	dashboardapp "github.com/compia/backend/internal/application/dashboard"
	identityapp "github.com/compia/backend/internal/application/identity"
	inspectionapp "github.com/compia/backend/internal/application/inspection"
	lookupapp "github.com/compia/backend/internal/application/lookup"
	"github.com/compia/backend/internal/infrastructure/auth"
	"github.com/compia/backend/internal/infrastructure/cache"
	"github.com/compia/backend/internal/infrastructure/config"
	"github.com/compia/backend/internal/infrastructure/event"
	"github.com/compia/backend/internal/infrastructure/llm"
	"github.com/compia/backend/internal/infrastructure/logger"
	"github.com/compia/backend/internal/infrastructure/lookup"
	"github.com/compia/backend/internal/infrastructure/persistence"
	"github.com/compia/backend/internal/infrastructure/persistence/rls"
	"github.com/compia/backend/internal/infrastructure/scheduler"
	"github.com/compia/backend/internal/infrastructure/storage"
	"github.com/compia/backend/internal/infrastructure/telemetry"
	"github.com/compia/backend/internal/interfaces/http/handler"
	"github.com/compia/backend/internal/interfaces/http/middleware"
	"github.com/compia/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/compia/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			compia API
//	@version		1.0
//	@description	Compliance inspection platform: checklists, inspections, action plans, meeting minutes and CRM.

//	@contact.name	API Support

//	@BasePath	/api

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logConfig := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log := logger.New(logConfig)
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if logsProvider.IsEnabled() {
		log = logger.New(logConfig, logsProvider.Core(logger.ParseLevel(cfg.Log.Level)))
	}
	zap.ReplaceGlobals(log)

	profiler, err := telemetry.NewProfiler(cfg.Profiling, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles && !tracerProvider.EnableSpanProfiles() {
		log.Warn("Span profiles need telemetry enabled; skipping")
	}

	log.Info("Starting compia backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	db, err := persistence.NewDatabase(ctx, cfg.Database, persistence.Options{
		Logger:        log,
		LogLevel:      cfg.Log.Level,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	dbTracing := telemetry.NewDBTracing(cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled, cfg.Telemetry.DBSlowQueryThresh, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, cfg.Telemetry.DBSlowQueryThresh, cfg.Telemetry.DBPoolStatsInterval, log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	} else if dbMetrics != nil {
		dbMetrics.StartPoolStats(ctx)
	}
	rlsDB := rls.New(db.DB)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = auth.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
		}
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	var blacklist auth.TokenBlacklist
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		log.Warn("Token blacklist kept in memory; logouts are not shared between instances")
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	stores := cache.NewStores(redisClient, cfg.Dashboard.CacheTTL, log)
	if stores.Tiered != nil {
		go func() {
			if err := stores.Tiered.Listen(ctx); err != nil {
				log.Error("Cache invalidation listener stopped", zap.Error(err))
			}
		}()
	}

	objects := newObjectStore(ctx, cfg, log)

	// Repositories
	orgRepo := persistence.NewGormOrganizationRepository(rlsDB)
	userRepo := persistence.NewGormUserRepository(rlsDB)
	templateRepo := persistence.NewGormTemplateRepository(rlsDB)
	inspectionRepo := persistence.NewGormInspectionRepository(rlsDB)
	itemRepo := persistence.NewGormInspectionItemRepository(rlsDB)
	evidenceRepo := persistence.NewGormEvidenceRepository(rlsDB)
	actionItemRepo := persistence.NewGormActionItemRepository(rlsDB)
	ataRepo := persistence.NewGormAtaRepository(rlsDB)
	auditRepo := persistence.NewGormAuditLogRepository(rlsDB)
	dashboardRepo := persistence.NewGormDashboardRepository(rlsDB)
	leadRepo := persistence.NewGormLeadRepository(rlsDB)

	eventBus := event.NewInMemoryEventBus(log)

	// Application services
	quotaService := billingapp.NewQuotaService(orgRepo, userRepo, inspectionRepo, log)
	scopeResolver := identityapp.NewScopeResolver(orgRepo, time.Minute, log)
	organizationService := identityapp.NewOrganizationService(orgRepo, scopeResolver, eventBus, log)
	userService := identityapp.NewUserService(userRepo, orgRepo, quotaService, blacklist, cfg.JWT.AccessTokenExpiration, eventBus, log)
	authConfig := identityapp.DefaultAuthServiceConfig()
	if cfg.Auth.MaxLoginAttempts > 0 {
		authConfig.MaxLoginAttempts = cfg.Auth.MaxLoginAttempts
	}
	if cfg.Auth.LockoutDuration > 0 {
		authConfig.LockDuration = cfg.Auth.LockoutDuration
	}
	authService := identityapp.NewAuthService(userRepo, orgRepo, jwtService, blacklist, eventBus, authConfig, log)

	templateService := checklistapp.NewTemplateService(templateRepo, log)

	inspectionService := inspectionapp.NewInspectionService(inspectionRepo, itemRepo, evidenceRepo, templateRepo, userRepo, objects, log)
	inspectionService.SetEventPublisher(eventBus)
	inspectionService.SetUsageChecker(quotaService)
	inspectionService.SetActionItemDrafts(actionItemRepo)
	inspectionService.SetTransactionManager(rlsDB)
	mediaService := inspectionapp.NewMediaService(inspectionRepo, itemRepo, evidenceRepo, objects, log)

	actionItemService := actionplanapp.NewActionItemService(actionItemRepo, inspectionRepo, itemRepo, log)
	actionItemService.SetEventPublisher(eventBus)
	overdueService := actionplanapp.NewOverdueService(actionItemRepo, eventBus, log)

	ataPool := scheduler.NewScheduler(scheduler.Config{
		Workers:    cfg.ATA.Workers,
		QueueSize:  cfg.ATA.QueueSize,
		JobTimeout: cfg.ATA.JobTimeout,
	}, log.Named("ata"))
	var ataPoolMetrics *telemetry.PoolMetrics
	if meterProvider.IsEnabled() {
		ataPoolMetrics, err = telemetry.NewPoolMetrics(meterProvider.Meter("compia.workers"), "ata", ataPool.QueueDepth)
		if err != nil {
			log.Warn("Failed to create ata pool metrics", zap.Error(err))
		} else {
			ataPool.SetObserver(ataPoolMetrics)
		}
	}
	var generator ataapp.Generator
	if cfg.ATA.Enabled {
		gemini, err := llm.NewGeminiClient(ctx, cfg.LLM, log)
		if err != nil {
			log.Fatal("Failed to create LLM client", zap.Error(err))
		}
		generator = gemini
	}
	ataService := ataapp.NewAtaService(ataRepo, inspectionRepo, itemRepo, objects, generator, ataPool, ataapp.Config{
		MaxAudioBytes: cfg.ATA.MaxAudioBytes,
		MaxRetries:    2,
	}, log)
	ataService.SetUsageChecker(quotaService)
	ataService.SetTransactionManager(rlsDB)
	ataService.SetEventPublisher(eventBus)

	dashboardService := dashboardapp.NewDashboardService(dashboardRepo, log)
	dashboardService.SetCache(stores.Stats, cache.StatsKey)

	lookupClient := lookup.NewClient(cfg.Lookup, nil, log)
	lookupService := lookupapp.NewLookupService(lookupClient, log)
	leadService := crmapp.NewLeadService(leadRepo, organizationService, lookupClient, log)
	leadService.SetEventPublisher(eventBus)

	auditService := auditapp.NewAuditService(auditRepo, log)

	// Event handlers
	dashboardInvalidator := dashboardapp.NewCacheInvalidator(stores.Stats, log)
	eventBus.Subscribe(dashboardInvalidator)
	auditRecorder := event.NewIdempotentHandler(auditapp.NewRecorder(auditRepo, log), stores.Idempotency, event.DefaultDedupTTL, log)
	eventBus.Subscribe(auditRecorder)
	log.Info("Event handlers registered",
		zap.Strings("dashboard_events", dashboardInvalidator.EventTypes()),
		zap.Strings("audit_events", auditRecorder.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Background workers
	if cfg.ATA.Enabled {
		if err := ataPool.Start(context.Background()); err != nil {
			log.Fatal("Failed to start ata workers", zap.Error(err))
		}
		if n, err := ataService.Resume(ctx); err != nil {
			log.Error("Failed to resume ata generations", zap.Error(err))
		} else {
			log.Info("Ata workers started", zap.Int("workers", cfg.ATA.Workers), zap.Int("resumed", n))
		}
	} else {
		log.Warn("ATA generation disabled; requests will be rejected")
	}

	var overdueSweep *scheduler.Periodic
	if cfg.Scheduler.Enabled {
		overdueSweep = scheduler.NewPeriodic(scheduler.PeriodicConfig{
			Name:       "action-items-overdue",
			Interval:   cfg.Scheduler.OverdueSweepInterval,
			Timeout:    cfg.Scheduler.JobTimeout,
			RunOnStart: true,
		}, func(ctx context.Context) error {
			stats, err := overdueService.MarkOverdue(ctx)
			if err != nil {
				return err
			}
			log.Debug("Overdue sweep finished", zap.Int("checked", stats.Checked), zap.Int("flagged", stats.Flagged))
			return nil
		}, log)
		if err := overdueSweep.Start(context.Background()); err != nil {
			log.Fatal("Failed to start overdue sweep", zap.Error(err))
		}
	}

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(version, db.Ping)
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if s3, ok := objects.(*storage.S3ObjectStorage); ok {
		systemHandler.AddCheck("storage", func(ctx context.Context) error {
			_, err := s3.Exists(ctx, ".ready")
			return err
		})
	}

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Organization: handler.NewOrganizationHandler(organizationService),
		User:         handler.NewUserHandler(userService),
		Template:     handler.NewTemplateHandler(templateService),
		Inspection:   handler.NewInspectionHandler(inspectionService),
		Media:        handler.NewMediaHandler(mediaService),
		ActionItem:   handler.NewActionItemHandler(actionItemService),
		Ata:          handler.NewAtaHandler(ataService),
		Dashboard:    handler.NewDashboardHandler(dashboardService),
		Lookup:       handler.NewLookupHandler(lookupService),
		Billing:      handler.NewBillingHandler(quotaService),
		Lead:         handler.NewLeadHandler(leadService),
		Audit:        handler.NewAuditHandler(auditService),
		System:       systemHandler,
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID  2. Recovery  3. Logger  4. Tracing
	// 5. Security headers  6. CORS  7. Body limit  8. Rate limits
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORS(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var limiters []*middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		apiLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		limiters = append(limiters, authLimiter, apiLimiter)
		engine.Use(middleware.RateLimitPrefix(authLimiter, "/api/auth/login", "/api/auth/refresh"))
		engine.Use(middleware.RateLimit(apiLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
			zap.Int("auth_requests", cfg.HTTP.AuthRateLimitRequests),
		)
	}

	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log
	jwtAuth := middleware.JWTAuth(jwtConfig)

	swaggerGuard := middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.Swagger.Enabled,
		RequireAuth: cfg.Swagger.RequireAuth,
		AllowedIPs:  cfg.Swagger.AllowedIPs,
	}, jwtAuth)
	engine.GET("/swagger/*any", swaggerGuard, ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := router.NewRouter(engine)
	for _, group := range router.DomainGroups(handlers) {
		r.Register(group)
	}
	r.Setup(
		jwtAuth,
		middleware.SpanAttributes(),
		middleware.AccessScope(scopeResolver, log),
	)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
	}

	// Fail readiness first so the load balancer stops routing here
	systemHandler.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if overdueSweep != nil {
		if err := overdueSweep.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping overdue sweep", zap.Error(err))
		}
	}
	if cfg.ATA.Enabled {
		if err := ataPool.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping ata workers", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	for _, l := range limiters {
		l.Stop()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis", zap.Error(err))
		}
	}
	if ataPoolMetrics != nil {
		if err := ataPoolMetrics.Close(); err != nil {
			log.Error("Error closing ata pool metrics", zap.Error(err))
		}
	}
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down log export", zap.Error(err))
	}
}

// newObjectStore uses the configured bucket, or process memory in development
// when no endpoint or credentials are set.
func newObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) storage.ObjectStore {
	if !cfg.App.IsProduction() && cfg.Storage.Endpoint == "" && cfg.Storage.AccessKeyID == "" {
		log.Warn("No object storage configured, keeping uploads in memory")
		return storage.NewMemoryObjectStorage()
	}
	s3, err := storage.NewS3ObjectStorage(ctx, cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create object storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare bucket", zap.Error(err), zap.String("bucket", s3.Bucket()))
	}
	return s3
}
