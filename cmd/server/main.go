package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/affstack/backend/internal/application/connector"
	"github.com/affstack/backend/internal/infrastructure/auth"
	"github.com/affstack/backend/internal/infrastructure/cache"
	"github.com/affstack/backend/internal/infrastructure/config"
	"github.com/affstack/backend/internal/infrastructure/fx"
	"github.com/affstack/backend/internal/infrastructure/logger"
	"github.com/affstack/backend/internal/infrastructure/networks"
	"github.com/affstack/backend/internal/infrastructure/persistence"
	"github.com/affstack/backend/internal/infrastructure/telemetry"
	"github.com/affstack/backend/internal/interfaces/http/handler"
	"github.com/affstack/backend/internal/interfaces/http/middleware"
	"github.com/affstack/backend/internal/interfaces/http/router"
)

func main() {
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
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting affstack backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize database connection
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
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = true
		if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Redis backs the per-connection sync run guard
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	syncLock := cache.NewSyncLock(redisClient, cfg.Sync.LockTTL)
	log.Info("Redis connected successfully")

	// Partner network adapters
	registry, err := networks.NewRegistry(&networks.Config{
		Admitad: networks.AdmitadConfig{
			ClientID:       cfg.Networks.Admitad.ClientID,
			ClientSecret:   cfg.Networks.Admitad.ClientSecret,
			RedirectURI:    cfg.Networks.Admitad.RedirectURI,
			APIBaseURL:     cfg.Networks.Admitad.BaseURL,
			TokenURL:       cfg.Networks.Admitad.TokenURL,
			TimeoutSeconds: cfg.Networks.Admitad.TimeoutSeconds,
			PageLimit:      cfg.Networks.Admitad.PageLimit,
		},
		Boostiny: networks.BoostinyConfig{
			APIBaseURL:     cfg.Networks.Boostiny.BaseURL,
			TimeoutSeconds: cfg.Networks.Boostiny.TimeoutSeconds,
			PageLimit:      cfg.Networks.Boostiny.PageLimit,
		},
		ArabClicks: networks.ArabClicksConfig{
			BaseURL:        cfg.Networks.ArabClicks.BaseURL,
			TimeoutSeconds: cfg.Networks.ArabClicks.TimeoutSeconds,
			PageSize:       cfg.Networks.ArabClicks.PageLimit,
		},
		Optimise: networks.OptimiseConfig{
			APIBaseURL:     cfg.Networks.Optimise.BaseURL,
			TimeoutSeconds: cfg.Networks.Optimise.TimeoutSeconds,
			PageLimit:      cfg.Networks.Optimise.PageLimit,
		},
		DCMnetwork: networks.DCMnetworkConfig{
			APIBaseURL:     cfg.Networks.DCMnetwork.BaseURL,
			TimeoutSeconds: cfg.Networks.DCMnetwork.TimeoutSeconds,
			PageLimit:      cfg.Networks.DCMnetwork.PageLimit,
		},
		Platformance: networks.PlatformanceConfig{
			BaseURL:        cfg.Networks.Platformance.BaseURL,
			TimeoutSeconds: cfg.Networks.Platformance.TimeoutSeconds,
			PageLimit:      cfg.Networks.Platformance.PageLimit,
		},
	})
	if err != nil {
		log.Fatal("Failed to build network registry", zap.Error(err))
	}

	// Initialize repositories
	connectionRepo := persistence.NewGormConnectionRepository(db.DB)
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	couponRepo := persistence.NewGormCouponRepository(db.DB)
	countryRepo := persistence.NewGormCountryRepository(db.DB)
	purchaseRepo := persistence.NewGormPurchaseRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)

	// Initialize application services
	rateProvider := fx.NewStaticRateProvider(cfg.FX.Rates)
	connectionService := connector.NewConnectionService(connectionRepo, registry, log)
	normalizer := connector.NewNormalizer(campaignRepo, couponRepo, countryRepo, rateProvider, log)
	syncService := connector.NewSyncService(
		connectionRepo, purchaseRepo, couponRepo, syncLogRepo,
		registry, connectionService, normalizer,
		networks.NewRatePacer(cfg.Sync.PageInterval),
		syncLock,
		nil, // plan limits are not enforced yet
		connector.SyncOptions{
			RunTimeout:      cfg.Sync.RunTimeout,
			RequestTimeout:  cfg.Sync.RequestTimeout,
			DefaultDaysBack: cfg.Sync.DefaultDaysBack,
		},
		log,
	)

	// JWT service for API authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// API routes behind JWT authentication
	networkHandler := handler.NewNetworkHandler(connectionService, syncService, log)
	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithGroupMiddleware(
			middleware.JWTAuth(jwtService),
			middleware.TraceAttributes(),
		),
	)
	r.Register(networkHandler)
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
