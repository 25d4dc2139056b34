package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cesarmartin1/crm-david/internal/access"
	"github.com/cesarmartin1/crm-david/internal/competitors"
	"github.com/cesarmartin1/crm-david/internal/customers"
	"github.com/cesarmartin1/crm-david/internal/fleetcosts"
	"github.com/cesarmartin1/crm-david/internal/importer"
	"github.com/cesarmartin1/crm-david/internal/incentives"
	"github.com/cesarmartin1/crm-david/internal/notes"
	"github.com/cesarmartin1/crm-david/internal/quotes"
	"github.com/cesarmartin1/crm-david/internal/routing"
	"github.com/cesarmartin1/crm-david/internal/tariffs"
	"github.com/cesarmartin1/crm-david/migrations"
	"github.com/cesarmartin1/crm-david/pkg/cache"
	"github.com/cesarmartin1/crm-david/pkg/common"
	"github.com/cesarmartin1/crm-david/pkg/config"
	"github.com/cesarmartin1/crm-david/pkg/database"
	"github.com/cesarmartin1/crm-david/pkg/health"
	"github.com/cesarmartin1/crm-david/pkg/logger"
	"github.com/cesarmartin1/crm-david/pkg/middleware"
	"github.com/cesarmartin1/crm-david/pkg/monitoring"
	"github.com/cesarmartin1/crm-david/pkg/ratelimit"
	"github.com/cesarmartin1/crm-david/pkg/redis"
	"github.com/cesarmartin1/crm-david/pkg/secrets"
	"github.com/cesarmartin1/crm-david/pkg/storage"
	"github.com/cesarmartin1/crm-david/pkg/tracing"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "crm"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	ctx := context.Background()

	if cfg.Secrets.Provider != "" {
		secretsManager, err := secrets.NewManager(ctx, cfg.Secrets)
		if err != nil {
			logger.Fatal("Failed to init secrets provider", zap.Error(err))
		}
		if err := secrets.Apply(ctx, secretsManager, cfg); err != nil {
			logger.Fatal("Failed to resolve secrets", zap.Error(err))
		}
	}

	sentryEnabled, err := monitoring.InitSentry(cfg.Sentry, cfg.Server.Environment, cfg.Server.Version)
	if err != nil {
		logger.Warn("Sentry disabled", zap.Error(err))
	}
	if sentryEnabled {
		defer monitoring.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, serviceName, cfg.Server.Version, cfg.Server.Environment)
	if err != nil {
		logger.Warn("Tracing disabled", zap.Error(err))
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Warn("Failed to flush traces", zap.Error(err))
			}
		}()
	}

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(&cfg.Database, migrations.FS); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	healthChecks := map[string]func() error{
		"database": health.DatabaseChecker(db),
	}

	var store cache.Store = cache.NewMemoryStore()
	var limiter *ratelimit.Limiter
	if cfg.Cache.Backend == "redis" {
		redisClient, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		store = cache.NewRedisStore(redisClient.Client, serviceName)
		healthChecks["redis"] = health.RedisChecker(redisClient.Client)

		limiter = ratelimit.NewLimiter(redisClient.Client, cfg.RateLimit)
		if limiter.Enabled() {
			if err := limiter.Load(ctx); err != nil {
				logger.Warn("Rate limit script not preloaded", zap.Error(err))
			}
		}
	}

	localDB, err := database.OpenSQLite(cfg.LocalStore.SQLitePath)
	if err != nil {
		logger.Fatal("Failed to open local store", zap.Error(err), zap.String("path", cfg.LocalStore.SQLitePath))
	}
	defer localDB.Close()
	highlights := notes.NewHighlightStore(localDB)
	if err := highlights.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare local store", zap.Error(err))
	}
	healthChecks["local_store"] = health.PingChecker(sqlPinger{localDB})

	var archive storage.Storage
	if cfg.Storage.Enabled() {
		s3Store, err := storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		})
		if err != nil {
			logger.Warn("Import archive disabled", zap.Error(err))
		} else {
			archive = s3Store
		}
	}

	ttl := cfg.Cache.TTL

	// Repositories
	quotesRepo := quotes.NewRepository(db, store, ttl)
	customersRepo := customers.NewRepository(db, store, ttl)
	tariffsRepo := tariffs.NewRepository(db, store, ttl)
	routingRepo := routing.NewRepository(db, store, ttl)
	incentivesRepo := incentives.NewRepository(db, store, ttl)

	// Services
	tariffsService := tariffs.NewService(tariffsRepo)
	quotesService := quotes.NewService(quotesRepo, tariffsService)
	customersService := customers.NewService(customersRepo, quotesRepo, customers.Thresholds{
		ActiveMonths:   cfg.Classification.ActiveMonths,
		InactiveMonths: cfg.Classification.InactiveMonths,
		MinServices12m: cfg.Classification.MinServices12m,
		MinServices24m: cfg.Classification.MinServices24m,
		MinRevenue24m:  cfg.Classification.MinRevenue24m,
	}, cfg.Classification.InactiveListMonths)
	routingService := routing.NewService(routingRepo,
		routing.NewGeocoderFromConfig(cfg.Routing),
		routing.NewRouterFromConfig(cfg.Routing),
		tariffsService,
	)
	incentivesService := incentives.NewService(incentivesRepo, quotesRepo, incentives.Settings{
		MonthlyRate:     cfg.Incentives.MonthlyRate,
		GrowthLowPct:    cfg.Incentives.GrowthLowPct,
		GrowthLowBonus:  cfg.Incentives.GrowthLowBonus,
		GrowthHighPct:   cfg.Incentives.GrowthHighPct,
		GrowthHighBonus: cfg.Incentives.GrowthHighBonus,
		PointsPerOrder:  cfg.Incentives.PointsPerOrder,
	})
	competitorsService := competitors.NewService(competitors.NewRepository(db), tariffsService, competitors.DefaultAlertThresholdPct)
	notesService := notes.NewService(notes.NewRepository(db), highlights)
	importService := importer.NewService(quotesRepo, customersRepo, archive, cfg.Storage.Prefix)
	fleetService := fleetcosts.NewService(fleetcosts.NewRepository(db), tariffsService)
	accessService := access.NewService(access.NewRepository(db, store, ttl))

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20

	router.Use(middleware.CorrelationID())
	router.Use(middleware.Recovery())
	if sentryEnabled {
		router.Use(monitoring.Middleware())
	}
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Tracing())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders(cfg.Server.Environment == "production"))
	// workbook uploads plus room for the multipart envelope
	router.Use(middleware.MaxBodySize(int64(cfg.Server.MaxUploadMB+1) << 20))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/health/live", common.HealthCheck(serviceName, cfg.Server.Version))
	router.GET("/health/ready", common.HealthCheckWithDeps(serviceName, cfg.Server.Version, healthChecks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer))
	api.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))
	api.Use(access.AuditLog(accessService))

	section := func(rg *gin.RouterGroup, name string, readOnly ...string) *gin.RouterGroup {
		return rg.Group("", access.RequireSection(accessService, name, readOnly...))
	}

	quotes.NewHandler(quotesService).RegisterRoutes(section(api, access.SectionQuotes))
	customers.NewHandler(customersService).RegisterRoutes(section(api, access.SectionCustomers))
	tariffs.NewHandler(tariffsService).RegisterRoutes(section(api, access.SectionTariffs, "/tariffs/calculate"))
	routing.NewHandler(routingService).RegisterRoutes(section(api.Group("", middleware.RateLimit(limiter, "routing")),
		access.SectionRouting, "/routes/plan", "/routes/quote"))
	incentives.NewHandler(incentivesService).RegisterRoutes(section(api, access.SectionIncentives))
	competitors.NewHandler(competitorsService).RegisterRoutes(section(api, access.SectionCompetitors, "/competitors/compare"))
	notes.NewHandler(notesService).RegisterRoutes(section(api, access.SectionNotes))
	fleetcosts.NewHandler(fleetService).RegisterRoutes(section(api, access.SectionFleet))
	access.NewHandler(accessService).RegisterRoutes(api)

	admin := api.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	tariffs.NewAdminHandler(tariffsService).RegisterRoutes(section(admin, access.SectionTariffs))
	incentives.NewAdminHandler(incentivesService).RegisterRoutes(section(admin, access.SectionIncentives))
	importer.NewHandler(importService, cfg.Server.MaxUploadMB).RegisterRoutes(section(admin.Group("", middleware.RateLimit(limiter, "imports")),
		access.SectionImports))
	access.NewAdminHandler(accessService).RegisterRoutes(section(admin, access.SectionAccess))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("CRM service starting",
			zap.String("port", cfg.Server.Port),
			zap.String("environment", cfg.Server.Environment),
			zap.String("cache", cfg.Cache.Backend),
			zap.Bool("archive", archive != nil),
			zap.Bool("rate_limit", limiter.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}

// sqlPinger adapts *sql.DB to health.Pinger.
type sqlPinger struct{ db *sql.DB }

func (p sqlPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
