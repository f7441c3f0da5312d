package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/getmentor/mentorship-api/config"
	"github.com/getmentor/mentorship-api/internal/cache"
	"github.com/getmentor/mentorship-api/internal/database/postgres"
	"github.com/getmentor/mentorship-api/internal/handlers"
	"github.com/getmentor/mentorship-api/internal/lock"
	"github.com/getmentor/mentorship-api/internal/middleware"
	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/getmentor/mentorship-api/internal/repository"
	"github.com/getmentor/mentorship-api/internal/services"
	"github.com/getmentor/mentorship-api/pkg/aiengine"
	"github.com/getmentor/mentorship-api/pkg/db"
	"github.com/getmentor/mentorship-api/pkg/hasher"
	"github.com/getmentor/mentorship-api/pkg/httpclient"
	"github.com/getmentor/mentorship-api/pkg/jwt"
	"github.com/getmentor/mentorship-api/pkg/logger"
	"github.com/getmentor/mentorship-api/pkg/metrics"
	"github.com/getmentor/mentorship-api/pkg/objectstore"
	"github.com/getmentor/mentorship-api/pkg/profiling"
	"github.com/getmentor/mentorship-api/pkg/retry"
	"github.com/getmentor/mentorship-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

type apiHandlers struct {
	health      *handlers.HealthHandler
	auth        *handlers.AuthHandler
	requests    *handlers.RequestHandler
	mentorships *handlers.MentorshipHandler
	sessions    *handlers.SessionHandler
	resumes     *handlers.ResumeHandler
	profiles    *handlers.ProfileHandler
}

// registerRoutes wires every endpoint under /api
func registerRoutes(ctx context.Context, router *gin.Engine, h apiHandlers, tokens *jwt.TokenManager) {
	generalRateLimiter := middleware.NewRateLimiter(ctx, 100, 200) // 100 req/sec, burst of 200
	authRateLimiter := middleware.NewRateLimiter(ctx, rate.Limit(0.2), 5)
	aiRateLimiter := middleware.NewRateLimiter(ctx, rate.Limit(0.05), 2)

	api := router.Group("/api")
	api.GET("/healthcheck", h.health.Healthcheck)
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(generalRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(256*1024))

	// Public
	auth := v1.Group("/auth")
	auth.POST("/mentor/register", authRateLimiter.Middleware(), h.auth.RegisterMentor)
	auth.POST("/student/register", authRateLimiter.Middleware(), h.auth.RegisterStudent)
	auth.POST("/:role/login", authRateLimiter.Middleware(), h.auth.Login)

	v1.GET("/mentors/:id", h.profiles.GetMentor)
	v1.GET("/mentors/:id/reputation", h.profiles.GetReputation)
	v1.GET("/students/:id", h.profiles.GetStudent)

	// Authenticated, either role
	authed := v1.Group("")
	authed.Use(middleware.ActorAuthMiddleware(tokens))
	authed.POST("/account/password", authRateLimiter.Middleware(), h.auth.ChangePassword)
	authed.GET("/requests", h.requests.List)
	authed.POST("/requests", middleware.RequireRole(models.RoleStudent), h.requests.Submit)
	authed.POST("/requests/:id/respond", middleware.RequireRole(models.RoleMentor), h.requests.Respond)

	authed.GET("/mentorships", h.mentorships.List)
	authed.POST("/mentorships/reconcile", middleware.RequireRole(models.RoleMentor), h.mentorships.Reconcile)
	authed.POST("/mentorships/:id/status", h.mentorships.Transition)

	sessions := authed.Group("/mentorships/:id/sessions")
	sessions.GET("", h.sessions.List)
	sessions.POST("", middleware.RequireRole(models.RoleMentor), h.sessions.Schedule)
	sessions.POST("/:sessionId/complete", h.sessions.Complete)
	sessions.POST("/:sessionId/cancel", h.sessions.Cancel)
	sessions.POST("/:sessionId/no-show", middleware.RequireRole(models.RoleMentor), h.sessions.MarkNoShow)
	sessions.POST("/:sessionId/payment", middleware.RequireRole(models.RoleMentor), h.sessions.UpdatePayment)

	student := authed.Group("/student")
	student.Use(middleware.RequireRole(models.RoleStudent))
	student.GET("/resume", h.resumes.Get)
	student.POST("/resume", aiRateLimiter.Middleware(), h.resumes.Analyze)
	student.GET("/roadmap", h.resumes.GetRoadmap)
	student.POST("/roadmap", aiRateLimiter.Middleware(), h.resumes.GenerateRoadmap)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting mentorship API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	identity := tracing.Identity{
		ServiceName:       cfg.Observability.ServiceName,
		ServiceNamespace:  cfg.Observability.ServiceNamespace,
		ServiceVersion:    cfg.Observability.ServiceVersion,
		ServiceInstanceID: cfg.Observability.ServiceInstanceID,
		Environment:       cfg.Server.AppEnv,
	}
	tracerShutdown, err := tracing.InitTracer(identity, cfg.Observability.ExporterEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, identity)
	if err != nil {
		logger.Error("Failed to start profiler", zap.Error(err))
	} else {
		defer stopProfiler()
	}

	metrics.RecordInfrastructureMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document stores
	var (
		mentorRepo  repository.MentorRepository
		studentRepo repository.StudentRepository
		store       handlers.Pinger
	)
	if cfg.Database.WorkOffline {
		logger.Warn("Running with in-memory stores: nothing is persisted")
		mentorRepo = repository.NewMemoryMentorRepository()
		studentRepo = repository.NewMemoryStudentRepository()
	} else {
		pool, err := db.NewPool(ctx, db.PoolConfig{
			URL:        cfg.Database.URL,
			MaxConns:   cfg.Database.MaxConns,
			MinConns:   cfg.Database.MinConns,
			CACertPath: cfg.Database.CACertPath,
		})
		if err != nil {
			logger.Fatal("Failed to initialize database connection pool", zap.Error(err))
		}
		db.RecordPoolStats(ctx, pool, 15*time.Second)
		client := postgres.NewClient(pool)
		defer client.Close()
		mentorRepo = client.NewMentorStore()
		studentRepo = client.NewStudentStore()
		store = client
	}

	// Per-mentor locks are shared through Redis when several instances run
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		lockCfg := lock.DefaultRedisConfig()
		if cfg.Redis.LockTTL > 0 {
			lockCfg.TTL = cfg.Redis.LockTTL
		}
		if cfg.Redis.LockMaxWait > 0 {
			lockCfg.MaxWait = cfg.Redis.LockMaxWait
		}
		locker = lock.NewRedisLocker(rdb, lockCfg)
		logger.Info("Using Redis mentor locks")
	}

	profileCache := cache.NewProfileCache(mentorRepo, cfg.Cache.ReputationTTL)

	notifier := services.NewTriggerNotifier(cfg, httpclient.NewStandardClient())

	agg := services.NewAggregates(services.AggregatesConfig{
		Mentors:     mentorRepo,
		Students:    studentRepo,
		Locker:      locker,
		Profiles:    profileCache,
		RepairRetry: retry.ReconcileConfig(cfg.Reconciliation.MaxRetries, cfg.Reconciliation.InitialDelay),
		Notifier:    notifier,
	})

	// Outbound collaborators

	var analyzer services.ResumeAnalyzer
	var aiHealth handlers.DegradationReporter
	if cfg.AIEngine.URL != "" {
		client := aiengine.NewClient(cfg.AIEngine.URL, httpclient.NewClient(cfg.AIEngine.Timeout))
		analyzer, aiHealth = client, client
	} else {
		logger.Warn("Resume analysis disabled: AI_ENGINE_URL not set")
	}

	var archive services.ResumeArchiver
	storeCfg := objectstore.Config(cfg.ObjectStorage)
	if storeCfg.Enabled() {
		a, err := objectstore.NewResumeArchive(storeCfg)
		if err != nil {
			logger.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		archive = a
	}

	tokens := jwt.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.SessionTTLHours)

	requestService := services.NewRequestService(agg, notifier)
	relationshipService := services.NewRelationshipService(agg)
	sessionService := services.NewSessionService(agg, notifier)
	accountService := services.NewAccountService(agg, hasher.NewBcryptHasher(cfg.Security.BcryptCost), cfg)
	resumeService := services.NewResumeService(agg, analyzer, archive)
	profileService := services.NewProfileService(agg, profileCache)

	relationshipService.Start(ctx, cfg.Reconciliation.Interval)

	h := apiHandlers{
		health:      handlers.NewHealthHandler(store, aiHealth),
		auth:        handlers.NewAuthHandler(accountService, tokens),
		requests:    handlers.NewRequestHandler(requestService),
		mentorships: handlers.NewMentorshipHandler(relationshipService),
		sessions:    handlers.NewSessionHandler(sessionService),
		resumes:     handlers.NewResumeHandler(resumeService),
		profiles:    handlers.NewProfileHandler(profileService),
	}

	gin.SetMode(cfg.Server.GinMode)
	handlers.UseJSONFieldNames()
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))

	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	registerRoutes(ctx, router, h, tokens)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second, // resume analysis waits on the AI engine
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
