// Package server contains the HTTP handlers for the application's API.
package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"chenil/internal/cache"
	"chenil/internal/config"
	"chenil/internal/database"
	"chenil/internal/middleware"
	"chenil/internal/models"
	"chenil/internal/notifications"
	"chenil/internal/observability"
	"chenil/internal/repository"
	"chenil/internal/service"
	"chenil/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	store storage.Storage

	userRepo  repository.UserRepository
	dogRepo   repository.DogRepository
	ownerRepo repository.OwnerRepository
	mediaRepo repository.MediaRepository
	tokenRepo repository.TokenRepository
	subRepo   repository.SubscriptionRepository

	tokenService      *service.TokenService
	moderationService *service.ModerationService
	auditService      *service.AuditService
	dogService        *service.DogService
	ownerService      *service.OwnerService
	mediaService      *service.MediaService

	bus          *notifications.Bus
	dispatcher   *notifications.Dispatcher
	buildTrigger *notifications.BuildTrigger
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// The HTTP metrics middleware registers its collectors with the default
// Prometheus registry, which only tolerates one registration per process.
var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = fiberprometheus.New("chenil-api")
	})
	return promMiddleware
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	middleware.InitMiddleware(cfg, redisClient)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: httpMetrics(),
		store:          store,
		userRepo:       repository.NewUserRepository(db),
		dogRepo:        repository.NewDogRepository(db),
		ownerRepo:      repository.NewOwnerRepository(db),
		mediaRepo:      repository.NewMediaRepository(db),
		tokenRepo:      repository.NewTokenRepository(db),
		subRepo:        repository.NewSubscriptionRepository(db),
	}

	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	server.buildTrigger = notifications.NewBuildTrigger(cfg.BuildHookURL)
	if cfg.PushEnabled {
		server.dispatcher = notifications.NewDispatcher(server.subRepo, cfg)
	}
	server.bus = notifications.NewBus(redisClient, server.handleMutationEvent)

	server.tokenService = service.NewTokenService(server.tokenRepo)
	server.moderationService = service.NewModerationService(settingRepo)
	server.auditService = service.NewAuditService(auditRepo, server.moderationService, cfg)
	server.dogService = service.NewDogService(server.dogRepo, server.ownerRepo, server.moderationService, server.auditService, server.bus)
	server.ownerService = service.NewOwnerService(server.ownerRepo, server.dogRepo, server.auditService, server.bus)
	server.mediaService = service.NewMediaService(server.mediaRepo, server.dogRepo, server.moderationService, server.auditService, server.bus, store, cfg)

	return server, nil
}

// handleMutationEvent is the bus consumer: push fan-out plus the static site
// rebuild, both best-effort.
func (s *Server) handleMutationEvent(ctx context.Context, event models.MutationEvent) {
	if s.dispatcher != nil {
		s.dispatcher.Deliver(ctx, event)
	}
	if s.buildTrigger != nil && s.buildTrigger.Enabled() {
		if err := s.buildTrigger.Fire(ctx); err != nil {
			observability.GlobalLogger.ErrorContext(ctx, "Build trigger failed", "error", err)
		}
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and actor attribution
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Locally stored uploads are served straight from disk.
	if s.config.StorageBackend == "" || s.config.StorageBackend == "local" {
		app.Static("/uploads", s.config.UploadDir)
	}

	// Every API request runs admission so handlers always see a resolved actor.
	api := app.Group("/api", s.Admission())

	api.Get("/health/live", s.LivenessCheck)
	api.Get("/health/ready", s.ReadinessCheck)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", middleware.AuthRequired, s.Logout)
	auth.Get("/me", middleware.AuthRequired, s.Me)

	// Public reads; handlers widen their view for administrator actors.
	api.Get("/dogs", s.GetDogs)
	api.Get("/dogs/:id/media", s.GetDogMedia)
	api.Get("/dogs/:id", s.GetDog)
	api.Get("/push/key", s.GetPushKey)

	// Token-or-admin writes
	mutate := middleware.RateLimit(s.redis, 20, time.Minute, "mutate")
	api.Post("/dogs", s.RequireEditor(), mutate, s.CreateDog)
	api.Patch("/dogs/:id", s.RequireEditor(), mutate, s.UpdateDog)
	api.Post("/owners", s.RequireEditor(), mutate, s.CreateOwner)
	api.Patch("/owners/:id", s.RequireEditor(), mutate, s.UpdateOwner)
	api.Patch("/media/:id", s.RequireEditor(), mutate, s.UpdateMedia)

	// Uploads stay open to anonymous visitors; moderation gates what shows.
	api.Post("/dogs/:id/media", middleware.RateLimit(
		s.redis, 10, time.Minute, "upload"), s.UploadMedia)

	// Administrator routes
	protected := api.Group("", middleware.AuthRequired, s.AdminRequired())
	protected.Get("/owners", s.GetOwners)
	protected.Get("/owners/:id", s.GetOwner)
	protected.Delete("/dogs/:id", s.DeleteDog)
	protected.Patch("/dogs/:id/status", s.SetDogStatus)
	protected.Delete("/owners/:id", s.DeleteOwner)
	protected.Delete("/media/:id", s.DeleteMedia)
	protected.Patch("/media/:id/status", s.SetMediaStatus)

	admin := api.Group("/admin", middleware.AuthRequired, s.AdminRequired())
	admin.Get("/tokens", s.GetTokens)
	admin.Post("/tokens", s.IssueToken)
	admin.Patch("/tokens/:id", s.UpdateToken)
	admin.Post("/tokens/:id/deactivate", s.DeactivateToken)
	admin.Get("/audit", s.GetAuditEntries)
	admin.Patch("/audit/:id/status", s.SetAuditStatus)
	admin.Get("/moderation", s.GetModeration)
	admin.Put("/moderation", s.SetModeration)
	admin.Get("/subscriptions", s.GetSubscriptions)
	admin.Post("/subscriptions", s.Subscribe)
	admin.Delete("/subscriptions/:id", s.Unsubscribe)
	admin.Post("/rebuild", s.TriggerRebuild)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The app degrades without Redis but readiness reports it.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.isAdmin(c, userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   s.config.SiteName + " API",
		BodyLimit: int(s.config.MaxUploadBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Subscribe the mutation bus so push and rebuild fan-out runs.
	s.bus.Start(s.shutdownCtx)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the bus subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
