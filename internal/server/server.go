// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"forum/internal/cache"
	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/featureflags"
	"forum/internal/middleware"
	"forum/internal/models"
	"forum/internal/notifications"
	"forum/internal/observability"
	"forum/internal/repository"
	"forum/internal/service"

	_ "forum/docs" // swagger registration

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	// FlagRegistration closes sign-ups when set to off.
	FlagRegistration = "registration"
	// FlagRealtime turns the websocket feed and event publishing on.
	FlagRealtime = "realtime"

	bodyLimit = 10 * 1024 * 1024

	// Bearer tokens plus the headers a browser sends when upgrading /api/ws.
	corsAllowHeaders = "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version"
)

// Server holds the dependencies shared by every handler.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens       *middleware.TokenManager
	blacklist    *cache.TokenBlacklist
	userRepo     repository.UserQueries
	featureFlags *featureflags.Manager

	posts     *service.PostService
	comments  *service.CommentService
	accounts  *service.AccountService
	dashboard *service.DashboardService
	images    *service.ImageService

	notifier *notifications.Notifier
	hub      *notifications.Hub
}

// NewServer connects to the database and Redis, then builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil redisClient disables caching, token revocation and cross-instance
// event fan-out; the local feed keeps working.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("config and database are required")
	}
	if redisClient != nil {
		cache.SetClient(redisClient)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	tagRepo := repository.NewTagRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	tokens := middleware.NewTokenManager(cfg.JWTSecret)
	blacklist := cache.NewTokenBlacklist(redisClient)
	images := service.NewImageService(cfg)
	sanitizer := service.NewSanitizer()

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("forum-api"),
		tokens:         tokens,
		blacklist:      blacklist,
		userRepo:       userRepo,
		featureFlags: featureflags.NewManager(cfg.FeatureFlags).
			WithDefault(FlagRegistration, true).
			WithDefault(FlagRealtime, true),
		images:    images,
		posts:     service.NewPostService(postRepo, tagRepo, categoryRepo, userRepo, sanitizer),
		comments:  service.NewCommentService(commentRepo, postRepo, userRepo, sanitizer),
		accounts:  service.NewAccountService(userRepo, tokens, blacklist, images),
		dashboard: service.NewDashboardService(categoryRepo, tagRepo, userRepo, images),
		notifier:  notifications.NewNotifier(redisClient),
		hub:       notifications.NewHub(),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs before the context middleware so the trace id lands in logs.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded pictures are embedded by the SPA from another origin.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = config.DefaultAllowedOrigins
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     corsAllowHeaders,
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
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Forum Backend Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	app.Static(service.UploadURLPrefix, s.images.UploadDir(), fiber.Static{
		MaxAge: 3600,
	})

	auth := middleware.AuthRequired(s.tokens, s.blacklist)
	optional := middleware.OptionalAuth(s.tokens, s.blacklist)

	account := api.Group("/Account")
	account.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	account.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	account.Get("/logout", optional, s.Logout)
	account.Get("/me", auth, s.Me)
	account.Post("/changePassword", auth, s.ChangePassword)
	account.Post("/changeProfilePicture", auth, s.ChangeProfilePicture)
	account.Get("/profilePicture/:id", s.GetProfilePicture)

	posts := api.Group("/Post", optional)
	posts.Get("/", s.ListPosts)
	posts.Get("/search", middleware.RateLimit(
		s.redis, 20, time.Minute, "search"), s.SearchPosts)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Get("/:id/Comment", s.ListComments)
	posts.Post("/:id/Comment", auth, middleware.RateLimit(
		s.redis, 6, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/like", auth, s.LikePost)
	posts.Get("/:id", s.GetPost)
	posts.Post("/", auth, middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Put("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)

	comments := api.Group("/Comment", auth)
	comments.Post("/:id/like", s.LikeComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	api.Get("/Category", s.ListCategories)
	api.Get("/Category/:id", s.GetCategory)
	api.Get("/Tag", s.ListTags)

	dashboard := api.Group("/Dashboard", auth, s.AdminRequired())
	dashboard.Post("/Category", s.CreateCategory)
	dashboard.Delete("/Category/:id/picture", s.DeleteCategoryPicture)
	dashboard.Put("/Category/:id", s.UpdateCategory)
	dashboard.Delete("/Category/:id", s.DeleteCategory)
	dashboard.Post("/Tag", s.CreateTag)
	dashboard.Put("/Tag/:id", s.UpdateTag)
	dashboard.Delete("/Tag/:id", s.DeleteTag)
	dashboard.Get("/users/:id/activity", s.GetUserActivity)
	dashboard.Get("/feature-flags", s.GetFeatureFlags)

	api.Get("/ws", optional, s.RequireWebsocketUpgrade, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so only
// the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
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
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
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
		admin, err := s.userRepo.IsAdmin(c.UserContext(), middleware.UserID(c))
		if err != nil && !models.IsNotFound(err) {
			return s.respondError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Forum API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires the feed to Redis and starts listening.
func (s *Server) Start() error {
	observability.SetLogger(middleware.Logger)
	s.app = s.NewApp()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start feed wiring", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the feed subscriber
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down feed hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
