// Package server contains the HTTP handlers for the application's endpoints.
package server

import (
	"context"
	"fmt"
	"time"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/mail"
	"quill/internal/media"
	"quill/internal/middleware"
	"quill/internal/repository"
	"quill/internal/service"

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
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	profileRepo    repository.ProfileRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	mediaStore     *media.Store
	postService    *service.PostService
	commentService *service.CommentService
	accountService *service.AccountService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient(), mail.New(cfg))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis first.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, mailer mail.Mailer) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	prom := middleware.InitMetrics("quill-api")
	store := media.NewStore(cfg)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		profileRepo:    profileRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		mediaStore:     store,
	}
	server.postService = service.NewPostService(postRepo)
	server.commentService = service.NewCommentService(commentRepo, postRepo)
	server.accountService = service.NewAccountService(userRepo, profileRepo, mailer, store)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Distributed tracing spans per request
	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses.
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
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Uploaded profile pictures
	app.Static("/media", s.mediaStore.Dir())

	// Public pages. OptionalAuth resolves the viewer so authors see their
	// own drafts on shared pages.
	app.Get("/", s.Home)
	app.Get("/search/", middleware.RateLimit(
		s.redis, 20, time.Minute, "search"), s.SearchPosts)
	app.Get("/blog/:slug/", middleware.OptionalAuth, s.GetPost)

	// Auth
	app.Post("/register/", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	app.Post("/login/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Get("/logout/", s.Logout)

	// Password recovery (pre-login)
	app.Post("/email_form/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "password_reset"), s.RequestPasswordReset)
	app.Post("/verification_code/:email/", middleware.RateLimit(
		s.redis, 10, 10*time.Minute, "verify_code"), s.VerifyCode)
	app.Post("/reset_password/:email/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "reset_password"), s.ResetPassword)

	// Authoring
	app.Post("/blog/", middleware.AuthRequired, s.CreatePost)
	app.Post("/blog/:slug/", middleware.AuthRequired, s.AddComment)
	app.Get("/my_blog/", middleware.AuthRequired, s.MyPosts)
	app.Get("/edit_blog/:slug/", middleware.AuthRequired, s.GetPostForEdit)
	app.Post("/edit_blog/:slug/", middleware.AuthRequired, s.UpdatePost)
	app.Post("/delete_blog/:slug/", middleware.AuthRequired, s.DeletePost)
	app.Post("/publish/:slug/", middleware.AuthRequired, s.PublishPost)

	// Account
	app.Post("/change_password/", middleware.AuthRequired, s.ChangePassword)
	app.Get("/user_profile/", middleware.AuthRequired, s.GetProfile)
	app.Post("/user_profile/", middleware.AuthRequired, s.UpdateProfilePicture)
}

// Shutdown gracefully releases server resources
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.ErrorContext(ctx, "Error closing sql DB", "error", cerr)
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.ErrorContext(ctx, "Error closing redis", "error", rerr)
		}
	}
	middleware.Logger.InfoContext(ctx, "Server shutdown complete")
	return nil
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
		// The app degrades without Redis, so readiness only requires the DB.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
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
