// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"freshplate/internal/analyzer"
	"freshplate/internal/cache"
	"freshplate/internal/config"
	"freshplate/internal/database"
	"freshplate/internal/middleware"
	"freshplate/internal/models"
	"freshplate/internal/observability"
	"freshplate/internal/repository"
	"freshplate/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// TokenIssuer and TokenAudience identify tokens minted by this API.
const (
	TokenIssuer   = "freshplate-api"
	TokenAudience = "freshplate-client"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	scanRepo    repository.ScanRepository
	mealRepo    repository.MealRepository
	aggRepo     repository.AggregateRepository
	goalRepo    repository.GoalRepository
	savedRepo   repository.SavedItemRepository
	insightRepo repository.InsightRepository

	mealService    *service.MealService
	scanService    *service.ScanService
	goalService    *service.GoalService
	savedService   *service.SavedItemService
	insightService *service.InsightService
	profileService *service.ProfileService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	vision := analyzer.NewHTTPVisionClient(cfg.VisionServiceURL, cfg.AdviceAPIKey)
	advice := analyzer.NewHTTPAdviceClient(cfg.AdviceServiceURL, cfg.AdviceAPIKey)

	return newServer(cfg, db, redisClient, vision, advice), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, vision analyzer.VisionClient, advice analyzer.AdviceClient) *Server {
	return newServer(cfg, db, redisClient, vision, advice)
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, vision analyzer.VisionClient, advice analyzer.AdviceClient) *Server {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	scanRepo := repository.NewScanRepository(db)
	mealRepo := repository.NewMealRepository(db)
	aggRepo := repository.NewAggregateRepository(db, mealRepo)
	goalRepo := repository.NewGoalRepository(db)
	savedRepo := repository.NewSavedItemRepository(db)
	insightRepo := repository.NewInsightRepository(db)

	prom := middleware.InitMetrics("freshplate-api")

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: prom,
		userRepo:       userRepo,
		profileRepo:    profileRepo,
		scanRepo:       scanRepo,
		mealRepo:       mealRepo,
		aggRepo:        aggRepo,
		goalRepo:       goalRepo,
		savedRepo:      savedRepo,
		insightRepo:    insightRepo,
	}

	server.mealService = service.NewMealService(db, mealRepo, aggRepo, scanRepo)
	server.scanService = service.NewScanService(scanRepo, vision)
	server.goalService = service.NewGoalService(goalRepo, profileRepo, advice)
	server.savedService = service.NewSavedItemService(savedRepo, scanRepo)
	server.insightService = service.NewInsightService(insightRepo, aggRepo, profileRepo, advice)
	server.profileService = service.NewProfileService(profileRepo)

	return server
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
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
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "FreshPlate Backend Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.Logout)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMe)
	users.Put("/me", s.UpdateMe)

	// Health profile
	profile := protected.Group("/profile")
	profile.Get("/", s.GetHealthProfile)
	profile.Put("/", s.UpsertHealthProfile)

	// Scan routes
	scan := protected.Group("/scan")
	scan.Post("/", middleware.RateLimit(
		s.redis, 10, time.Minute, "scan"), s.CreateScan)
	scan.Get("/history", s.GetScanHistory)
	scan.Post("/:sessionID/add-to-meal", s.AddScanToMeal)
	scan.Get("/:sessionID", s.GetScanSession)
	scan.Delete("/:sessionID", s.DeleteScanSession)

	// Meal routes
	meals := protected.Group("/meals")
	meals.Post("/", s.LogMeal)
	meals.Get("/", s.GetMeals)
	meals.Get("/today-summary", s.GetTodaySummary)
	meals.Delete("/:id", s.DeleteMeal)

	// Daily aggregate readers
	protected.Get("/daily-aggregates", s.GetDailyAggregates)
	protected.Get("/daily-aggregates/:date", s.GetDailyAggregate)

	// Goal routes
	goals := protected.Group("/goals")
	goals.Post("/", s.SetGoal)
	goals.Post("/generate", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "generate_goals"), s.GenerateGoal)
	goals.Get("/current", s.GetCurrentGoal)
	goals.Get("/", s.GetGoalHistory)

	// Saved item routes
	saved := protected.Group("/saved-items")
	saved.Get("/usable", s.GetUsableItems)
	saved.Post("/:sessionID", s.SaveScan)
	saved.Get("/", s.GetSavedItems)
	saved.Post("/:sessionID/consume", s.ConsumeSavedItem)
	saved.Delete("/:sessionID", s.DeleteSavedItem)

	// Insight routes
	insights := protected.Group("/insights")
	insights.Post("/generate", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "generate_insights"), s.GenerateInsights)
	insights.Get("/", s.GetInsights)
	insights.Post("/:id/read", s.MarkInsightRead)

	// Nutrition assistant
	protected.Post("/chat", middleware.RateLimit(
		s.redis, 20, time.Minute, "chat"), s.Chat)
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
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		// Parse and validate token
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(s.config.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token claims"))
		}

		// Validate issuer and audience
		if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != TokenIssuer {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token issuer"))
		}
		if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != TokenAudience {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid token audience"))
		}

		// Extract user ID from subject claim
		sub, ok := claims["sub"].(string)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid subject claim"))
		}

		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		// Check JTI for revocation
		if jti, exists := claims["jti"].(string); exists && jti != "" {
			if s.redis != nil {
				isBlacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
				if err == nil && isBlacklisted > 0 {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Token has been revoked"))
				}
			}
		}

		// Store user ID in context
		c.Locals("userID", uint(userID))
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, uint(userID))
		c.SetUserContext(ctx)
		observability.AddTraceAttributesToContext(ctx, attribute.String("user.id", sub))

		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "FreshPlate API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
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
