// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/fitnesse/go-fitness-backend/internal/agents"
	"github.com/fitnesse/go-fitness-backend/internal/config"
	"github.com/fitnesse/go-fitness-backend/internal/domain"
	"github.com/fitnesse/go-fitness-backend/internal/http/handlers"
	"github.com/fitnesse/go-fitness-backend/internal/http/middleware"
	"github.com/fitnesse/go-fitness-backend/internal/identity"
	"github.com/fitnesse/go-fitness-backend/internal/llm"
	"github.com/fitnesse/go-fitness-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting, CORS
// and security headers, health and metrics endpoints, and then mounts the
// versioned public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Structured request logging
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS and security headers
//  9. Response compression
func RegisterRoutes(r *gin.Engine, db *gorm.DB, client llm.Client, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured request logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", identity.UserIDHeader},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", identity.UserIDHeader},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 9) Response compression (skip the metrics scrape endpoint)
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← db/llm/config
	mealPlans := &services.PlanService{DB: db, LLM: client, Kind: domain.PlanMeal}
	workoutPlans := &services.PlanService{DB: db, LLM: client, Kind: domain.PlanWorkout}
	mealLogs := services.NewMealLogService(db, client)
	workoutLogs := services.NewWorkoutLogService(db, client)

	router := agents.NewRouter(
		&agents.Onboarding{DB: db, LLM: client, Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens},
		&agents.Coordination{DB: db, LLM: client, Temperature: cfg.LLM.Temperature, MaxTokens: cfg.LLM.MaxTokens},
		agents.NewNutritionist(db, client, mealPlans, cfg.LLM.Temperature, cfg.LLM.MaxTokens),
		agents.NewTrainer(db, client, workoutPlans, cfg.LLM.Temperature, cfg.LLM.MaxTokens),
	)

	chatSvc := &services.ChatService{
		DB:              db,
		Router:          router,
		LLM:             client,
		MealLogs:        mealLogs,
		WorkoutLogs:     workoutLogs,
		HistoryWindow:   cfg.LLM.HistoryWindow,
		MaxMessageRunes: 4000,
	}
	stateSvc := &services.StateService{DB: db}

	h := handlers.New(chatSvc, mealPlans, workoutPlans, mealLogs, workoutLogs, stateSvc, identity.NewStatic())

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Chat
		api.POST("/chat", h.PostChat)
		api.GET("/chat/conversations/:id/messages", h.ListConversationMessages)

		// Plans
		api.POST("/plans/meal", h.GenerateMealPlan)
		api.POST("/plans/workout", h.GenerateWorkoutPlan)
		api.GET("/plans/:id", h.GetPlan)
		api.PATCH("/plans/:id", h.UpdatePlan)

		// Logs
		api.POST("/logs/meals/parse", h.ParseMealLog)
		api.POST("/logs/meals", h.SaveMealLog)
		api.POST("/logs/workouts/parse", h.ParseWorkoutLog)
		api.POST("/logs/workouts", h.SaveWorkoutLog)
		api.GET("/logs", h.ListLogs)

		// State
		api.GET("/state", h.GetState)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
