// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
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

	"github.com/clubnavi/go-club-backend/internal/cache"
	"github.com/clubnavi/go-club-backend/internal/config"
	"github.com/clubnavi/go-club-backend/internal/http/handlers"
	"github.com/clubnavi/go-club-backend/internal/http/middleware"
	"github.com/clubnavi/go-club-backend/internal/llm"
	"github.com/clubnavi/go-club-backend/internal/ratelimit"
	"github.com/clubnavi/go-club-backend/internal/repo"
	"github.com/clubnavi/go-club-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. chatStore backs the chat endpoint's fixed-window limiter; pass a
// ratelimit.MemoryStore for single-process deployments or a RedisStore for
// horizontally scaled ones.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip compression
//  8. Optional authentication (claims for personalization)
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Edge rate limiter (per user/IP, bypass on replay)
//  11. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, completer llm.Completer, chatStore ratelimit.Store, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Request-scoped logger plus structured access logging with redaction
	r.Use(middleware.Logger())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Api-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Dependency injection: services ← repo/db/completer.
	listings := cache.NewDirectory(cfg.DirectoryCacheTTL)
	authSvc := &services.AuthService{
		DB:         db,
		JWTSecret:  []byte(cfg.Auth.JWTSecret),
		JWTTTL:     cfg.Auth.JWTTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}
	uniSvc := &services.UniversityService{DB: db, Listings: listings}
	clubSvc := &services.ClubService{DB: db, Listings: listings, NameMaxLen: 255}
	chatSvc := &services.ChatService{
		DB:              db,
		Completer:       completer,
		MaxMessageRunes: cfg.Chat.MaxMessageRunes,
		Enabled:         cfg.Completion.APIKey != "",
	}

	// 8) Optional authentication: claims are available everywhere; the
	// protected groups below additionally require them.
	r.Use(middleware.OptionalAuth(authSvc.Parse))

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID uint, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 10) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 11) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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

	h := handlers.New(chatSvc, uniSvc, clubSvc, authSvc, db, cfg.IdempotencyTTL)

	// Fixed-window limiter gating only the chat endpoint.
	chatLimiter := ratelimit.NewLimiter(chatStore, cfg.Chat.MaxRequests, cfg.Chat.Window)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	chatHandlers := []gin.HandlerFunc{middleware.ChatLimit(chatLimiter, cfg.Chat.Window), h.Chat}

	// The chat endpoint also answers at the root, independent of the
	// versioned base path.
	if apiBase != "" && apiBase != "/" {
		r.POST("/chat", chatHandlers...)
	}

	{
		// Chat
		api.POST("/chat", chatHandlers...)

		// Universities
		api.GET("/universities", h.ListUniversities)
		api.POST("/universities", h.CreateUniversity)
		api.GET("/universities/:id/clubs", h.ListUniversityClubs)

		// Auth
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// Clubs
		api.GET("/clubs/:id", h.GetClub)
		authed := api.Group("", middleware.RequireAuth(authSvc.Parse))
		{
			authed.GET("/clubs", h.ListOwnClubs)
			authed.POST("/clubs", h.CreateClub)
			authed.PUT("/clubs/:id", h.UpdateClub)
			authed.DELETE("/clubs/:id", h.DeleteClub)
		}
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
