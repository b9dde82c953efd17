package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finara/prepay-backend/internal/client/loanservicing"
	"github.com/finara/prepay-backend/internal/config"
	"github.com/finara/prepay-backend/internal/domain"
	"github.com/finara/prepay-backend/internal/handler"
	"github.com/finara/prepay-backend/internal/middleware"
	"github.com/finara/prepay-backend/internal/repository/cache"
	"github.com/finara/prepay-backend/internal/repository/postgres"
	"github.com/finara/prepay-backend/internal/service"
	"github.com/finara/prepay-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Loan-servicing client
	lsClient := loanservicing.NewClient(loanservicing.Config{
		BaseURL:    cfg.LoanServicing.BaseURL,
		Tenant:     cfg.LoanServicing.Tenant,
		DateFormat: cfg.DateFormat,
		Locale:     cfg.Locale,
		Timeout:    cfg.QuoteTimeout,
	}, log.Logger)

	// Quote service, optionally cached through Redis
	var quotes domain.QuoteService = lsClient
	if cfg.RedisAddr != "" {
		quoteCache := cache.NewRedisQuoteCache(cfg.RedisAddr, cfg.QuoteCacheTTL)
		if err := quoteCache.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping Redis")
		}
		defer quoteCache.Close()
		quotes = service.NewCachedQuoteService(lsClient, quoteCache, log.Logger)
		log.Info().Str("addr", cfg.RedisAddr).Msg("Quote cache enabled")
	}

	// Repositories and services
	submissionLogRepo := postgres.NewSubmissionLogRepository(pool)
	submissionService := service.NewSubmissionService(lsClient, submissionLogRepo, log.Logger)
	sessionService := service.NewPrepaymentSessionService(lsClient, quotes, submissionService, service.SessionConfig{
		DateFormat:   cfg.DateFormat,
		Locale:       cfg.Locale,
		QuoteTimeout: cfg.QuoteTimeout,
		SessionTTL:   cfg.SessionTTL,
	}, log.Logger)

	// WebSocket hub for quote events
	hub := websocket.NewHub()
	sessionService.SetEventPublisher(hub)

	// Session janitor
	janitor := service.NewSessionJanitor(sessionService, log.Logger, service.DefaultSessionJanitorConfig())
	janitor.Start(context.Background())
	defer janitor.Stop()

	// Rate limiter
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	prepayHandler := handler.NewPrepayHandler(sessionService)
	wsHandler := handler.NewWebSocketHandler(hub, sessionService, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Per-client rate limiting
	e.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, prepayHandler, wsHandler)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
