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
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/getmentor/authflow/config"
	"github.com/getmentor/authflow/internal/cache"
	"github.com/getmentor/authflow/internal/handlers"
	"github.com/getmentor/authflow/internal/middleware"
	"github.com/getmentor/authflow/internal/repository"
	"github.com/getmentor/authflow/internal/services"
	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/getmentor/authflow/pkg/logger"
	"github.com/getmentor/authflow/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateDevServer(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid dev server configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.App.Env,
		ServiceName: cfg.Observability.ServiceName + "-devserver",
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting auth dev server",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	tracerShutdown, err := tracing.InitTracer(tracing.Config{
		ServiceName:      cfg.Observability.ServiceName + "-devserver",
		ServiceNamespace: cfg.Observability.ServiceNamespace,
		ServiceVersion:   cfg.Observability.ServiceVersion,
		Environment:      cfg.App.Env,
		Endpoint:         cfg.Observability.ExporterEndpoint,
	})
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

	// Users are hashed once at startup
	userRepo, err := repository.NewUserRepository(cfg.DevServer.Users, bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("Failed to seed users", zap.Error(err))
	}
	logger.Info("Seeded dev users", zap.Int("count", userRepo.Count()))

	codeCache := cache.NewCodeCache(cfg.DevServer.OTPTTL)
	tokenManager := jwt.NewTokenManager(
		cfg.DevServer.JWTSecret,
		cfg.DevServer.JWTIssuer,
		cfg.DevServer.AccessTokenTTL,
		cfg.DevServer.RefreshTokenTTL,
	)

	authService := services.NewAuthService(userRepo, codeCache, tokenManager, cfg.IsDevelopment())

	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(func() bool { return userRepo.Count() > 0 })

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Set up Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName + "-devserver"))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.DevServer.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader, "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	authRateLimiter := middleware.NewRateLimiter(ctx, rate.Limit(cfg.DevServer.RequestsPerSec), cfg.DevServer.RequestBurstSize)

	handlers.RegisterAuthRoutes(router, authRateLimiter, authHandler, healthHandler, tokenManager)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.DevServer.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.DevServer.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
