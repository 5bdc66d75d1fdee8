package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sentinelhq/sentinel/internal/auth"
	"github.com/sentinelhq/sentinel/internal/config"
	"github.com/sentinelhq/sentinel/internal/database"
	"github.com/sentinelhq/sentinel/internal/handlers"
	middlewareCustom "github.com/sentinelhq/sentinel/internal/middleware"
	"github.com/sentinelhq/sentinel/internal/models"
	"github.com/sentinelhq/sentinel/internal/repositories"
	"github.com/sentinelhq/sentinel/internal/routes"
	"github.com/sentinelhq/sentinel/internal/security"
	"github.com/sentinelhq/sentinel/internal/services"
	pkgauth "github.com/sentinelhq/sentinel/pkg/auth"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(&cfg.Log)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Open the security event log
	events := security.NewEventLog(cfg.Security.EventLogDir, logger)
	if err := events.Open(); err != nil {
		logger.Error("failed to open security event log", slog.Any("error", err))
		os.Exit(1)
	}
	defer events.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.BaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(
		userRepo,
		tokenManager,
		emailService,
		events,
		logger,
		cfg.Auth.LockoutThreshold,
		cfg.Auth.VerificationTokenExpiry,
		cfg.Auth.ResetTokenExpiry,
	)

	// Client IP extraction behind trusted proxies only
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Security.TrustedProxies}

	cookieConfig := auth.CookieConfig{
		Name:     cfg.Security.CSRFCookieName,
		Secure:   cfg.Server.Env == "production",
		SameSite: "strict",
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, ipConfig, cookieConfig, int(cfg.Security.CSRFTokenTTL.Seconds()))
	securityHandler := handlers.NewSecurityHandler(events)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)
	csrfPolicy := routes.CSRFRoutePolicy(cfg.Security.CSRFCookieName, cfg.Security.CSRFHeaderName)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.CSRFProtection(csrfPolicy, events, ipConfig))
	router.Use(middlewareCustom.InputScanner(security.DefaultDetectors(), events, ipConfig))

	// Register routes
	routes.RegisterRoutes(router, authHandler, securityHandler, tokenManager, userRepo, events, ipConfig)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// newLogger builds the JSON application logger, teeing to a rotated file
// when LOG_FILE_PATH is set.
func newLogger(cfg *config.LogConfig) *slog.Logger {
	var sink io.Writer = os.Stdout
	if cfg.FilePath != "" {
		sink = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}
	return slog.New(slog.NewJSONHandler(sink, nil))
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:          adminEmail,
		HashedPassword: hashedPassword,
		Name:           "Admin",
		Role:           models.RoleAdmin,
		Verified:       true,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
