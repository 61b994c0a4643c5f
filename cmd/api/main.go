package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/imagebox/imagebox/internal/http/handlers"
	imw "github.com/imagebox/imagebox/internal/http/middleware"
	"github.com/imagebox/imagebox/internal/mailer"
	"github.com/imagebox/imagebox/internal/otp"
	"github.com/imagebox/imagebox/internal/repo"
	"github.com/imagebox/imagebox/internal/repo/postgres"
	"github.com/imagebox/imagebox/internal/repo/redisotp"
	"github.com/imagebox/imagebox/internal/service"
	"github.com/imagebox/imagebox/internal/storage"
	"github.com/imagebox/imagebox/migrations"
	"github.com/imagebox/imagebox/pkg/auth"
	"github.com/imagebox/imagebox/pkg/config"
	"github.com/imagebox/imagebox/pkg/database"
	"github.com/imagebox/imagebox/pkg/events"
	"github.com/imagebox/imagebox/pkg/logger"
	mw "github.com/imagebox/imagebox/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(pool, migrations.FS); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Event bus is optional; auth works without it
	var eventBus events.Publisher = events.NoopPublisher{}
	if cfg.NATS.Enabled {
		bus, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		eventBus = bus
	}

	// Repositories
	usersRepo := postgres.NewUsersRepo(pool)
	imagesRepo := postgres.NewImagesRepo(pool)
	rateLimitRepo := postgres.NewRateLimitRepo(pool)

	// Redis keeps OTP expiry on native key TTLs; the Postgres store needs a
	// background sweep instead.
	var otpRepo repo.OtpRepo
	var sweepOtps *postgres.OtpRepo
	if cfg.Redis.Enabled {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid Redis URL", "error", err)
			os.Exit(1)
		}
		otpRepo = redisotp.New(redis.NewClient(opt), cfg.Auth.OTPTTL)
	} else {
		pgOtpRepo := postgres.NewOtpRepo(pool, cfg.Auth.OTPTTL)
		otpRepo = pgOtpRepo
		sweepOtps = pgOtpRepo
	}
	go sweepExpired(ctx, sweepOtps, rateLimitRepo)

	// Object storage for the gallery
	objectStore, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		logger.Error("Failed to initialize object storage", "error", err)
		os.Exit(1)
	}

	// Notifier
	var mailSvc mailer.Service
	switch {
	case cfg.Email.DevMode:
		mailSvc = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mailSvc = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.SenderName, cfg.Email.SMTPFrom)
	default:
		mailSvc = mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}

	issuer := auth.NewIssuer(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	// Services
	authService := service.NewAuthService(usersRepo, otpRepo, mailSvc, otp.NewCode, eventBus)
	imageService := service.NewImageService(imagesRepo, objectStore, eventBus)

	// HTTP
	h := handlers.New(authService, imageService, issuer)
	limiter := imw.NewRateLimiter(rateLimitRepo, cfg.RateLimit.Requests, cfg.RateLimit.Window)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/", h.Routes(usersRepo, limiter))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API server", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

// sweepExpired periodically removes stale OTP and rate-limit rows. Reads
// already filter expired records; this keeps the tables from growing.
func sweepExpired(ctx context.Context, otps *postgres.OtpRepo, limits *postgres.RateLimitRepo) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if otps != nil {
				if n, err := otps.DeleteExpired(ctx); err != nil {
					logger.Warn("OTP sweep failed", "error", err)
				} else if n > 0 {
					logger.Debug("Swept expired OTP records", "count", n)
				}
			}
			if _, err := limits.CleanupExpired(ctx); err != nil {
				logger.Warn("Rate limit sweep failed", "error", err)
			}
		}
	}
}
