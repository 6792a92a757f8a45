package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bogobit/community-server-go/internal/chat"
	"github.com/bogobit/community-server-go/internal/config"
	"github.com/bogobit/community-server-go/internal/database"
	"github.com/bogobit/community-server-go/internal/handler"
	"github.com/bogobit/community-server-go/internal/jobs"
	"github.com/bogobit/community-server-go/internal/middleware"
	"github.com/bogobit/community-server-go/internal/redis"
	"github.com/bogobit/community-server-go/internal/repository"
	"github.com/bogobit/community-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	messageRepo := repository.NewChatMessageRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	attemptRepo := repository.NewLoginAttemptRepository(db.DB)

	hub := chat.NewHub(redisClient)
	defer hub.Close()

	sessionService := service.NewSessionService(sessionRepo, hub, cfg.SessionSecret, cfg.SessionTTL())
	loginGuard := service.NewLoginGuard(attemptRepo, cfg.LockoutThreshold, cfg.LockoutWindow())
	authService := service.NewAuthService(userRepo, sessionService, loginGuard)
	chatService := service.NewChatService(messageRepo, sessionService, hub)
	commentService := service.NewCommentService(db, commentRepo)
	profileService := service.NewProfileService(db, userRepo, sessionRepo, sessionService, cfg.SessionSecret)

	sessionMiddleware := middleware.NewSessionMiddleware(sessionService)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(authService, sessionService, isProduction)
	profileHandler := handler.NewProfileHandler(profileService)
	commentHandler := handler.NewCommentHandler(commentService)
	chatHandler := handler.NewChatHandler(chatService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(sessionMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Mount("/auth", authHandler.Routes())
			r.Mount("/comments", commentHandler.Routes())
			r.With(middleware.RequireAuth).Mount("/profile", profileHandler.Routes())
		})

		// The event stream is long-lived, so no request timeout here.
		r.Mount("/chat", chatHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, attemptRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0, // SSE streams stay open indefinitely
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
