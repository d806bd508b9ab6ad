package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/koor-works/koor-backend/api/routes"
	"github.com/koor-works/koor-backend/internal/applications"
	"github.com/koor-works/koor-backend/internal/auth"
	"github.com/koor-works/koor-backend/internal/chat"
	"github.com/koor-works/koor-backend/internal/filters"
	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/media"
	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/internal/recommend"
	"github.com/koor-works/koor-backend/internal/saved"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/db"
	"github.com/koor-works/koor-backend/pkg/email"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/migrate"
	"github.com/koor-works/koor-backend/pkg/redis"
	"github.com/koor-works/koor-backend/pkg/ws"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	jobRepo := jobs.NewRepository(conn)
	tenderRepo := tenders.NewRepository(conn)
	notificationRepo := notifications.NewRepository(conn)

	emailSender := email.NewSender(cfg.SMTP, notificationRepo, logg)

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo:     notificationRepo,
		UserRepo: userRepo,
		Email:    emailSender,
		Logger:   logg,
	})
	if err != nil {
		fatal(logg, "notifications service", err)
	}

	userService, err := users.NewService(users.ServiceParams{Repo: userRepo, Logger: logg})
	if err != nil {
		fatal(logg, "users service", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:    userRepo,
		SessionRepo: auth.NewSessionRepository(conn),
		JWT:         cfg.JWT,
		Password:    cfg.Password,
		OTP:         cfg.OTP,
		RateLimit:   cfg.AuthRateLimit,
		Limiter:     redisClient,
		Email:       emailSender,
		Logger:      logg,
	})
	if err != nil {
		fatal(logg, "auth service", err)
	}

	jobService, err := jobs.NewService(jobs.ServiceParams{Repo: jobRepo, UserRepo: userRepo, Logger: logg})
	if err != nil {
		fatal(logg, "jobs service", err)
	}

	tenderService, err := tenders.NewService(tenders.ServiceParams{Repo: tenderRepo, UserRepo: userRepo, Logger: logg})
	if err != nil {
		fatal(logg, "tenders service", err)
	}

	applicationService, err := applications.NewService(applications.ServiceParams{
		Repo:       applications.NewRepository(conn),
		JobRepo:    jobRepo,
		TenderRepo: tenderRepo,
		Users:      userService,
		Notifier:   notificationService,
		Logger:     logg,
	})
	if err != nil {
		fatal(logg, "applications service", err)
	}

	savedService, err := saved.NewService(saved.ServiceParams{
		Repo:       saved.NewRepository(conn),
		JobRepo:    jobRepo,
		TenderRepo: tenderRepo,
		Logger:     logg,
	})
	if err != nil {
		fatal(logg, "saved service", err)
	}

	filterService, err := filters.NewService(filters.ServiceParams{
		Repo:   filters.NewRepository(conn),
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "filters service", err)
	}

	recommendService, err := recommend.NewService(recommend.ServiceParams{
		JobRepo:    jobRepo,
		TenderRepo: tenderRepo,
		Logger:     logg,
	})
	if err != nil {
		fatal(logg, "recommend service", err)
	}

	hub := ws.NewHub(logg)
	go hub.Run(rootCtx)

	chatService, err := chat.NewService(chat.ServiceParams{
		Repo:     chat.NewRepository(conn),
		UserRepo: userRepo,
		Users:    userService,
		Notifier: notificationService,
		Hub:      hub,
		Config:   cfg.Chat,
		Logger:   logg,
	})
	if err != nil {
		fatal(logg, "chat service", err)
	}

	mediaService, err := media.NewService(media.ServiceParams{
		Repo:   media.NewRepository(conn),
		Config: cfg.Media,
		Logger: logg,
	})
	if err != nil {
		fatal(logg, "media service", err)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:        cfg,
		Logger:        logg,
		Database:      dbClient,
		Cache:         redisClient,
		Auth:          authService,
		Users:         userService,
		Jobs:          jobService,
		Tenders:       tenderService,
		Applications:  applicationService,
		Saved:         savedService,
		Filters:       filterService,
		Recommend:     recommendService,
		Chat:          chatService,
		Notifications: notificationService,
		Media:         mediaService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(rootCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-rootCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
	logg.Info(ctx, "api server stopped")
}

func fatal(logg *logger.Logger, what string, err error) {
	logg.Error(context.Background(), "failed to build "+what, err)
	os.Exit(1)
}
