package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/koor-works/koor-backend/internal/auth"
	"github.com/koor-works/koor-backend/internal/cron"
	"github.com/koor-works/koor-backend/internal/filters"
	"github.com/koor-works/koor-backend/internal/jobs"
	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/internal/saved"
	"github.com/koor-works/koor-backend/internal/tenders"
	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/db"
	"github.com/koor-works/koor-backend/pkg/email"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/metrics"
	"github.com/koor-works/koor-backend/pkg/migrate"
	"github.com/koor-works/koor-backend/pkg/redis"
)

const lockKeyFormat = "koor:worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	jobRepo := jobs.NewRepository(conn)
	tenderRepo := tenders.NewRepository(conn)
	filterRepo := filters.NewRepository(conn)
	savedRepo := saved.NewRepository(conn)
	sessionRepo := auth.NewSessionRepository(conn)
	notificationRepo := notifications.NewRepository(conn)

	notifier, err := notifications.NewService(notifications.ServiceParams{
		Repo:     notificationRepo,
		UserRepo: userRepo,
		Email:    email.NewSender(cfg.SMTP, notificationRepo, logg),
		Logger:   logg,
	})
	if err != nil {
		fatal(logg, "notifications service", err)
	}

	filterMatch, err := cron.NewFilterMatchJob(cron.FilterMatchJobParams{
		Logger:   logg,
		Filters:  filterRepo,
		Jobs:     jobRepo,
		Tenders:  tenderRepo,
		Dedupe:   notificationRepo,
		Notifier: notifier,
	})
	if err != nil {
		fatal(logg, "filter-match job", err)
	}

	tenderReminder, err := cron.NewSavedTenderReminderJob(cron.SavedTenderReminderJobParams{
		Logger:   logg,
		Tenders:  tenderRepo,
		Saved:    savedRepo,
		Notifier: notifier,
	})
	if err != nil {
		fatal(logg, "saved-tender-reminder job", err)
	}

	sessionCleanup, err := cron.NewSessionCleanupJob(cron.SessionCleanupJobParams{
		Logger:   logg,
		Sessions: sessionRepo,
	})
	if err != nil {
		fatal(logg, "session-cleanup job", err)
	}

	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		Repository: notificationRepo,
	})
	if err != nil {
		fatal(logg, "notification-cleanup job", err)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		fatal(logg, "worker lock", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(filterMatch, tenderReminder, sessionCleanup, notificationCleanup),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		fatal(logg, "worker service", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}

func fatal(logg *logger.Logger, what string, err error) {
	logg.Error(context.Background(), "failed to build "+what, err)
	os.Exit(1)
}
