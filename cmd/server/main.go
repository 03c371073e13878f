package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rfbooking/rfbooking/config"
	"github.com/rfbooking/rfbooking/internal/ai"
	"github.com/rfbooking/rfbooking/internal/cron"
	"github.com/rfbooking/rfbooking/internal/domain"
	"github.com/rfbooking/rfbooking/internal/email"
	"github.com/rfbooking/rfbooking/internal/health"
	"github.com/rfbooking/rfbooking/internal/infrastructure/postgres"
	ctxlog "github.com/rfbooking/rfbooking/internal/log"
	"github.com/rfbooking/rfbooking/internal/metrics"
	httptransport "github.com/rfbooking/rfbooking/internal/transport/http"
	"github.com/rfbooking/rfbooking/internal/transport/http/handler"
	"github.com/rfbooking/rfbooking/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Bootstrap(ctx, pool); err != nil {
		log.Fatalf("db bootstrap: %v", err)
	}

	userRepo := postgres.NewUserRepository(pool)
	authRepo := postgres.NewAuthRepository(pool)
	typeRepo := postgres.NewEquipmentTypeRepository(pool)
	equipmentRepo := postgres.NewEquipmentRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	cronRepo := postgres.NewCronJobRepository(pool)
	aiRepo := postgres.NewAIRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)

	emailSender := email.NewSender(cfg.Email, logger)
	ollama := ai.NewClient(cfg.AI.OllamaHost, cfg.AI.Model, cfg.AI.MaxTokens, cfg.AI.Temperature)

	authUsecase := usecase.NewAuthUsecase(userRepo, authRepo, typeRepo, emailSender, usecase.AuthConfig{
		BaseURL:          cfg.App.BaseURL,
		AdminEmail:       cfg.App.AdminEmail,
		MagicLinkTTL:     time.Duration(cfg.Security.MagicLinkMinutes) * time.Minute,
		AuthTokenTTL:     time.Duration(cfg.Security.AuthTokenDays) * 24 * time.Hour,
		MaxTokensPerUser: cfg.Security.MaxTokensPerUser,
	}, logger)

	notificationUsecase := usecase.NewNotificationUsecase(notificationRepo, userRepo, bookingRepo, equipmentRepo, emailSender, usecase.NotificationConfig{
		EmailEnabled:            cfg.Email.Enabled,
		WorkingHoursStart:       cfg.Notification.WorkingHoursStart,
		WorkingHoursEnd:         cfg.Notification.WorkingHoursEnd,
		EnforceWorkingHours:     cfg.Notification.EnforceWorkingHours,
		ReminderHours:           cfg.Booking.ReminderHours,
		CalibrationReminderDays: cfg.Booking.CalibrationReminderDays,
		ShortNoticeDays:         cfg.Booking.ShortNoticeDays,
	}, logger)

	bookingUsecase := usecase.NewBookingUsecase(bookingRepo, equipmentRepo, typeRepo, notificationUsecase, usecase.BookingConfig{
		MaxDurationDays:      cfg.Booking.MaxDurationDays,
		MaxDescriptionLength: cfg.Booking.MaxDescriptionLength,
		MaxPerUserPerDay:     cfg.RateLimit.MaxBookingsPerUserPerDay,
	}, logger)

	equipmentUsecase := usecase.NewEquipmentUsecase(equipmentRepo, typeRepo, userRepo, logger)
	reportUsecase := usecase.NewReportUsecase(reportRepo)

	aiUsecase := usecase.NewAIUsecase(aiRepo, equipmentRepo, typeRepo, bookingRepo, ollama, usecase.AIConfig{
		Enabled:            cfg.AI.Enabled,
		MaxRequestsPer5Min: cfg.RateLimit.MaxAIRequestsPer5Min,
	}, logger)

	runner := cron.NewRunner(cronRepo, logger)
	registerJobs(runner, cfg, notificationUsecase, authRepo, notificationRepo, aiRepo, logger)

	adminUsecase := usecase.NewAdminUsecase(userRepo, authRepo, cronRepo, runner, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	handlers := httptransport.Handlers{
		Auth: handler.NewAuthHandler(authUsecase,
			time.Duration(cfg.Security.AuthTokenDays)*24*time.Hour, cfg.Env != "local", logger),
		Booking:       handler.NewBookingHandler(bookingUsecase, logger),
		Equipment:     handler.NewEquipmentHandler(equipmentUsecase, logger),
		EquipmentType: handler.NewEquipmentTypeHandler(equipmentUsecase, logger),
		Admin:         handler.NewAdminHandler(adminUsecase, logger),
		AI:            handler.NewAIHandler(aiUsecase, logger),
		Report:        handler.NewReportHandler(reportUsecase, logger),
	}

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, handlers, authUsecase),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	go func() {
		if err := runner.Start(ctx); err != nil {
			logger.Error("cron runner", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func registerJobs(
	runner *cron.Runner,
	cfg *config.Config,
	notifications *usecase.NotificationUsecase,
	authRepo *postgres.AuthRepository,
	notificationRepo *postgres.NotificationRepository,
	aiRepo *postgres.AIRepository,
	logger *slog.Logger,
) {
	runner.Register(domain.JobDailyNotifications, func(ctx context.Context) error {
		if err := notifications.QueueReminders(ctx); err != nil {
			return err
		}

		start := time.Now()
		stats, err := notifications.Sweep(ctx)
		metrics.NotificationSweepDuration.Observe(time.Since(start).Seconds())
		metrics.NotificationsProcessedTotal.WithLabelValues("sent").Add(float64(stats.Sent))
		metrics.NotificationsProcessedTotal.WithLabelValues("failed").Add(float64(stats.Failed))
		metrics.NotificationsProcessedTotal.WithLabelValues("skipped").Add(float64(stats.Skipped))
		metrics.NotificationsProcessedTotal.WithLabelValues("deferred").Add(float64(stats.Deferred))
		return err
	})

	runner.Register(domain.JobDailyCleanup, func(ctx context.Context) error {
		now := time.Now().UTC()

		tokens, err := authRepo.DeleteExpiredTokens(ctx, now.AddDate(0, 0, -cfg.Cleanup.AuthTokenRetentionDays))
		if err != nil {
			return err
		}
		links, err := authRepo.DeleteExpiredMagicLinks(ctx, now.AddDate(0, 0, -cfg.Cleanup.MagicLinkRetentionDays))
		if err != nil {
			return err
		}
		queries, err := aiRepo.DeleteOldQueryLogs(ctx, now.AddDate(0, 0, -cfg.Cleanup.AIQueryLogRetentionDays))
		if err != nil {
			return err
		}
		logs, err := notificationRepo.DeleteTerminal(ctx, now.AddDate(0, 0, -cfg.Cleanup.NotificationLogRetentionDays))
		if err != nil {
			return err
		}

		logger.Info("cleanup finished",
			"auth_tokens", tokens, "magic_links", links, "ai_queries", queries, "notifications", logs)
		return nil
	})

	runner.Register(domain.JobWeeklyManagerReports, func(ctx context.Context) error {
		return notifications.SendWeeklyManagerReports(ctx)
	})
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
