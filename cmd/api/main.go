package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitpulse/insights/internal/api"
	"github.com/fitpulse/insights/internal/events"
	"github.com/fitpulse/insights/internal/middleware"
	"github.com/fitpulse/insights/internal/repository"
	"github.com/fitpulse/insights/internal/service"
	"github.com/fitpulse/insights/internal/storage"
	"github.com/fitpulse/insights/pkg/config"
	"github.com/fitpulse/insights/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	appLogger := logger.New(logger.ParseLevel(cfg.LogLevel), os.Stdout, cfg.LogJSON)
	logger.SetDefault(appLogger)

	logger.Info("Starting application", map[string]interface{}{
		"app":   cfg.AppName,
		"debug": cfg.Debug,
		"port":  cfg.Port,
	})

	// Initialize database
	if err := repository.InitDB(cfg); err != nil {
		logger.Fatal("Failed to initialize database", err, nil)
	}
	db := repository.GetDB()

	// Event bus with optional InfluxDB sink beside the Postgres log
	bus := events.NewBus()
	if cfg.InfluxDBURL != "" && cfg.InfluxDBToken != "" {
		influxClient, err := storage.NewInfluxDBClient(storage.InfluxDBConfig{
			URL:    cfg.InfluxDBURL,
			Token:  cfg.InfluxDBToken,
			Org:    cfg.InfluxDBOrg,
			Bucket: cfg.InfluxDBBucket,
		})
		if err != nil {
			logger.Warn("Failed to initialize InfluxDB, events stay in PostgreSQL only", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer influxClient.Close()
			bus.AddSink(influxClient)
			logger.Info("Event log mirrored to InfluxDB", map[string]interface{}{
				"org":    cfg.InfluxDBOrg,
				"bucket": cfg.InfluxDBBucket,
			})
		}
	}

	// Repositories
	eventRepo := repository.NewEventRepository(db)
	atRiskRepo := repository.NewAtRiskRepository(db)
	leakageRepo := repository.NewLeakageRepository(db)
	performanceRepo := repository.NewPerformanceRepository(db)
	studioRepo := repository.NewStudioRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Notifications: Resend in production, mock without credentials
	var sender service.EmailSender
	if cfg.ResendAPIKey != "" {
		sender = service.NewResendEmailSender(cfg.ResendAPIKey, cfg.FromEmail)
		logger.Info("Notification sender: Resend", nil)
	} else {
		sender = service.NewMockEmailSender()
		logger.Info("Notification sender: mock (no RESEND_API_KEY)", nil)
	}
	notifier := service.NewNotificationService(sender, cfg.AdminEmail)

	// Services
	eventService := service.NewEventService(eventRepo, bus)
	atRiskService := service.NewAtRiskService(atRiskRepo, eventRepo, studioRepo, eventService, notifier, cfg)
	leakageService := service.NewLeakageService(leakageRepo, studioRepo, eventService, notifier)
	performanceService := service.NewPerformanceService(performanceRepo, studioRepo, feedbackRepo)
	feedbackService := service.NewFeedbackService(feedbackRepo)
	authService := service.NewAuthService(userRepo, cfg)

	middleware.SetAuthService(authService)

	// Wire the dispatcher routing table
	dispatcher := service.NewDispatcher(atRiskService, notifier)
	dispatcher.Register(bus)

	// Live event feed
	eventStream := api.NewEventStream()
	eventStream.Attach(bus)
	go eventStream.Run()

	// Optional periodic detection
	var worker *service.DetectionWorker
	if cfg.DetectionWorkerEnabled {
		worker = service.NewDetectionWorker(atRiskService, leakageService, cfg.DetectionInterval, cfg.LeakagePeriodDays)
		worker.Start()
	}

	// HTTP server
	authHandler := api.NewAuthHandler(authService)
	eventHandler := api.NewEventHandler(eventService)
	insightHandler := api.NewInsightHandler(atRiskService, leakageService, performanceService, feedbackService, cfg.LeakagePeriodDays)

	router := api.SetupRouter(authHandler, eventHandler, insightHandler, eventStream, cfg)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", err, nil)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down", nil)

	if worker != nil {
		worker.Stop()
	}
	eventStream.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", err, nil)
	}

	logger.Info("Shutdown complete", nil)
}
