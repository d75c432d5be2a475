package main

import (
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reminderd/api/routes"
	"reminderd/internal/common"
	"reminderd/internal/config"
	"reminderd/internal/database"
	"reminderd/internal/events"
	"reminderd/internal/notify"
	"reminderd/internal/reminder"
	"reminderd/internal/scheduler"
	"reminderd/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.Server.Environment)
	defer func() { _ = logger.Sync() }()

	// Get the underlying zap logger for services
	zapLogger := logger.Zap()

	// Initialize database
	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatalw("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Errorw("Failed to close database", "error", err)
		}
	}()

	if err := reminder.MigrateWithValidation(db); err != nil {
		logger.Fatalw("Failed to run reminder migrations", "error", err)
	}

	// Initialize event bus and notification sinks
	eventBus := events.NewEventBus(zapLogger, time.Duration(cfg.Events.ShutdownTimeout)*time.Second)

	if err := notify.NewLogSink(zapLogger).Register(eventBus); err != nil {
		logger.Fatalw("Failed to register log sink", "error", err)
	}
	if cfg.Telegram.Enabled {
		telegramSink, err := notify.NewTelegramSink(cfg.Telegram, zapLogger)
		if err != nil {
			logger.Fatalw("Failed to initialize Telegram sink", "error", err)
		}
		if err := telegramSink.Register(eventBus); err != nil {
			logger.Fatalw("Failed to register Telegram sink", "error", err)
		}
		logger.Infow("Telegram delivery enabled", "chat_id", cfg.Telegram.ChatID)
	}

	monitor := events.NewEventFlowMonitor(eventBus, time.Minute, zapLogger)
	if err := monitor.Start(); err != nil {
		logger.Warnw("Event flow monitor failed to start", "error", err)
	}

	// Initialize scheduler engine and reminder service
	engine, err := scheduler.NewEngine(cfg.Scheduler, common.NewRealClock(), prometheus.DefaultRegisterer, zapLogger)
	if err != nil {
		logger.Fatalw("Failed to create scheduler", "error", err)
	}

	repository := reminder.NewGormRepository(db, common.NewRealClock(), zapLogger)
	reminderService := reminder.NewService(
		repository,
		engine,
		notify.NewEventNotifier(eventBus, zapLogger),
		eventBus,
		reminder.NewServiceConfig(cfg.Reminder, cfg.Scheduler),
		zapLogger,
	)

	var janitor *reminder.Janitor
	if cfg.Scheduler.Enabled {
		if err := reminderService.Start(context.Background()); err != nil {
			logger.Fatalw("Failed to start reminder service", "error", err)
		}

		janitor, err = reminder.NewJanitor(reminderService, cfg.Reminder.CleanupSchedule, cfg.Reminder.RetentionDays, zapLogger)
		if err != nil {
			logger.Fatalw("Invalid cleanup schedule", "schedule", cfg.Reminder.CleanupSchedule, "error", err)
		}
		if err := janitor.Start(); err != nil {
			logger.Fatalw("Failed to start reminder janitor", "error", err)
		}

		logger.Infow("Reminder scheduler started",
			"pending_triggers", engine.Len(),
			"cleanup_schedule", cfg.Reminder.CleanupSchedule,
			"retention_days", cfg.Reminder.RetentionDays)
	} else {
		logger.Infow("Reminder scheduler disabled, reminders are read-only")
	}

	// Setup Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupRoutes(router, routes.Dependencies{
		DB:            db,
		Service:       reminderService,
		Engine:        engine,
		Monitor:       monitor,
		Logger:        logger,
		RetentionDays: cfg.Reminder.RetentionDays,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infow("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infow("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorw("Server forced to shutdown", "error", err)
	}

	// Stop firing before the store and bus go away
	if janitor != nil {
		janitor.Stop()
	}
	if err := reminderService.Shutdown(); err != nil {
		logger.Errorw("Failed to stop reminder service gracefully", "error", err)
	} else {
		logger.Infow("Reminder service stopped")
	}

	if err := monitor.Stop(); err != nil {
		logger.Warnw("Failed to stop event flow monitor", "error", err)
	}
	if err := eventBus.Close(); err != nil {
		logger.Errorw("Failed to close event bus", "error", err)
	}

	logger.Infow("Server exited")
}
