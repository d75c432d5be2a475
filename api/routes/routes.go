package routes

import (
	"reminderd/api/handlers"
	"reminderd/api/middleware"
	"reminderd/internal/events"
	"reminderd/internal/reminder"
	"reminderd/internal/scheduler"
	"reminderd/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies are the components the HTTP surface is built on
type Dependencies struct {
	DB       *gorm.DB
	Service  reminder.ReminderService
	Engine   scheduler.Scheduler
	Monitor  *events.EventFlowMonitor
	Gatherer prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Logger   *logger.Logger
	// RetentionDays is used by cleanup requests that do not name one
	RetentionDays int
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Add middleware
	router.Use(middleware.RequestLogging(deps.Logger))
	router.Use(gin.Recovery())

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Engine, deps.Service, deps.Monitor, deps.Logger)
	reminderHandler := handlers.NewReminderHandler(deps.Service, deps.RetentionDays, deps.Logger)

	// Setup routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Check)

		reminders := v1.Group("/reminders")
		reminders.GET("", reminderHandler.List)
		reminders.POST("", reminderHandler.Create)
		reminders.POST("/cancel", reminderHandler.CancelByText)
		reminders.POST("/cleanup", reminderHandler.Cleanup)
		reminders.GET("/:id", reminderHandler.Get)
		reminders.DELETE("/:id", reminderHandler.Cancel)
		reminders.POST("/:id/snooze", reminderHandler.Snooze)
	}

	// Root health check and metrics
	router.GET("/health", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
