package handlers

import (
	"net/http"
	"time"

	"reminderd/internal/database"
	"reminderd/internal/events"
	"reminderd/internal/reminder"
	"reminderd/internal/scheduler"
	"reminderd/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	engine  scheduler.Scheduler
	service reminder.ReminderService
	monitor *events.EventFlowMonitor
	logger  *logger.Logger
}

// NewHealthHandler creates a HealthHandler. monitor may be nil.
func NewHealthHandler(db *gorm.DB, engine scheduler.Scheduler, service reminder.ReminderService,
	monitor *events.EventFlowMonitor, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		engine:  engine,
		service: service,
		monitor: monitor,
		logger:  logger,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	status := "ok"
	statusCode := http.StatusOK

	dbStatus := "ok"
	if err := database.HealthCheck(h.db); err != nil {
		h.logger.Errorw("Database health check failed", "error", err)
		dbStatus = "error"
		status = "error"
		statusCode = http.StatusServiceUnavailable
	}

	checks := gin.H{"database": dbStatus}

	if h.engine != nil {
		engineHealth := h.engine.GetHealthStatus()
		checks["scheduler"] = engineHealth
		if !engineHealth.IsHealthy && status == "ok" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	if h.service != nil {
		ready := h.service.Ready()
		checks["reminders_ready"] = ready
		if !ready && status == "ok" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}
	}

	if h.monitor != nil {
		checks["events"] = h.monitor.GetHealthStatus()
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "reminderd",
		"checks":    checks,
	})
}
