package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"reminderd/internal/common"
	"reminderd/internal/reminder"
	"reminderd/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ReminderHandler exposes the reminder service over HTTP
type ReminderHandler struct {
	service       reminder.ReminderService
	retentionDays int
	logger        *logger.Logger
}

// createRequest accepts both the simple and the advanced form of a new reminder
type createRequest struct {
	Text       string `json:"text"`
	Minutes    int    `json:"minutes"`
	Hours      int    `json:"hours"`
	Days       int    `json:"days"`
	Expression string `json:"expression"`
	Recurrence string `json:"recurrence"`
}

func (r createRequest) isSimple() bool {
	return r.Days == 0 && r.Expression == "" && r.Recurrence == ""
}

type cancelByTextRequest struct {
	Text string `json:"text"`
}

type snoozeRequest struct {
	Minutes int `json:"minutes"`
}

type cleanupRequest struct {
	RetentionDays *int `json:"retention_days"`
}

// reminderResponse is the Outcome plus the error code when the operation failed
type reminderResponse struct {
	reminder.Outcome
	ErrorCode string `json:"error_code,omitempty"`
}

// NewReminderHandler creates a new ReminderHandler. retentionDays is used by
// cleanup requests that do not name a retention window.
func NewReminderHandler(service reminder.ReminderService, retentionDays int, logger *logger.Logger) *ReminderHandler {
	return &ReminderHandler{
		service:       service,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Create handles POST /reminders
func (h *ReminderHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	var (
		outcome reminder.Outcome
		err     error
	)
	if req.isSimple() {
		outcome, err = h.service.Set(c.Request.Context(), reminder.SetRequest{
			Text:    req.Text,
			Minutes: req.Minutes,
			Hours:   req.Hours,
		})
	} else {
		outcome, err = h.service.SetAdvanced(c.Request.Context(), reminder.AdvancedRequest{
			Text:       req.Text,
			Expression: req.Expression,
			Minutes:    req.Minutes,
			Hours:      req.Hours,
			Days:       req.Days,
			Recurrence: req.Recurrence,
		})
	}
	if err != nil {
		h.respondError(c, "create", outcome, err)
		return
	}

	c.JSON(http.StatusCreated, reminderResponse{Outcome: outcome})
}

// List handles GET /reminders
func (h *ReminderHandler) List(c *gin.Context) {
	outcome, err := h.service.List(c.Request.Context())
	h.respond(c, "list", outcome, err)
}

// Get handles GET /reminders/:id
func (h *ReminderHandler) Get(c *gin.Context) {
	id, ok := h.reminderID(c)
	if !ok {
		return
	}
	outcome, err := h.service.Get(c.Request.Context(), id)
	h.respond(c, "get", outcome, err)
}

// Cancel handles DELETE /reminders/:id
func (h *ReminderHandler) Cancel(c *gin.Context) {
	id, ok := h.reminderID(c)
	if !ok {
		return
	}
	outcome, err := h.service.Cancel(c.Request.Context(), id)
	h.respond(c, "cancel", outcome, err)
}

// CancelByText handles POST /reminders/cancel
func (h *ReminderHandler) CancelByText(c *gin.Context) {
	var req cancelByTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body", err)
		return
	}
	outcome, err := h.service.CancelByText(c.Request.Context(), req.Text)
	h.respond(c, "cancel_by_text", outcome, err)
}

// Snooze handles POST /reminders/:id/snooze. An empty body snoozes for the default length.
func (h *ReminderHandler) Snooze(c *gin.Context) {
	id, ok := h.reminderID(c)
	if !ok {
		return
	}

	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	outcome, err := h.service.Snooze(c.Request.Context(), id, req.Minutes)
	h.respond(c, "snooze", outcome, err)
}

// Cleanup handles POST /reminders/cleanup
func (h *ReminderHandler) Cleanup(c *gin.Context) {
	var req cleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, "Invalid request body", err)
		return
	}

	days := h.retentionDays
	if req.RetentionDays != nil {
		days = *req.RetentionDays
	}

	outcome, err := h.service.Cleanup(c.Request.Context(), days)
	h.respond(c, "cleanup", outcome, err)
}

func (h *ReminderHandler) reminderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(c, "Invalid reminder id", err)
		return 0, false
	}
	c.Set("logger", requestLogger(c, h.logger).WithReminderID(id))
	return id, true
}

func (h *ReminderHandler) respond(c *gin.Context, operation string, outcome reminder.Outcome, err error) {
	if err != nil {
		h.respondError(c, operation, outcome, err)
		return
	}
	c.JSON(http.StatusOK, reminderResponse{Outcome: outcome})
}

func (h *ReminderHandler) respondError(c *gin.Context, operation string, outcome reminder.Outcome, err error) {
	status := StatusForError(err)
	log := requestLogger(c, h.logger)
	if status >= http.StatusInternalServerError {
		log.Errorw("Reminder operation failed", "operation", operation, "error", err)
	} else {
		log.Infow("Reminder operation rejected", "operation", operation, "error", err)
	}

	if outcome.Message == "" {
		outcome.Message = reminder.UserMessage(err)
	}
	outcome.Success = false
	c.JSON(status, reminderResponse{Outcome: outcome, ErrorCode: common.ErrorCode(err)})
}

func (h *ReminderHandler) badRequest(c *gin.Context, message string, err error) {
	requestLogger(c, h.logger).Infow("Bad reminder request", "reason", message, "error", err)
	c.JSON(http.StatusBadRequest, reminderResponse{
		Outcome:   reminder.Outcome{Message: message},
		ErrorCode: reminder.ErrCodeValidationFailed,
	})
}

// StatusForError maps a reminder error code to its HTTP status
func StatusForError(err error) int {
	switch common.ErrorCode(err) {
	case reminder.ErrCodeValidationFailed, reminder.ErrCodeParseFailed:
		return http.StatusBadRequest
	case reminder.ErrCodeNotFound:
		return http.StatusNotFound
	case reminder.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger returns the request-scoped logger set by the logging middleware
func requestLogger(c *gin.Context, fallback *logger.Logger) *logger.Logger {
	if l, ok := c.Get("logger"); ok {
		if reqLogger, ok := l.(*logger.Logger); ok {
			return reqLogger
		}
	}
	return fallback
}
