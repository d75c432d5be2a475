package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"reminderd/internal/common"
	"reminderd/internal/config"
	"reminderd/internal/events"
	"reminderd/internal/scheduler"
	"reminderd/internal/timeexpr"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ReminderService defines the interface for reminder operations
type ReminderService interface {
	Set(ctx context.Context, req SetRequest) (Outcome, error)
	SetAdvanced(ctx context.Context, req AdvancedRequest) (Outcome, error)
	Get(ctx context.Context, id int64) (Outcome, error)
	List(ctx context.Context) (Outcome, error)
	Cancel(ctx context.Context, id int64) (Outcome, error)
	CancelByText(ctx context.Context, substring string) (Outcome, error)
	Snooze(ctx context.Context, id int64, minutes int) (Outcome, error)
	Cleanup(ctx context.Context, retentionDays int) (Outcome, error)
	Ready() bool
}

// Outcome is the result of every façade operation. Message is always set and
// safe to show to the user; on failure the accompanying error carries the code.
type Outcome struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	ReminderID int64       `json:"reminder_id,omitempty"`
	Count      int64       `json:"count"`
	Reminder   *Reminder   `json:"reminder,omitempty"`
	Reminders  []*Reminder `json:"reminders,omitempty"`
}

// ServiceConfig holds the tunables of the façade
type ServiceConfig struct {
	DefaultSnoozeMinutes int
	RetentionDays        int
	RejectPastTimes      bool
	// FireRetryDelay is how long a fire whose store write kept failing waits before it is retried
	FireRetryDelay time.Duration
}

// NewServiceConfig builds a ServiceConfig from the loaded configuration
func NewServiceConfig(rc config.ReminderConfig, sc config.SchedulerConfig) ServiceConfig {
	return ServiceConfig{
		DefaultSnoozeMinutes: rc.DefaultSnoozeMinutes,
		RetentionDays:        rc.RetentionDays,
		RejectPastTimes:      rc.RejectPastTimes,
		FireRetryDelay:       sc.FireRetryDelayDuration(),
	}
}

const (
	stateNew int32 = iota
	stateRestoring
	stateRunning
	stateStopped
)

// Service coordinates the store and the scheduler engine. Every mutation and
// the store write of every fire run under mu, so a cancel and a fire of the
// same reminder are serialized and exactly one of them wins.
type Service struct {
	repo        Repository
	engine      scheduler.Scheduler
	notifier    Notifier
	bus         events.EventBus
	parser      *timeexpr.Parser
	validator   *RequestValidator
	clock       common.Clock
	config      ServiceConfig
	fireBackOff func() backoff.BackOff
	logger      *zap.Logger

	mu    sync.Mutex
	state atomic.Int32
}

// Option customizes a Service
type Option func(*Service)

// WithClock sets the clock used for due times and fire bookkeeping
func WithClock(clock common.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithParser replaces the default time expression parser
func WithParser(parser *timeexpr.Parser) Option {
	return func(s *Service) { s.parser = parser }
}

// WithFireBackOff sets the retry policy for store writes made by a fire
func WithFireBackOff(factory func() backoff.BackOff) Option {
	return func(s *Service) { s.fireBackOff = factory }
}

// NewService creates a service; call Start to restore pending reminders and
// begin firing. bus may be nil when nobody consumes lifecycle events.
func NewService(repo Repository, engine scheduler.Scheduler, notifier Notifier, bus events.EventBus,
	cfg ServiceConfig, logger *zap.Logger, opts ...Option) *Service {
	if cfg.DefaultSnoozeMinutes <= 0 {
		cfg.DefaultSnoozeMinutes = DefaultSnoozeMinutes
	}
	if cfg.RetentionDays < 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	if cfg.FireRetryDelay <= 0 {
		cfg.FireRetryDelay = 30 * time.Second
	}

	s := &Service{
		repo:      repo,
		engine:    engine,
		notifier:  notifier,
		bus:       bus,
		parser:    timeexpr.NewParser(),
		validator: NewRequestValidator(),
		clock:     common.NewRealClock(),
		config:    cfg,
		fireBackOff: func() backoff.BackOff {
			strategy := backoff.NewExponentialBackOff()
			strategy.InitialInterval = 100 * time.Millisecond
			strategy.MaxInterval = time.Second
			strategy.MaxElapsedTime = 5 * time.Second
			return strategy
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start re-registers every scheduled reminder with the engine, then starts
// the engine. Reminders that became due while the process was down fire
// right after Start returns.
func (s *Service) Start(ctx context.Context) error {
	if !s.state.CompareAndSwap(stateNew, stateRestoring) {
		return UnavailableError{Reason: "service already started"}
	}

	restored, err := s.restore(ctx)
	if err != nil {
		s.state.Store(stateNew)
		return err
	}

	if err := s.engine.Start(ctx); err != nil {
		s.state.Store(stateNew)
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	s.state.Store(stateRunning)
	s.logger.Info("Reminder service started", zap.Int("restored_reminders", restored))
	return nil
}

func (s *Service) restore(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.repo.ListByStatus(ctx, StatusScheduled)
	if err != nil {
		return 0, WrapPersistenceError(err, "restore")
	}

	now := s.clock.Now()
	for _, r := range pending {
		gen, err := s.engine.Schedule(r.ID, r.ScheduledTime, r.RecurrenceInterval, s.onFire)
		if err != nil {
			return 0, fmt.Errorf("failed to restore reminder %d: %w", r.ID, err)
		}
		s.logger.Debug("Reminder restored",
			zap.Int64("reminder_id", r.ID),
			zap.Time("due_time", r.ScheduledTime),
			zap.Bool("overdue", r.IsOverdue(now)),
			zap.Uint64("generation", gen))
	}
	return len(pending), nil
}

// Shutdown stops the engine. Nothing durable changes; scheduled reminders are
// restored by the next Start.
func (s *Service) Shutdown() error {
	if s.state.Swap(stateStopped) == stateStopped {
		return nil
	}

	if err := s.engine.Shutdown(); err != nil && !scheduler.IsNotRunningError(err) {
		return err
	}

	s.logger.Info("Reminder service stopped")
	return nil
}

// Ready reports whether mutating operations are accepted
func (s *Service) Ready() bool {
	return s.state.Load() == stateRunning
}

func (s *Service) requireRunning() error {
	switch s.state.Load() {
	case stateRunning:
		return nil
	case stateStopped:
		return UnavailableError{Reason: "shutting down"}
	default:
		return UnavailableError{Reason: "still starting"}
	}
}

// Set creates a reminder due after the requested minutes or hours
func (s *Service) Set(ctx context.Context, req SetRequest) (Outcome, error) {
	if err := s.requireRunning(); err != nil {
		return s.failure(err)
	}

	delay, err := s.validator.ValidateSet(req)
	if err != nil {
		return s.failure(err)
	}

	now := s.clock.Now()
	return s.create(ctx, req.Text, now, now.Add(delay), "", 0)
}

// SetAdvanced creates a reminder from a time expression or a minutes, hours or
// days amount, optionally repeating at the interval named by req.Recurrence
func (s *Service) SetAdvanced(ctx context.Context, req AdvancedRequest) (Outcome, error) {
	if err := s.requireRunning(); err != nil {
		return s.failure(err)
	}

	if err := s.validator.ValidateAdvanced(req); err != nil {
		return s.failure(err)
	}

	now := s.clock.Now()
	var due time.Time
	if expr := strings.TrimSpace(req.Expression); expr != "" {
		result, err := s.parser.Parse(expr, now)
		if err != nil {
			return s.failure(NewParseError("expression", req.Expression, err))
		}
		due = result.Resolve(now)
		if due.Before(now) && s.config.RejectPastTimes {
			return s.failure(NewValidationError("expression", req.Expression, "That time has already passed today"))
		}
	} else {
		due = now.Add(durationOf(req.Days, req.Hours, req.Minutes))
	}

	var interval time.Duration
	recurrence := strings.TrimSpace(req.Recurrence)
	if recurrence != "" {
		var err error
		interval, err = timeexpr.ParseRecurrence(recurrence)
		if err != nil {
			return s.failure(NewParseError("recurrence", req.Recurrence, err))
		}
	}

	return s.create(ctx, req.Text, now, due, recurrence, interval)
}

func (s *Service) create(ctx context.Context, text string, now, due time.Time, recurrence string, interval time.Duration) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := &Reminder{
		Text:               text,
		ScheduledTime:      due,
		Recurrence:         recurrence,
		RecurrenceInterval: interval,
	}
	if err := s.repo.Insert(ctx, r); err != nil {
		return s.failure(WrapPersistenceError(err, "insert"))
	}

	gen, err := s.engine.Schedule(r.ID, r.ScheduledTime, interval, s.onFire)
	if err != nil {
		// The record must not stay scheduled without a trigger
		if delErr := s.repo.Delete(ctx, r.ID); delErr != nil {
			s.logger.Error("Failed to remove unscheduled reminder",
				zap.Int64("reminder_id", r.ID),
				zap.Error(delErr))
		}
		s.logger.Error("Failed to schedule reminder", zap.Int64("reminder_id", r.ID), zap.Error(err))
		return s.failure(UnavailableError{Reason: "scheduler is not accepting reminders"})
	}

	s.logger.Info("Reminder scheduled",
		zap.Int64("reminder_id", r.ID),
		zap.Time("due_time", due),
		zap.Duration("recurrence_interval", interval),
		zap.Uint64("generation", gen))

	s.publish(events.TopicReminderScheduled, events.ReminderScheduled{
		Event:         events.NewEventAt(now),
		ReminderID:    r.ID,
		Text:          r.Text,
		ScheduledTime: r.ScheduledTime,
		Recurrence:    recurrence,
	})

	message := fmt.Sprintf("Reminder set for %s: %s", formatDue(due, now), text)
	if interval > 0 {
		message += fmt.Sprintf(" (repeats %s)", timeexpr.DescribeInterval(interval))
	}

	return Outcome{
		Success:    true,
		Message:    message,
		ReminderID: r.ID,
		Reminder:   r,
	}, nil
}

// Get returns one reminder
func (s *Service) Get(ctx context.Context, id int64) (Outcome, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return s.failure(WrapPersistenceError(err, "get"))
	}

	return Outcome{
		Success:    true,
		Message:    fmt.Sprintf("Reminder %d is %s", id, r.Status),
		ReminderID: id,
		Reminder:   r,
	}, nil
}

// List returns every reminder, most recently scheduled first
func (s *Service) List(ctx context.Context) (Outcome, error) {
	reminders, err := s.repo.ListAll(ctx)
	if err != nil {
		return s.failure(WrapPersistenceError(err, "list"))
	}

	message := "No reminders found"
	if len(reminders) > 0 {
		message = fmt.Sprintf("You have %d %s", len(reminders), plural(int64(len(reminders)), "reminder", "reminders"))
	}

	return Outcome{
		Success:   true,
		Message:   message,
		Count:     int64(len(reminders)),
		Reminders: reminders,
	}, nil
}

// Cancel removes the reminder's trigger and marks it cancelled. Cancelling a
// reminder that already fired or was cancelled changes nothing.
func (s *Service) Cancel(ctx context.Context, id int64) (Outcome, error) {
	if err := s.requireRunning(); err != nil {
		return s.failure(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return s.failure(WrapPersistenceError(err, "cancel"))
	}

	switch r.Status {
	case StatusTriggered:
		return Outcome{Success: true, Message: fmt.Sprintf("Reminder %d has already been triggered", id), ReminderID: id}, nil
	case StatusCancelled:
		return Outcome{Success: true, Message: fmt.Sprintf("Reminder %d is already cancelled", id), ReminderID: id}, nil
	}

	hadTrigger := s.engine.Cancel(id)
	applied, err := s.repo.Cancel(ctx, id)
	if err != nil {
		if hadTrigger {
			s.rearm(r)
		}
		return s.failure(WrapPersistenceError(err, "cancel"))
	}
	if !applied {
		return Outcome{Success: true, Message: fmt.Sprintf("Reminder %d is no longer scheduled", id), ReminderID: id}, nil
	}

	s.logger.Info("Reminder cancelled",
		zap.Int64("reminder_id", id),
		zap.Bool("had_trigger", hadTrigger))

	s.publish(events.TopicReminderCancelled, events.ReminderCancelled{
		Event:      events.NewEventAt(s.clock.Now()),
		ReminderID: id,
	})

	return Outcome{
		Success:    true,
		Message:    fmt.Sprintf("Reminder %d cancelled successfully", id),
		ReminderID: id,
	}, nil
}

// CancelByText cancels every scheduled reminder whose text contains substring,
// ignoring case. No match is reported as an unsuccessful outcome, not an error.
func (s *Service) CancelByText(ctx context.Context, substring string) (Outcome, error) {
	if err := s.requireRunning(); err != nil {
		return s.failure(err)
	}
	if strings.TrimSpace(substring) == "" {
		return s.failure(NewValidationError("text", substring, "Please specify which reminder to cancel"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cancelled []int64
	err := s.repo.WithTransaction(ctx, func(tx Repository) error {
		matches, err := tx.FindByTextSubstring(ctx, substring, StatusScheduled)
		if err != nil {
			return err
		}
		for _, match := range matches {
			applied, err := tx.Cancel(ctx, match.ID)
			if err != nil {
				return err
			}
			if applied {
				cancelled = append(cancelled, match.ID)
			}
		}
		return nil
	})
	if err != nil {
		return s.failure(WrapPersistenceError(err, "cancel_by_text"))
	}

	if len(cancelled) == 0 {
		return Outcome{
			Success: false,
			Message: fmt.Sprintf("No active reminders found matching '%s'", substring),
		}, nil
	}

	now := s.clock.Now()
	for _, id := range cancelled {
		s.engine.Cancel(id)
		s.publish(events.TopicReminderCancelled, events.ReminderCancelled{
			Event:      events.NewEventAt(now),
			ReminderID: id,
		})
	}

	count := int64(len(cancelled))
	s.logger.Info("Reminders cancelled by text",
		zap.String("pattern", substring),
		zap.Int64s("reminder_ids", cancelled))

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("Cancelled %d %s matching '%s'", count, plural(count, "reminder", "reminders"), substring),
		Count:   count,
	}, nil
}

// Snooze moves any existing reminder to now + minutes and makes it scheduled
// again. A minutes value of 0 uses the configured default.
func (s *Service) Snooze(ctx context.Context, id int64, minutes int) (Outcome, error) {
	if err := s.requireRunning(); err != nil {
		return s.failure(err)
	}
	if minutes == 0 {
		minutes = s.config.DefaultSnoozeMinutes
	}
	if err := s.validator.ValidateSnoozeMinutes(minutes); err != nil {
		return s.failure(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return s.failure(WrapPersistenceError(err, "snooze"))
	}

	now := s.clock.Now()
	due := now.Add(time.Duration(minutes) * time.Minute)
	if err := s.repo.UpdateSchedule(ctx, id, due, StatusScheduled); err != nil {
		return s.failure(WrapPersistenceError(err, "snooze"))
	}

	gen, err := s.engine.Schedule(id, due, r.RecurrenceInterval, s.onFire)
	if err != nil {
		// The store already says scheduled; the next Start restores it
		s.logger.Error("Failed to schedule snoozed reminder", zap.Int64("reminder_id", id), zap.Error(err))
		return s.failure(UnavailableError{Reason: "scheduler is not accepting reminders"})
	}

	s.logger.Info("Reminder snoozed",
		zap.Int64("reminder_id", id),
		zap.String("status", string(r.Status)),
		zap.Time("due_time", due),
		zap.Uint64("generation", gen))

	s.publish(events.TopicReminderSnoozed, events.ReminderSnoozed{
		Event:         events.NewEventAt(now),
		ReminderID:    id,
		ScheduledTime: due,
	})

	return Outcome{
		Success:    true,
		Message:    fmt.Sprintf("Reminder snoozed for %d minutes until %s", minutes, formatDue(due, now)),
		ReminderID: id,
	}, nil
}

// Cleanup deletes triggered and cancelled reminders that were due or closed at
// or before now - retentionDays. Scheduled reminders are never deleted.
func (s *Service) Cleanup(ctx context.Context, retentionDays int) (Outcome, error) {
	if err := s.requireRunning(); err != nil {
		return s.failure(err)
	}
	if err := s.validator.ValidateRetentionDays(retentionDays); err != nil {
		return s.failure(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	cutoff := now.Add(-time.Duration(retentionDays) * 24 * time.Hour)
	deleted, err := s.repo.DeleteWhere(ctx, DeleteFilter{
		StatusNot:       StatusScheduled,
		ScheduledBefore: cutoff,
		ClosedBefore:    cutoff,
	})
	if err != nil {
		return s.failure(WrapPersistenceError(err, "cleanup"))
	}

	s.logger.Info("Old reminders cleaned up",
		zap.Int64("deleted", deleted),
		zap.Time("cutoff", cutoff))

	s.publish(events.TopicRemindersCleaned, events.RemindersCleaned{
		Event:   events.NewEventAt(now),
		Deleted: deleted,
		Cutoff:  cutoff,
	})

	return Outcome{
		Success: true,
		Message: fmt.Sprintf("Deleted %d old %s", deleted, plural(deleted, "reminder", "reminders")),
		Count:   deleted,
	}, nil
}

// onFire is the engine callback. The store transition happens under mu; the
// notifier runs after the lock is released and its failure does not undo the fire.
func (s *Service) onFire(ctx context.Context, fire scheduler.Fire) {
	notification, ok := s.recordFire(ctx, fire)
	if !ok {
		return
	}

	if err := s.notifier.Notify(ctx, notification); err != nil {
		s.logger.Warn("Reminder notification failed",
			zap.Int64("reminder_id", fire.ReminderID),
			zap.Error(err))
	}
}

func (s *Service) recordFire(ctx context.Context, fire scheduler.Fire) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.engine.IsCurrent(fire.ReminderID, fire.Generation) {
		s.logger.Debug("Skipping superseded trigger",
			zap.Int64("reminder_id", fire.ReminderID),
			zap.Uint64("generation", fire.Generation))
		return Notification{}, false
	}

	var r *Reminder
	applied := false
	operation := func() error {
		var err error
		r, err = s.repo.Get(ctx, fire.ReminderID)
		if err != nil {
			if IsNotFoundError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if r.Status != StatusScheduled {
			applied = false
			return nil
		}
		if fire.IsRecurring() {
			applied, err = s.repo.RecordOccurrence(ctx, r.ID, fire.FiredAt, fire.Next)
		} else {
			applied, err = s.repo.MarkTriggered(ctx, r.ID, fire.FiredAt)
		}
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(s.fireBackOff(), ctx))
	switch {
	case err != nil && IsNotFoundError(err):
		s.engine.Cancel(fire.ReminderID)
		s.logger.Warn("Fired reminder no longer exists", zap.Int64("reminder_id", fire.ReminderID))
		return Notification{}, false
	case err != nil && ctx.Err() != nil:
		// Shutting down; the record is still scheduled and is restored on the next start
		return Notification{}, false
	case err != nil:
		retryAt := s.clock.Now().Add(s.config.FireRetryDelay)
		if _, schedErr := s.engine.Schedule(fire.ReminderID, retryAt, fire.Interval, s.onFire); schedErr != nil {
			s.logger.Error("Failed to re-arm reminder after store failure",
				zap.Int64("reminder_id", fire.ReminderID),
				zap.Error(schedErr))
		}
		s.logger.Error("Failed to record reminder fire, retrying later",
			zap.Int64("reminder_id", fire.ReminderID),
			zap.Time("due_time", retryAt),
			zap.Error(err))
		return Notification{}, false
	case !applied:
		s.engine.Cancel(fire.ReminderID)
		s.logger.Debug("Fired reminder is no longer scheduled",
			zap.Int64("reminder_id", fire.ReminderID),
			zap.String("status", string(r.Status)))
		return Notification{}, false
	}

	notification := Notification{
		ReminderID: r.ID,
		Text:       r.Text,
		FiredAt:    fire.FiredAt,
	}
	if fire.IsRecurring() {
		next := fire.Next
		notification.NextTime = &next
	}

	s.logger.Info("Reminder triggered",
		zap.Int64("reminder_id", r.ID),
		zap.Time("due_time", fire.Due),
		zap.Time("fired_at", fire.FiredAt),
		zap.Duration("recurrence_interval", fire.Interval),
		zap.Uint64("generation", fire.Generation))

	return notification, true
}

func (s *Service) rearm(r *Reminder) {
	if _, err := s.engine.Schedule(r.ID, r.ScheduledTime, r.RecurrenceInterval, s.onFire); err != nil {
		s.logger.Error("Failed to re-arm reminder",
			zap.Int64("reminder_id", r.ID),
			zap.Error(err))
	}
}

func (s *Service) publish(topic string, event interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(topic, event); err != nil {
		s.logger.Warn("Failed to publish reminder event",
			zap.String("topic", topic),
			zap.Error(err))
	}
}

func (s *Service) failure(err error) (Outcome, error) {
	return Outcome{Success: false, Message: UserMessage(err)}, err
}
