package reminder

import (
	"context"
	"errors"
	"strings"
	"time"

	"reminderd/internal/common"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// gormRepository implements the Repository interface using GORM
type gormRepository struct {
	db     *gorm.DB
	clock  common.Clock
	logger *zap.Logger
}

// NewGormRepository creates a new GORM-based reminder repository
func NewGormRepository(db *gorm.DB, clock common.Clock, logger *zap.Logger) Repository {
	if clock == nil {
		clock = common.NewRealClock()
	}
	return &gormRepository{
		db:     db,
		clock:  clock,
		logger: logger,
	}
}

// Insert creates a new reminder in the database
func (r *gormRepository) Insert(ctx context.Context, reminder *Reminder) error {
	r.logger.Debug("Inserting reminder",
		zap.Time("scheduledTime", reminder.ScheduledTime),
		zap.String("recurrence", reminder.Recurrence))

	if strings.TrimSpace(reminder.Text) == "" {
		return NewValidationError("text", reminder.Text, "Reminder text cannot be empty")
	}

	reminder.ID = 0
	reminder.Status = StatusScheduled
	reminder.ScheduledTime = reminder.ScheduledTime.UTC()
	reminder.CreatedAt = r.clock.Now().UTC()
	reminder.ClosedAt = nil

	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return WrapPersistenceError(err, "insert")
	}

	r.logger.Info("Reminder inserted", zap.Int64("reminderID", reminder.ID))
	return nil
}

// Get retrieves a reminder by its ID
func (r *gormRepository) Get(ctx context.Context, id int64) (*Reminder, error) {
	reminder, err := NewQueryBuilder(r.db.WithContext(ctx)).
		ReminderQuery().
		WithID(id).
		First()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{ID: id}
		}
		return nil, WrapPersistenceError(err, "get")
	}
	return reminder, nil
}

// ListAll retrieves every reminder ordered by scheduled time, latest first
func (r *gormRepository) ListAll(ctx context.Context) ([]*Reminder, error) {
	reminders, err := NewQueryBuilder(r.db.WithContext(ctx)).
		ReminderQuery().
		OrderByScheduledTime(false).
		Find()
	if err != nil {
		return nil, WrapPersistenceError(err, "list all")
	}

	r.logger.Debug("Listed reminders", zap.Int("count", len(reminders)))
	return reminders, nil
}

// ListByStatus retrieves reminders in the given status, earliest due first
func (r *gormRepository) ListByStatus(ctx context.Context, status Status) ([]*Reminder, error) {
	if !status.IsValid() {
		return nil, NewValidationError("status", status, "Unknown reminder status")
	}

	reminders, err := NewQueryBuilder(r.db.WithContext(ctx)).
		ReminderQuery().
		WithStatus(status).
		OrderByScheduledTime(true).
		Find()
	if err != nil {
		return nil, WrapPersistenceError(err, "list by status")
	}
	return reminders, nil
}

// FindByTextSubstring retrieves reminders in status whose text contains
// pattern. Status narrows the query in SQL; the text match runs in Go because
// sqlite's LOWER() folds only ASCII.
func (r *gormRepository) FindByTextSubstring(ctx context.Context, pattern string, status Status) ([]*Reminder, error) {
	r.logger.Debug("Finding reminders by text",
		zap.String("pattern", pattern),
		zap.String("status", string(status)))

	query := NewQueryBuilder(r.db.WithContext(ctx)).ReminderQuery()
	if status != "" {
		query = query.WithStatus(status)
	}

	candidates, err := query.OrderByScheduledTime(true).Find()
	if err != nil {
		return nil, WrapPersistenceError(err, "find by text")
	}

	matches := candidates[:0]
	for _, reminder := range candidates {
		if containsFold(reminder.Text, pattern) {
			matches = append(matches, reminder)
		}
	}
	return matches, nil
}

// UpdateStatus sets the status of a reminder unconditionally
func (r *gormRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	r.logger.Debug("Updating reminder status",
		zap.Int64("reminderID", id),
		zap.String("status", string(status)))

	if !status.IsValid() {
		return NewValidationError("status", status, "Unknown reminder status")
	}

	updates := map[string]interface{}{"status": status}
	if status.IsTerminal() {
		updates["closed_at"] = r.clock.Now().UTC()
	} else {
		updates["closed_at"] = nil
	}

	result := r.db.WithContext(ctx).Model(&Reminder{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return WrapPersistenceError(result.Error, "update status")
	}
	if result.RowsAffected == 0 {
		return NotFoundError{ID: id}
	}
	return nil
}

// UpdateSchedule moves a reminder to a new due time and status
func (r *gormRepository) UpdateSchedule(ctx context.Context, id int64, scheduledTime time.Time, status Status) error {
	r.logger.Debug("Updating reminder schedule",
		zap.Int64("reminderID", id),
		zap.Time("scheduledTime", scheduledTime),
		zap.String("status", string(status)))

	if !status.IsValid() {
		return NewValidationError("status", status, "Unknown reminder status")
	}

	updates := map[string]interface{}{
		"scheduled_time": scheduledTime.UTC(),
		"status":         status,
	}
	if status == StatusScheduled {
		updates["closed_at"] = nil
	}

	result := r.db.WithContext(ctx).Model(&Reminder{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return WrapPersistenceError(result.Error, "update schedule")
	}
	if result.RowsAffected == 0 {
		return NotFoundError{ID: id}
	}
	return nil
}

// MarkTriggered moves a scheduled reminder to triggered
func (r *gormRepository) MarkTriggered(ctx context.Context, id int64, firedAt time.Time) (bool, error) {
	firedAt = firedAt.UTC()
	result := r.db.WithContext(ctx).Model(&Reminder{}).
		Where("id = ? AND status = ?", id, StatusScheduled).
		Updates(map[string]interface{}{
			"status":        StatusTriggered,
			"fire_count":    gorm.Expr("fire_count + 1"),
			"last_fired_at": firedAt,
			"closed_at":     firedAt,
		})
	if result.Error != nil {
		return false, WrapPersistenceError(result.Error, "mark triggered")
	}

	r.logger.Debug("Mark triggered",
		zap.Int64("reminderID", id),
		zap.Bool("applied", result.RowsAffected > 0))
	return result.RowsAffected > 0, nil
}

// RecordOccurrence advances a scheduled recurring reminder past one fire
func (r *gormRepository) RecordOccurrence(ctx context.Context, id int64, firedAt, next time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Reminder{}).
		Where("id = ? AND status = ?", id, StatusScheduled).
		Updates(map[string]interface{}{
			"scheduled_time": next.UTC(),
			"fire_count":     gorm.Expr("fire_count + 1"),
			"last_fired_at":  firedAt.UTC(),
		})
	if result.Error != nil {
		return false, WrapPersistenceError(result.Error, "record occurrence")
	}

	r.logger.Debug("Recorded occurrence",
		zap.Int64("reminderID", id),
		zap.Time("next", next),
		zap.Bool("applied", result.RowsAffected > 0))
	return result.RowsAffected > 0, nil
}

// Cancel moves a scheduled reminder to cancelled
func (r *gormRepository) Cancel(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Reminder{}).
		Where("id = ? AND status = ?", id, StatusScheduled).
		Updates(map[string]interface{}{
			"status":    StatusCancelled,
			"closed_at": r.clock.Now().UTC(),
		})
	if result.Error != nil {
		return false, WrapPersistenceError(result.Error, "cancel")
	}
	return result.RowsAffected > 0, nil
}

// Delete removes a reminder by ID
func (r *gormRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&Reminder{}, "id = ?", id)
	if result.Error != nil {
		return WrapPersistenceError(result.Error, "delete")
	}
	if result.RowsAffected == 0 {
		return NotFoundError{ID: id}
	}

	r.logger.Info("Reminder deleted", zap.Int64("reminderID", id))
	return nil
}

// DeleteWhere removes every reminder matching filter and returns how many were removed
func (r *gormRepository) DeleteWhere(ctx context.Context, filter DeleteFilter) (int64, error) {
	r.logger.Debug("Deleting reminders",
		zap.String("statusNot", string(filter.StatusNot)),
		zap.Time("scheduledBefore", filter.ScheduledBefore),
		zap.Time("closedBefore", filter.ClosedBefore))

	if filter.ScheduledBefore.IsZero() && filter.ClosedBefore.IsZero() {
		return 0, NewValidationError("filter", filter, "Cleanup needs a cutoff time")
	}

	query := NewQueryBuilder(r.db.WithContext(ctx)).ReminderQuery()
	if filter.StatusNot != "" {
		query = query.WithStatusNot(filter.StatusNot)
	}
	query = query.WithAgedOut(filter.ScheduledBefore, filter.ClosedBefore)

	result := query.query.Delete(&Reminder{})
	if result.Error != nil {
		return 0, WrapPersistenceError(result.Error, "delete where")
	}

	r.logger.Info("Reminders deleted", zap.Int64("count", result.RowsAffected))
	return result.RowsAffected, nil
}

// WithTransaction executes a function within a database transaction
func (r *gormRepository) WithTransaction(ctx context.Context, fn func(Repository) error) error {
	r.logger.Debug("Starting transaction")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &gormRepository{
			db:     tx,
			clock:  r.clock,
			logger: r.logger,
		}

		if err := fn(txRepo); err != nil {
			r.logger.Debug("Transaction failed, rolling back", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return WrapPersistenceError(err, "transaction")
	}

	r.logger.Debug("Transaction completed successfully")
	return nil
}
