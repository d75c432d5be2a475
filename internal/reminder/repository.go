package reminder

import (
	"context"
	"time"
)

// DeleteFilter selects the records removed by Repository.DeleteWhere.
// A record matches when its status differs from StatusNot and either its
// scheduled_time is at or before ScheduledBefore or it was closed at or before ClosedBefore.
// Zero times disable the corresponding condition.
type DeleteFilter struct {
	StatusNot       Status
	ScheduledBefore time.Time
	ClosedBefore    time.Time
}

// Repository is the durable source of truth for reminder existence and status.
// Every method is safe for concurrent callers; failures are returned as
// PersistenceError naming the failing operation, or NotFoundError.
type Repository interface {
	// Insert stores r with status scheduled and assigns ID and CreatedAt
	Insert(ctx context.Context, r *Reminder) error
	Get(ctx context.Context, id int64) (*Reminder, error)
	// ListAll returns every reminder, latest scheduled_time first
	ListAll(ctx context.Context) ([]*Reminder, error)
	ListByStatus(ctx context.Context, status Status) ([]*Reminder, error)
	// FindByTextSubstring matches pattern case-insensitively anywhere in the text
	FindByTextSubstring(ctx context.Context, pattern string, status Status) ([]*Reminder, error)

	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdateSchedule(ctx context.Context, id int64, scheduledTime time.Time, status Status) error

	// MarkTriggered moves a scheduled reminder to triggered. It reports false
	// when the reminder was no longer scheduled.
	MarkTriggered(ctx context.Context, id int64, firedAt time.Time) (bool, error)
	// RecordOccurrence advances a scheduled recurring reminder to its next due
	// time. It reports false when the reminder was no longer scheduled.
	RecordOccurrence(ctx context.Context, id int64, firedAt, next time.Time) (bool, error)
	// Cancel moves a scheduled reminder to cancelled. It reports false when the
	// reminder was no longer scheduled.
	Cancel(ctx context.Context, id int64) (bool, error)

	Delete(ctx context.Context, id int64) error
	DeleteWhere(ctx context.Context, filter DeleteFilter) (int64, error)

	// WithTransaction runs fn against a repository bound to one transaction
	WithTransaction(ctx context.Context, fn func(Repository) error) error
}
