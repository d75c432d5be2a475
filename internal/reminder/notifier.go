package reminder

import (
	"context"
	"time"
)

// Notification is what a fired reminder hands to the outside world
type Notification struct {
	ReminderID int64
	Text       string
	FiredAt    time.Time
	// NextTime is the next due time of a recurring reminder
	NextTime *time.Time
}

// Notifier delivers fired reminders. It is called outside every service lock;
// a returned error is logged and does not undo the fire.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
