package events

import (
	"time"

	"github.com/google/uuid"
)

// Event represents the base event structure with common fields
type Event struct {
	CorrelationID string    `json:"correlation_id" validate:"required"`
	Timestamp     time.Time `json:"timestamp" validate:"required"`
}

// NewEvent creates a new base event with generated correlation ID
func NewEvent() Event {
	return NewEventAt(time.Now())
}

// NewEventAt creates a new base event stamped with the given time
func NewEventAt(at time.Time) Event {
	return Event{
		CorrelationID: uuid.New().String(),
		Timestamp:     at,
	}
}

// ReminderScheduled is published when a reminder is created
type ReminderScheduled struct {
	Event
	ReminderID    int64     `json:"reminder_id" validate:"required"`
	Text          string    `json:"text" validate:"required"`
	ScheduledTime time.Time `json:"scheduled_time" validate:"required"`
	Recurrence    string    `json:"recurrence,omitempty"`
}

// ReminderTriggered is published when a reminder fires. It is what notification sinks consume.
type ReminderTriggered struct {
	Event
	ReminderID int64     `json:"reminder_id" validate:"required"`
	Text       string    `json:"text" validate:"required"`
	FiredAt    time.Time `json:"fired_at" validate:"required"`
	// NextTime is set when a recurring reminder was re-armed
	NextTime *time.Time `json:"next_time,omitempty"`
}

// ReminderCancelled is published when a scheduled reminder is cancelled
type ReminderCancelled struct {
	Event
	ReminderID int64 `json:"reminder_id" validate:"required"`
}

// ReminderSnoozed is published when a reminder is moved to a new due time
type ReminderSnoozed struct {
	Event
	ReminderID    int64     `json:"reminder_id" validate:"required"`
	ScheduledTime time.Time `json:"scheduled_time" validate:"required"`
}

// RemindersCleaned is published after a retention cleanup run
type RemindersCleaned struct {
	Event
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff" validate:"required"`
}

// Event topics constants
const (
	TopicReminderScheduled = "reminder.scheduled"
	TopicReminderTriggered = "reminder.triggered"
	TopicReminderCancelled = "reminder.cancelled"
	TopicReminderSnoozed   = "reminder.snoozed"
	TopicRemindersCleaned  = "reminder.cleaned"
)

// ReminderTopics lists every reminder lifecycle topic
var ReminderTopics = []string{
	TopicReminderScheduled,
	TopicReminderTriggered,
	TopicReminderCancelled,
	TopicReminderSnoozed,
	TopicRemindersCleaned,
}
