package reminder

import (
	"time"
)

// Status represents the lifecycle state of a reminder
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusTriggered Status = "triggered"
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the Status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusTriggered, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is expected from s
func (s Status) IsTerminal() bool {
	return s == StatusTriggered || s == StatusCancelled
}

// Reminder is a user's request to be notified of Text at or after ScheduledTime
type Reminder struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Text          string    `json:"text" gorm:"type:text;not null"`
	ScheduledTime time.Time `json:"scheduled_time" gorm:"not null;index"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null"`
	Status        Status    `json:"status" gorm:"type:varchar(20);not null;default:'scheduled';index"`

	// Recurrence is the phrase the interval was parsed from; empty for one-shot reminders
	Recurrence         string        `json:"recurrence,omitempty" gorm:"type:varchar(64);not null;default:''"`
	RecurrenceInterval time.Duration `json:"recurrence_interval,omitempty" gorm:"not null;default:0"`

	FireCount   int        `json:"fire_count" gorm:"not null;default:0"`
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`
	// ClosedAt is when the reminder left the scheduled state
	ClosedAt *time.Time `json:"closed_at,omitempty"`
}

// TableName returns the table name for the Reminder model
func (Reminder) TableName() string {
	return "reminders"
}

// IsRecurring reports whether each fire re-arms the reminder
func (r Reminder) IsRecurring() bool {
	return r.RecurrenceInterval > 0
}

// IsOverdue checks if a scheduled reminder's due time has passed
func (r Reminder) IsOverdue(now time.Time) bool {
	return r.Status == StatusScheduled && !r.ScheduledTime.After(now)
}
