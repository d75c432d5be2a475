package reminder

import (
	"fmt"
	"strings"
	"time"
)

// Business rule constants
const (
	MaxTextLength        = 1000
	MaxDurationAmount    = 100000
	DefaultSnoozeMinutes = 10
	DefaultRetentionDays = 7
)

// SetRequest asks for a reminder after a number of minutes or hours
type SetRequest struct {
	Text    string `json:"text"`
	Minutes int    `json:"minutes,omitempty"`
	Hours   int    `json:"hours,omitempty"`
}

// AdvancedRequest asks for a reminder at a free-text time or after a
// duration, optionally repeating
type AdvancedRequest struct {
	Text       string `json:"text"`
	Expression string `json:"expression,omitempty"`
	Minutes    int    `json:"minutes,omitempty"`
	Hours      int    `json:"hours,omitempty"`
	Days       int    `json:"days,omitempty"`
	Recurrence string `json:"recurrence,omitempty"`
}

// RequestValidator provides validation for reminder requests
type RequestValidator struct{}

// NewRequestValidator creates a new RequestValidator
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{}
}

// ValidateText checks the reminder text
func (v *RequestValidator) ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return NewValidationError("text", text, "Reminder text cannot be empty")
	}
	if len(text) > MaxTextLength {
		return NewValidationError("text", len(text), fmt.Sprintf("Reminder text cannot exceed %d characters", MaxTextLength))
	}
	return nil
}

// ValidateSet validates a SetRequest and returns the requested delay
func (v *RequestValidator) ValidateSet(req SetRequest) (time.Duration, error) {
	if err := v.ValidateText(req.Text); err != nil {
		return 0, err
	}

	sources, err := v.countDurations([]durationAmount{{"minutes", req.Minutes}, {"hours", req.Hours}})
	if err != nil {
		return 0, err
	}
	switch sources {
	case 0:
		return 0, NewValidationError("duration", nil, "Please specify either minutes or hours for the reminder")
	case 1:
	default:
		return 0, NewValidationError("duration", nil, "Please specify either minutes or hours, not both")
	}

	return durationOf(0, req.Hours, req.Minutes), nil
}

// ValidateAdvanced validates everything in an AdvancedRequest except the
// expression and recurrence phrases, which are parsed by the service
func (v *RequestValidator) ValidateAdvanced(req AdvancedRequest) error {
	if err := v.ValidateText(req.Text); err != nil {
		return err
	}

	sources, err := v.countDurations([]durationAmount{{"minutes", req.Minutes}, {"hours", req.Hours}, {"days", req.Days}})
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Expression) != "" {
		sources++
	}

	switch sources {
	case 0:
		return NewValidationError("when", nil, "Please specify when you want to be reminded")
	case 1:
		return nil
	default:
		return NewValidationError("when", nil, "Please specify only one of expression, minutes, hours or days")
	}
}

// ValidateSnoozeMinutes checks a snooze length
func (v *RequestValidator) ValidateSnoozeMinutes(minutes int) error {
	if minutes <= 0 {
		return NewValidationError("minutes", minutes, "Snooze minutes must be positive")
	}
	if minutes > MaxDurationAmount {
		return NewValidationError("minutes", minutes, fmt.Sprintf("Snooze minutes cannot exceed %d", MaxDurationAmount))
	}
	return nil
}

// ValidateRetentionDays checks a cleanup retention window
func (v *RequestValidator) ValidateRetentionDays(days int) error {
	if days < 0 {
		return NewValidationError("retention_days", days, "Retention days cannot be negative")
	}
	if days > MaxDurationAmount {
		return NewValidationError("retention_days", days, fmt.Sprintf("Retention days cannot exceed %d", MaxDurationAmount))
	}
	return nil
}

type durationAmount struct {
	field  string
	amount int
}

// countDurations counts the non-zero amounts and rejects negative or oversized
// ones, reporting the first bad field in order
func (v *RequestValidator) countDurations(amounts []durationAmount) (int, error) {
	count := 0
	for _, a := range amounts {
		field, amount := a.field, a.amount
		switch {
		case amount < 0:
			return 0, NewValidationError(field, amount, fmt.Sprintf("The number of %s must be positive", field))
		case amount > MaxDurationAmount:
			return 0, NewValidationError(field, amount, fmt.Sprintf("The number of %s cannot exceed %d", field, MaxDurationAmount))
		case amount > 0:
			count++
		}
	}
	return count, nil
}

func durationOf(days, hours, minutes int) time.Duration {
	return time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute
}

// formatDue renders a due time for confirmation messages, in now's location.
// The date is included only when the reminder is not due today.
func formatDue(due, now time.Time) string {
	due = due.In(now.Location())
	y1, m1, d1 := due.Date()
	y2, m2, d2 := now.Date()
	if y1 == y2 && m1 == m2 && d1 == d2 {
		return due.Format("03:04 PM")
	}
	return due.Format("Mon Jan 2 03:04 PM")
}

func plural(n int64, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
