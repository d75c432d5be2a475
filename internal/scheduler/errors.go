package scheduler

import (
	"errors"
	"fmt"
)

// SchedulerError defines the interface for scheduler-specific errors
type SchedulerError interface {
	error
	Code() string
	Message() string
	Temporary() bool
}

// schedulerError implements the SchedulerError interface
type schedulerError struct {
	code      string
	message   string
	temporary bool
}

func (e *schedulerError) Error() string {
	return fmt.Sprintf("scheduler error [%s]: %s", e.code, e.message)
}

func (e *schedulerError) Code() string {
	return e.code
}

func (e *schedulerError) Message() string {
	return e.message
}

func (e *schedulerError) Temporary() bool {
	return e.temporary
}

// Error constants
const (
	ErrSchedulerNotRunning     = "scheduler_not_running"
	ErrSchedulerAlreadyRunning = "scheduler_already_running"
	ErrSchedulerStopped        = "scheduler_stopped"
	ErrInvalidConfiguration    = "invalid_configuration"
	ErrInvalidTrigger          = "invalid_trigger"
	ErrCallbackPanic           = "callback_panic"
	ErrShutdownTimeout         = "shutdown_timeout"
)

// Specific error types
type CallbackPanicError struct {
	schedulerError
	ReminderID int64
	Value      interface{}
}

type ShutdownError struct {
	schedulerError
	TimeoutSeconds int
}

type ConfigurationError struct {
	schedulerError
	Field string
	Value interface{}
}

// Constructor functions
func NewSchedulerError(code, message string) error {
	return &schedulerError{
		code:      code,
		message:   message,
		temporary: false,
	}
}

func NewCallbackPanicError(reminderID int64, value interface{}) error {
	return &CallbackPanicError{
		schedulerError: schedulerError{
			code:      ErrCallbackPanic,
			message:   fmt.Sprintf("callback for reminder %d panicked: %v", reminderID, value),
			temporary: false,
		},
		ReminderID: reminderID,
		Value:      value,
	}
}

func NewShutdownError(message string, timeoutSeconds int) error {
	return &ShutdownError{
		schedulerError: schedulerError{
			code:      ErrShutdownTimeout,
			message:   message,
			temporary: false,
		},
		TimeoutSeconds: timeoutSeconds,
	}
}

func NewConfigurationError(field string, value interface{}, message string) error {
	return &ConfigurationError{
		schedulerError: schedulerError{
			code:      ErrInvalidConfiguration,
			message:   fmt.Sprintf("invalid configuration for field %s (value: %v): %s", field, value, message),
			temporary: false,
		},
		Field: field,
		Value: value,
	}
}

// Error classification helpers
func hasCode(err error, code string) bool {
	var schedErr SchedulerError
	if errors.As(err, &schedErr) {
		return schedErr.Code() == code
	}
	return false
}

func IsConfigurationError(err error) bool {
	return hasCode(err, ErrInvalidConfiguration)
}

// IsStoppedError reports whether err came from an engine that no longer accepts triggers
func IsStoppedError(err error) bool {
	return hasCode(err, ErrSchedulerStopped)
}

func IsNotRunningError(err error) bool {
	return hasCode(err, ErrSchedulerNotRunning)
}
