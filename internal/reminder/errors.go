package reminder

import (
	"errors"
	"fmt"
)

// Error codes for the reminder module
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeParseFailed      = "PARSE_FAILED"
	ErrCodePersistence      = "PERSISTENCE_ERROR"
	ErrCodeNotFound         = "REMINDER_NOT_FOUND"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
)

// ReminderError is implemented by every error the reminder service returns.
// Message is safe to show to the end user.
type ReminderError interface {
	error
	Code() string
	Message() string
	Temporary() bool
}

// ValidationError represents input the service refuses before touching any state
type ValidationError struct {
	Field      string
	Value      interface{}
	ErrMessage string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s (value: %v)", e.Field, e.ErrMessage, e.Value)
}

func (e ValidationError) Code() string {
	return ErrCodeValidationFailed
}

func (e ValidationError) Message() string {
	return e.ErrMessage
}

func (e ValidationError) Temporary() bool {
	return false
}

// ParseError represents a time or recurrence expression nobody could understand
type ParseError struct {
	Field      string
	Expression string
	Cause      error
}

func (e ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot parse %s '%s': %v", e.Field, e.Expression, e.Cause)
	}
	return fmt.Sprintf("cannot parse %s '%s'", e.Field, e.Expression)
}

func (e ParseError) Code() string {
	return ErrCodeParseFailed
}

func (e ParseError) Message() string {
	if e.Field == "recurrence" {
		return fmt.Sprintf("I couldn't understand how often to repeat '%s' (try 'daily', 'weekly' or 'every 2 hours')", e.Expression)
	}
	return fmt.Sprintf("I couldn't understand the time expression '%s'", e.Expression)
}

func (e ParseError) Temporary() bool {
	return false
}

func (e ParseError) Unwrap() error {
	return e.Cause
}

// PersistenceError represents a store operation failure
type PersistenceError struct {
	Operation string
	Details   string
	Cause     error
}

func (e PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("persistence error during %s: %s (caused by: %v)", e.Operation, e.Details, e.Cause)
	}
	return fmt.Sprintf("persistence error during %s: %s", e.Operation, e.Details)
}

func (e PersistenceError) Code() string {
	return ErrCodePersistence
}

func (e PersistenceError) Message() string {
	return "The reminder store is not available right now, please try again"
}

func (e PersistenceError) Temporary() bool {
	return true
}

func (e PersistenceError) Unwrap() error {
	return e.Cause
}

// NotFoundError represents an operation on an unknown reminder id
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("reminder %d not found", e.ID)
}

func (e NotFoundError) Code() string {
	return ErrCodeNotFound
}

func (e NotFoundError) Message() string {
	return fmt.Sprintf("Reminder %d not found", e.ID)
}

func (e NotFoundError) Temporary() bool {
	return false
}

// UnavailableError is returned while the service is not accepting operations
type UnavailableError struct {
	Reason string
}

func (e UnavailableError) Error() string {
	return "reminder service unavailable: " + e.Reason
}

func (e UnavailableError) Code() string {
	return ErrCodeUnavailable
}

func (e UnavailableError) Message() string {
	return "Reminders are not available right now (" + e.Reason + ")"
}

func (e UnavailableError) Temporary() bool {
	return true
}

// Error wrapping utilities

// WrapPersistenceError wraps a store failure, naming the failing operation
func WrapPersistenceError(err error, operation string) error {
	if err == nil {
		return nil
	}
	var re ReminderError
	if errors.As(err, &re) {
		return err
	}
	return PersistenceError{
		Operation: operation,
		Details:   "database operation failed",
		Cause:     err,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) error {
	return ValidationError{
		Field:      field,
		Value:      value,
		ErrMessage: message,
	}
}

// NewParseError creates a new ParseError
func NewParseError(field, expression string, cause error) error {
	return ParseError{
		Field:      field,
		Expression: expression,
		Cause:      cause,
	}
}

// Error classification helpers

func hasCode(err error, code string) bool {
	var re ReminderError
	if errors.As(err, &re) {
		return re.Code() == code
	}
	return false
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidationFailed)
}

// IsParseError checks if the error is a parse error
func IsParseError(err error) bool {
	return hasCode(err, ErrCodeParseFailed)
}

// IsPersistenceError checks if the error is a persistence error
func IsPersistenceError(err error) bool {
	return hasCode(err, ErrCodePersistence)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

// IsUnavailableError checks if the error reports a stopped or restoring service
func IsUnavailableError(err error) bool {
	return hasCode(err, ErrCodeUnavailable)
}

// IsTemporaryError checks if the error is temporary and can be retried
func IsTemporaryError(err error) bool {
	var re ReminderError
	if errors.As(err, &re) {
		return re.Temporary()
	}
	return false
}

// UserMessage returns the message to show for err
func UserMessage(err error) string {
	var re ReminderError
	if errors.As(err, &re) {
		return re.Message()
	}
	return "Something went wrong with your reminder"
}
