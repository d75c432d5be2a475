package common

import "errors"

// CodedError is the shape shared by the reminder, scheduler and parser errors:
// a stable machine-readable code next to the error text.
type CodedError interface {
	error
	Code() string
}

// ErrorCode returns the code of the first CodedError in err's chain, or "" when there is none
func ErrorCode(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// IsTemporary reports whether any error in err's chain declares itself retryable
func IsTemporary(err error) bool {
	var temp interface{ Temporary() bool }
	if errors.As(err, &temp) {
		return temp.Temporary()
	}
	return false
}
