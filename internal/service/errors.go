package service

import "errors"

var (
	ErrMissingField       = errors.New("missing field")
	ErrWeakPassword       = errors.New("weak password")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrDuplicatePhone     = errors.New("duplicate phone")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidRange       = errors.New("invalid range")
	ErrEmptyTitle         = errors.New("empty title")
	ErrTitleTooLong       = errors.New("title too long")
	ErrNoFields           = errors.New("no fields")
	ErrNotFound           = errors.New("not found")
	// ErrPublishingDisabled is returned by ExportService.Publish when no
	// storage bucket is configured.
	ErrPublishingDisabled = errors.New("export publishing disabled")
)

// ValidationError carries a client-facing message for one of the sentinel
// errors above. errors.Is matches it against Kind.
type ValidationError struct {
	Kind    error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalid(kind error, message string) error {
	return &ValidationError{Kind: kind, Message: message}
}
