package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches the query.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when the users.email unique constraint fires.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicatePhone is returned when the users.phone unique constraint fires.
	ErrDuplicatePhone = errors.New("phone number already registered")
)
