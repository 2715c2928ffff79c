package domain

import "time"

// User represents a registered owner of calendar events.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
	CreatedAt    time.Time
}
