package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"personal-calendar/internal/domain"
)

// EventColumns is the select list understood by ScanEvent.
const EventColumns = `id, user_id, title, description, contacts, start_date, end_date, created_at`

// UserColumns is the select list understood by ScanUser.
const UserColumns = `id, name, email, password_hash, phone, created_at`

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanEvent reads one EventColumns row. sql.ErrNoRows becomes ErrNotFound.
func ScanEvent(row Scanner) (*domain.Event, error) {
	var (
		event       domain.Event
		description sql.NullString
		contacts    sql.NullString
	)
	if err := row.Scan(
		&event.ID,
		&event.UserID,
		&event.Title,
		&description,
		&contacts,
		&event.Start,
		&event.End,
		&event.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}

	event.Description = stringPtr(description)
	event.Contacts = stringPtr(contacts)
	event.Start = event.Start.UTC()
	event.End = event.End.UTC()
	event.CreatedAt = event.CreatedAt.UTC()
	return &event, nil
}

// ScanEvents drains rows into a non-nil slice.
func ScanEvents(rows *sql.Rows) ([]domain.Event, error) {
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		event, err := ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// ScanUser reads one UserColumns row. sql.ErrNoRows becomes ErrNotFound.
func ScanUser(row Scanner) (*domain.User, error) {
	var (
		user  domain.User
		phone sql.NullString
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&phone,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Phone = stringPtr(phone)
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

// NullableString converts an optional value into a driver argument.
func NullableString(v *string) any {
	return nullString(v)
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
