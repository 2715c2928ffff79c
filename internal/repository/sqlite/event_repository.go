package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/repository"
)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO events (user_id, title, description, contacts, start_date, end_date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.UserID,
		event.Title,
		repository.NullableString(event.Description),
		repository.NullableString(event.Contacts),
		event.Start.UTC(),
		event.End.UTC(),
		event.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("event last insert id: %w", err)
	}
	event.ID = id
	return nil
}

func (r *EventRepository) GetForOwner(ctx context.Context, id, ownerID int64) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+repository.EventColumns+`
FROM events
WHERE id = ? AND user_id = ?`,
		id,
		ownerID,
	)
	return repository.ScanEvent(row)
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+repository.EventColumns+`
FROM events
WHERE user_id = ?
ORDER BY start_date ASC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return repository.ScanEvents(rows)
}

func (r *EventRepository) Update(ctx context.Context, id, ownerID int64, changes domain.EventChanges) (*domain.Event, error) {
	assignments := repository.EventAssignments(changes)
	if len(assignments) == 0 {
		return r.GetForOwner(ctx, id, ownerID)
	}

	set, args := repository.SetClause(assignments, func(int) string { return "?" })
	args = append(args, id, ownerID)

	// RETURNING columns carry no declared type in sqlite, so the row is
	// re-read to get DATETIME parsing.
	res, err := r.db.ExecContext(ctx, `
UPDATE events
SET `+set+`
WHERE id = ? AND user_id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("event update rows affected: %w", err)
	}
	if aff == 0 {
		return nil, repository.ErrNotFound
	}
	return r.GetForOwner(ctx, id, ownerID)
}

func (r *EventRepository) Delete(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("event delete rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}
