package postgres

import (
	"context"
	"fmt"
	"time"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/repository"
)

type EventRepository struct {
	db DBTX
}

func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, event *domain.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO events (user_id, title, description, contacts, start_date, end_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		event.UserID,
		event.Title,
		repository.NullableString(event.Description),
		repository.NullableString(event.Contacts),
		event.Start.UTC(),
		event.End.UTC(),
		event.CreatedAt.UTC(),
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *EventRepository) GetForOwner(ctx context.Context, id, ownerID int64) (*domain.Event, error) {
	query :=
		`SELECT ` + repository.EventColumns + ` FROM events
		 WHERE id = $1 AND user_id = $2`

	event, err := repository.ScanEvent(r.db.QueryRowContext(ctx, query, id, ownerID))
	return event, wrap(err)
}

func (r *EventRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Event, error) {
	query :=
		`SELECT ` + repository.EventColumns + ` FROM events
		 WHERE user_id = $1
		 ORDER BY start_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	events, err := repository.ScanEvents(rows)
	return events, wrap(err)
}

func (r *EventRepository) Update(ctx context.Context, id, ownerID int64, changes domain.EventChanges) (*domain.Event, error) {
	assignments := repository.EventAssignments(changes)
	if len(assignments) == 0 {
		return r.GetForOwner(ctx, id, ownerID)
	}

	set, args := repository.SetClause(assignments, placeholder)
	n := len(args)
	args = append(args, id, ownerID)

	query := fmt.Sprintf(
		`UPDATE events SET %s
		 WHERE id = %s AND user_id = %s
		 RETURNING %s`,
		set, placeholder(n+1), placeholder(n+2), repository.EventColumns)

	event, err := repository.ScanEvent(r.db.QueryRowContext(ctx, query, args...))
	return event, wrap(err)
}

func (r *EventRepository) Delete(ctx context.Context, id, ownerID int64) error {
	query :=
		`DELETE FROM events
		 WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
