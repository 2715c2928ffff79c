package repository

import (
	"context"

	"personal-calendar/internal/domain"
)

// EventRepository exposes owner-scoped persistence for events. Every lookup
// and mutation filters on both the event id and the owner, so a row owned by
// someone else is reported as ErrNotFound.
type EventRepository interface {
	// Create inserts event and fills in its ID and CreatedAt.
	Create(ctx context.Context, event *domain.Event) error
	GetForOwner(ctx context.Context, id, ownerID int64) (*domain.Event, error)
	// ListByOwner returns the owner's events ordered by start ascending.
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Event, error)
	// Update writes only the staged columns and returns the stored row.
	Update(ctx context.Context, id, ownerID int64, changes domain.EventChanges) (*domain.Event, error)
	Delete(ctx context.Context, id, ownerID int64) error
}
