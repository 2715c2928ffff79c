package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"personal-calendar/internal/domain"
	"personal-calendar/internal/repository"
)

// CreateEventInput holds the raw fields of a create request. Start and End
// are ISO 8601 strings.
type CreateEventInput struct {
	Title       string
	Description *string
	Contacts    *string
	Start       string
	End         string
}

// TextPatch is one optional text field of an update request. Present with a
// nil Value means the client sent an explicit null.
type TextPatch struct {
	Present bool
	Value   *string
}

// EventPatch is a partial update. Nil pointers were not sent.
type EventPatch struct {
	Title       *string
	Description TextPatch
	Contacts    TextPatch
	Start       *string
	End         *string
}

// EventService is the validating front of the event store. Every operation
// is scoped to ownerID.
type EventService interface {
	Create(ctx context.Context, ownerID int64, in CreateEventInput) (*domain.Event, error)
	Update(ctx context.Context, ownerID, id int64, patch EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, ownerID, id int64) error
	List(ctx context.Context, ownerID int64) ([]domain.Event, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Event, error)
}

type eventService struct {
	events repository.EventRepository
	now    func() time.Time
}

func NewEventService(events repository.EventRepository) EventService {
	return &eventService{
		events: events,
		now:    time.Now,
	}
}

func (s *eventService) Create(ctx context.Context, ownerID int64, in CreateEventInput) (*domain.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || strings.TrimSpace(in.Start) == "" || strings.TrimSpace(in.End) == "" {
		return nil, invalid(ErrMissingField, "Title, start_date, and end_date are required")
	}
	if err := checkTitleLength(title); err != nil {
		return nil, err
	}

	start, errStart := ParseTimestamp(in.Start)
	end, errEnd := ParseTimestamp(in.End)
	if errStart != nil || errEnd != nil {
		return nil, invalid(ErrInvalidDate, "Invalid date format")
	}
	if !start.Before(end) {
		return nil, invalid(ErrInvalidRange, "start_date must be before end_date")
	}

	event := &domain.Event{
		UserID:      ownerID,
		Title:       title,
		Description: normalizeText(in.Description),
		Contacts:    normalizeText(in.Contacts),
		Start:       start,
		End:         end,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) Update(ctx context.Context, ownerID, id int64, patch EventPatch) (*domain.Event, error) {
	current, err := s.events.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, notFound(err)
	}

	changes, err := stageChanges(patch)
	if err != nil {
		return nil, err
	}
	if changes.Empty() {
		return nil, invalid(ErrNoFields, "No fields to update")
	}

	effective := changes.Apply(*current)
	if !effective.Start.Before(effective.End) {
		return nil, invalid(ErrInvalidRange, "start_date must be before end_date")
	}

	// The store re-asserts id and owner, so a concurrent delete surfaces
	// as ErrNotFound here.
	updated, err := s.events.Update(ctx, id, ownerID, changes)
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, ownerID, id int64) error {
	return notFound(s.events.Delete(ctx, id, ownerID))
}

func (s *eventService) List(ctx context.Context, ownerID int64) ([]domain.Event, error) {
	return s.events.ListByOwner(ctx, ownerID)
}

func (s *eventService) Get(ctx context.Context, ownerID, id int64) (*domain.Event, error) {
	event, err := s.events.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, notFound(err)
	}
	return event, nil
}

func stageChanges(patch EventPatch) (domain.EventChanges, error) {
	var changes domain.EventChanges

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return changes, invalid(ErrEmptyTitle, "Title cannot be empty")
		}
		if err := checkTitleLength(title); err != nil {
			return changes, err
		}
		changes.Title = &title
	}
	changes.Description = stageText(patch.Description)
	changes.Contacts = stageText(patch.Contacts)

	if patch.Start != nil {
		start, err := ParseTimestamp(*patch.Start)
		if err != nil {
			return changes, invalid(ErrInvalidDate, "Invalid start_date format")
		}
		changes.Start = &start
	}
	if patch.End != nil {
		end, err := ParseTimestamp(*patch.End)
		if err != nil {
			return changes, invalid(ErrInvalidDate, "Invalid end_date format")
		}
		changes.End = &end
	}

	return changes, nil
}

func stageText(p TextPatch) domain.TextChange {
	if !p.Present {
		return domain.TextChange{}
	}
	if p.Value == nil {
		return domain.ClearText()
	}
	return domain.SetText(strings.TrimSpace(*p.Value))
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func checkTitleLength(title string) error {
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return invalid(ErrTitleTooLong, fmt.Sprintf("Title must be at most %d characters", domain.MaxTitleLength))
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return invalid(ErrNotFound, "Event not found")
	}
	return err
}
