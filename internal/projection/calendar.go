package projection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"personal-calendar/internal/client"
)

// ErrRefresh marks a mutation that succeeded while the refetch after it
// failed. The view still holds the previous model.
var ErrRefresh = errors.New("refresh after mutation")

// API is the part of the REST client the calendar view needs.
type API interface {
	ListEvents(ctx context.Context) ([]client.Event, error)
	CreateEvent(ctx context.Context, req client.CreateEventRequest) (*client.Event, error)
	UpdateEvent(ctx context.Context, id int64, patch client.EventPatch) (*client.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// Calendar couples an API with a Projector. It refetches when the session
// becomes authenticated and after every successful mutation.
type Calendar struct {
	api  API
	proj *Projector

	mu     sync.Mutex
	authed bool
}

func NewCalendar(api API) *Calendar {
	return &Calendar{api: api, proj: NewProjector()}
}

// SetAuthenticated records a session change. Becoming authenticated
// triggers a fetch; losing authentication clears the view.
func (c *Calendar) SetAuthenticated(ctx context.Context, authed bool) (Model, error) {
	c.mu.Lock()
	was := c.authed
	c.authed = authed
	c.mu.Unlock()

	switch {
	case authed && !was:
		return c.Refresh(ctx)
	case !authed && was:
		return c.proj.Reset(), nil
	}
	return c.proj.Current(), nil
}

// Refresh fetches the full event list and applies it if it is still the
// newest response.
func (c *Calendar) Refresh(ctx context.Context) (Model, error) {
	ticket := c.proj.Begin()
	events, err := c.api.ListEvents(ctx)
	if err != nil {
		return c.proj.Current(), err
	}
	// A stale response leaves the newer model in place.
	model, _ := c.proj.Apply(ticket, events)
	return model, nil
}

func (c *Calendar) Create(ctx context.Context, req client.CreateEventRequest) (*client.Event, error) {
	ev, err := c.api.CreateEvent(ctx, req)
	if err != nil {
		return nil, err
	}
	return ev, c.refreshAfterMutation(ctx)
}

func (c *Calendar) Update(ctx context.Context, id int64, patch client.EventPatch) (*client.Event, error) {
	ev, err := c.api.UpdateEvent(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return ev, c.refreshAfterMutation(ctx)
}

func (c *Calendar) Delete(ctx context.Context, id int64) error {
	if err := c.api.DeleteEvent(ctx, id); err != nil {
		return err
	}
	return c.refreshAfterMutation(ctx)
}

func (c *Calendar) refreshAfterMutation(ctx context.Context) error {
	if _, err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	return nil
}

// ForceRedraw changes the model key without refetching.
func (c *Calendar) ForceRedraw() Model {
	return c.proj.Invalidate()
}

// View returns the current model.
func (c *Calendar) View() Model {
	return c.proj.Current()
}
