// Package projection keeps the client-side display model of a calendar.
//
// Every fetch replaces the whole model. Fetches are numbered when they
// start, and a response is only applied if no later fetch has been applied
// already, so a slow response can never overwrite fresher data.
package projection

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"personal-calendar/internal/client"
)

type OwnerMeta struct {
	UserID    int64
	CreatedAt time.Time
}

// Item is one event in display form.
type Item struct {
	ID          int64
	Title       string
	Description *string
	Contacts    *string
	Start       time.Time
	End         time.Time
	Owner       OwnerMeta
}

// Model is a full snapshot of the calendar.
type Model struct {
	Items    []Item
	Revision uint64
}

// Key digests the item count, the sorted ids, every item's bounds and
// title, and the revision. Any content change or forced refresh yields a
// new key.
func (m Model) Key() string {
	ids := make([]int64, len(m.Items))
	bounds := make([]string, len(m.Items))
	titles := make([]string, len(m.Items))
	for i, it := range m.Items {
		ids[i] = it.ID
		bounds[i] = fmt.Sprintf("%d-%d", it.Start.UnixMilli(), it.End.UnixMilli())
		titles[i] = it.Title
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	idStrs := make([]string, len(ids))
	for i, id := range ids {
		idStrs[i] = strconv.FormatInt(id, 10)
	}

	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00%s\x00%d",
		len(m.Items),
		strings.Join(idStrs, ","),
		strings.Join(bounds, ","),
		strings.Join(titles, "\x1f"),
		m.Revision,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// Ticket identifies one fetch.
type Ticket uint64

// Projector owns the current Model. It is safe for concurrent use.
type Projector struct {
	mu       sync.Mutex
	issued   uint64
	applied  uint64
	revision uint64
	model    Model
}

func NewProjector() *Projector {
	return &Projector{model: Model{Items: []Item{}}}
}

// Begin numbers a fetch that is about to start.
func (p *Projector) Begin() Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	return Ticket(p.issued)
}

// Apply replaces the model with one built from events, unless a fetch that
// began later has already been applied. It reports whether the model changed.
func (p *Projector) Apply(t Ticket, events []client.Event) (Model, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if uint64(t) <= p.applied {
		return p.snapshot(), false
	}
	p.applied = uint64(t)
	p.revision++
	p.model = Model{Items: build(events), Revision: p.revision}
	return p.snapshot(), true
}

// Invalidate bumps the revision so the next Key differs even though the
// items are unchanged.
func (p *Projector) Invalidate() Model {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revision++
	p.model.Revision = p.revision
	return p.snapshot()
}

// Reset empties the model and discards every fetch still in flight.
func (p *Projector) Reset() Model {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applied = p.issued
	p.revision++
	p.model = Model{Items: []Item{}, Revision: p.revision}
	return p.snapshot()
}

// Current returns a copy of the model.
func (p *Projector) Current() Model {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Projector) snapshot() Model {
	return Model{Items: cloneItems(p.model.Items), Revision: p.model.Revision}
}

func build(events []client.Event) []Item {
	items := make([]Item, 0, len(events))
	for _, e := range events {
		items = append(items, Item{
			ID:          e.ID,
			Title:       e.Title,
			Description: cloneString(e.Description),
			Contacts:    cloneString(e.Contacts),
			Start:       e.StartDate.UTC(),
			End:         e.EndDate.UTC(),
			Owner: OwnerMeta{
				UserID:    e.UserID,
				CreatedAt: e.CreatedAt.UTC(),
			},
		})
	}
	return items
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		it.Description = cloneString(it.Description)
		it.Contacts = cloneString(it.Contacts)
		out[i] = it
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
