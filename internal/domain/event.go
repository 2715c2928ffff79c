package domain

import "time"

// MaxTitleLength bounds Event.Title, matching the events.title column.
const MaxTitleLength = 200

// Event is a time-bounded calendar entry owned by a single user.
// Description and Contacts are nil when absent; they are never stored as "".
type Event struct {
	ID          int64
	UserID      int64
	Title       string
	Description *string
	Contacts    *string
	Start       time.Time
	End         time.Time
	CreatedAt   time.Time
}

type textChangeKind uint8

const (
	textUnspecified textChangeKind = iota
	textClear
	textSet
)

// TextChange is the update instruction for an optional text column.
// The zero value leaves the column untouched.
type TextChange struct {
	kind  textChangeKind
	value string
}

// ClearText stores the column as absent.
func ClearText() TextChange { return TextChange{kind: textClear} }

// SetText stores v. An empty v is collapsed to ClearText.
func SetText(v string) TextChange {
	if v == "" {
		return ClearText()
	}
	return TextChange{kind: textSet, value: v}
}

// Specified reports whether the change touches the column at all.
func (c TextChange) Specified() bool { return c.kind != textUnspecified }

// Value returns the value to persist; nil means absent.
func (c TextChange) Value() *string {
	if c.kind != textSet {
		return nil
	}
	v := c.value
	return &v
}

// EventChanges lists staged column updates for an event. Nil pointers and
// unspecified TextChange values are left untouched by the store.
type EventChanges struct {
	Title       *string
	Description TextChange
	Contacts    TextChange
	Start       *time.Time
	End         *time.Time
}

// Empty reports whether no column is staged.
func (c EventChanges) Empty() bool {
	return c.Title == nil &&
		!c.Description.Specified() &&
		!c.Contacts.Specified() &&
		c.Start == nil &&
		c.End == nil
}

// Apply returns a copy of e with the staged changes applied.
func (c EventChanges) Apply(e Event) Event {
	if c.Title != nil {
		e.Title = *c.Title
	}
	if c.Description.Specified() {
		e.Description = c.Description.Value()
	}
	if c.Contacts.Specified() {
		e.Contacts = c.Contacts.Value()
	}
	if c.Start != nil {
		e.Start = *c.Start
	}
	if c.End != nil {
		e.End = *c.End
	}
	return e
}
