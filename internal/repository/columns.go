package repository

import (
	"fmt"
	"strings"

	"personal-calendar/internal/domain"
)

// Assignment is a single "column = value" pair of an UPDATE statement.
type Assignment struct {
	Column string
	Value  any
}

// EventAssignments turns staged changes into column assignments in a fixed
// column order. Times are normalized to UTC.
func EventAssignments(changes domain.EventChanges) []Assignment {
	var out []Assignment
	if changes.Title != nil {
		out = append(out, Assignment{Column: "title", Value: *changes.Title})
	}
	if changes.Description.Specified() {
		out = append(out, Assignment{Column: "description", Value: nullString(changes.Description.Value())})
	}
	if changes.Contacts.Specified() {
		out = append(out, Assignment{Column: "contacts", Value: nullString(changes.Contacts.Value())})
	}
	if changes.Start != nil {
		out = append(out, Assignment{Column: "start_date", Value: changes.Start.UTC()})
	}
	if changes.End != nil {
		out = append(out, Assignment{Column: "end_date", Value: changes.End.UTC()})
	}
	return out
}

// SetClause renders assignments as "a = $1, b = $2" using placeholder to
// format the n-th (1-based) parameter. It also returns the argument list.
func SetClause(assignments []Assignment, placeholder func(n int) string) (string, []any) {
	parts := make([]string, len(assignments))
	args := make([]any, len(assignments))
	for i, a := range assignments {
		parts[i] = fmt.Sprintf("%s = %s", a.Column, placeholder(i+1))
		args[i] = a.Value
	}
	return strings.Join(parts, ", "), args
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
