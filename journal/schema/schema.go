// Package schema compares a journal table's live columns with the columns
// the backend expects.
package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrNoTable is returned when the table has no columns at all.
var ErrNoTable = errors.New("table does not exist")

// Column describes one column as reported by the database catalog.
type Column struct {
	Type     string
	Nullable bool
}

// Columns maps column name to its description.
type Columns map[string]Column

// MismatchError lists every difference found by Check.
type MismatchError struct {
	Table      string
	Missing    []string
	Mismatched []string
}

func (e *MismatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "table %s does not match the journal schema", e.Table)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&sb, "; missing columns: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Mismatched) > 0 {
		fmt.Fprintf(&sb, "; mismatched columns: %s", strings.Join(e.Mismatched, ", "))
	}
	return sb.String()
}

// Check returns nil when got carries every column of want with the same
// type and nullability. Extra columns in got are allowed. Types are
// compared case-insensitively.
func Check(table string, want, got Columns) error {
	if len(got) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTable, table)
	}

	mismatch := &MismatchError{Table: table}
	for _, name := range slices.Sorted(maps.Keys(want)) {
		w := want[name]
		g, ok := got[name]
		if !ok {
			mismatch.Missing = append(mismatch.Missing, name)
			continue
		}

		if !strings.EqualFold(g.Type, w.Type) {
			mismatch.Mismatched = append(mismatch.Mismatched, fmt.Sprintf("%s (want %s, got %s)", name, w.Type, strings.ToLower(g.Type)))
		}
		if g.Nullable != w.Nullable {
			mismatch.Mismatched = append(mismatch.Mismatched, fmt.Sprintf("%s (want nullable=%t, got nullable=%t)", name, w.Nullable, g.Nullable))
		}
	}

	if len(mismatch.Missing) == 0 && len(mismatch.Mismatched) == 0 {
		return nil
	}
	return mismatch
}
