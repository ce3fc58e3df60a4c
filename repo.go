package scopefs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// UploadJournal records completed uploads.
type UploadJournal interface {
	Record(ctx context.Context, rec UploadRecord) error
}

// UploadLog is an UploadJournal that can be read back, newest first.
type UploadLog interface {
	UploadJournal
	List(ctx context.Context, limit int) ([]UploadRecord, error)
}

// DefaultJournalTable is the table name used when none is configured.
const DefaultJournalTable = "scopefs_uploads"

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// ValidateTableName checks that a journal table name is set and valid.
func ValidateTableName(name string) error {
	if name == "" {
		return errors.New("validate table: table name cannot be empty")
	}

	if !IsValidTableName(name) {
		return fmt.Errorf("validate table: invalid table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", name)
	}

	return nil
}
