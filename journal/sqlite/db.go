package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/journal/schema"
)

var uploadColumns = schema.Columns{
	"id":            {Type: "text"},
	"path":          {Type: "text"},
	"bytes_written": {Type: "integer"},
	"digest":        {Type: "text"},
	"remote_addr":   {Type: "text"},
	"created_at":    {Type: "text"},
}

// ValidateSchema checks that the journal table exists with the expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, table string) error {
	if !scopefs.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	got, err := tableColumns(ctx, db, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	if err := schema.Check(table, uploadColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// tableColumns reads PRAGMA table_info, which yields no rows for a missing table.
func tableColumns(ctx context.Context, db *sql.DB, table string) (schema.Columns, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols := make(schema.Columns)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, dataType   string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = schema.Column{Type: dataType, Nullable: notNull == 0}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return cols, nil
}
