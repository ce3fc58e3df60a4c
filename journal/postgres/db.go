package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/journal/schema"
)

var uploadColumns = schema.Columns{
	"id":            {Type: "uuid"},
	"path":          {Type: "text"},
	"bytes_written": {Type: "bigint"},
	"digest":        {Type: "text"},
	"remote_addr":   {Type: "text"},
	"created_at":    {Type: "timestamp with time zone"},
}

// ValidateSchema checks that the journal table exists in the current schema
// with the expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if !scopefs.IsValidTableName(table) {
		return fmt.Errorf("validate schema: invalid table name: %s", table)
	}

	got, err := tableColumns(ctx, pool, table)
	if err != nil {
		return fmt.Errorf("validate schema %s: %w", table, err)
	}

	if err := schema.Check(table, uploadColumns, got); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

func tableColumns(ctx context.Context, pool *pgxpool.Pool, table string) (schema.Columns, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	cols := make(schema.Columns)
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols[name] = schema.Column{Type: dataType, Nullable: nullable == "YES"}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	return cols, nil
}
