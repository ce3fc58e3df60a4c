package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the journal table and its index if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if err := createUploadTable(ctx, pool, table); err != nil {
		return fmt.Errorf("migrate up %s: %w", table, err)
	}
	return nil
}

// DropTables removes the journal table.
func DropTables(ctx context.Context, pool *pgxpool.Pool, table string) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{table}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("migrate down %s: %w", table, err)
	}
	return nil
}

func createUploadTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexCreatedAt := pgx.Identifier{fmt.Sprintf("idx_%s_created_at", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			path TEXT NOT NULL,
			bytes_written BIGINT NOT NULL,
			digest TEXT NOT NULL,
			remote_addr TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC);
	`,
		quotedTable,
		indexCreatedAt, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create upload table: %w", err)
	}
	return nil
}
