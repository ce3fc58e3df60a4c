// Package sqlite implements the upload journal using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/scopefs"
)

// timeFormat is fixed width so created_at sorts correctly as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type repo struct {
	db        *sql.DB
	tableName string
}

// NewRepo returns a journal over an already migrated table.
func NewRepo(db *sql.DB, table string) (scopefs.UploadLog, error) {
	if err := scopefs.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &repo{db: db, tableName: table}, nil
}

func (r *repo) Record(ctx context.Context, rec scopefs.UploadRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, path, bytes_written, digest, remote_addr, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

	_, err := r.db.ExecContext(ctx, query,
		rec.ID.String(), rec.Path, rec.BytesWritten, rec.Digest, rec.RemoteAddr,
		rec.CreatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *repo) List(ctx context.Context, limit int) ([]scopefs.UploadRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list: %w: limit must be positive", scopefs.ErrInvalidInput)
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, path, bytes_written, digest, remote_addr, created_at
		FROM %s
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, quoteIdentifier(r.tableName))

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]scopefs.UploadRecord, 0, limit)
	for rows.Next() {
		var rec scopefs.UploadRecord
		var idStr, createdAt string

		if err := rows.Scan(&idStr, &rec.Path, &rec.BytesWritten, &rec.Digest, &rec.RemoteAddr, &createdAt); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}

		rec.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("list: parse uuid: %w", err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("list: parse created_at: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return records, nil
}
