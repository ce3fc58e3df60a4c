// Package postgres implements the upload journal using PostgreSQL
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/scopefs"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, table string) (*Repo, error) {
	if err := scopefs.ValidateTableName(table); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: table}, nil
}

func (r *Repo) Record(ctx context.Context, rec scopefs.UploadRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, path, bytes_written, digest, remote_addr, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, pgx.Identifier{r.tableName}.Sanitize())

	_, err := r.pool.Exec(ctx, query,
		rec.ID, rec.Path, rec.BytesWritten, rec.Digest, rec.RemoteAddr, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

func (r *Repo) List(ctx context.Context, limit int) ([]scopefs.UploadRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("list: %w: limit must be positive", scopefs.ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		SELECT id, path, bytes_written, digest, remote_addr, created_at
		FROM %s
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, pgx.Identifier{r.tableName}.Sanitize())

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	records := make([]scopefs.UploadRecord, 0, limit)
	for rows.Next() {
		var rec scopefs.UploadRecord
		if err := rows.Scan(&rec.ID, &rec.Path, &rec.BytesWritten, &rec.Digest, &rec.RemoteAddr, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return records, nil
}
