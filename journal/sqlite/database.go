package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/scopefs"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db    *sql.DB
	table string
}

// Connect opens a SQLite database. The table name should be validated
// before calling Connect.
func Connect(ctx context.Context, dsn string, table string) (*database, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// SQLite serializes writers; one connection also keeps :memory: databases
	// alive across calls.
	db.SetMaxOpenConns(1)

	return &database{
		db:    db,
		table: table,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.table); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.table)
}

// Journal returns the upload journal backed by this database.
func (d *database) Journal() scopefs.UploadLog {
	return &repo{db: d.db, tableName: d.table}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}
