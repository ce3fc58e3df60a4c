package journal

import (
	"context"
	"fmt"

	"github.com/sagarc03/scopefs"
	"github.com/sagarc03/scopefs/journal/postgres"
	"github.com/sagarc03/scopefs/journal/sqlite"
)

// Backend types accepted in Config.Type.
const (
	TypeNone     = "none"
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Config holds the configuration for connecting to a journal backend.
type Config struct {
	// Type specifies the backend: "none", "sqlite" or "postgres"
	Type string `mapstructure:"type" validate:"required,oneof=none sqlite postgres"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn" validate:"required_unless=Type none"`
	// Table is the name of the upload table
	Table string `mapstructure:"table" validate:"required"`
}

// Enabled reports whether uploads should be journaled.
func (c Config) Enabled() bool {
	return c.Type != "" && c.Type != TypeNone
}

// Database is a connected journal backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	Journal() scopefs.UploadLog
	Close() error
}

// Connect opens the configured backend. It does not migrate; call Migrate
// then Validate before handing out the journal.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := scopefs.ValidateTableName(cfg.Table); err != nil {
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	switch cfg.Type {
	case TypeSQLite:
		db, err := sqlite.Connect(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		return db, nil
	case TypePostgres:
		db, err := postgres.Connect(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported journal type: %s", cfg.Type)
	}
}

// Open connects, migrates and validates, returning a ready journal and a
// cleanup function that closes the connection.
func Open(ctx context.Context, cfg Config) (scopefs.UploadLog, func(), error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db.Journal(), cleanup, nil
}
