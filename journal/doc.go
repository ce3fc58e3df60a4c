// Package journal connects the upload journal to its storage backend.
//
// Every successful upload can be recorded as one row (id, path, bytes
// written, SHA-256 digest, remote address, time). The journal is append
// only and read back newest first.
//
// # Supported Backends
//
//   - PostgreSQL: pgx connection pool, for shared deployments
//   - SQLite: modernc.org/sqlite, a single file next to the server
//
// # Usage
//
//	cfg := journal.Config{
//	    Type:  "sqlite",
//	    DSN:   "scopefs.db",
//	    Table: "scopefs_uploads",
//	}
//
//	log, cleanup, err := journal.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// Open connects, creates the table if needed and validates its columns
// before returning.
//
// # Subpackages
//
//   - journal/postgres: PostgreSQL implementation using pgx
//   - journal/sqlite: SQLite implementation using modernc.org/sqlite
//   - journal/schema: column checks shared by both backends
package journal
