// Package config provides configuration loading and validation for scopefs.
//
// The package handles YAML or TOML configuration files, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (SCOPEFS_ prefix)
//  4. CLI flags that were explicitly set
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with SCOPEFS_ prefix:
//   - server.port → SCOPEFS_SERVER_PORT
//   - upload.enabled → SCOPEFS_UPLOAD_ENABLED
//   - auth.basic.password_hash → SCOPEFS_AUTH_BASIC_PASSWORD_HASH
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: host, port, mode (explorer/static/spa), cache_control,
//     max_upload_size and timeouts
//   - Storage: the read root
//   - Upload: enabled flag and upload root (defaults to the read root)
//   - TLS: certificate and key
//   - Auth: optional HTTP basic credentials
//   - CORS, Compression, Metrics: HTTP extras
//   - Journal: upload journal backend (none/sqlite/postgres)
//   - Log: logging level; Env selects text or JSON logs
//
// # Validation
//
// Configuration is validated using struct tags and a few checks that need
// domain parsing: the cache directive, the journal table name and the
// basic auth password.
package config
