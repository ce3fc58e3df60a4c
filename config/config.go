package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/scopefs"
	scopehttp "github.com/sagarc03/scopefs/http"
	"github.com/sagarc03/scopefs/journal"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for scopefs.
type Config struct {
	Env         string               `mapstructure:"env" validate:"omitempty,oneof=dev development prod production"`
	Server      ServerConfig         `mapstructure:"server"`
	Storage     StorageConfig        `mapstructure:"storage"`
	Upload      UploadConfig         `mapstructure:"upload"`
	TLS         TLSConfig            `mapstructure:"tls"`
	Auth        AuthConfig           `mapstructure:"auth"`
	CORS        scopehttp.CORSConfig `mapstructure:"cors"`
	Compression CompressionConfig    `mapstructure:"compression"`
	Journal     journal.Config       `mapstructure:"journal"`
	Metrics     MetricsConfig        `mapstructure:"metrics"`
	Log         LogConfig            `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	Mode          string        `mapstructure:"mode" validate:"required,oneof=explorer static spa"`
	CacheControl  string        `mapstructure:"cache_control" validate:"required"`
	MaxUploadSize int64         `mapstructure:"max_upload_size" validate:"min=0"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// StorageConfig holds the read root.
type StorageConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// UploadConfig holds the upload root. An empty Path uploads into the
// storage root.
type UploadConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TLSConfig enables HTTPS with a certificate and key on disk.
type TLSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cert    string `mapstructure:"cert" validate:"required_if=Enabled true"`
	Key     string `mapstructure:"key" validate:"required_if=Enabled true"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Basic scopehttp.BasicAuthConfig `mapstructure:"basic"`
}

// CompressionConfig toggles response compression.
type CompressionConfig struct {
	Gzip bool `mapstructure:"gzip"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
}

// ServerMode returns the parsed server mode.
func (c *Config) ServerMode() (scopefs.ServerMode, error) {
	return scopefs.ParseServerMode(c.Server.Mode)
}

// CacheDirective returns the parsed Cache-Control directive for files.
func (c *Config) CacheDirective() (scopefs.CacheDirective, error) {
	return scopefs.ParseCacheDirective(c.Server.CacheControl)
}

// UploadRoot returns the directory uploads are written to.
func (c *Config) UploadRoot() string {
	if c.Upload.Path != "" {
		return c.Upload.Path
	}
	return c.Storage.Path
}

// IsProduction reports whether logs should be JSON.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"host":          "server.host",
	"port":          "server.port",
	"mode":          "server.mode",
	"cache-control": "server.cache_control",
	"storage-path":  "storage.path",
	"upload":        "upload.enabled",
	"upload-path":   "upload.path",
	"journal-type":  "journal.type",
	"journal-dsn":   "journal.dsn",
	"gzip":          "compression.gzip",
	"metrics":       "metrics.enabled",
	"log-level":     "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Every key
// gets a default so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 7878)
	v.SetDefault("server.mode", string(scopefs.ModeExplorer))
	v.SetDefault("server.cache_control", scopefs.DefaultCacheDirective.String())
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 0) // streams may run long
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("storage.path", ".")

	v.SetDefault("upload.enabled", false)
	v.SetDefault("upload.path", "")

	v.SetDefault("tls.enabled", false)
	v.SetDefault("tls.cert", "")
	v.SetDefault("tls.key", "")

	v.SetDefault("auth.basic.username", "")
	v.SetDefault("auth.basic.password", "")
	v.SetDefault("auth.basic.password_hash", "")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "HEAD", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization", "X-File-Name"})
	v.SetDefault("cors.exposed_headers", []string{"ETag", "Content-Length"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("compression.gzip", false)

	v.SetDefault("journal.type", journal.TypeNone)
	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.table", scopefs.DefaultJournalTable)

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("log.level", "")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/scopefs")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("SCOPEFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	if err := newValidator().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if _, err := cfg.CacheDirective(); err != nil {
		return nil, fmt.Errorf("validate config: server.cache_control: %w", err)
	}

	if cfg.Journal.Enabled() {
		if err := scopefs.ValidateTableName(cfg.Journal.Table); err != nil {
			return nil, fmt.Errorf("validate config: journal.table: %w", err)
		}
	}

	return &cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterStructValidation(validateBasicAuth, scopehttp.BasicAuthConfig{})
	return validate
}

// validateBasicAuth requires a password or a bcrypt hash once a username
// is configured.
func validateBasicAuth(sl validator.StructLevel) {
	auth := sl.Current().Interface().(scopehttp.BasicAuthConfig)
	if auth.Username != "" && auth.Password == "" && auth.PasswordHash == "" {
		sl.ReportError(auth.Password, "Password", "password", "required_with_username", "")
	}
}
