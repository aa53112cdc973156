// Package config loads roster service settings from environment variables.
// Defaults are applied for anything unset and the result is validated on
// startup so a misconfigured process never begins serving.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Storage     StorageConfig
	Import      ImportConfig
	Rate        RateLimitConfig
	Security    SecurityConfig
	Logging     LoggingConfig
	ContactSync ContactSyncConfig
	Archive     ArchiveConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for
	// in-flight imports to drain (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for API requests other than
	// imports (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds PostgreSQL connection settings. Only consulted when
// the storage driver is postgres.
type DatabaseConfig struct {
	// URL accepts DATABASE_URL or DB_URL
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// StorageConfig selects the patient store backend.
type StorageConfig struct {
	// Driver is one of postgres, sqlite, memory (default: postgres)
	Driver string `env:"STORAGE_DRIVER" default:"postgres"`

	// SQLitePath is the database file used by the sqlite driver
	SQLitePath string `env:"SQLITE_PATH" default:"roster.db"`

	// SeedTenants registers tenants at startup, as "id" or "id:Name", comma separated
	SeedTenants []string `env:"STORAGE_SEED_TENANTS"`
}

// ImportConfig holds roster import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 5MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"5242880"`

	// MaxConcurrent is the number of imports allowed to run at once (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ImportLimit is requests per minute for import endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" envAlt:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey gates /api routes behind X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ContactSyncConfig configures the post-create contact sync hook.
type ContactSyncConfig struct {
	// RedisURL enables publishing new patients to a Redis stream when set
	RedisURL string `env:"CONTACT_SYNC_REDIS_URL"`

	// Stream is the Redis stream key (default: roster:contacts)
	Stream string `env:"CONTACT_SYNC_STREAM" default:"roster:contacts"`
}

// ArchiveConfig configures where export payloads are kept.
type ArchiveConfig struct {
	// Driver is one of none, fs, s3 (default: none)
	Driver string `env:"ARCHIVE_DRIVER" default:"none"`

	Dir       string `env:"ARCHIVE_DIR" default:"exports"`
	Bucket    string `env:"ARCHIVE_S3_BUCKET"`
	Region    string `env:"ARCHIVE_S3_REGION" default:"us-east-1"`
	Endpoint  string `env:"ARCHIVE_S3_ENDPOINT"`
	PathStyle bool   `env:"ARCHIVE_S3_PATH_STYLE" default:"false"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
