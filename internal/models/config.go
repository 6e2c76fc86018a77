package models

import "time"

// Store backends.
const (
	StoreBackendFile   = "file"
	StoreBackendSQLite = "sqlite"
	StoreBackendRedis  = "redis"
)

// AppConfig holds the complete clipperhub application configuration.
type AppConfig struct {
	Store    StoreConfig
	HTTP     HTTPSettings
	Server   ServerSettings
	Tracing  TracingSettings
	Defaults ConfigSet // deployment defaults, never persisted to the store
}

// StoreConfig selects and configures the settings storage backend.
type StoreConfig struct {
	Backend string // "file" (default), "sqlite", "redis"
	Path    string // file or sqlite database path
	Redis   *RedisConfig
}

// RedisConfig holds Redis connection settings for the redis backend.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// HTTPSettings configures outbound provider requests.
type HTTPSettings struct {
	Timeout time.Duration // transport timeout, no per-dispatch deadline is added on top
}

// ServerSettings configures the local HTTP API.
type ServerSettings struct {
	Addr string
}

// TracingSettings configures OpenTelemetry trace and metric export.
type TracingSettings struct {
	Endpoint string // OTLP/HTTP endpoint, empty disables export
	Insecure bool
}
