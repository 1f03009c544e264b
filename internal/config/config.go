// Package config provides configuration structures and validation for the logbook binaries.
// It handles environment-based configuration for the local store, the sync pipeline, the
// caching layer, and the optional collaborators (Kafka, MongoDB, PostgreSQL).
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Cache strategies accepted by CACHE_STRATEGY
const (
	CacheStrategyCacheFirst   = "cache_first"
	CacheStrategyNetworkFirst = "network_first"
)

// Config holds the complete application configuration with settings for all components.
// The same structure is shared by the logbook app, the sheet endpoint and the CLI; optional
// subsystems are switched off by leaving their address empty.
type Config struct {
	Application  ApplicationConfig
	Logging      LoggingConfig
	Server       ServerConfig
	SQLite       SQLiteConfig
	Sync         SyncConfig
	Connectivity ConnectivityConfig
	Cache        CacheConfig
	Archive      ArchiveConfig
	Kafka        KafkaConfig
	Postgres     PostgresConfig
	MongoDB      MongoDBConfig
	Sheet        SheetConfig
	WorkerPool   WorkerPoolConfig
}

// ApplicationConfig tags log records
type ApplicationConfig struct {
	Env  string
	Name string
}

type LoggingConfig struct {
	Level string
}

// ServerConfig is shared by the app status API and the sheet endpoint
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// SQLiteConfig contains the local durable store configuration
type SQLiteConfig struct {
	Path string // Database file, created on first start
}

// SyncConfig contains the remote sheet synchronisation settings
type SyncConfig struct {
	EndpointURL        string        // Remote append endpoint
	RequestTimeout     time.Duration // Hard timeout per send
	Interval           time.Duration // Periodic sync interval
	AlertAfterAttempts int           // Failed attempts before an entry is reported on the DLQ
}

// ConnectivityConfig contains the online/offline probe settings
type ConnectivityConfig struct {
	ProbeURL      string // Defaults to the sync endpoint
	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

// CacheConfig contains the asset caching layer settings
type CacheConfig struct {
	Strategy       string   // cache_first or network_first
	Generation     string   // Name of the active cache generation
	AssetOrigin    string   // Base URL the application assets are fetched from
	CoreAssets     []string // Paths pre-populated on install, relative to AssetOrigin
	BypassHosts    []string // Hosts never served from or written to the cache
	RefreshTimeout time.Duration
}

// ArchiveConfig contains retention settings for synced entries
type ArchiveConfig struct {
	Interval  time.Duration
	Retention time.Duration // Synced entries older than this are archived; 0 disables
	BatchSize int
}

// KafkaConfig covers both the event producer and the logbookctl events consumer
type KafkaConfig struct {
	Brokers           string // Empty disables event publishing
	SyncEventsTopic   string
	NumPartitions     int // Used only when a topic has to be created
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	DLQTopic          string // Topic for entries stuck beyond the alert threshold
}

// PostgresConfig is only read by the sheet endpoint
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string // Directory of the sheet schema migrations
}

// MongoDBConfig points at the archive
type MongoDBConfig struct {
	URI             string // Empty disables archiving
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// SheetConfig contains settings of the reference sheet endpoint
type SheetConfig struct {
	Name string
}

type WorkerPoolConfig struct {
	Size int // Maximum number of concurrent entry sends
}

// KafkaEnabled reports whether sync events should be published
func (c *Config) KafkaEnabled() bool {
	return strings.TrimSpace(c.Kafka.Brokers) != ""
}

// ArchiveEnabled reports whether synced entries are moved to MongoDB
func (c *Config) ArchiveEnabled() bool {
	return strings.TrimSpace(c.MongoDB.URI) != "" && c.Archive.Retention > 0
}

// validate collects every problem instead of stopping at the first one
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	if c.SQLite.Path == "" {
		validationErrors = append(validationErrors, "SQLITE_PATH is required")
	}

	if !isHTTPURL(c.Sync.EndpointURL) {
		validationErrors = append(validationErrors, "SYNC_ENDPOINT_URL must be an absolute http(s) URL")
	}
	if c.Sync.RequestTimeout <= 0 {
		validationErrors = append(validationErrors, "SYNC_REQUEST_TIMEOUT must be greater than 0")
	}
	if c.Sync.Interval <= 0 {
		validationErrors = append(validationErrors, "SYNC_INTERVAL must be greater than 0")
	}
	if c.Sync.AlertAfterAttempts <= 0 {
		validationErrors = append(validationErrors, "SYNC_ALERT_AFTER_ATTEMPTS must be greater than 0")
	}

	if c.Connectivity.ProbeURL != "" && !isHTTPURL(c.Connectivity.ProbeURL) {
		validationErrors = append(validationErrors, "CONNECTIVITY_PROBE_URL must be an absolute http(s) URL")
	}
	if c.Connectivity.ProbeInterval <= 0 {
		validationErrors = append(validationErrors, "CONNECTIVITY_PROBE_INTERVAL must be greater than 0")
	}
	if c.Connectivity.ProbeTimeout <= 0 {
		validationErrors = append(validationErrors, "CONNECTIVITY_PROBE_TIMEOUT must be greater than 0")
	}

	if c.Cache.Strategy != CacheStrategyCacheFirst && c.Cache.Strategy != CacheStrategyNetworkFirst {
		validationErrors = append(validationErrors, "CACHE_STRATEGY must be cache_first or network_first")
	}
	if c.Cache.Generation == "" {
		validationErrors = append(validationErrors, "CACHE_GENERATION is required")
	}
	if !isHTTPURL(c.Cache.AssetOrigin) {
		validationErrors = append(validationErrors, "CACHE_ASSET_ORIGIN must be an absolute http(s) URL")
	}
	if c.Cache.RefreshTimeout <= 0 {
		validationErrors = append(validationErrors, "CACHE_REFRESH_TIMEOUT must be greater than 0")
	}

	if c.Archive.Interval <= 0 {
		validationErrors = append(validationErrors, "ARCHIVE_INTERVAL must be greater than 0")
	}
	if c.Archive.Retention < 0 {
		validationErrors = append(validationErrors, "ARCHIVE_RETENTION must not be negative")
	}
	if c.Archive.BatchSize <= 0 {
		validationErrors = append(validationErrors, "ARCHIVE_BATCH_SIZE must be greater than 0")
	}

	// Kafka and MongoDB are checked only when switched on
	if c.KafkaEnabled() {
		if c.Kafka.SyncEventsTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_SYNC_EVENTS_TOPIC is required")
		}
		if c.Kafka.ConsumerGroup == "" {
			validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
		}
		if c.Kafka.MinBytes <= 0 {
			validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
		}
		if c.Kafka.MaxBytes <= 0 {
			validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
		}
		if c.Kafka.MaxWait <= 0 {
			validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
		}
	}

	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	if c.MongoDB.URI != "" {
		if c.MongoDB.Database == "" {
			validationErrors = append(validationErrors, "MONGO_DATABASE is required")
		}
		if c.MongoDB.Timeout <= 0 {
			validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
		}
		if c.MongoDB.MaxPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
		}
		if c.MongoDB.MinPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
		}
		if c.MongoDB.MaxConnIdleTime <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
		}
	}

	if c.Sheet.Name == "" {
		validationErrors = append(validationErrors, "SHEET_NAME is required")
	}

	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
