// Package config loads the service configuration from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/temporal-events/internal/store"
)

// Backends.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// DefaultCollection is the collection or table holding events.
const DefaultCollection = "events_temporal_features"

type SQLiteConfig struct {
	Path string `yaml:"path"` // default ~/.temporal-events/events.db
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Driver   string `yaml:"driver"` // pgx | pq
	MaxConns int    `yaml:"max_conns"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type IndexConfig struct {
	Enforce   bool `yaml:"enforce"`   // SQL backends refuse unindexed ordered queries
	Provision bool `yaml:"provision"` // ensure listing indexes on startup
}

type ListingConfig struct {
	FallbackFetchSize int `yaml:"fallback_fetch_size"`
}

type ServerConfig struct {
	ListenAddress  string        `yaml:"listen_address"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

type TracingConfig struct {
	Enable bool `yaml:"enable"`
}

type Config struct {
	Backend    string          `yaml:"backend"`
	Collection string          `yaml:"collection"`
	SQLite     SQLiteConfig    `yaml:"sqlite"`
	Postgres   PostgresConfig  `yaml:"postgres"`
	Firestore  FirestoreConfig `yaml:"firestore"`
	Indexes    IndexConfig     `yaml:"indexes"`
	Listing    ListingConfig   `yaml:"listing"`
	Server     ServerConfig    `yaml:"server"`
	Log        LogConfig       `yaml:"log"`
	Metrics    MetricsConfig   `yaml:"metrics"`
	Tracing    TracingConfig   `yaml:"tracing"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:    BackendSQLite,
		Collection: DefaultCollection,
		SQLite:     SQLiteConfig{Path: defaultSQLitePath()},
		Postgres:   PostgresConfig{Driver: "pgx"},
		Listing:    ListingConfig{FallbackFetchSize: store.DefaultFallbackFetchSize},
		Server: ServerConfig{
			ListenAddress:  ":3001",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			RequestTimeout: 10 * time.Second,
			MaxBodyBytes:   10 << 20,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func defaultSQLitePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".temporal-events", "events.db")
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&c.Backend, "TEMPORAL_EVENTS_BACKEND")
	str(&c.SQLite.Path, "TEMPORAL_EVENTS_DB")
	str(&c.Postgres.DSN, "DATABASE_URL")
	str(&c.Firestore.ProjectID, "FIREBASE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	str(&c.Firestore.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	str(&c.Log.Level, "LOG_LEVEL")

	if v, ok := lookup("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid PORT %q", v)
		}
		c.Server.ListenAddress = ":" + v
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn (or DATABASE_URL) is required")
		}
		if c.Postgres.MaxConns < 0 || c.Postgres.MaxConns > math.MaxInt32 {
			return fmt.Errorf("postgres.max_conns must be between 0 and %d", math.MaxInt32)
		}
		if c.Postgres.Driver != "" && c.Postgres.Driver != "pgx" && c.Postgres.Driver != "pq" {
			return fmt.Errorf("unknown postgres.driver %q", c.Postgres.Driver)
		}
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return errors.New("firestore.project_id (or FIREBASE_PROJECT_ID) is required")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.Collection == "" {
		return errors.New("collection is required")
	}
	if c.Listing.FallbackFetchSize <= 0 {
		return errors.New("listing.fallback_fetch_size must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	return nil
}
