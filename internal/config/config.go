package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures where action events live and how reports are produced and served.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Report    ReportConfig    `yaml:"report"`
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
	Publish   PublishConfig   `yaml:"publish"`
}

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type StoreConfig struct {
	// mongo, sqlite or memory
	Driver string `yaml:"driver"`
	// Mongo connection string. If empty, read from env MONGODB_URI
	URI string `yaml:"uri"`
	// If empty, read from env MONGODB_DATABASE
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	// SQLite file used by the sqlite driver
	DBPath  string        `yaml:"dbPath"`
	Timeout time.Duration `yaml:"timeout"`
}

type ReportConfig struct {
	WindowDays       int `yaml:"windowDays"`
	LeaderboardLimit int `yaml:"leaderboardLimit"`
}

type ServerConfig struct {
	Addr  string  `yaml:"addr"`
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MetricsConfig struct {
	// Separate metrics listener; the API server also exposes /metrics.
	Addr string `yaml:"addr"`
}

type TelemetryConfig struct {
	// OTLP gRPC endpoint; tracing is disabled when empty
	Endpoint      string  `yaml:"endpoint"`
	ServiceName   string  `yaml:"serviceName"`
	Insecure      bool    `yaml:"insecure"`
	SamplingRatio float64 `yaml:"samplingRatio"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

type PublishConfig struct {
	// S3 bucket for exported workbooks; publishing is disabled when empty
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver:     DriverMongo,
			Collection: "twitter_actions",
			DBPath:     "./tweetpulse.db",
			Timeout:    10 * time.Second,
		},
		Report:    ReportConfig{WindowDays: 7, LeaderboardLimit: 5},
		Server:    ServerConfig{Addr: ":8080", RPS: 5, Burst: 20},
		Telemetry: TelemetryConfig{ServiceName: "tweetpulse", Insecure: true, SamplingRatio: 1},
		Log:       LogConfig{Level: "info", Format: "json"},
		Publish:   PublishConfig{Prefix: "reports"},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("TWEETPULSE_STORE"); v != "" {
		c.Store.Driver = v
	}
	if c.Store.URI == "" {
		c.Store.URI = os.Getenv("MONGODB_URI")
	}
	if c.Store.Database == "" {
		c.Store.Database = os.Getenv("MONGODB_DATABASE")
	}
	if v := os.Getenv("MONGODB_COLLECTION"); v != "" {
		c.Store.Collection = v
	}
	if v := os.Getenv("TWEETPULSE_DB_PATH"); v != "" {
		c.Store.DBPath = v
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if v := os.Getenv("TWEETPULSE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if c.Publish.Bucket == "" {
		c.Publish.Bucket = os.Getenv("TWEETPULSE_S3_BUCKET")
	}
	if v := os.Getenv("REPORT_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Report.WindowDays = n
		}
	}
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.URI == "" {
			return errors.New("store: mongo driver needs a uri (MONGODB_URI)")
		}
		if c.Store.Database == "" {
			return errors.New("store: mongo driver needs a database (MONGODB_DATABASE)")
		}
	case DriverSQLite:
		if c.Store.DBPath == "" {
			return errors.New("store: sqlite driver needs dbPath")
		}
	case DriverMemory:
	default:
		return errors.Newf("store: unknown driver %q", c.Store.Driver)
	}
	if c.Report.WindowDays <= 0 {
		return errors.New("report: windowDays must be positive")
	}
	if c.Report.LeaderboardLimit <= 0 {
		return errors.New("report: leaderboardLimit must be positive")
	}
	return nil
}

// LoadDotEnv loads variables from .env files without overriding the
// environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(existing...), "load .env")
}

// Load reads YAML config from path on top of Default. A missing file yields
// the defaults; environment variables are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse %s", path)
			}
		case !os.IsNotExist(err):
			return cfg, errors.Wrapf(err, "read %s", path)
		}
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
