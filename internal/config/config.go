// Package config loads and validates archiver configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Cache   CacheConfig   `mapstructure:"cache"`
	DB      DBConfig      `mapstructure:"db"`
	Ingest  IngestConfig  `mapstructure:"ingest"`
	Publish PublishConfig `mapstructure:"publish"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig locates the archive site. Paths are fmt patterns taking the
// show id or season number.
type SourceConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ShowPath   string `mapstructure:"show_path"`
	SeasonPath string `mapstructure:"season_path"`
}

// FetchConfig controls request identity, politeness and retries.
type FetchConfig struct {
	UserAgent      string        `mapstructure:"user_agent"`
	MinInterval    time.Duration `mapstructure:"min_interval"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BackoffInitial time.Duration `mapstructure:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max"`
}

// CacheConfig selects the page cache backend.
type CacheConfig struct {
	Driver    string `mapstructure:"driver"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// DBConfig selects the relational store.
type DBConfig struct {
	Driver     string `mapstructure:"driver"`
	DSN        string `mapstructure:"dsn"`
	SchemaFile string `mapstructure:"schema_file"`
	MaxConns   int32  `mapstructure:"max_conns"`
}

// IngestConfig lists what the ingest command processes by default.
type IngestConfig struct {
	Seasons []int   `mapstructure:"seasons"`
	Shows   []int64 `mapstructure:"shows"`
	Limit   int     `mapstructure:"limit"`
}

// PublishConfig holds the Pub/Sub destination for ingestion notices. An empty
// topic disables publishing.
type PublishConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Cache and database drivers.
const (
	CacheLocal  = "local"
	CacheMemory = "memory"
	CacheGCS    = "gcs"

	DBSQLite   = "sqlite"
	DBPostgres = "postgres"
)

// Load builds a Config from defaults, an optional file and ARCHIVER_* env vars.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARCHIVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://www.j-archive.com")
	v.SetDefault("source.show_path", "/showgame.php?game_id=%d")
	v.SetDefault("source.season_path", "/showseason.php?season=%d")
	v.SetDefault("fetch.user_agent", "JeopardyStudyBot/1.0 (contact: you@example.com)")
	v.SetDefault("fetch.min_interval", "1.2s")
	v.SetDefault("fetch.timeout", "20s")
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("fetch.backoff_initial", "500ms")
	v.SetDefault("fetch.backoff_max", "5s")
	v.SetDefault("cache.driver", CacheLocal)
	v.SetDefault("cache.dir", "cache_html")
	v.SetDefault("cache.gcs_bucket", "")
	v.SetDefault("cache.gcs_prefix", "")
	v.SetDefault("db.driver", DBSQLite)
	v.SetDefault("db.dsn", "jarchive.sqlite3")
	v.SetDefault("db.schema_file", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("ingest.seasons", []int{})
	v.SetDefault("ingest.shows", []int64{})
	v.SetDefault("ingest.limit", 0)
	v.SetDefault("publish.project_id", "")
	v.SetDefault("publish.topic", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_key", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if !strings.Contains(c.Source.ShowPath, "%d") {
		return fmt.Errorf("source.show_path must contain %%d")
	}
	if !strings.Contains(c.Source.SeasonPath, "%d") {
		return fmt.Errorf("source.season_path must contain %%d")
	}
	if c.Fetch.MinInterval < 0 {
		return fmt.Errorf("fetch.min_interval must be >= 0")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must be >= 0")
	}
	if c.Fetch.BackoffInitial < 0 || c.Fetch.BackoffMax < 0 {
		return fmt.Errorf("fetch backoff durations must be >= 0")
	}
	switch c.Cache.Driver {
	case CacheLocal:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache.dir is required for the local cache")
		}
	case CacheMemory:
	case CacheGCS:
		if c.Cache.GCSBucket == "" {
			return fmt.Errorf("cache.gcs_bucket is required for the gcs cache")
		}
	default:
		return fmt.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}
	switch c.DB.Driver {
	case DBSQLite, DBPostgres:
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.Ingest.Limit < 0 {
		return fmt.Errorf("ingest.limit must be >= 0")
	}
	if c.Publish.Topic != "" && c.Publish.ProjectID == "" {
		return fmt.Errorf("publish.project_id is required when publish.topic is set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}
