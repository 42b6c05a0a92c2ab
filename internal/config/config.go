// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/coverletter/internal/letter"
)

// Backend names accepted by the storage, metadata and pubsub sections.
const (
	BackendMemory   = "memory"
	BackendLocal    = "local"
	BackendGCS      = "gcs"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendPubSub   = "pubsub"
	BackendNone     = "none"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Acquire   AcquireConfig   `mapstructure:"acquire"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Profile   letter.Profile  `mapstructure:"profile"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	DB        DBConfig        `mapstructure:"db"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int      `mapstructure:"port"`
	CORSOrigins           []string `mapstructure:"cors_origins"`
	MaxUploadMB           int      `mapstructure:"max_upload_mb"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// HTTPConfig configures the static posting fetch.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// HeadlessConfig configures the browser rendering stage.
type HeadlessConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	MaxParallel   int    `mapstructure:"max_parallel"`
	WaitSeconds   int    `mapstructure:"wait_seconds"`
	SettleSeconds int    `mapstructure:"settle_seconds"`
	NavTimeoutSec int    `mapstructure:"nav_timeout_seconds"`
	ExecPath      string `mapstructure:"exec_path"`
}

// AcquireConfig holds the usability thresholds of each acquisition stage.
type AcquireConfig struct {
	StaticMinChars      int    `mapstructure:"static_min_chars"`
	RenderedMinChars    int    `mapstructure:"rendered_min_chars"`
	ManualMinChars      int    `mapstructure:"manual_min_chars"`
	JavaScriptMarker    string `mapstructure:"javascript_marker"`
	PlaceholderText     string `mapstructure:"placeholder_text"`
	PlaceholderLanguage string `mapstructure:"placeholder_language"`
}

// GeneratorConfig names the local model process.
type GeneratorConfig struct {
	Command        string   `mapstructure:"command"`
	Args           []string `mapstructure:"args"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

// StorageConfig selects where résumé documents are kept.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// MetadataConfig selects where résumé records are kept.
type MetadataConfig struct {
	Backend  string `mapstructure:"backend"`
	FilePath string `mapstructure:"file_path"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN                    string `mapstructure:"dsn"`
	Table                  string `mapstructure:"table"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
}

// PubSubConfig holds metadata for letter event notifications.
type PubSubConfig struct {
	Backend   string `mapstructure:"backend"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// RateLimitConfig throttles API clients and outbound posting fetches.
type RateLimitConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	RPS        float64 `mapstructure:"rps"`
	Burst      int     `mapstructure:"burst"`
	FetchRPS   float64 `mapstructure:"fetch_rps"`
	FetchBurst int     `mapstructure:"fetch_burst"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COVERLETTER")
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
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("server.request_timeout_seconds", 360)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (compatible; coverletter/0.1)")
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.wait_seconds", 10)
	v.SetDefault("headless.settle_seconds", 3)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("acquire.static_min_chars", 100)
	v.SetDefault("acquire.rendered_min_chars", 50)
	v.SetDefault("acquire.manual_min_chars", 20)
	v.SetDefault("acquire.javascript_marker", "Enable JavaScript")
	v.SetDefault("acquire.placeholder_text", "Offre d'emploi - contenu non disponible")
	v.SetDefault("acquire.placeholder_language", "fr")
	v.SetDefault("generator.command", "ollama")
	v.SetDefault("generator.args", []string{"run", "mistral"})
	v.SetDefault("generator.timeout_seconds", 300)
	v.SetDefault("profile.name", "Alex Martin")
	v.SetDefault("profile.phone", "+33 6 00 00 00 00")
	v.SetDefault("profile.email", "alex.martin@example.com")
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.base_dir", "cv_storage")
	v.SetDefault("storage.prefix", "resumes")
	v.SetDefault("metadata.backend", BackendFile)
	v.SetDefault("metadata.file_path", "cv_storage/cv_metadata.json")
	v.SetDefault("db.table", "resumes")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("pubsub.backend", BackendNone)
	v.SetDefault("pubsub.topic_name", letter.EventTopic)
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 0.2)
	v.SetDefault("rate_limit.burst", 3)
	v.SetDefault("rate_limit.fetch_rps", 1)
	v.SetDefault("rate_limit.fetch_burst", 1)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Acquire.StaticMinChars < 0 || c.Acquire.RenderedMinChars < 0 || c.Acquire.ManualMinChars < 0 {
		return fmt.Errorf("acquire thresholds must be >= 0")
	}
	if strings.TrimSpace(c.Generator.Command) == "" {
		return fmt.Errorf("generator.command is required")
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	switch c.Metadata.Backend {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres metadata backend")
		}
	default:
		return fmt.Errorf("metadata.backend %q is not supported", c.Metadata.Backend)
	}
	switch c.PubSub.Backend {
	case BackendNone, BackendMemory, "":
	case BackendPubSub:
		if c.PubSub.ProjectID == "" || c.PubSub.TopicName == "" {
			return fmt.Errorf("pubsub.project_id and pubsub.topic_name are required for the pubsub backend")
		}
	default:
		return fmt.Errorf("pubsub.backend %q is not supported", c.PubSub.Backend)
	}
	return nil
}

// FetchTimeout is the static fetch budget.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// GeneratorTimeout is the model invocation budget.
func (c Config) GeneratorTimeout() time.Duration {
	return time.Duration(c.Generator.TimeoutSeconds) * time.Second
}

// RequestTimeout bounds a single API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// MaxUploadBytes is the largest accepted résumé upload.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
