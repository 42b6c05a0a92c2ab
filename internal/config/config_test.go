package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Fatalf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Acquire.StaticMinChars != 100 || cfg.Acquire.RenderedMinChars != 50 || cfg.Acquire.ManualMinChars != 20 {
		t.Fatalf("unexpected acquire thresholds: %+v", cfg.Acquire)
	}
	if cfg.Acquire.PlaceholderLanguage != "fr" {
		t.Fatalf("expected placeholder language fr, got %q", cfg.Acquire.PlaceholderLanguage)
	}
	if cfg.Generator.Command != "ollama" || strings.Join(cfg.Generator.Args, " ") != "run mistral" {
		t.Fatalf("unexpected generator defaults: %+v", cfg.Generator)
	}
	if got := cfg.GeneratorTimeout(); got != 5*time.Minute {
		t.Fatalf("expected 5m generator timeout, got %v", got)
	}
	if got := cfg.FetchTimeout(); got != 10*time.Second {
		t.Fatalf("expected 10s fetch timeout, got %v", got)
	}
	if cfg.Storage.Backend != BackendLocal || cfg.Metadata.Backend != BackendFile {
		t.Fatalf("unexpected storage defaults: %+v %+v", cfg.Storage, cfg.Metadata)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Fatalf("expected permissive CORS by default, got %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
  max_upload_mb: 2
auth:
  enabled: true
  api_key: secret
http:
  timeout_seconds: 45
  user_agent: real-agent
headless:
  enabled: true
  max_parallel: 2
generator:
  command: llama-cli
  args: ["-m", "model.gguf"]
  timeout_seconds: 60
profile:
  name: Camille Example
  phone: "+33 1 23 45 67 89"
  email: camille@example.com
storage:
  backend: gcs
  gcs_bucket: bucket
  prefix: cv
metadata:
  backend: postgres
db:
  dsn: postgres://localhost/coverletter
pubsub:
  backend: pubsub
  project_id: demo
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if got := cfg.MaxUploadBytes(); got != 2<<20 {
		t.Fatalf("expected 2MiB upload limit, got %d", got)
	}
	if !cfg.Auth.Enabled || cfg.Auth.APIKey != "secret" {
		t.Fatalf("expected auth enabled with secret key")
	}
	if cfg.Generator.Command != "llama-cli" || len(cfg.Generator.Args) != 2 {
		t.Fatalf("expected generator overrides to apply: %+v", cfg.Generator)
	}
	if cfg.Profile.Name != "Camille Example" || cfg.Profile.Email != "camille@example.com" {
		t.Fatalf("expected profile overrides to apply: %+v", cfg.Profile)
	}
	if cfg.PubSub.TopicName != "letter.generated" {
		t.Fatalf("expected default topic, got %q", cfg.PubSub.TopicName)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:    ServerConfig{Port: 8080},
		HTTP:      HTTPConfig{TimeoutSeconds: 10},
		Generator: GeneratorConfig{Command: "ollama"},
		Storage:   StorageConfig{Backend: BackendMemory},
		Metadata:  MetadataConfig{Backend: BackendMemory},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "invalid timeout", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, want: "http.timeout_seconds"},
		{
			name:   "headless missing max parallel",
			mutate: func(c *Config) { c.Headless.Enabled = true },
			want:   "headless.max_parallel",
		},
		{name: "auth missing api key", mutate: func(c *Config) { c.Auth.Enabled = true }, want: "auth.api_key"},
		{name: "negative threshold", mutate: func(c *Config) { c.Acquire.ManualMinChars = -1 }, want: "acquire"},
		{name: "missing generator", mutate: func(c *Config) { c.Generator.Command = " " }, want: "generator.command"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Backend = "s3" }, want: "storage.backend"},
		{
			name:   "local without dir",
			mutate: func(c *Config) { c.Storage.Backend = BackendLocal },
			want:   "storage.base_dir",
		},
		{
			name:   "gcs without bucket",
			mutate: func(c *Config) { c.Storage.Backend = BackendGCS },
			want:   "storage.gcs_bucket",
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *Config) { c.Metadata.Backend = BackendPostgres },
			want:   "db.dsn",
		},
		{name: "unknown metadata", mutate: func(c *Config) { c.Metadata.Backend = "redis" }, want: "metadata.backend"},
		{
			name:   "pubsub without project",
			mutate: func(c *Config) { c.PubSub.Backend = BackendPubSub },
			want:   "pubsub.project_id",
		},
		{name: "unknown pubsub", mutate: func(c *Config) { c.PubSub.Backend = "kafka" }, want: "pubsub.backend"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
