package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MEVZUAT_LOG_LEVEL", "debug")
	t.Setenv("MEVZUAT_INDEX_WORKERS", "8")
	t.Setenv("MEVZUAT_SINKS", "json,redis")
	t.Setenv("MEVZUAT_STRICT_HIERARCHY", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
	}

	if cfg.Index.Workers != 8 {
		t.Errorf("Index.Workers = %d, want 8", cfg.Index.Workers)
	}

	if !cfg.HasSink(SinkRedis) || !cfg.HasSink(SinkJSON) || cfg.HasSink(SinkQdrant) {
		t.Errorf("Output.Sinks = %v, want [json redis]", cfg.Output.Sinks)
	}

	if !cfg.Parse.StrictHierarchy {
		t.Error("Parse.StrictHierarchy = false, want true")
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
parse:
  strict_hierarchy: true
  encoding: windows-1254
output:
  sinks: [json, qdrant]
  dir: /tmp/chunks
qdrant:
  host: qdrant.internal
  collection: kanunlar
log:
  level: warn
  format: json
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Parse.StrictHierarchy {
		t.Error("Parse.StrictHierarchy = false, want true")
	}

	if cfg.Parse.Encoding != "windows-1254" {
		t.Errorf("Parse.Encoding = %s, want windows-1254", cfg.Parse.Encoding)
	}

	if !cfg.Parse.NormalizeUnicode {
		t.Error("Parse.NormalizeUnicode default lost after file load")
	}

	if cfg.Qdrant.Host != "qdrant.internal" || cfg.Qdrant.Port != 6334 {
		t.Errorf("Qdrant = %s:%d, want qdrant.internal:6334", cfg.Qdrant.Host, cfg.Qdrant.Port)
	}

	if cfg.Qdrant.Collection != "kanunlar" {
		t.Errorf("Qdrant.Collection = %s, want kanunlar", cfg.Qdrant.Collection)
	}

	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want warn/json", cfg.Log)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("log:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("MEVZUAT_LOG_LEVEL", "error")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %s, want error", cfg.Log.Level)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() with missing file should fail")
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("bus:\n  type: nats\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("Load() with invalid bus type should fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte("MEVZUAT_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("MEVZUAT_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(t.TempDir(), "none.env"), envPath); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("MEVZUAT_TEST_DOTENV"); got != "loaded" {
		t.Errorf("MEVZUAT_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid encoding",
			modify: func(c *Config) {
				c.Parse.Encoding = "latin-1"
			},
			wantErr: true,
		},
		{
			name: "no sinks",
			modify: func(c *Config) {
				c.Output.Sinks = nil
			},
			wantErr: true,
		},
		{
			name: "unknown sink",
			modify: func(c *Config) {
				c.Output.Sinks = []string{"s3"}
			},
			wantErr: true,
		},
		{
			name: "json sink without dir",
			modify: func(c *Config) {
				c.Output.Dir = ""
			},
			wantErr: true,
		},
		{
			name: "qdrant sink with bad port",
			modify: func(c *Config) {
				c.Output.Sinks = []string{SinkQdrant}
				c.Qdrant.Port = 0
			},
			wantErr: true,
		},
		{
			name: "bad qdrant port ignored without qdrant sink",
			modify: func(c *Config) {
				c.Qdrant.Port = 0
			},
			wantErr: false,
		},
		{
			name: "kafka without brokers",
			modify: func(c *Config) {
				c.Bus.Type = "kafka"
			},
			wantErr: true,
		},
		{
			name: "kafka with brokers",
			modify: func(c *Config) {
				c.Bus.Type = "kafka"
				c.Bus.KafkaBrokers = "localhost:9092"
			},
			wantErr: false,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "invalid"
			},
			wantErr: true,
		},
		{
			name: "zero workers",
			modify: func(c *Config) {
				c.Index.Workers = 0
			},
			wantErr: true,
		},
		{
			name: "negative rate limit",
			modify: func(c *Config) {
				c.Index.RateLimit = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if got := cfg.QdrantTimeout(); got != 30*time.Second {
		t.Errorf("QdrantTimeout() = %v, want 30s", got)
	}

	if got := cfg.WatchDebounce(); got != 500*time.Millisecond {
		t.Errorf("WatchDebounce() = %v, want 500ms", got)
	}

	if got := cfg.RedisTTL(); got != 0 {
		t.Errorf("RedisTTL() = %v, want 0", got)
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{}

	cfg.Log.Level = "debug"
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true for debug level")
	}

	cfg.Log.Level = "info"
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false for info level")
	}
}
