// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Sink names accepted in Output.Sinks.
const (
	SinkJSON   = "json"
	SinkRedis  = "redis"
	SinkQdrant = "qdrant"
	SinkBus    = "bus"
)

// Config holds all application configuration.
type Config struct {
	// Parser configuration
	Parse ParseConfig `yaml:"parse"`

	// Output configuration
	Output OutputConfig `yaml:"output"`

	// Qdrant configuration
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Redis configuration
	Redis RedisConfig `yaml:"redis"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Index configuration
	Index IndexConfig `yaml:"index"`

	// Watch configuration
	Watch WatchConfig `yaml:"watch"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics"`
}

// ParseConfig holds statute parser options.
type ParseConfig struct {
	NormalizeUnicode bool   `envconfig:"MEVZUAT_NORMALIZE_UNICODE" yaml:"normalize_unicode"`
	StrictHierarchy  bool   `envconfig:"MEVZUAT_STRICT_HIERARCHY" yaml:"strict_hierarchy"`
	Encoding         string `envconfig:"MEVZUAT_ENCODING" yaml:"encoding"`
}

// OutputConfig selects where parsed chunks go.
type OutputConfig struct {
	Sinks []string `envconfig:"MEVZUAT_SINKS" yaml:"sinks"`
	Dir   string   `envconfig:"MEVZUAT_OUTPUT_DIR" yaml:"dir"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host             string `envconfig:"QDRANT_HOST" yaml:"host"`
	Port             int    `envconfig:"QDRANT_PORT" yaml:"port"`
	APIKey           string `envconfig:"QDRANT_API_KEY" yaml:"api_key"`
	UseTLS           bool   `envconfig:"QDRANT_USE_TLS" yaml:"use_tls"`
	Collection       string `envconfig:"QDRANT_COLLECTION" yaml:"collection"`
	CollectionPrefix string `envconfig:"QDRANT_COLLECTION_PREFIX" yaml:"collection_prefix"`
	Timeout          int    `envconfig:"QDRANT_TIMEOUT" yaml:"timeout"` // seconds
}

// RedisConfig holds Redis sink settings.
type RedisConfig struct {
	URL       string `envconfig:"MEVZUAT_REDIS_URL" yaml:"url"`
	KeyPrefix string `envconfig:"MEVZUAT_REDIS_PREFIX" yaml:"key_prefix"`
	TTL       int    `envconfig:"MEVZUAT_REDIS_TTL" yaml:"ttl"` // seconds, 0 = no expiry
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"MEVZUAT_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"MEVZUAT_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"MEVZUAT_KAFKA_GROUP" yaml:"kafka_group"`
	EventLog     string `envconfig:"MEVZUAT_BUS_EVENT_LOG" yaml:"event_log"` // JSON lines file, empty = off
}

// IndexConfig holds indexing pipeline settings.
type IndexConfig struct {
	Workers       int     `envconfig:"MEVZUAT_INDEX_WORKERS" yaml:"workers"`
	BatchSize     int     `envconfig:"MEVZUAT_INDEX_BATCH_SIZE" yaml:"batch_size"`
	RateLimit     float64 `envconfig:"MEVZUAT_INDEX_RATE_LIMIT" yaml:"rate_limit"` // sink writes per second, 0 = unlimited
	SkipUnchanged bool    `envconfig:"MEVZUAT_SKIP_UNCHANGED" yaml:"skip_unchanged"`
	TrackerDir    string  `envconfig:"MEVZUAT_TRACKER_DIR" yaml:"tracker_dir"`
}

// WatchConfig holds file watcher settings.
type WatchConfig struct {
	Debounce   int      `envconfig:"MEVZUAT_WATCH_DEBOUNCE" yaml:"debounce"` // milliseconds
	Extensions []string `envconfig:"MEVZUAT_WATCH_EXTENSIONS" yaml:"extensions"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"MEVZUAT_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"MEVZUAT_LOG_FORMAT" yaml:"format"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled   bool   `envconfig:"MEVZUAT_METRICS_ENABLED" yaml:"enabled"`
	File      string `envconfig:"MEVZUAT_METRICS_FILE" yaml:"file"`
	Namespace string `envconfig:"MEVZUAT_METRICS_NAMESPACE" yaml:"namespace"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// LoadDotEnv exports variables from .env style files into the process
// environment. Missing files are skipped and variables that are already set
// keep their value.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Parse = ParseConfig{
		NormalizeUnicode: true,
		StrictHierarchy:  false,
		Encoding:         "utf-8",
	}

	cfg.Output = OutputConfig{
		Sinks: []string{SinkJSON},
		Dir:   "./chunks",
	}

	cfg.Qdrant = QdrantConfig{
		Host:             "localhost",
		Port:             6334,
		Collection:       "statutes",
		CollectionPrefix: "mevzuat_",
		Timeout:          30,
	}

	cfg.Redis = RedisConfig{
		URL:       "redis://localhost:6379",
		KeyPrefix: "mevzuat:",
		TTL:       0,
	}

	cfg.Bus = BusConfig{
		Type:       "memory",
		KafkaGroup: "mevzuat",
	}

	cfg.Index = IndexConfig{
		Workers:       4,
		BatchSize:     64,
		RateLimit:     0,
		SkipUnchanged: true,
		TrackerDir:    ".mevzuat",
	}

	cfg.Watch = WatchConfig{
		Debounce:   500,
		Extensions: []string{".txt"},
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}

	cfg.Metrics = MetricsConfig{
		Enabled:   true,
		Namespace: "mevzuat",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	// Parse validation
	validEncodings := map[string]bool{"utf-8": true, "utf8": true, "windows-1254": true, "cp1254": true}
	if !validEncodings[strings.ToLower(c.Parse.Encoding)] {
		errs = append(errs, fmt.Sprintf("invalid encoding: %s (must be utf-8 or windows-1254)", c.Parse.Encoding))
	}

	// Output validation
	validSinks := map[string]bool{SinkJSON: true, SinkRedis: true, SinkQdrant: true, SinkBus: true}
	if len(c.Output.Sinks) == 0 {
		errs = append(errs, "at least one output sink is required")
	}
	for _, s := range c.Output.Sinks {
		if !validSinks[s] {
			errs = append(errs, fmt.Sprintf("invalid sink: %s (must be json, redis, qdrant, or bus)", s))
		}
	}

	if c.HasSink(SinkJSON) && c.Output.Dir == "" {
		errs = append(errs, "output dir is required for the json sink")
	}

	// Qdrant validation
	if c.HasSink(SinkQdrant) {
		if c.Qdrant.Port < 1 || c.Qdrant.Port > 65535 {
			errs = append(errs, "qdrant port must be between 1 and 65535")
		}
		if c.Qdrant.Collection == "" {
			errs = append(errs, "qdrant collection is required")
		}
	}

	if c.Qdrant.Timeout < 0 {
		errs = append(errs, "qdrant timeout must not be negative")
	}

	// Redis validation
	if c.HasSink(SinkRedis) && c.Redis.URL == "" {
		errs = append(errs, "redis url is required for the redis sink")
	}

	if c.Redis.TTL < 0 {
		errs = append(errs, "redis ttl must not be negative")
	}

	// Bus validation
	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	if c.Bus.Type == "kafka" && c.Bus.KafkaBrokers == "" {
		errs = append(errs, "kafka_brokers is required for the kafka bus")
	}

	// Index validation
	if c.Index.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}

	if c.Index.BatchSize < 1 {
		errs = append(errs, "batch_size must be positive")
	}

	if c.Index.RateLimit < 0 {
		errs = append(errs, "rate_limit must not be negative")
	}

	// Watch validation
	if c.Watch.Debounce < 0 {
		errs = append(errs, "watch debounce must not be negative")
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// HasSink reports whether the named sink is enabled.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Output.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// QdrantTimeout returns the Qdrant operation timeout.
func (c *Config) QdrantTimeout() time.Duration {
	return time.Duration(c.Qdrant.Timeout) * time.Second
}

// RedisTTL returns the Redis key expiry, zero for none.
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTL) * time.Second
}

// WatchDebounce returns the watcher debounce delay.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.Debounce) * time.Millisecond
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
