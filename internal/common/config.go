package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/creditcore/internal/models"
)

// Config represents the application configuration
type Config struct {
	Logging    LoggingConfig    `toml:"logging"`
	Validation ValidationConfig `toml:"validation"`
	Rating     RatingConfig     `toml:"rating"`
	Taxonomy   TaxonomyConfig   `toml:"taxonomy"`
	Cache      CacheConfig      `toml:"cache"`
	Retry      RetryConfig      `toml:"retry"`
	Storage    StorageConfig    `toml:"storage"`
	Versions   models.Versions  `toml:"versions"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Format     string   `toml:"format" validate:"oneof=text json"`
	Output     []string `toml:"output" validate:"dive,oneof=stdout console file"`
	TimeFormat string   `toml:"time_format"`
}

// ValidationConfig holds the absolute reconciliation tolerances, in base currency units
type ValidationConfig struct {
	BalanceTolerance  float64 `toml:"balance_tolerance" validate:"gte=0"`
	SubtotalTolerance float64 `toml:"subtotal_tolerance" validate:"gte=0"`
}

// RatingConfig overrides section weights and PD bands. Empty maps keep the defaults.
type RatingConfig struct {
	Weights map[string]int     `toml:"weights"`  // section key -> weight, must sum to 100
	PDBands map[string]float64 `toml:"pd_bands"` // grade -> PD in percentage points
}

type TaxonomyConfig struct {
	Path string `toml:"path"` // Empty uses the embedded locked taxonomy
}

type CacheConfig struct {
	Backend       string `toml:"backend" validate:"oneof=none memory badger"`
	TTL           string `toml:"ttl" validate:"required"` // e.g. "720h"
	SchemaVersion string `toml:"schema_version" validate:"required"`
	PromptVersion string `toml:"prompt_version" validate:"required"`
	GCSchedule    string `toml:"gc_schedule"` // Cron spec for badger value-log GC, empty disables
}

type RetryConfig struct {
	MaxAttempts  int     `toml:"max_attempts" validate:"min=1"`
	InitialDelay string  `toml:"initial_delay" validate:"required"`
	Multiplier   float64 `toml:"multiplier" validate:"gte=1"`
	MaxDelay     string  `toml:"max_delay" validate:"required"`
	RateLimit    float64 `toml:"rate_limit" validate:"gte=0"` // Attempts per second, 0 = unlimited
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled"` // Register pipeline and cache counters with a Prometheus registry
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Validation: ValidationConfig{
			BalanceTolerance:  0.01,
			SubtotalTolerance: 0.01,
		},
		Cache: CacheConfig{
			Backend:       string(models.CacheBackendNone),
			TTL:           "720h",
			SchemaVersion: models.SectionSchemaVersion,
			PromptVersion: "1",
			GCSchedule:    "@hourly",
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: "1s",
			Multiplier:   2.0,
			MaxDelay:     "30s",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/cache",
			},
		},
		Versions: models.Versions{
			MappingRules:  "1.0.0",
			EngineFormula: "1.0.0",
			RatingModel:   "1.0.0",
			MemoTemplate:  "1.0.0",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards with ApplyFlagOverrides.
// The merged result is validated; any violation is returned as a *models.ConfigurationError.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Environment variables override all file configs
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies CREDITCORE_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Logging configuration
	if level := os.Getenv("CREDITCORE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("CREDITCORE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("CREDITCORE_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Validation tolerances
	if tol := os.Getenv("CREDITCORE_BALANCE_TOLERANCE"); tol != "" {
		if v, err := strconv.ParseFloat(tol, 64); err == nil {
			config.Validation.BalanceTolerance = v
		}
	}
	if tol := os.Getenv("CREDITCORE_SUBTOTAL_TOLERANCE"); tol != "" {
		if v, err := strconv.ParseFloat(tol, 64); err == nil {
			config.Validation.SubtotalTolerance = v
		}
	}

	if path := os.Getenv("CREDITCORE_TAXONOMY_PATH"); path != "" {
		config.Taxonomy.Path = path
	}

	// Cache configuration
	if backend := os.Getenv("CREDITCORE_CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = strings.ToLower(strings.TrimSpace(backend))
	}
	if ttl := os.Getenv("CREDITCORE_CACHE_TTL"); ttl != "" {
		config.Cache.TTL = ttl
	}
	if schedule, ok := os.LookupEnv("CREDITCORE_CACHE_GC_SCHEDULE"); ok {
		config.Cache.GCSchedule = schedule
	}

	// Retry configuration
	if attempts := os.Getenv("CREDITCORE_RETRY_MAX_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			config.Retry.MaxAttempts = n
		}
	}
	if rate := os.Getenv("CREDITCORE_RETRY_RATE_LIMIT"); rate != "" {
		if v, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Retry.RateLimit = v
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("CREDITCORE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if enabled := os.Getenv("CREDITCORE_METRICS_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Metrics.Enabled = b
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config (highest priority).
// Empty values leave the config unchanged.
func ApplyFlagOverrides(config *Config, logLevel, cacheBackend string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if cacheBackend != "" {
		config.Cache.Backend = strings.ToLower(strings.TrimSpace(cacheBackend))
	}
}

// Validate checks struct constraints, durations and the GC schedule
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return models.NewConfigurationError(fe.Namespace(), "failed %q constraint (value %v)", fe.Tag(), fe.Value())
		}
		return models.NewConfigurationError("config", "%v", err)
	}

	durations := map[string]string{
		"cache.ttl":           c.Cache.TTL,
		"retry.initial_delay": c.Retry.InitialDelay,
		"retry.max_delay":     c.Retry.MaxDelay,
	}
	for _, field := range []string{"cache.ttl", "retry.initial_delay", "retry.max_delay"} {
		if d, err := time.ParseDuration(durations[field]); err != nil || d <= 0 {
			return models.NewConfigurationError(field, "invalid duration %q", durations[field])
		}
	}

	if err := ValidateSchedule(c.Cache.GCSchedule); err != nil {
		return models.NewConfigurationError("cache.gc_schedule", "%v", err)
	}
	return nil
}

// ValidateSchedule validates a standard cron expression or descriptor such as "@hourly".
// An empty schedule is valid and disables the job.
func ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// CacheBackend returns the parsed cache backend
func (c *Config) CacheBackend() models.CacheBackend {
	b, err := models.ParseCacheBackend(c.Cache.Backend)
	if err != nil {
		return models.CacheBackendNone
	}
	return b
}

// CacheTTL returns the cache TTL, falling back to the default when unparsable
func (c *Config) CacheTTL() time.Duration {
	return parseDurationOr(c.Cache.TTL, models.DefaultCacheTTL)
}

// RetryDelays returns the parsed initial and maximum retry delays
func (c *Config) RetryDelays() (initial, maxDelay time.Duration) {
	return parseDurationOr(c.Retry.InitialDelay, time.Second), parseDurationOr(c.Retry.MaxDelay, 30*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
