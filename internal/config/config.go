// Package config provides configuration management for tabula DataFrame operations
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	dferrors "github.com/paveg/tabula/internal/errors"
)

// Config represents the global configuration for tabula DataFrame operations
type Config struct {
	// Parallel Processing Configuration
	ParallelThreshold int `json:"parallel_threshold" yaml:"parallel_threshold"` // Minimum rows to trigger parallel processing
	WorkerPoolSize    int `json:"worker_pool_size" yaml:"worker_pool_size"`     // Number of worker goroutines (0 = auto-detect)
	ChunkSize         int `json:"chunk_size" yaml:"chunk_size"`                 // Size of data chunks for parallel processing (0 = auto-calculate)
	MaxParallelism    int `json:"max_parallelism" yaml:"max_parallelism"`       // Maximum number of parallel operations

	// Engine defaults
	JoinSuffix   string `json:"join_suffix" yaml:"join_suffix"`     // Suffix appended to colliding right-hand join columns
	CSVSeparator string `json:"csv_separator" yaml:"csv_separator"` // Default CSV field separator
	NullEqual    bool   `json:"null_equal" yaml:"null_equal"`       // Whether nulls compare equal in frame equality
	HashSeed     uint64 `json:"hash_seed" yaml:"hash_seed"`         // Seed mixed into row hashes

	// Debugging Configuration
	VerboseLogging    bool   `json:"verbose_logging" yaml:"verbose_logging"`       // Enable verbose logging
	MetricsCollection bool   `json:"metrics_collection" yaml:"metrics_collection"` // Enable metrics collection
	LogLevel          string `json:"log_level" yaml:"log_level"`                   // debug, info, warn or error
}

// OperationConfig represents per-operation configuration overrides
type OperationConfig struct {
	ForceParallel   bool // Force parallel execution regardless of threshold
	DisableParallel bool // Disable parallel execution
	CustomChunkSize int  // Custom chunk size for this operation
}

// Global configuration instance
var (
	globalConfig Config
	configMutex  sync.RWMutex
)

// Default configuration values
const (
	DefaultParallelThreshold = 1000
	DefaultMaxParallelism    = 16
	DefaultJoinSuffix        = "right"
	DefaultCSVSeparator      = ","
	DefaultLogLevel          = "info"
)

func init() {
	globalConfig = NewConfig()
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		ParallelThreshold: DefaultParallelThreshold,
		WorkerPoolSize:    0, // Auto-detect
		ChunkSize:         0, // Auto-calculate
		MaxParallelism:    DefaultMaxParallelism,

		JoinSuffix:   DefaultJoinSuffix,
		CSVSeparator: DefaultCSVSeparator,
		NullEqual:    true,

		VerboseLogging:    false,
		MetricsCollection: false,
		LogLevel:          DefaultLogLevel,
	}
}

// Validate reports the first invalid field as an ErrInvalidConfig error.
func (c *Config) Validate() error {
	checks := []struct {
		bad    bool
		format string
		arg    any
	}{
		{c.ParallelThreshold <= 0, "ParallelThreshold must be positive, got %d", c.ParallelThreshold},
		{c.WorkerPoolSize < 0, "WorkerPoolSize must be non-negative, got %d", c.WorkerPoolSize},
		{c.ChunkSize < 0, "ChunkSize must be non-negative, got %d", c.ChunkSize},
		{c.MaxParallelism <= 0, "MaxParallelism must be positive, got %d", c.MaxParallelism},
		{utf8.RuneCountInString(c.CSVSeparator) != 1, "CSVSeparator must be a single character, got %q", c.CSVSeparator},
	}
	for _, check := range checks {
		if check.bad {
			return dferrors.NewConfigError("Config", check.format, check.arg)
		}
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return dferrors.NewConfigError("Config", "%v", err)
	}
	return nil
}

// WithDefaults returns a new configuration with default values filled in for zero values
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.ParallelThreshold == 0 {
		c.ParallelThreshold = defaults.ParallelThreshold
	}
	if c.MaxParallelism == 0 {
		c.MaxParallelism = defaults.MaxParallelism
	}
	if c.JoinSuffix == "" {
		c.JoinSuffix = defaults.JoinSuffix
	}
	if c.CSVSeparator == "" {
		c.CSVSeparator = defaults.CSVSeparator
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}

	// Boolean fields are left alone so an explicit false survives.
	// Use NewConfig() directly if you need boolean defaults.

	return c
}

// Workers resolves the worker count, falling back to the CPU count.
func (c Config) Workers() int {
	if c.WorkerPoolSize > 0 {
		return min(c.WorkerPoolSize, c.MaxParallelism)
	}
	return min(runtime.NumCPU(), c.MaxParallelism)
}

// ShouldParallelize reports whether an operation over rows items should fan out.
func (c Config) ShouldParallelize(rows int, op OperationConfig) bool {
	switch {
	case op.DisableParallel:
		return false
	case op.ForceParallel:
		return true
	}
	return rows >= c.ParallelThreshold && c.Workers() > 1
}

// SetGlobalConfig sets the global configuration
func SetGlobalConfig(config Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = config
}

// GetGlobalConfig returns the current global configuration
func GetGlobalConfig() Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// LoadFromJSON loads configuration from JSON data
func LoadFromJSON(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	config := NewConfig()
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, dferrors.NewConfigError("LoadFromFile", "unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from TABULA_* environment variables
// on top of base. Unparseable values are ignored.
func LoadFromEnv(base Config) Config {
	config := base

	envInt("TABULA_PARALLEL_THRESHOLD", &config.ParallelThreshold)
	envInt("TABULA_WORKER_POOL_SIZE", &config.WorkerPoolSize)
	envInt("TABULA_CHUNK_SIZE", &config.ChunkSize)
	envInt("TABULA_MAX_PARALLELISM", &config.MaxParallelism)

	if val, ok := os.LookupEnv("TABULA_JOIN_SUFFIX"); ok {
		config.JoinSuffix = val
	}
	if val := os.Getenv("TABULA_CSV_SEPARATOR"); val != "" {
		config.CSVSeparator = val
	}
	if val := os.Getenv("TABULA_HASH_SEED"); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			config.HashSeed = parsed
		}
	}
	if val := os.Getenv("TABULA_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	envBool("TABULA_NULL_EQUAL", &config.NullEqual)
	envBool("TABULA_VERBOSE_LOGGING", &config.VerboseLogging)
	envBool("TABULA_METRICS_COLLECTION", &config.MetricsCollection)

	return config
}

func envInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dst = parsed
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			*dst = parsed
		}
	}
}

// Logger builds the structured logger for cfg. Output is discarded unless
// VerboseLogging is set.
func Logger(cfg Config, w io.Writer) *slog.Logger {
	if !cfg.VerboseLogging || w == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
