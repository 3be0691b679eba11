package model

import (
	"runtime"
	"time"
)

// Config holds the full application configuration.
// Populated from defaults, then the config file, env vars and CLI flags.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Ingest      IngestConfig      `yaml:"ingest" mapstructure:"ingest"`
	Enhance     EnhanceConfig     `yaml:"enhance" mapstructure:"enhance"`
	Predict     PredictConfig     `yaml:"predict" mapstructure:"predict"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls the URL source fetcher
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// StoreConfig selects and locates the knowledge store backend
type StoreConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`           // SQLite file; empty means ~/.sajulotto/knowledge.db
	InMemory bool   `yaml:"in_memory" mapstructure:"in_memory"` // Ephemeral store, nothing persisted
}

// CacheConfig controls the search read cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Disk layer location; empty means ~/.sajulotto/cache
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// IngestConfig controls the classify-and-persist write path
type IngestConfig struct {
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"` // Records at or below are discarded
	DefaultTag    string  `yaml:"default_tag" mapstructure:"default_tag"`
}

// EnhanceConfig controls the knowledge aggregator
type EnhanceConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	SearchLimit   int           `yaml:"search_limit" mapstructure:"search_limit"`
	SearchTimeout time.Duration `yaml:"search_timeout" mapstructure:"search_timeout"` // Bound on each store call
}

// PredictConfig controls the scoring engine defaults
type PredictConfig struct {
	Count int `yaml:"count" mapstructure:"count"` // Numbers selected per prediction
}

// ConcurrencyConfig sizes the ingestion worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig throttles URL fetching per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose   bool `yaml:"verbose" mapstructure:"verbose"`
	ScoreRows int  `yaml:"score_rows" mapstructure:"score_rows"` // Breakdown rows printed by predict
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "sajulotto/0.3 (+https://github.com/sajulotto/service)",
			MaxBodyBytes: 10 * 1024 * 1024,
		},
		Store: StoreConfig{},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 5 * time.Minute,
			DiskTTL:   time.Hour,
		},
		Ingest: IngestConfig{
			MinConfidence: 0.1,
			DefaultTag:    "transcript",
		},
		Enhance: EnhanceConfig{
			Enabled:       true,
			SearchLimit:   5,
			SearchTimeout: 2 * time.Second,
		},
		Predict: PredictConfig{
			Count: 6,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1.0,
			BurstSize:         2,
		},
		Output: OutputConfig{
			ScoreRows: 10,
		},
	}
}
