package model

import "time"

// Config is the full engine configuration. Values come from (highest to
// lowest priority) CLI flags, LANDSAFE_* environment variables, the config
// file, and the defaults below.
type Config struct {
	Thresholds  ThresholdConfig   `yaml:"thresholds" mapstructure:"thresholds"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Satellite   SatelliteConfig   `yaml:"satellite" mapstructure:"satellite"`
	Narrative   NarrativeConfig   `yaml:"narrative" mapstructure:"narrative"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// ThresholdConfig holds the risk policy knobs. The defaults mirror the
// production policy; the subdivision window in particular is a product
// decision, not an algorithmic truth, so it stays tunable.
type ThresholdConfig struct {
	IoUCritical            float64 `yaml:"iou_critical" mapstructure:"iou_critical"`                           // >= is CRITICAL
	IoUWarning             float64 `yaml:"iou_warning" mapstructure:"iou_warning"`                             // >= is WARNING
	OverlapWarningPercent  float64 `yaml:"overlap_warning_percent" mapstructure:"overlap_warning_percent"`     // Summed overlap % that forces review
	GrantorDisputeHighRisk float64 `yaml:"grantor_dispute_high_risk" mapstructure:"grantor_dispute_high_risk"` // Dispute rate for HIGH
	GrantorDisputeWarning  float64 `yaml:"grantor_dispute_warning" mapstructure:"grantor_dispute_warning"`     // Dispute rate for MEDIUM
	GrantorRedFlagMinimum  int     `yaml:"grantor_red_flag_minimum" mapstructure:"grantor_red_flag_minimum"`   // Claims needed before a pattern counts
	SatelliteConfidence    float64 `yaml:"satellite_confidence" mapstructure:"satellite_confidence"`           // Below this the verdict adds caution
	SubdivisionWindowDays  int     `yaml:"subdivision_window_days" mapstructure:"subdivision_window_days"`     // Same-grantor overlap treated as subdivision inside this window
}

// SubdivisionWindow returns the same-grantor policy window as a duration
func (t ThresholdConfig) SubdivisionWindow() time.Duration {
	return time.Duration(t.SubdivisionWindowDays) * 24 * time.Hour
}

// StoreConfig selects the durable claim store backend
type StoreConfig struct {
	// DSN is a PostgreSQL connection string; empty selects the in-process
	// memory store (tests and single-shot CLI runs)
	DSN string `yaml:"dsn" mapstructure:"dsn"`
	// CandidateMarginDegrees widens the bounding box used to pre-filter
	// candidate claims around a subject polygon
	CandidateMarginDegrees float64 `yaml:"candidate_margin_degrees" mapstructure:"candidate_margin_degrees"`
}

// CacheConfig selects the cache backend shared by the satellite adapter and
// the grantor profiler
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Backend string `yaml:"backend" mapstructure:"backend"` // memory, disk, redis, layered
	Dir     string `yaml:"dir" mapstructure:"dir"`         // disk/layered backends

	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`

	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// SatelliteConfig configures the external verdict adapter
type SatelliteConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // http, static, "" (disabled)
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	StaticPath string        `yaml:"static_path" mapstructure:"static_path"` // static provider verdict file
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RatePerSec float64       `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst  int           `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// NarrativeConfig configures the optional LLM review-packet narrative.
// Disabled by default; the narrative never affects classification.
type NarrativeConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai or "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // Prefer OPENAI_API_KEY env
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig bounds the batch workers and the per-region check rate.
// The region limit keeps a batch over one neighborhood from hammering the
// satellite service and the registry's bucket locks from every worker at once.
type ConcurrencyConfig struct {
	BatchWorkers     int     `yaml:"batch_workers" mapstructure:"batch_workers"`
	RegionRatePerSec float64 `yaml:"region_rate_per_sec" mapstructure:"region_rate_per_sec"`
	RegionRateBurst  int     `yaml:"region_rate_burst" mapstructure:"region_rate_burst"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdConfig{
			IoUCritical:            0.30,
			IoUWarning:             0.10,
			OverlapWarningPercent:  5.0,
			GrantorDisputeHighRisk: 0.40,
			GrantorDisputeWarning:  0.20,
			GrantorRedFlagMinimum:  3,
			SatelliteConfidence:    0.70,
			SubdivisionWindowDays:  90,
		},
		Store: StoreConfig{
			CandidateMarginDegrees: 0.01,
		},
		Cache: CacheConfig{
			Enabled: true,
			Backend: "memory",
			TTL:     15 * time.Minute,
		},
		Satellite: SatelliteConfig{
			Provider:   "",
			Timeout:    10 * time.Second,
			RatePerSec: 5,
			RateBurst:  5,
		},
		Narrative: NarrativeConfig{
			Provider:  "",
			Model:     "gpt-4o-mini",
			MaxTokens: 600,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers:     8,
			RegionRatePerSec: 4,
			RegionRateBurst:  8,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
