package model

import "time"

// Config holds the complete application configuration.
// Hierarchy (highest to lowest priority): CLI flags, HDX_* environment variables,
// config file (~/.hdx/config.yaml), defaults.
type Config struct {
	Database  DatabaseConfig  `yaml:"database" json:"database" mapstructure:"database"`
	Validator ValidatorConfig `yaml:"validator" json:"validator" mapstructure:"validator"`
	Classify  ClassifyConfig  `yaml:"classify" json:"classify" mapstructure:"classify"`
	Chart     ChartConfig     `yaml:"chart" json:"chart" mapstructure:"chart"`
	Insight   InsightConfig   `yaml:"insight" json:"insight" mapstructure:"insight"`
	LLM       LLMConfig       `yaml:"llm" json:"llm" mapstructure:"llm"`
	Cache     CacheConfig     `yaml:"cache" json:"cache" mapstructure:"cache"`
	Output    OutputConfig    `yaml:"output" json:"output" mapstructure:"output"`
}

// DatabaseConfig controls the governed connection to the relational store.
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn" json:"dsn" mapstructure:"dsn"` // postgres://... (read-only credentials recommended)
	QueryTimeout     time.Duration `yaml:"query_timeout" json:"query_timeout" mapstructure:"query_timeout"`
	MaxRows          int           `yaml:"max_rows" json:"max_rows" mapstructure:"max_rows"`
	QueriesPerMinute float64       `yaml:"queries_per_minute" json:"queries_per_minute" mapstructure:"queries_per_minute"` // Per-conversation rate
}

// ValidatorConfig bounds what the safety validator accepts.
type ValidatorConfig struct {
	MaxQueryLength int `yaml:"max_query_length" json:"max_query_length" mapstructure:"max_query_length"`
}

// ClassifyConfig holds the column-role inference policy constants.
type ClassifyConfig struct {
	SampleSize          int     `yaml:"sample_size" json:"sample_size" mapstructure:"sample_size"`                               // Non-null values inspected per column
	CategoricalMaxRatio float64 `yaml:"categorical_max_ratio" json:"categorical_max_ratio" mapstructure:"categorical_max_ratio"` // distinct/sample ceiling for categorical
	TemporalParseRatio  float64 `yaml:"temporal_parse_ratio" json:"temporal_parse_ratio" mapstructure:"temporal_parse_ratio"`    // Fraction of samples that must parse as dates
}

// ChartConfig holds chart selection thresholds.
type ChartConfig struct {
	SampleThreshold  int `yaml:"sample_threshold" json:"sample_threshold" mapstructure:"sample_threshold"` // Rows above which point charts carry the sample flag
	PieMaxCategories int `yaml:"pie_max_categories" json:"pie_max_categories" mapstructure:"pie_max_categories"`
}

// InsightConfig holds insight-engine policy.
type InsightConfig struct {
	MaxFindings     int     `yaml:"max_findings" json:"max_findings" mapstructure:"max_findings"`
	PerCapitaUnit   float64 `yaml:"per_capita_unit" json:"per_capita_unit" mapstructure:"per_capita_unit"`    // Standard denominator, e.g. 100000
	TrailingPeriods int     `yaml:"trailing_periods" json:"trailing_periods" mapstructure:"trailing_periods"` // Window for the historical-self baseline
}

// LLMConfig configures the upstream translator provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" json:"provider" mapstructure:"provider"` // "openai", "anthropic", "ollama", or "" (disabled)
	Model     string `yaml:"model" json:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" json:"-" mapstructure:"-"` // From the provider's env variable, never serialized
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" json:"timeout" mapstructure:"timeout"` // Seconds
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens" mapstructure:"max_tokens"`
}

// CacheConfig controls the data-dictionary cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" json:"dir" mapstructure:"dir"` // Disk cache directory (default ~/.hdx/cache)
	MemoryTTL time.Duration `yaml:"memory_ttl" json:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" json:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig controls command output behavior.
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" json:"verbose" mapstructure:"verbose"`
	Format  string `yaml:"format" json:"format" mapstructure:"format"` // table, json, csv, markdown
}

// DefaultConfig returns sensible defaults. The classification thresholds are the
// documented policy constants: 100 sampled values, categorical distinct ratio 0.5,
// temporal parse ratio 0.9.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			QueryTimeout:     30 * time.Second,
			MaxRows:          10000,
			QueriesPerMinute: 30,
		},
		Validator: ValidatorConfig{
			MaxQueryLength: 10000,
		},
		Classify: ClassifyConfig{
			SampleSize:          100,
			CategoricalMaxRatio: 0.5,
			TemporalParseRatio:  0.9,
		},
		Chart: ChartConfig{
			SampleThreshold:  2000,
			PieMaxCategories: 10,
		},
		Insight: InsightConfig{
			MaxFindings:     5,
			PerCapitaUnit:   100000,
			TrailingPeriods: 3,
		},
		LLM: LLMConfig{
			Provider:  "", // Disabled by default; SQL may be supplied directly
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}
