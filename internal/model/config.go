package model

import (
	"fmt"
	"runtime"
	"time"
)

// Config holds all configuration for activearchive
type Config struct {
	Corpus      CorpusConfig      `yaml:"corpus" mapstructure:"corpus"`
	Scan        ScanConfig        `yaml:"scan" mapstructure:"scan"`
	Explore     ExploreConfig     `yaml:"explore" mapstructure:"explore"`
	KG          KGConfig          `yaml:"kg" mapstructure:"kg"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Curation    CurationConfig    `yaml:"curation" mapstructure:"curation"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// CorpusConfig describes where documents are read from
type CorpusConfig struct {
	Dir      string   `yaml:"dir" mapstructure:"dir"`           // Directory holding the corpus
	Patterns []string `yaml:"patterns" mapstructure:"patterns"` // Glob patterns relative to Dir
}

// ExcerptMode selects how a hit excerpt is cut from a document
type ExcerptMode string

const (
	ExcerptWindow ExcerptMode = "window" // Window centered on the first match
	ExcerptPrefix ExcerptMode = "prefix" // Fixed-length document prefix
)

// ScanConfig controls corpus scanning
type ScanConfig struct {
	Window       int         `yaml:"window" mapstructure:"window"`               // Runes kept on each side of the match
	ExcerptMode  ExcerptMode `yaml:"excerpt_mode" mapstructure:"excerpt_mode"`   // window or prefix
	PrefixLength int         `yaml:"prefix_length" mapstructure:"prefix_length"` // Runes kept in prefix mode
	Workers      int         `yaml:"workers" mapstructure:"workers"`             // Per-document scan workers
}

// ExploreConfig controls result presentation
type ExploreConfig struct {
	MaxResults int `yaml:"max_results" mapstructure:"max_results"` // 0 = unlimited
}

// MatchPolicy decides how tokens are linked to entity keys
type MatchPolicy string

const (
	MatchExact     MatchPolicy = "exact"     // Token equals key, ignoring case
	MatchSubstring MatchPolicy = "substring" // Key is contained in token, ignoring case
)

// KGConfig configures the knowledge graph lookup
type KGConfig struct {
	Table             string      `yaml:"table" mapstructure:"table"`                             // YAML entity table (empty = built-in)
	URL               string      `yaml:"url" mapstructure:"url"`                                 // Remote lookup service (overrides Table)
	MatchPolicy       MatchPolicy `yaml:"match_policy" mapstructure:"match_policy"`               // exact or substring
	RequestsPerSecond float64     `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Remote rate limit
	Burst             int         `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool        `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig configures lookup caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
}

// LLMConfig configures the text generation collaborator
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // heuristic, openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// CurationConfig configures the metadata curation pipeline
type CurationConfig struct {
	Store       string   `yaml:"store" mapstructure:"store"`               // JSON list-of-records file
	Keywords    []string `yaml:"keywords" mapstructure:"keywords"`         // Passage selection keywords
	Entities    []string `yaml:"entities" mapstructure:"entities"`         // Entities always described
	MaxPassages int      `yaml:"max_passages" mapstructure:"max_passages"` // Passages passed to the prompt
	MaxChars    int      `yaml:"max_chars" mapstructure:"max_chars"`       // Text budget for summary/tags prompts
	Enrich      bool     `yaml:"enrich" mapstructure:"enrich"`             // Generate summary and tags
	AutoApprove bool     `yaml:"auto_approve" mapstructure:"auto_approve"` // Skip interactive review
	Patterns    []string `yaml:"patterns" mapstructure:"patterns"`         // Batch input patterns
}

// ConcurrencyConfig controls parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // Batch curation workers
}

// HTTPConfig holds settings for outbound HTTP
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// MaxWindow bounds the excerpt window (regexp repeat limit)
const MaxWindow = 1000

// DefaultWindow is the number of runes kept on each side of a match
const DefaultWindow = 40

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Dir:      "data",
			Patterns: []string{"*.txt"},
		},
		Scan: ScanConfig{
			Window:       DefaultWindow,
			ExcerptMode:  ExcerptWindow,
			PrefixLength: 200,
			Workers:      runtime.NumCPU(),
		},
		Explore: ExploreConfig{
			MaxResults: 0,
		},
		KG: KGConfig{
			MatchPolicy:       MatchExact,
			RequestsPerSecond: 5,
			Burst:             5,
			RespectRobots:     true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
			Dir:       ".activearchive-cache",
		},
		LLM: LLMConfig{
			Provider:  "heuristic",
			Timeout:   30,
			MaxTokens: 1000,
		},
		Curation: CurationConfig{
			Store:       "outputs/metadata.json",
			Keywords:    []string{"CO2", "Scope 1", "emissions"},
			Entities:    []string{"CO2", "Scope 1"},
			MaxPassages: 5,
			MaxChars:    2000,
			AutoApprove: true,
			Patterns:    []string{"*.pdf"},
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "activearchive/0.1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Scan.Window <= 0 || c.Scan.Window > MaxWindow {
		return fmt.Errorf("scan.window must be in 1..%d, got %d", MaxWindow, c.Scan.Window)
	}

	switch c.Scan.ExcerptMode {
	case ExcerptWindow, ExcerptPrefix:
	default:
		return fmt.Errorf("unknown scan.excerpt_mode %q (supported: window, prefix)", c.Scan.ExcerptMode)
	}

	if c.Scan.ExcerptMode == ExcerptPrefix && c.Scan.PrefixLength <= 0 {
		return fmt.Errorf("scan.prefix_length must be positive, got %d", c.Scan.PrefixLength)
	}

	switch c.KG.MatchPolicy {
	case MatchExact, MatchSubstring:
	default:
		return fmt.Errorf("unknown kg.match_policy %q (supported: exact, substring)", c.KG.MatchPolicy)
	}

	if c.Explore.MaxResults < 0 {
		return fmt.Errorf("explore.max_results must not be negative, got %d", c.Explore.MaxResults)
	}

	if c.Curation.MaxPassages < 0 {
		return fmt.Errorf("curation.max_passages must not be negative, got %d", c.Curation.MaxPassages)
	}

	return nil
}
