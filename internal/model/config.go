package model

import (
	"fmt"
	"runtime"
	"time"
)

// Config is the complete argintel configuration
type Config struct {
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Classifier  ClassifierConfig  `yaml:"classifier" mapstructure:"classifier"`
	Clustering  ClusteringConfig  `yaml:"clustering" mapstructure:"clustering"`
	Coalition   CoalitionConfig   `yaml:"coalition" mapstructure:"coalition"`
	Brief       BriefConfig       `yaml:"brief" mapstructure:"brief"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Source      SourceConfig      `yaml:"source" mapstructure:"source"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Authority   AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Metrics     MetricsConfig     `yaml:"metrics" mapstructure:"metrics"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// ClassifierConfig controls the sentence classifier
type ClassifierConfig struct {
	RuleConfidence     float64 `yaml:"rule_confidence" mapstructure:"rule_confidence"`
	FallbackConfidence float64 `yaml:"fallback_confidence" mapstructure:"fallback_confidence"`
}

// ClusteringConfig controls argument clustering
type ClusteringConfig struct {
	Method         string  `yaml:"method" mapstructure:"method"`             // kmeans, hierarchical
	MaxClusters    int     `yaml:"max_clusters" mapstructure:"max_clusters"` // 0 = min(10, ceil(n/5))
	MinClusterSize int     `yaml:"min_cluster_size" mapstructure:"min_cluster_size"`
	MaxIterations  int     `yaml:"max_iterations" mapstructure:"max_iterations"`
	Seed           int64   `yaml:"seed" mapstructure:"seed"`
	MajorityShare  float64 `yaml:"majority_share" mapstructure:"majority_share"` // > share → support/oppose
	MinorityShare  float64 `yaml:"minority_share" mapstructure:"minority_share"` // both < share → neutral
}

// CoalitionConfig controls coalition detection and power balance
type CoalitionConfig struct {
	InterestThreshold  float64 `yaml:"interest_threshold" mapstructure:"interest_threshold"`
	DominanceThreshold float64 `yaml:"dominance_threshold" mapstructure:"dominance_threshold"`
	MarginalPower      float64 `yaml:"marginal_power" mapstructure:"marginal_power"`
	MarginalDiversity  float64 `yaml:"marginal_diversity" mapstructure:"marginal_diversity"`
}

// BriefConfig controls brief generation
type BriefConfig struct {
	KeyArguments int    `yaml:"key_arguments" mapstructure:"key_arguments"`
	Format       string `yaml:"format" mapstructure:"format"`
}

// ConcurrencyConfig controls parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // Extraction workers per bill
	Bills   int `yaml:"bills" mapstructure:"bills"`     // Bills processed at once
}

// SourceConfig controls where comments are read from
type SourceConfig struct {
	Kind         string        `yaml:"kind" mapstructure:"kind"` // store, file, http
	Path         string        `yaml:"path" mapstructure:"path"` // JSON-lines file for kind=file
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy" mapstructure:"no_proxy"`
	RateLimit    RateLimit     `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimit is a token bucket setting
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// StoreConfig controls persistence
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite database file
}

// CacheConfig controls result caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// AuthorityConfig maps cited domains to authority tiers
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern assigns a tier to URLs whose path matches a regular expression
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"` // primary, secondary, tertiary
}

// LLMConfig controls the optional narrative generator
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // "" disables
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	RateLimit RateLimit     `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"` // "" disables
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Classifier: ClassifierConfig{
			RuleConfidence:     0.9,
			FallbackConfidence: 0.1,
		},
		Clustering: ClusteringConfig{
			Method:         "kmeans",
			MinClusterSize: 2,
			MaxIterations:  100,
			Seed:           42,
			MajorityShare:  0.7,
			MinorityShare:  0.3,
		},
		Coalition: CoalitionConfig{
			InterestThreshold:  0.2,
			DominanceThreshold: 0.6,
			MarginalPower:      0.15,
			MarginalDiversity:  0.2,
		},
		Brief: BriefConfig{
			KeyArguments: 5,
			Format:       string(FormatMarkdown),
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
			Bills:   2,
		},
		Source: SourceConfig{
			Kind:         "store",
			Timeout:      30 * time.Second,
			UserAgent:    "argintel/0.1",
			MaxBodyBytes: 10_000_000,
			RateLimit: RateLimit{
				RequestsPerSecond: 5,
				Burst:             5,
			},
		},
		Store: StoreConfig{
			Path: "argintel.db",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".argintel-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"parliament.go.ke", "kenyalaw.org", "knbs.or.ke", "judiciary.go.ke",
				"gov", "go.ke", "gov.uk", "europa.eu", "un.org", "who.int", "worldbank.org",
			},
			SecondaryDomains: []string{
				"ac.ke", "edu", "ac.uk", "nation.africa", "standardmedia.co.ke",
				"bbc.co.uk", "reuters.com", "apnews.com", "theconversation.com",
			},
		},
		LLM: LLMConfig{
			Timeout:   30 * time.Second,
			MaxTokens: 800,
			RateLimit: RateLimit{
				RequestsPerSecond: 1,
				Burst:             1,
			},
		},
	}
}

// ValidateThresholds checks that every share and threshold lies in [0, 1].
// Zero is a valid setting; loaders apply defaults only to absent keys.
func (c *Config) ValidateThresholds() error {
	shares := []struct {
		key string
		v   float64
	}{
		{"clustering.majority_share", c.Clustering.MajorityShare},
		{"clustering.minority_share", c.Clustering.MinorityShare},
		{"coalition.interest_threshold", c.Coalition.InterestThreshold},
		{"coalition.dominance_threshold", c.Coalition.DominanceThreshold},
		{"coalition.marginal_power", c.Coalition.MarginalPower},
		{"coalition.marginal_diversity", c.Coalition.MarginalDiversity},
	}
	for _, s := range shares {
		if !(s.v >= 0 && s.v <= 1) {
			return fmt.Errorf("%s: %v is outside [0, 1]", s.key, s.v)
		}
	}
	return nil
}
