package model

import "time"

// Config is the full nobelmap configuration
type Config struct {
	DataDir         string `yaml:"data_dir" mapstructure:"data_dir"`
	OverridesFile   string `yaml:"overrides_file" mapstructure:"overrides_file"`
	PublishFile     string `yaml:"publish_file" mapstructure:"publish_file"`         // Final dataset served by the API
	CheckpointEvery int    `yaml:"checkpoint_every" mapstructure:"checkpoint_every"` // Records between partial snapshot writes

	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Geocoder GeocoderConfig `yaml:"geocoder" mapstructure:"geocoder"`
	Nobel    NobelConfig    `yaml:"nobel" mapstructure:"nobel"`
	Scraper  ScraperConfig  `yaml:"scraper" mapstructure:"scraper"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// GeocoderConfig controls the resolver chain
type GeocoderConfig struct {
	NominatimURL   string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MinIntervalMS  int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"` // Never below 1000
	FuzzyDistance  int    `yaml:"fuzzy_distance" mapstructure:"fuzzy_distance"`   // 0 disables fuzzy table matching
	CacheDir       string `yaml:"cache_dir" mapstructure:"cache_dir"`
	CacheTTLHours  int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// NobelConfig controls the Nobel Prize API client
type NobelConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	PageSize int    `yaml:"page_size" mapstructure:"page_size"`
}

// ScraperConfig controls the enrichment scrapers
type ScraperConfig struct {
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxBytes       int64  `yaml:"max_bytes" mapstructure:"max_bytes"`
	RespectRobots  bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
	MinIntervalMS  int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	NobelPrizeURL  string `yaml:"nobelprize_url" mapstructure:"nobelprize_url"`
	WikipediaURL   string `yaml:"wikipedia_url" mapstructure:"wikipedia_url"`
	HTTPProxy      string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// LLMConfig controls the assisted-search provider
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // openai, anthropic
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig controls the presentation API
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		DataDir:         "pipeline/data",
		OverridesFile:   "pipeline/manual_overrides.json",
		PublishFile:     "nobel_laureates.json",
		CheckpointEvery: 15,
		Log:             LogConfig{Level: "info"},
		Geocoder: GeocoderConfig{
			NominatimURL:   "https://nominatim.openstreetmap.org/search",
			UserAgent:      "NobelPrizeMap/1.0 (Educational Project)",
			TimeoutSeconds: 10,
			MinIntervalMS:  1000,
			FuzzyDistance:  0,
			CacheDir:       ".cache",
			CacheTTLHours:  24 * 30,
		},
		Nobel: NobelConfig{
			BaseURL:  "https://api.nobelprize.org/2.1",
			PageSize: 100,
		},
		Scraper: ScraperConfig{
			UserAgent:      "NobelPrizeMapBot/1.0 (Educational visualization project)",
			TimeoutSeconds: 10,
			MaxBytes:       2_000_000,
			RespectRobots:  true,
			MinIntervalMS:  1000,
			NobelPrizeURL:  "https://www.nobelprize.org",
			WikipediaURL:   "https://en.wikipedia.org",
		},
		LLM: LLMConfig{
			Provider:       "",
			Model:          "",
			TimeoutSeconds: 30,
			MaxTokens:      1000,
		},
		Server: ServerConfig{
			Addr:           ":5000",
			AllowedOrigins: []string{"*"},
		},
	}
}

// GeocodeTimeout returns the per-call geocoding timeout
func (c GeocoderConfig) GeocodeTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MinInterval returns the spacing between geocoder requests, never below one second
func (c GeocoderConfig) MinInterval() time.Duration {
	d := time.Duration(c.MinIntervalMS) * time.Millisecond
	if d < time.Second {
		return time.Second
	}
	return d
}

// CacheTTL returns how long positive geocode results are kept
func (c GeocoderConfig) CacheTTL() time.Duration {
	if c.CacheTTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Timeout returns the per-request scraper timeout
func (c ScraperConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MinInterval returns the per-host spacing between scraper requests
func (c ScraperConfig) MinInterval() time.Duration {
	if c.MinIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// Batch returns the checkpoint interval clamped to 10..20 records
func (c Config) Batch() int {
	switch {
	case c.CheckpointEvery < 10:
		return 10
	case c.CheckpointEvery > 20:
		return 20
	default:
		return c.CheckpointEvery
	}
}
