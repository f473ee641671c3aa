package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/terraria-rag/wikiclean/internal/wiki"
	"github.com/terraria-rag/wikiclean/internal/wikitext"
)

// Config holds all configuration
type Config struct {
	// Server
	Port      string        `mapstructure:"port"`
	RateLimit float64       `mapstructure:"rate_limit"` // tool calls per second, 0 disables
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`

	// Batch
	Workers    int  `mapstructure:"workers"`
	SkipErrors bool `mapstructure:"skip_errors"`

	// Cleaning
	MaxPasses       int      `mapstructure:"max_passes"`
	RulesFile       string   `mapstructure:"rules_file"` // empty uses the built-in rules
	UselessSections []string `mapstructure:"useless_sections"`
	TruncateAfter   string   `mapstructure:"truncate_after"`

	// Title filter
	ExcludeTitleWords []string `mapstructure:"exclude_title_words"`
	ExcludeSubpages   bool     `mapstructure:"exclude_subpages"`

	Verbose bool `mapstructure:"verbose"`
}

// New returns a viper instance with defaults, the config file search path
// and WIKICLEAN_* environment overrides set up.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("workers", 4)
	v.SetDefault("skip_errors", false)
	v.SetDefault("max_passes", wikitext.DefaultMaxPasses)
	v.SetDefault("rules_file", "")
	v.SetDefault("useless_sections", wiki.DefaultUselessSections)
	v.SetDefault("truncate_after", wiki.DefaultTruncateAfter)
	v.SetDefault("exclude_title_words", wiki.DefaultExcludeWords)
	v.SetDefault("exclude_subpages", true)
	v.SetDefault("verbose", false)

	v.SetConfigName("wikiclean")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "wikiclean"))
	}

	v.SetEnvPrefix("WIKICLEAN")
	v.AutomaticEnv()

	return v
}

// Load reads the config file, if there is one, and decodes v. A missing
// file found through the search path is not an error; a file set
// explicitly with SetConfigFile must exist.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("invalid config: workers must be at least 1, got %d", c.Workers)
	case c.RateLimit < 0:
		return fmt.Errorf("invalid config: rate_limit must not be negative, got %g", c.RateLimit)
	case c.MaxPasses < 0:
		return fmt.Errorf("invalid config: max_passes must not be negative, got %d", c.MaxPasses)
	case c.CacheTTL < 0:
		return fmt.Errorf("invalid config: cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	return nil
}

// Watch reloads the configuration whenever the file viper read changes and
// passes the result to onChange. Decoding errors are passed along with a
// nil Config; the previous configuration stays in effect for the caller.
func Watch(v *viper.Viper, onChange func(e fsnotify.Event, cfg *Config, err error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := decode(v)
		onChange(e, cfg, err)
	})
	v.WatchConfig()
}

// CleanerOptions returns the pipeline options. The template handler is
// left for the caller.
func (c *Config) CleanerOptions() wiki.Options {
	return wiki.Options{
		UselessSections: c.UselessSections,
		TruncateAfter:   c.TruncateAfter,
		MaxPasses:       c.MaxPasses,
	}
}

// ExcludeFilter returns the title filter.
func (c *Config) ExcludeFilter() *wiki.ExcludeFilter {
	return &wiki.ExcludeFilter{
		Words:    c.ExcludeTitleWords,
		Subpages: c.ExcludeSubpages,
	}
}
