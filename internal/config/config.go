// Package config loads and validates warmer configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mjfield/edgewarm/internal/warming"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Warm     WarmConfig     `mapstructure:"warm"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Provider ProviderConfig `mapstructure:"provider"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// WarmConfig governs scheduling and discovery behavior.
type WarmConfig struct {
	Workers                    int    `mapstructure:"workers"`
	Policy                     string `mapstructure:"policy"`
	PriorityRegion             string `mapstructure:"priority_region"`
	PriorityPasses             int    `mapstructure:"priority_passes"`
	MinIntervalMs              int    `mapstructure:"min_interval_ms"`
	InterDomainCooldownSeconds int    `mapstructure:"inter_domain_cooldown_seconds"`
	CrawlFallback              bool   `mapstructure:"crawl_fallback"`
	CrawlMaxURLs               int    `mapstructure:"crawl_max_urls"`
}

// HTTPConfig configures request behavior and the retry policy.
type HTTPConfig struct {
	UserAgent         string `mapstructure:"user_agent"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// ProviderConfig selects the CDN edge catalog and header profile.
type ProviderConfig struct {
	Name         string            `mapstructure:"name"`
	ExtraHeaders map[string]string `mapstructure:"extra_headers"`
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WARMER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("warm.workers", 0) // 0 = one per edge location
	v.SetDefault("warm.policy", string(warming.PolicyFlat))
	v.SetDefault("warm.priority_region", "Oceania")
	v.SetDefault("warm.priority_passes", 5)
	v.SetDefault("warm.min_interval_ms", 1000)
	v.SetDefault("warm.inter_domain_cooldown_seconds", 60)
	v.SetDefault("warm.crawl_fallback", true)
	v.SetDefault("warm.crawl_max_urls", 100)
	v.SetDefault("http.user_agent", "edgewarm/1.0 (+https://github.com/mjfield/edgewarm)")
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.retry_delay_seconds", 2)
	v.SetDefault("provider.name", "cloudflare")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Warm.Workers < 0 {
		return fmt.Errorf("warm.workers must be >= 0")
	}
	switch warming.Policy(c.Warm.Policy) {
	case warming.PolicyFlat, warming.PolicyGeoPriority:
	default:
		return fmt.Errorf("warm.policy must be %q or %q", warming.PolicyFlat, warming.PolicyGeoPriority)
	}
	if warming.Policy(c.Warm.Policy) == warming.PolicyGeoPriority {
		if c.Warm.PriorityRegion == "" {
			return fmt.Errorf("warm.priority_region must be set for geo-priority scheduling")
		}
		if c.Warm.PriorityPasses <= 0 {
			return fmt.Errorf("warm.priority_passes must be > 0")
		}
	}
	if c.Warm.CrawlMaxURLs <= 0 {
		return fmt.Errorf("warm.crawl_max_urls must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	switch c.Provider.Name {
	case "cloudflare", "bunny":
	default:
		return fmt.Errorf("provider.name must be cloudflare or bunny")
	}
	return nil
}

// Timeout returns the per-request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryDelay returns the fixed inter-attempt delay as a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.HTTP.RetryDelaySeconds) * time.Second
}

// MinInterval returns the per-location request spacing as a duration.
func (c Config) MinInterval() time.Duration {
	return time.Duration(c.Warm.MinIntervalMs) * time.Millisecond
}

// InterDomainCooldown returns the pause between domains as a duration.
func (c Config) InterDomainCooldown() time.Duration {
	return time.Duration(c.Warm.InterDomainCooldownSeconds) * time.Second
}
