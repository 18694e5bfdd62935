package brandaudit

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`

	PageSpeedBaseURL string        `mapstructure:"pagespeed_base_url"`
	PageSpeedAPIKey  string        `mapstructure:"pagespeed_api_key"`
	CrawlTimeout     time.Duration `mapstructure:"crawl_timeout"`
	CrawlCacheTTL    time.Duration `mapstructure:"crawl_cache_ttl"`

	GeminiAPIKey      string  `mapstructure:"gemini_api_key"`
	GeminiModel       string  `mapstructure:"gemini_model"`
	GeminiTemperature float64 `mapstructure:"gemini_temperature"`

	// PenalizeFailedScan lets an unsuccessful technical scan pull the
	// momentum score down. Off by default: a broken scanning path is
	// not the brand's fault.
	PenalizeFailedScan bool `mapstructure:"penalize_failed_scan"`

	// RetryDelay is the pause between AI generation attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:           true,
		MaxJobsActive:     5,
		Timeout:           120 * time.Second,
		CrawlTimeout:      30 * time.Second,
		CrawlCacheTTL:     time.Hour,
		GeminiModel:       "gemini-2.5-flash",
		GeminiTemperature: 0.4,
		RetryDelay:        time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.CrawlTimeout <= 0 {
		return fmt.Errorf("crawl_timeout must be positive")
	}
	// Provider credentials are optional: their absence selects the
	// degraded scan mode and the deterministic fallback report.
	return nil
}
