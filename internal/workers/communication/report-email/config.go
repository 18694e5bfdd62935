package reportemail

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`

	AWSRegion     string `mapstructure:"aws_region"`
	SenderEmail   string `mapstructure:"sender_email"`
	ReportBaseURL string `mapstructure:"report_base_url"`

	// OpsTopicARN receives an alert when the report email cannot be
	// delivered. Empty disables alerting.
	OpsTopicARN string `mapstructure:"ops_topic_arn"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       30 * time.Second,
		AWSRegion:     "us-east-1",
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Enabled && c.SenderEmail == "" {
		return fmt.Errorf("sender_email is required when the worker is enabled")
	}
	if c.Enabled && c.ReportBaseURL == "" {
		return fmt.Errorf("report_base_url is required when the worker is enabled")
	}
	return nil
}
