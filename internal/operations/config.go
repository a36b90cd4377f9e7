package operations

import (
	"time"

	"hrreport/internal/config"
)

// Config represents the pipeline execution configuration
type Config struct {
	// Retry bounds how often the whole pipeline is attempted
	Retry RetryPolicy

	// Step-specific timeouts
	StageTimeouts map[string]time.Duration
}

// NewConfig derives step timeouts and the retry policy from app settings.
// The fetch step covers page load, the bounded click and a fallback fetch.
// The download wait gets its own timeout plus one poll of slack.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Retry: NewRetryPolicy(cfg.Retry),
		StageTimeouts: map[string]time.Duration{
			StageIDFetch:     2*cfg.Browser.Timeout + cfg.Source.ClickTimeout,
			StageIDDownload:  cfg.Download.Timeout + cfg.Download.PollInterval,
			StageIDExtract:   DefaultStageTimeout,
			StageIDTransform: DefaultTransformTimeout,
			StageIDReport:    cfg.Browser.Timeout + DefaultStageTimeout,
			StageIDNotify:    cfg.Mail.Timeout + time.Minute,
		},
	}
}

// GetStageTimeout returns the timeout for a specific Step
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stageID]; ok && timeout > 0 {
		return timeout
	}
	return DefaultStageTimeout
}

// SetStageTimeout sets the timeout for a specific Step
func (c *Config) SetStageTimeout(stageID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stageID] = timeout
}
