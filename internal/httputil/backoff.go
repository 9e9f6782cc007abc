package httputil

import (
	"time"
)

// BackoffConfig configures exponential backoff behavior
type BackoffConfig struct {
	BaseDelay  time.Duration // Delay before the first retry
	MaxDelay   time.Duration // Maximum delay cap
	MaxRetries int           // Retries after the initial attempt
}

// DefaultBackoffConfig returns the retry schedule used for enhancement
// requests: three retries at 1s, 2s, 4s.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		BaseDelay:  1 * time.Second,
		MaxDelay:   60 * time.Second,
		MaxRetries: 3,
	}
}

// DelayFor returns the delay before a given retry using exponential
// backoff. retry is 1-indexed (the first retry is 1).
func DelayFor(config BackoffConfig, retry int) time.Duration {
	if retry <= 1 {
		return config.BaseDelay
	}

	// Cap the shift to prevent overflow
	if retry > 30 {
		retry = 30
	}

	delay := config.BaseDelay * time.Duration(1<<uint(retry-1))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	return delay
}
