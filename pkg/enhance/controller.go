// Package enhance wraps provider dispatch with request pacing, retry
// with exponential backoff, and the outbound enhancement surface.
package enhance

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/yangzichao/hoah-dictation-sub000/internal/httputil"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/providers"
	"github.com/yangzichao/hoah-dictation-sub000/pkg/types"
)

// DefaultInterval is the minimum spacing between request starts.
const DefaultInterval = time.Second

// ControllerConfig holds the optional settings for a Controller.
type ControllerConfig struct {
	// Interval is the minimum spacing between request starts across
	// all providers. Defaults to 1s.
	Interval time.Duration
	// Backoff overrides the retry schedule.
	Backoff httputil.BackoffConfig
	// Logger overrides the default logger.
	Logger *log.Logger
}

// Controller enforces the inter-request interval and retries transient
// failures around one dispatcher call.
type Controller struct {
	limiter *rate.Limiter
	backoff httputil.BackoffConfig
	logger  *log.Logger
}

// NewController creates a controller with the default pacing and retry
// policy for unset fields.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Backoff == (httputil.BackoffConfig{}) {
		cfg.Backoff = httputil.DefaultBackoffConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Controller{
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), 1),
		backoff: cfg.Backoff,
		logger:  cfg.Logger,
	}
}

// Dispatch runs one enhancement request under the pacing and retry
// policy. Retryable failures (network, server, rate limit) are retried
// up to the backoff budget; every other error propagates immediately.
// The interval reservation stamps each attempt's start, so a failed
// attempt still holds the interval and backoff sleeps compound with
// pacing sleeps.
func (c *Controller) Dispatch(ctx context.Context, d providers.Dispatcher, system, user string, session *types.ActiveSession, timeout time.Duration) (string, error) {
	attempts := c.backoff.MaxRetries + 1
	var lastErr *types.EnhanceError

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := httputil.DelayFor(c.backoff, attempt)
			c.logger.Printf("[enhance] attempt %d/%d failed (%v), retrying in %v", attempt, attempts, lastErr.Code, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, err := d.PerformRequest(ctx, system, user, session, timeout)
		if err == nil {
			return text, nil
		}

		var enhErr *types.EnhanceError
		if !errors.As(err, &enhErr) || !enhErr.IsRetryable() {
			return "", err
		}
		lastErr = enhErr
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", types.NewEnhancementFailedError(sessionProvider(session), "retry budget exhausted")
}

func sessionProvider(session *types.ActiveSession) types.ProviderType {
	if session == nil {
		return ""
	}
	return session.Provider
}
