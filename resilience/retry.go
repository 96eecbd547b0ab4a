package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	apperrors "github.com/kbukum/ledgerflow/errors"
	"github.com/kbukum/ledgerflow/logger"
)

// ErrRetriesExhausted is matched by errors.Is against every *RetriesExhaustedError.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Default retry settings.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Second
	DefaultMultiplier  = 1.5
	DefaultJitterMin   = 2 * time.Second
	DefaultJitterMax   = 8 * time.Second
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of invocations, including the first.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	// BaseDelay is multiplied by Multiplier^attempt.
	BaseDelay time.Duration `yaml:"base_delay" mapstructure:"base_delay" validate:"gte=0"`
	// Multiplier is the exponential growth factor.
	Multiplier float64 `yaml:"multiplier" mapstructure:"multiplier" validate:"gte=0"`
	// JitterMin and JitterMax bound the uniform jitter added to every delay.
	JitterMin time.Duration `yaml:"jitter_min" mapstructure:"jitter_min" validate:"gte=0"`
	JitterMax time.Duration `yaml:"jitter_max" mapstructure:"jitter_max" validate:"gte=0"`
	// Mute disables the per-attempt warning log.
	Mute bool `yaml:"mute" mapstructure:"mute"`

	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-" mapstructure:"-"`
	// Logger receives one warning per failed attempt.
	Logger *logger.Logger `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns the production defaults: five attempts, a 2s
// base, a 1.5 multiplier and 2-8s of jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultMultiplier,
		JitterMin:   DefaultJitterMin,
		JitterMax:   DefaultJitterMax,
		RetryIf:     DefaultRetryIf,
	}
}

// ApplyDefaults fills the zero-value fields that have no meaningful zero.
// Zero delays stay zero so tests can retry without sleeping.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Multiplier <= 0 {
		c.Multiplier = DefaultMultiplier
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// Validate checks that the jitter window is well formed.
func (c *RetryConfig) Validate() error {
	if c.JitterMax < c.JitterMin {
		return apperrors.InvalidInput("retry.jitter_max", "jitter_max must be >= jitter_min")
	}
	return nil
}

// DefaultRetryIf retries everything except context cancellation and
// AppErrors explicitly marked as not retryable.
func DefaultRetryIf(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.Retryable
	}
	return true
}

// RetriesExhaustedError is returned when every attempt failed.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return apperrors.RetriesExhausted(e.Attempts, e.Last).Error()
}

// Unwrap exposes the last cause.
func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// Is matches ErrRetriesExhausted and the RETRIES_EXHAUSTED app error code.
func (e *RetriesExhaustedError) Is(target error) bool {
	if target == ErrRetriesExhausted {
		return true
	}
	t, ok := target.(*apperrors.AppError)
	return ok && t.Code == apperrors.ErrCodeRetriesExhausted
}

// Retry executes fn until it succeeds, returns a non-retryable error, or
// runs out of attempts.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	cfg.ApplyDefaults()
	log := logger.OrNop(cfg.Logger)

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !cfg.RetryIf(err) {
			return zero, err
		}

		// no sleep after the last attempt
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := Backoff(attempt, cfg)
		if !cfg.Mute {
			log.Warn("attempt failed, retrying", logger.Fields(
				logger.FieldAttempt, attempt+1,
				logger.FieldDelay, delay.Milliseconds(),
				logger.FieldError, err.Error(),
			))
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, delay)
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	if !cfg.Mute {
		log.Error("retries exhausted", logger.Fields(
			logger.FieldAttempt, cfg.MaxAttempts,
			logger.FieldError, lastErr.Error(),
		))
	}
	return zero, &RetriesExhaustedError{Attempts: cfg.MaxAttempts, Last: lastErr}
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Backoff returns the delay after the given zero-based attempt.
func Backoff(attempt int, cfg RetryConfig) time.Duration {
	d := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	return time.Duration(d) + jitter(cfg.JitterMin, cfg.JitterMax)
}

func jitter(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
