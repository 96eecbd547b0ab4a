package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/kbukum/ledgerflow/errors"
)

func fastConfig(maxAttempts int) RetryConfig {
	return RetryConfig{MaxAttempts: maxAttempts, Mute: true}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastConfig(5), func(ctx context.Context) (string, error) {
		calls++
		return "ledger", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ledger" {
		t.Errorf("expected 'ledger', got %s", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_SucceedsAfterKFailures(t *testing.T) {
	for k := 0; k < 5; k++ {
		calls := 0
		result, err := Retry(context.Background(), fastConfig(5), func(ctx context.Context) (int, error) {
			calls++
			if calls <= k {
				return 0, errors.New("temporary")
			}
			return 42, nil
		})
		if err != nil {
			t.Fatalf("k=%d: expected success, got %v", k, err)
		}
		if result != 42 {
			t.Errorf("k=%d: expected 42, got %d", k, result)
		}
		if calls != k+1 {
			t.Errorf("k=%d: expected %d calls, got %d", k, k+1, calls)
		}
	}
}

func TestRetry_Exhausted(t *testing.T) {
	cause := errors.New("rpc down")
	calls := 0
	_, err := Retry(context.Background(), fastConfig(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, cause
	})
	if calls != 5 {
		t.Errorf("expected 5 calls, got %d", calls)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("expected exhausted error to wrap the last cause")
	}
	if !errors.Is(err, apperrors.Code(apperrors.ErrCodeRetriesExhausted)) {
		t.Error("expected exhausted error to match the RETRIES_EXHAUSTED code")
	}
	var ex *RetriesExhaustedError
	if !errors.As(err, &ex) || ex.Attempts != 5 {
		t.Errorf("expected RetriesExhaustedError with 5 attempts, got %v", err)
	}
}

func TestRetry_DefaultAttempts(t *testing.T) {
	calls := 0
	_, _ = Retry(context.Background(), RetryConfig{Mute: true}, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("x")
	})
	if calls != DefaultMaxAttempts {
		t.Errorf("expected %d calls, got %d", DefaultMaxAttempts, calls)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastConfig(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, apperrors.ContractViolation("fetch", "bad input")
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if errors.Is(err, ErrRetriesExhausted) {
		t.Error("contract violation should not be reported as exhausted")
	}
	if !apperrors.HasCode(err, apperrors.ErrCodeContractViolation) {
		t.Errorf("expected contract violation, got %v", err)
	}
}

func TestRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, Mute: true}
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := Retry(ctx, cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("x")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetry_OnRetryHook(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
	}
	_ = RetryFunc(context.Background(), cfg, func(ctx context.Context) error {
		return errors.New("x")
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected retries [1 2], got %v", attempts)
	}
}

func TestBackoff_Formula(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 2 * time.Second, Multiplier: 1.5}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 3 * time.Second},
		{2, 4500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempt, cfg); got != tt.want {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.want, got)
		}
	}
}

func TestBackoff_JitterWindow(t *testing.T) {
	cfg := DefaultRetryConfig()
	for i := 0; i < 100; i++ {
		d := Backoff(0, cfg) - cfg.BaseDelay
		if d < cfg.JitterMin || d >= cfg.JitterMax {
			t.Fatalf("jitter %v outside [%v, %v)", d, cfg.JitterMin, cfg.JitterMax)
		}
	}
}

func TestRetryConfig_Validate(t *testing.T) {
	cfg := RetryConfig{JitterMin: 3 * time.Second, JitterMax: time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when jitter_max < jitter_min")
	}
	def := DefaultRetryConfig()
	if err := def.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}
