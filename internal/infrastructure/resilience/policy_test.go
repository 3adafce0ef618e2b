package resilience

import (
	"testing"
	"time"
)

func TestDefaultConfigStaysWithinRequestBudget(t *testing.T) {
	cfg := DefaultConfig()

	// Worst case: every attempt fails and every backoff hits the cap. The
	// publish runs inside the create request, so this must stay sub-second.
	worst := time.Duration(cfg.RetryMaxAttempts-1) * cfg.RetryMaxBackoff
	if worst >= time.Second {
		t.Fatalf("worst-case retry wait %v exceeds the request budget", worst)
	}
	if !cfg.BreakerEnabled {
		t.Fatal("breaker must be on by default")
	}
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	got := Config{}.normalize()
	def := DefaultConfig()

	if got.RetryMaxAttempts != def.RetryMaxAttempts || got.RetryInitialBackoff != def.RetryInitialBackoff {
		t.Fatalf("zero retry settings must take defaults, got %+v", got)
	}
	if got.BreakerMinRequests != def.BreakerMinRequests || got.BreakerOpenTimeout != def.BreakerOpenTimeout {
		t.Fatalf("zero breaker settings must take defaults, got %+v", got)
	}
}

func TestNormalizeClampsMaxBackoff(t *testing.T) {
	got := Config{
		RetryInitialBackoff: 300 * time.Millisecond,
		RetryMaxBackoff:     100 * time.Millisecond,
	}.normalize()
	if got.RetryMaxBackoff != got.RetryInitialBackoff {
		t.Fatalf("max backoff below initial must be raised, got %v < %v", got.RetryMaxBackoff, got.RetryInitialBackoff)
	}
}

func TestNormalizeRejectsBadFailureRatio(t *testing.T) {
	for _, ratio := range []float64{-0.1, 0, 1.5} {
		got := Config{BreakerFailureRatio: ratio}.normalize()
		if got.BreakerFailureRatio != DefaultConfig().BreakerFailureRatio {
			t.Fatalf("ratio %v must fall back to default, got %v", ratio, got.BreakerFailureRatio)
		}
	}
}
