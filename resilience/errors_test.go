package resilience

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrCircuitOpen,
		ErrMaxRetriesExceeded,
		ErrRateLimitExceeded,
		ErrBulkheadFull,
		ErrTimeout,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches %v", a, b)
			}
		}
	}
}

func TestSentinelErrorsCarryPackagePrefix(t *testing.T) {
	sentinels := []error{
		ErrCircuitOpen,
		ErrMaxRetriesExceeded,
		ErrRateLimitExceeded,
		ErrBulkheadFull,
		ErrTimeout,
	}

	for _, err := range sentinels {
		if !strings.HasPrefix(err.Error(), "resilience: ") {
			t.Errorf("error %q lacks package prefix", err.Error())
		}
	}
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("audit write for %q: %w", "db", ErrCircuitOpen)
	if !errors.Is(wrapped, ErrCircuitOpen) {
		t.Errorf("errors.Is(wrapped, ErrCircuitOpen) = false, want true")
	}
}
