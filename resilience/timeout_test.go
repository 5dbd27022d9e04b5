package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout_FastOpPassesThrough(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	if err := to.Execute(context.Background(), okWrite); err != nil {
		t.Errorf("Execute error = %v, want nil", err)
	}
}

func TestTimeout_AbandonsSlowOp(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})

	// A hung probe: the deadline fires, the goroutine is abandoned and
	// released afterwards.
	release := make(chan struct{})
	finished := make(chan struct{})

	err := to.Execute(context.Background(), func(context.Context) error {
		<-release
		close(finished)
		return nil
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute error = %v, want %v", err, ErrTimeout)
	}

	select {
	case <-finished:
		t.Fatal("abandoned op finished before release")
	default:
	}

	close(release)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Error("abandoned op never finished after release")
	}
}

func TestTimeout_PropagatesOpError(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Second})

	if err := to.Execute(context.Background(), failingWrite); !errors.Is(err, errStoreDown) {
		t.Errorf("Execute error = %v, want %v", err, errStoreDown)
	}
}

func TestTimeout_ParentCancellationIsNotTimeout(t *testing.T) {
	to := NewTimeout(TimeoutConfig{Timeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := to.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(time.Minute)
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute error = %v, want %v", err, context.Canceled)
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), 20*time.Millisecond, func(context.Context) error {
		time.Sleep(time.Second)
		return nil
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("ExecuteWithTimeout error = %v, want %v", err, ErrTimeout)
	}

	if err := ExecuteWithTimeout(context.Background(), time.Second, okWrite); err != nil {
		t.Errorf("ExecuteWithTimeout fast-op error = %v, want nil", err)
	}
}

func TestNewTimeoutDefaults(t *testing.T) {
	to := NewTimeout(TimeoutConfig{})
	if got := to.Config().Timeout; got != 30*time.Second {
		t.Errorf("default Timeout = %v, want 30s", got)
	}
}
