package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
)

var errBoom = errors.New("boom")

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test", RetryConfig{MaxAttempts: 4, InitialDelay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "test", RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}, func() error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want wrapped errBoom", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	cfg := RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Retryable:    func(err error) bool { return !errors.Is(err, errBoom) },
	}
	err := Retry(context.Background(), "test", cfg, func() error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) || calls != 1 {
		t.Errorf("err = %v calls = %d, want errBoom after 1 call", err, calls)
	}
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "test", RetryConfig{MaxAttempts: 3, InitialDelay: time.Second}, func() error {
		return errBoom
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

type slowDown struct{ wait time.Duration }

func (e slowDown) Error() string              { return "slow down" }
func (e slowDown) RetryAfter() time.Duration { return e.wait }

func TestNextDelayHonoursRetryAfter(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Millisecond, MaxDelay: time.Minute}.withDefaults()
	if d := nextDelay(1, cfg, slowDown{wait: 3 * time.Second}); d != 3*time.Second {
		t.Errorf("delay = %v, want 3s", d)
	}
	if d := nextDelay(1, cfg, slowDown{wait: time.Hour}); d != time.Minute {
		t.Errorf("delay = %v, want capped at 1m", d)
	}
	if d := nextDelay(1, cfg, errBoom); d > 2*time.Millisecond {
		t.Errorf("delay = %v, want about 1ms", d)
	}
}

func TestCircuitBreakerTripsAndRecovers(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     10 * time.Millisecond,
		OnStateChange:    func(_ string, to State) { transitions = append(transitions, to) },
	})

	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return errBoom })
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s, want open", cb.GetState())
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}

	time.Sleep(15 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %s, want closed", cb.GetState())
	}
	want := []State{StateOpen, StateHalfOpen, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
	if !errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}

	parent, cancel := context.WithCancel(context.Background())
	cancel()
	err = WithTimeout(parent, time.Second, "cancelled", func(ctx context.Context) error {
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) || errors.Is(err, apperrors.ErrTimeout) {
		t.Errorf("cancelled parent: err = %v, want Canceled only", err)
	}
	if err := WithTimeout(context.Background(), 0, "fast", func(context.Context) error { return nil }); err != nil {
		t.Errorf("zero timeout: %v", err)
	}
}

func TestCircuitBreakerIgnoresCallerCancellation(t *testing.T) {
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{FailureThreshold: 1})
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return context.Canceled })
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %s, want closed", cb.GetState())
	}
	_ = cb.Execute(func() error { return errBoom })
	if cb.GetState() != StateOpen {
		t.Errorf("state = %s, want open", cb.GetState())
	}
}
