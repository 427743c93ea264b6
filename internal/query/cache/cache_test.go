package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/resilience"
)

type failingStore struct {
	calls atomic.Int32
}

func (s *failingStore) Get(context.Context, string) ([]byte, bool, error) {
	s.calls.Add(1)
	return nil, false, errors.New("connection refused")
}

func (s *failingStore) Set(context.Context, string, []byte) error {
	s.calls.Add(1)
	return errors.New("connection refused")
}

func newLRU(t *testing.T, size int) *LRUStore {
	t.Helper()
	l, err := NewLRUStore(size)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestKey(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := Key("vector", "food", "stem", 1, "tf", start, start.Add(time.Hour))
	if a != Key("vector", "food", "stem", 1, "tf", start.In(time.FixedZone("X", 3600)), start.Add(time.Hour)) {
		t.Error("same instants in different zones hash differently")
	}
	if a == Key("vector", "food", "stem", 1, "tfidf", start, start.Add(time.Hour)) {
		t.Error("different statistics share a key")
	}
	if a == Key("map", "food", "stem", 1, "tf", start, start.Add(time.Hour)) {
		t.Error("different kinds share a key")
	}
	// Field boundaries matter: ("ab","c") and ("a","bc") are distinct.
	if Key("map", "ab", "c") == Key("map", "a", "bc") {
		t.Error("field boundaries ignored")
	}
}

func TestGetOrComputeCollapsesCallers(t *testing.T) {
	c := New("vector", newLRU(t, 8), newLRU(t, 8), nil, metrics.NewNop())
	var computed atomic.Int32
	release := make(chan struct{})
	compute := func(ctx context.Context) ([]float64, error) {
		computed.Add(1)
		<-release
		return []float64{1, 2, 3}, nil
	}

	var wg sync.WaitGroup
	results := make([][]float64, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrCompute(context.Background(), "k", compute)
			if err != nil {
				t.Error(err)
			}
			results[i] = v
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := computed.Load(); n != 1 {
		t.Errorf("computed %d times, want 1", n)
	}
	for _, v := range results {
		if len(v) != 3 {
			t.Errorf("result = %v", v)
		}
	}
	v, hit, _ := c.GetOrCompute(context.Background(), "k", compute)
	if !hit || len(v) != 3 {
		t.Errorf("second lookup hit=%v v=%v", hit, v)
	}
}

func TestSharedHitFillsLocal(t *testing.T) {
	local, shared := newLRU(t, 8), newLRU(t, 8)
	writer := New("map", newLRU(t, 8), shared, nil, metrics.NewNop())
	writer.Set(context.Background(), "k", []float64{0.5, 0.5})

	reader := New("map", local, shared, nil, metrics.NewNop())
	v, ok := reader.Get(context.Background(), "k")
	if !ok || len(v) != 2 {
		t.Fatalf("Get = %v, %v", v, ok)
	}
	if local.Len() != 1 {
		t.Errorf("local level has %d entries after shared hit", local.Len())
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New("vector", newLRU(t, 8), nil, nil, metrics.NewNop())
	boom := errors.New("scan failed")
	if _, _, err := c.GetOrCompute(context.Background(), "k", func(context.Context) ([]float64, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	v, hit, err := c.GetOrCompute(context.Background(), "k", func(context.Context) ([]float64, error) {
		return []float64{1}, nil
	})
	if err != nil || hit || len(v) != 1 {
		t.Errorf("after error: v=%v hit=%v err=%v", v, hit, err)
	}
}

func TestFailingSharedStoreTripsBreaker(t *testing.T) {
	shared := &failingStore{}
	breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	c := New("vector", newLRU(t, 8), shared, breaker, metrics.NewNop())
	compute := func(context.Context) ([]float64, error) { return []float64{7}, nil }

	for i, key := range []string{"a", "b", "c", "d"} {
		v, _, err := c.GetOrCompute(context.Background(), key, compute)
		if err != nil || len(v) != 1 {
			t.Fatalf("query %d: v=%v err=%v", i, v, err)
		}
	}
	if breaker.GetState() != resilience.StateOpen {
		t.Errorf("breaker state = %s, want open", breaker.GetState())
	}
	if n := shared.calls.Load(); n != 2 {
		t.Errorf("shared store called %d times, want 2 before the breaker opened", n)
	}
}

func TestCancelledCallerLeavesFlightRunning(t *testing.T) {
	c := New("vector", newLRU(t, 8), nil, nil, metrics.NewNop())
	started, release := make(chan struct{}), make(chan struct{})
	var computeErr atomic.Value
	compute := func(ctx context.Context) ([]float64, error) {
		close(started)
		<-release
		computeErr.Store(fmt.Sprint(ctx.Err()))
		return []float64{1, 2}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrCompute(ctx, "k", compute)
		first <- err
	}()
	<-started

	second := make(chan []float64, 1)
	go func() {
		v, _, err := c.GetOrCompute(context.Background(), "k", compute)
		if err != nil {
			t.Error(err)
		}
		second <- v
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller err = %v", err)
	}
	close(release)
	v := <-second
	if len(v) != 2 {
		t.Fatalf("waiting caller got %v", v)
	}
	if got := computeErr.Load(); got != "<nil>" {
		t.Errorf("computation saw ctx err %v", got)
	}

	// Callers own their slices.
	v[0] = 99
	again, hit, err := c.GetOrCompute(context.Background(), "k", compute)
	if err != nil || !hit || again[0] != 1 {
		t.Errorf("cached result = %v hit=%v err=%v", again, hit, err)
	}
}

func TestSharedStoreFailuresReportUnavailable(t *testing.T) {
	breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})
	c := New("map", newLRU(t, 8), &failingStore{}, breaker, metrics.NewNop())

	err := c.guard(func() error { return errors.New("connection refused") })
	if !errors.Is(err, apperrors.ErrCacheUnavailable) {
		t.Errorf("store failure err = %v, want ErrCacheUnavailable", err)
	}
	err = c.guard(func() error { return nil })
	if !errors.Is(err, apperrors.ErrCacheUnavailable) || !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("open breaker err = %v, want ErrCacheUnavailable wrapping ErrCircuitOpen", err)
	}
	if apperrors.HTTPStatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("status = %d", apperrors.HTTPStatusCode(err))
	}
}
