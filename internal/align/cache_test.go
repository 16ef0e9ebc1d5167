package align

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/resilience"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	goredis "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.data[key] = string(value)
	return nil
}

type countingAligner struct {
	calls atomic.Int64
	ok    bool
}

func (c *countingAligner) Global(_ context.Context, a, b string, _ Scheme, _ int) (Result, bool) {
	c.calls.Add(1)
	return Result{RawScore: len(a), ScaledScore: 90, SeqBEnd: len(b)}, c.ok
}

func (c *countingAligner) Path(_ context.Context, a, b string, _ Scheme, _ int) (Result, bool) {
	c.calls.Add(1)
	return Result{RawScore: len(a), ScaledScore: 80, SeqBEnd: len(a)}, c.ok
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCachedHitsAfterFirstCall(t *testing.T) {
	ctx := context.Background()
	inner := &countingAligner{ok: true}
	m := metrics.NewUnregistered()
	c := NewCached(inner, newMemoryStore(), time.Minute, m)

	first, ok := c.Global(ctx, "ACGT", "ACGTT", DefaultScheme, 10)
	if !ok {
		t.Fatal("expected result")
	}
	second, ok := c.Global(ctx, "ACGT", "ACGTT", DefaultScheme, 10)
	if !ok || second != first {
		t.Errorf("cached result = %+v ok=%v, want %+v", second, ok, first)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
	if _, ok := c.Path(ctx, "ACGT", "ACGTT", DefaultScheme, 10); !ok {
		t.Fatal("expected path result")
	}
	if inner.calls.Load() != 2 {
		t.Errorf("path mode must not share the global key; inner calls = %d", inner.calls.Load())
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 2 {
		t.Errorf("Stats = %d hits %d misses, want 1 and 2", hits, misses)
	}
	if got := counterValue(t, m.CacheHitsTotal); got != 1 {
		t.Errorf("hits counter = %v, want 1", got)
	}
}

func TestCachedRemembersFailures(t *testing.T) {
	ctx := context.Background()
	inner := &countingAligner{ok: false}
	c := NewCached(inner, newMemoryStore(), time.Minute, nil)
	for i := 0; i < 3; i++ {
		if _, ok := c.Global(ctx, "AC", "GT", DefaultScheme, 1); ok {
			t.Fatal("expected failure to be preserved")
		}
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
}

func TestCachedStoreOutage(t *testing.T) {
	ctx := context.Background()
	inner := &countingAligner{ok: true}
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	c := NewCached(inner, store, time.Minute, metrics.NewUnregistered())

	for i := 0; i < 5; i++ {
		res, ok := c.Global(ctx, "ACGT", "ACGT", DefaultScheme, 2)
		if !ok || res.RawScore != 4 {
			t.Fatalf("call %d: got %+v ok=%v", i, res, ok)
		}
	}
	if inner.calls.Load() != 5 {
		t.Errorf("inner calls = %d, want 5", inner.calls.Load())
	}
	if c.Breaker().GetState() != resilience.StateOpen {
		t.Errorf("breaker state = %v, want open", c.Breaker().GetState())
	}
}

// leaderAligner blocks its first call until that caller's context is
// cancelled and answers every later call at once.
type leaderAligner struct {
	started chan struct{}
	calls   atomic.Int64
}

func (l *leaderAligner) Global(ctx context.Context, a, b string, _ Scheme, _ int) (Result, bool) {
	if l.calls.Add(1) == 1 {
		close(l.started)
		<-ctx.Done()
		return Result{}, false
	}
	return Result{RawScore: len(a), ScaledScore: 100, SeqBEnd: len(b)}, true
}

func (l *leaderAligner) Path(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool) {
	return l.Global(ctx, a, b, scheme, band)
}

func TestCachedSharedCallCancelledByOtherCaller(t *testing.T) {
	inner := &leaderAligner{started: make(chan struct{})}
	store := newMemoryStore()
	c := NewCached(inner, store, time.Minute, nil)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan bool, 1)
	go func() {
		_, ok := c.Global(leaderCtx, "ACGT", "ACGT", DefaultScheme, 2)
		leaderDone <- ok
	}()
	<-inner.started

	type answer struct {
		res Result
		ok  bool
	}
	followerDone := make(chan answer, 1)
	go func() {
		res, ok := c.Global(context.Background(), "ACGT", "ACGT", DefaultScheme, 2)
		followerDone <- answer{res, ok}
	}()
	time.Sleep(20 * time.Millisecond)
	cancelLeader()

	if ok := <-leaderDone; ok {
		t.Error("cancelled caller reported a result")
	}
	select {
	case got := <-followerDone:
		if !got.ok || got.res.RawScore != 4 {
			t.Errorf("follower got %+v ok=%v, want a real alignment", got.res, got.ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("follower did not return")
	}

	again, ok := c.Global(context.Background(), "ACGT", "ACGT", DefaultScheme, 2)
	if !ok || again.RawScore != 4 {
		t.Errorf("cached answer = %+v ok=%v", again, ok)
	}
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner calls = %d, want 2 (cancelled call is never cached)", n)
	}
}

func TestBuildKeyDistinguishesInputs(t *testing.T) {
	base := buildKey(ModeGlobal, "ACGT", "ACGA", DefaultScheme, 10)
	others := []string{
		buildKey(ModePath, "ACGT", "ACGA", DefaultScheme, 10),
		buildKey(ModeGlobal, "ACGA", "ACGT", DefaultScheme, 10),
		buildKey(ModeGlobal, "ACGT", "ACGA", DefaultScheme, 11),
		buildKey(ModeGlobal, "ACGT", "ACGA", Scheme{1, -1, -1, -1}, 10),
		buildKey(ModeGlobal, "ACG", "TACGA", DefaultScheme, 10),
	}
	for i, k := range others {
		if k == base {
			t.Errorf("key %d collides with base key", i)
		}
	}
}

func TestInstrumentedCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewUnregistered()
	ins := NewInstrumented(NewBanded(), m)
	ins.Global(ctx, "ACGT", "ACGT", DefaultScheme, 2)
	ins.Global(ctx, "ACGTACGTAC", "A", DefaultScheme, 2)
	ins.Path(ctx, "ACGT", "ACGTAA", DefaultScheme, 4)

	if got := counterValue(t, m.AlignmentsTotal.WithLabelValues("global", "ok")); got != 1 {
		t.Errorf("global ok = %v, want 1", got)
	}
	if got := counterValue(t, m.AlignmentsTotal.WithLabelValues("global", "failed")); got != 1 {
		t.Errorf("global failed = %v, want 1", got)
	}
	if got := counterValue(t, m.AlignmentsTotal.WithLabelValues("path", "ok")); got != 1 {
		t.Errorf("path ok = %v, want 1", got)
	}
}
