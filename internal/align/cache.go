package align

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/resilience"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "align:"

// Store is the slice of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type cachedResult struct {
	OK     bool   `json:"ok"`
	Result Result `json:"result"`
}

// Cached memoizes another Aligner in a shared store. Failed alignments are
// cached too, since the oracle's verdict for a pair never changes. Store
// errors never fail an alignment: the circuit breaker trips and the inner
// aligner answers directly until the store recovers.
type Cached struct {
	inner   Aligner
	store   Store
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCached wraps inner. m may be nil.
func NewCached(inner Aligner, store Store, ttl time.Duration, m *metrics.Metrics) *Cached {
	cbCfg := resilience.CircuitBreakerConfig{}
	if m != nil {
		cbCfg.OnStateChange = func(name string, _, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		}
	}
	return &Cached{
		inner:   inner,
		store:   store,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker("alignment-cache", cbCfg),
		metrics: m,
		logger:  slog.Default().With("component", "alignment-cache"),
	}
}

func (c *Cached) Global(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool) {
	return c.getOrCompute(ctx, ModeGlobal, a, b, scheme, band, c.inner.Global)
}

func (c *Cached) Path(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool) {
	return c.getOrCompute(ctx, ModePath, a, b, scheme, band, c.inner.Path)
}

// Stats returns the hit and miss counts since construction.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Breaker exposes the store circuit breaker for health reporting.
func (c *Cached) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

type alignFunc func(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool)

func (c *Cached) getOrCompute(ctx context.Context, mode Mode, a, b string, scheme Scheme, band int, compute alignFunc) (Result, bool) {
	key := buildKey(mode, a, b, scheme, band)
	if cached, ok := c.get(ctx, key); ok {
		return cached.Result, cached.OK
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if cached, ok := c.lookup(ctx, key); ok {
			return cached, nil
		}
		res, ok := compute(ctx, a, b, scheme, band)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := cachedResult{OK: ok, Result: res}
		c.set(ctx, key, out)
		return out, nil
	})
	if err == nil {
		out := val.(cachedResult)
		return out.Result, out.OK
	}
	if ctx.Err() != nil {
		return Result{}, false
	}
	// The shared call was cancelled by another caller; answer for this one.
	c.logger.Debug("shared alignment cancelled, recomputing", "key", key, "error", err)
	res, ok := compute(ctx, a, b, scheme, band)
	if ctx.Err() == nil {
		c.set(ctx, key, cachedResult{OK: ok, Result: res})
	}
	return res, ok
}

func (c *Cached) get(ctx context.Context, key string) (cachedResult, bool) {
	out, ok := c.lookup(ctx, key)
	if !ok {
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.CacheMissesTotal.Inc()
		}
		return cachedResult{}, false
	}
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return out, true
}

func (c *Cached) lookup(ctx context.Context, key string) (cachedResult, bool) {
	var data string
	err := c.breaker.Execute(func() error {
		var getErr error
		data, getErr = c.store.Get(ctx, key)
		if pkgredis.IsNilError(getErr) {
			return nil
		}
		return getErr
	})
	if err != nil || data == "" {
		if err != nil {
			c.logger.Debug("cache get failed", "key", key, "error", err)
		}
		return cachedResult{}, false
	}
	var out cachedResult
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return cachedResult{}, false
	}
	return out, true
}

func (c *Cached) set(ctx context.Context, key string, out cachedResult) {
	data, err := json.Marshal(out)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Debug("cache set failed", "key", key, "error", err)
	}
}

func buildKey(mode Mode, a, b string, scheme Scheme, band int) string {
	h := sha256.New()
	h.Write([]byte(mode))
	h.Write([]byte{0})
	h.Write([]byte(scheme.String()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(band)))
	h.Write([]byte{0})
	h.Write([]byte(a))
	h.Write([]byte{0})
	h.Write([]byte(b))
	return keyPrefix + hex.EncodeToString(h.Sum(nil)[:16])
}
