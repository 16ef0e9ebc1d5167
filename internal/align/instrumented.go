package align

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/metrics"
)

// Instrumented counts and times every call to the wrapped Aligner.
type Instrumented struct {
	inner   Aligner
	metrics *metrics.Metrics
}

func NewInstrumented(inner Aligner, m *metrics.Metrics) *Instrumented {
	return &Instrumented{inner: inner, metrics: m}
}

func (i *Instrumented) Global(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool) {
	start := time.Now()
	res, ok := i.inner.Global(ctx, a, b, scheme, band)
	i.observe(ModeGlobal, ok, start)
	return res, ok
}

func (i *Instrumented) Path(ctx context.Context, a, b string, scheme Scheme, band int) (Result, bool) {
	start := time.Now()
	res, ok := i.inner.Path(ctx, a, b, scheme, band)
	i.observe(ModePath, ok, start)
	return res, ok
}

func (i *Instrumented) observe(mode Mode, ok bool, start time.Time) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	i.metrics.AlignmentsTotal.WithLabelValues(string(mode), outcome).Inc()
	i.metrics.AlignmentLatency.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
}
