package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/metrics"
	dto "github.com/prometheus/client_model/go"
)

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	events   []kafka.Event
}

func (p *fakePublisher) Publish(_ context.Context, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func jobConfig() config.KafkaConfig {
	cfg := config.Default().Kafka
	cfg.JobTimeout = time.Second
	return cfg
}

func jobsCounter(t *testing.T, m *metrics.Metrics, status string) float64 {
	t.Helper()
	var out dto.Metric
	if err := m.JobsProcessedTotal.WithLabelValues(status).Write(&out); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return out.GetCounter().GetValue()
}

func encodeRequest(t *testing.T, req Request) []byte {
	t.Helper()
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestHandleMessagePublishesResult(t *testing.T) {
	m := metrics.NewUnregistered()
	pub := &fakePublisher{}
	handle := HandleMessage(&fakeResolver{resolve: resolvedWith(5)}, pub, jobConfig(), m)

	ctx := logger.WithRequestID(context.Background(), "rid-1")
	value := encodeRequest(t, Request{StartSegment: 1, EndSegment: 3, TargetLength: 10})
	if err := handle(ctx, []byte("job-9"), value); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Key != "job-9" || ev.RequestID != "rid-1" {
		t.Errorf("event key=%q request id=%q", ev.Key, ev.RequestID)
	}
	resp, ok := ev.Value.(*Response)
	if !ok || !resp.Resolved || resp.ID != "job-9" {
		t.Errorf("event value = %#v", ev.Value)
	}
	if got := jobsCounter(t, m, "ok"); got != 1 {
		t.Errorf("ok jobs = %v, want 1", got)
	}
}

func TestHandleMessagePoison(t *testing.T) {
	m := metrics.NewUnregistered()
	pub := &fakePublisher{}
	fr := &fakeResolver{resolve: resolvedWith(5)}
	handle := HandleMessage(fr, pub, jobConfig(), m)
	if err := handle(context.Background(), []byte("k"), []byte("not json")); err != nil {
		t.Fatalf("poison message should be committed, got %v", err)
	}
	if len(fr.seen) != 0 || pub.calls != 0 {
		t.Error("poison message reached the resolver or publisher")
	}
	if got := jobsCounter(t, m, "poison"); got != 1 {
		t.Errorf("poison jobs = %v, want 1", got)
	}
}

func TestHandleMessageAnswersFailures(t *testing.T) {
	pub := &fakePublisher{}
	fr := &fakeResolver{resolve: func(context.Context, Request) (*Response, error) {
		return nil, apperrors.New(apperrors.ErrSegmentNotFound, http.StatusNotFound, "segment 8")
	}}
	handle := HandleMessage(fr, pub, jobConfig(), nil)
	value := encodeRequest(t, Request{ID: "j", StartSegment: 8, EndSegment: 3, TargetLength: 10})
	if err := handle(context.Background(), nil, value); err != nil {
		t.Fatalf("handle: %v", err)
	}
	resp := pub.events[0].Value.(*Response)
	if resp.Resolved || resp.Error == "" || resp.ID != "j" {
		t.Errorf("error response = %+v", resp)
	}
}

func TestHandleMessageRetriesPublish(t *testing.T) {
	pub := &fakePublisher{failures: 2}
	handle := HandleMessage(&fakeResolver{resolve: resolvedWith(5)}, pub, jobConfig(), nil)
	value := encodeRequest(t, Request{ID: "j", StartSegment: 1, EndSegment: 3, TargetLength: 10})
	if err := handle(context.Background(), nil, value); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if pub.calls != 3 || len(pub.events) != 1 {
		t.Errorf("calls=%d events=%d, want 3 and 1", pub.calls, len(pub.events))
	}
}

func TestHandleMessageLeavesUncommittedOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pub := &fakePublisher{}
	fr := &fakeResolver{resolve: func(ctx context.Context, _ Request) (*Response, error) {
		cancel()
		return nil, ctx.Err()
	}}
	handle := HandleMessage(fr, pub, jobConfig(), nil)
	value := encodeRequest(t, Request{ID: "j", StartSegment: 1, EndSegment: 3, TargetLength: 10})
	if err := handle(ctx, nil, value); err == nil {
		t.Fatal("expected error so the offset is not committed")
	}
	if pub.calls != 0 {
		t.Error("no result should be published on shutdown")
	}
}
