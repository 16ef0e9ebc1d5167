package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/resilience"
)

// Publisher sends a finished job's response.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// HandleMessage returns a kafka.MessageHandler that resolves each queued
// Request and publishes its Response. Undecodable messages are logged and
// committed. A job that fails is answered with an error Response rather
// than redelivered, since the same input would fail again. Only shutdown
// and an unreachable result topic leave the offset uncommitted.
func HandleMessage(svc Resolver, pub Publisher, cfg config.KafkaConfig, m *metrics.Metrics) kafka.MessageHandler {
	base := slog.Default().With("component", "resolve-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		log := base
		if id := logger.RequestID(ctx); id != "" {
			log = log.With("request_id", id)
		}
		req, err := kafka.DecodeJSON[Request](value)
		if err != nil {
			log.Error("failed to decode resolve request", "error", err, "key", string(key))
			countJob(m, "poison")
			return nil
		}
		if req.ID == "" {
			req.ID = string(key)
		}

		var resp *Response
		err = resilience.WithTimeout(ctx, cfg.JobTimeout, "resolve job", func(jobCtx context.Context) error {
			var rerr error
			resp, rerr = svc.Resolve(jobCtx, req)
			return rerr
		})
		status := "ok"
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("resolve job %s interrupted: %w", req.ID, err)
			}
			log.Warn("resolve job failed", "id", req.ID, "error", err)
			resp = &Response{ID: req.ID, Error: err.Error()}
			status = "failed"
		}

		event := kafka.Event{Key: req.ID, Value: resp, RequestID: logger.RequestID(ctx)}
		err = resilience.Retry(ctx, "publish resolve result", resilience.RetryConfig{
			MaxAttempts:  5,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Retryable: func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			},
		}, func() error {
			return pub.Publish(ctx, event)
		})
		if err != nil {
			countJob(m, "publish_failed")
			return fmt.Errorf("publishing result for %s: %w", req.ID, err)
		}
		countJob(m, status)
		log.Info("resolve job processed", "id", req.ID, "status", status, "resolved", resp.Resolved)
		return nil
	}
}

func countJob(m *metrics.Metrics, status string) {
	if m != nil {
		m.JobsProcessedTotal.WithLabelValues(status).Inc()
	}
}
