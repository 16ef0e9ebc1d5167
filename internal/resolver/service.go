// Package resolver exposes repeat resolution as a service: request
// validation, tracing, metrics, an HTTP handler and a Kafka job consumer,
// all in front of one pathfind.Finder bound to the loaded assembly graph.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/align"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/pathfind"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/sequence"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/tracing"
)

const (
	StrategyExhaustive  = "exhaustive"
	StrategyProgressive = "progressive"
)

// Graph is what the service needs from the assembly graph beyond the
// search itself.
type Graph interface {
	pathfind.Graph
	SegmentCount() int
	LinkCount() int
}

// Request asks for the best path between two anchors. Segment references
// are signed; a negative number means the reverse strand.
type Request struct {
	ID                  string  `json:"id,omitempty"`
	StartSegment        int     `json:"start_segment"`
	EndSegment          int     `json:"end_segment"`
	TargetLength        int     `json:"target_length"`
	Consensus           string  `json:"consensus,omitempty"`
	ScoringScheme       string  `json:"scoring_scheme,omitempty"`
	ExpectedScaledScore float64 `json:"expected_scaled_score,omitempty"`
}

type Response struct {
	ID         string               `json:"id,omitempty"`
	Resolved   bool                 `json:"resolved"`
	Strategy   string               `json:"strategy,omitempty"`
	Candidates []pathfind.Candidate `json:"candidates"`
	LatencyMs  int64                `json:"latency_ms"`
	Timings    map[string]float64   `json:"timings_ms,omitempty"`
	TraceID    string               `json:"trace_id,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// GraphInfo summarises the graph the service was started with.
type GraphInfo struct {
	Segments int `json:"segments"`
	Links    int `json:"links"`
	Overlap  int `json:"overlap"`
}

type Service struct {
	graph    Graph
	finder   *pathfind.Finder
	scheme   align.Scheme
	expected float64
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService binds a finder to g. m may be nil.
func NewService(g Graph, aligner align.Aligner, cfg *config.Config, m *metrics.Metrics) (*Service, error) {
	scheme, err := align.ParseScheme(cfg.Alignment.ScoringScheme)
	if err != nil {
		return nil, fmt.Errorf("parsing scoring scheme: %w", err)
	}
	expected := cfg.Alignment.ExpectedScaledScore
	if expected <= 0 || expected > 100 {
		return nil, fmt.Errorf("expected scaled score %v outside (0,100]", expected)
	}
	return &Service{
		graph:    g,
		finder:   pathfind.NewFinder(g, aligner, cfg.PathFinding),
		scheme:   scheme,
		expected: expected,
		metrics:  m,
		logger:   slog.Default().With("component", "resolver"),
	}, nil
}

func (s *Service) GraphInfo() GraphInfo {
	return GraphInfo{
		Segments: s.graph.SegmentCount(),
		Links:    s.graph.LinkCount(),
		Overlap:  s.graph.Overlap(),
	}
}

// Resolve runs one request. An unresolved repeat is a successful response
// with Resolved false; errors are reserved for bad input and expired
// contexts.
func (s *Service) Resolve(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	q, err := s.query(req)
	if err != nil {
		s.recordOutcome("invalid")
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "resolve", logger.RequestID(ctx))
	span.SetAttr("start", req.StartSegment)
	span.SetAttr("end", req.EndSegment)
	log := logger.FromContext(ctx).With("component", "resolver", "trace_id", span.TraceID)

	candidates, progressive, err := s.finder.BestPaths(ctx, q)
	span.End()
	latency := time.Since(start)
	strategy := StrategyExhaustive
	if progressive {
		strategy = StrategyProgressive
	}
	if err != nil {
		s.recordOutcome("error")
		log.Warn("resolution aborted", "start", req.StartSegment, "end", req.EndSegment, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Newf(apperrors.ErrTimeout, http.StatusServiceUnavailable,
				"resolution exceeded its deadline after %v", latency.Round(time.Millisecond))
		}
		return nil, fmt.Errorf("resolving %d..%d: %w", req.StartSegment, req.EndSegment, err)
	}
	if candidates == nil {
		candidates = []pathfind.Candidate{}
	}

	resp := &Response{
		ID:         req.ID,
		Resolved:   len(candidates) > 0,
		Strategy:   strategy,
		Candidates: candidates,
		LatencyMs:  latency.Milliseconds(),
		Timings:    span.Timings(),
		TraceID:    span.TraceID,
	}

	outcome := "resolved"
	if !resp.Resolved {
		outcome = "unresolved"
	}
	s.recordOutcome(outcome)
	if s.metrics != nil {
		s.metrics.ResolveLatency.WithLabelValues(strategy).Observe(latency.Seconds())
		s.metrics.CandidatesReturned.Observe(float64(len(candidates)))
		if progressive {
			s.metrics.SearchFallbacksTotal.Inc()
		}
	}
	span.Log(log)
	log.Info("resolution completed",
		"start", req.StartSegment,
		"end", req.EndSegment,
		"strategy", strategy,
		"candidates", len(candidates),
		"latency_ms", resp.LatencyMs,
	)
	return resp, nil
}

func (s *Service) query(req Request) (pathfind.Query, error) {
	if req.StartSegment == 0 || req.EndSegment == 0 {
		return pathfind.Query{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"start_segment and end_segment are required")
	}
	if req.TargetLength <= 0 {
		return pathfind.Query{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"target_length must be positive, got %d", req.TargetLength)
	}
	for _, ref := range []int{req.StartSegment, req.EndSegment} {
		if _, ok := s.graph.Segment(ref); !ok {
			return pathfind.Query{}, apperrors.Newf(apperrors.ErrSegmentNotFound, http.StatusNotFound,
				"segment %d is not in the graph", ref)
		}
	}
	if !sequence.Valid(req.Consensus) {
		return pathfind.Query{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"consensus contains non-nucleotide characters")
	}

	scheme := s.scheme
	if req.ScoringScheme != "" {
		parsed, err := align.ParseScheme(req.ScoringScheme)
		if err != nil {
			return pathfind.Query{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"scoring_scheme: %v", err)
		}
		scheme = parsed
	}
	expected := s.expected
	if req.ExpectedScaledScore != 0 {
		if req.ExpectedScaledScore < 0 || req.ExpectedScaledScore > 100 {
			return pathfind.Query{}, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"expected_scaled_score %v outside (0,100]", req.ExpectedScaledScore)
		}
		expected = req.ExpectedScaledScore
	}

	return pathfind.Query{
		Start:               req.StartSegment,
		End:                 req.EndSegment,
		TargetLength:        req.TargetLength,
		Consensus:           req.Consensus,
		Scheme:              scheme,
		ExpectedScaledScore: expected,
	}, nil
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.ResolveRequestsTotal.WithLabelValues(outcome).Inc()
	}
}
