package resolver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/logger"
)

const maxRequestBytes = 64 << 20

// Resolver is the part of Service the handler calls.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (*Response, error)
	GraphInfo() GraphInfo
}

// CacheStats reports alignment cache counters. Nil when caching is off.
type CacheStats interface {
	Stats() (hits, misses int64)
}

type Handler struct {
	resolver Resolver
	cache    CacheStats
	logger   *slog.Logger
}

func NewHandler(resolver Resolver, cache CacheStats) *Handler {
	return &Handler{
		resolver: resolver,
		cache:    cache,
		logger:   slog.Default().With("component", "resolve-handler"),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/resolve", h.Resolve)
	mux.HandleFunc("GET /api/v1/graph", h.Graph)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ID == "" {
		req.ID = logger.RequestID(r.Context())
	}

	resp, err := h.resolver.Resolve(r.Context(), req)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			log.Error("resolve failed", "id", req.ID, "error", err)
		}
		h.writeError(w, status, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.resolver.GraphInfo())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": hitRate,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
