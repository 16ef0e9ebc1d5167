package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/align"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/resolver"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting resolver service", "port", cfg.Server.Port, "graph", cfg.Graph.Path)

	g, err := graph.LoadGFAFile(cfg.Graph.Path)
	if err != nil {
		slog.Error("failed to load assembly graph", "error", err)
		os.Exit(1)
	}
	slog.Info("assembly graph loaded",
		"segments", g.SegmentCount(),
		"links", g.LinkCount(),
		"overlap", g.Overlap(),
	)

	m := metrics.New(nil)
	aligner, cached, redisClient := buildAligner(cfg, m)
	if redisClient != nil {
		defer redisClient.Close()
	}

	svc, err := resolver.NewService(g, aligner, cfg, m)
	if err != nil {
		slog.Error("failed to create resolver", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	checker := health.NewChecker(2 * time.Second)
	checker.Register("graph", health.Static(fmt.Sprintf("%d segments", g.SegmentCount())))
	if redisClient != nil {
		checker.RegisterOptional("redis", health.Ping(redisClient.Ping))
	}

	var stats resolver.CacheStats
	if cached != nil {
		stats = cached
	}
	h := resolver.NewHandler(svc, stats)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{middleware.RequestID, middleware.Metrics(m)}
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter := middleware.NewLimiter(cfg.Server.RateLimitPerMinute, time.Minute)
		go limiter.Sweep(ctx, 5*time.Minute)
		mws = append(mws, middleware.RateLimit(limiter))
	}
	mws = append(mws, middleware.Timeout(cfg.Server.WriteTimeout))
	chain := middleware.Chain(mux, mws...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("resolver service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("resolver service stopped")
}

// buildAligner stacks the banded oracle under metrics and, when Redis is
// reachable, the shared result cache. A Redis outage at startup only
// disables caching.
func buildAligner(cfg *config.Config, m *metrics.Metrics) (align.Aligner, *align.Cached, *pkgredis.Client) {
	var aligner align.Aligner = align.NewInstrumented(align.NewBanded(), m)
	if !cfg.Redis.Enabled {
		return aligner, nil, nil
	}
	client, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, alignment caching disabled", "error", err)
		return aligner, nil, nil
	}
	cached := align.NewCached(aligner, client, cfg.Redis.CacheTTL, m)
	slog.Info("alignment cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	return cached, cached, client
}
