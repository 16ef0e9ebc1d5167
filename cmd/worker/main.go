package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/align"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/internal/resolver"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/repeat-resolver/pkg/metrics"
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
	slog.Info("starting resolve worker", "graph", cfg.Graph.Path)

	g, err := graph.LoadGFAFile(cfg.Graph.Path)
	if err != nil {
		slog.Error("failed to load assembly graph", "error", err)
		os.Exit(1)
	}

	m := metrics.New(nil)
	var aligner align.Aligner = align.NewInstrumented(align.NewBanded(), m)
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, alignment caching disabled", "error", err)
		} else {
			defer client.Close()
			aligner = align.NewCached(aligner, client, cfg.Redis.CacheTTL, m)
		}
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

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ResolveResults)
	defer producer.Close()

	consumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.ResolveRequests,
		resolver.HandleMessage(svc, producer, cfg.Kafka, m),
	)
	defer consumer.Close()

	slog.Info("resolve worker ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.ResolveRequests,
		"results_topic", cfg.Kafka.Topics.ResolveResults,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("resolve worker stopped")
}
