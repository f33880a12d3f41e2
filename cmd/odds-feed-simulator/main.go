package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	oddsfeed "github.com/radieske/gold-ledger/internal/odds-feed"
	"github.com/radieske/gold-ledger/internal/shared/config"
	"github.com/radieske/gold-ledger/internal/shared/kafka"
	"github.com/radieske/gold-ledger/internal/shared/logger"
	"github.com/radieske/gold-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.LoadFor("odds-feed-simulator")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicOddsUpdates)
	defer w.Close()

	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "odds_feed_messages_sent_total",
		Help: "Total de odds simuladas publicadas",
	})
	prometheus.MustRegister(sent)

	// sem dependências: health sempre ok
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })
	defer msrv.Close()

	gen := oddsfeed.NewGenerator(cfg.ServiceName, oddsfeed.DefaultCatalog(), time.Now().UnixNano())
	log.Info("odds feed simulator running",
		zap.String("topic", cfg.TopicOddsUpdates),
		zap.Duration("interval", cfg.FeedInterval),
	)
	err = oddsfeed.Run(ctx, log, gen, w, cfg.FeedInterval, func(n int) { sent.Add(float64(n)) })
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("odds feed stopped", zap.Error(err))
	}
	log.Info("odds feed simulator stopped")
}
