package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/live"
	"github.com/radieske/gold-ledger/internal/matches"
	"github.com/radieske/gold-ledger/internal/odds-sync/consumer"
	"github.com/radieske/gold-ledger/internal/shared/cache"
	"github.com/radieske/gold-ledger/internal/shared/config"
	"github.com/radieske/gold-ledger/internal/shared/kafka"
	"github.com/radieske/gold-ledger/internal/shared/logger"
	"github.com/radieske/gold-ledger/internal/shared/metrics"
	"github.com/radieske/gold-ledger/internal/store"
)

func main() {
	cfg := config.LoadFor("odds-sync-worker")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// O worker escreve no mesmo store do ledger-api; memory não é compartilhado
	if cfg.StoreBackend == store.BackendMemory {
		log.Warn("memory store is process-local; odds will not reach ledger-api")
	}
	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("store open", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer st.Close()

	// Consumer Kafka (consumer group odds-sync)
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicOddsUpdates, "odds-sync")
	defer reader.Close()

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_sync_messages_consumed_total", Help: "mensagens consumidas"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_sync_matches_applied_total", Help: "partidas gravadas no catálogo"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_sync_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, applied, errorsBy)

	proc := &consumer.Processor{
		Log:        log,
		Reader:     reader,
		Catalog:    matches.NewCatalog(st),
		OnConsumed: func() { consumed.Inc() },
		OnApplied:  func() { applied.Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Partidas gravadas seguem para o feed ao vivo do ledger-api
	if cfg.LiveFeedEnabled {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("live feed redis", zap.Error(err))
		}
		defer rdb.Close()
		proc.Live = live.NewRedisBroadcaster(rdb)
	}

	msrv := metrics.StartMetricsServer(cfg.MetricsPort, st.Ping)
	log.Info("metrics/health listening", zap.String("addr", msrv.Addr))
	defer msrv.Close()

	log.Info("odds-sync started", zap.String("topic", cfg.TopicOddsUpdates))
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("odds-sync stopped")
}
