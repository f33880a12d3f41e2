package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/accounts"
	"github.com/radieske/gold-ledger/internal/analysis"
	"github.com/radieske/gold-ledger/internal/bets"
	"github.com/radieske/gold-ledger/internal/games"
	lhttp "github.com/radieske/gold-ledger/internal/ledger-api/http"
	kpub "github.com/radieske/gold-ledger/internal/ledger-api/producer"
	"github.com/radieske/gold-ledger/internal/live"
	"github.com/radieske/gold-ledger/internal/matches"
	"github.com/radieske/gold-ledger/internal/seed"
	"github.com/radieske/gold-ledger/internal/session"
	"github.com/radieske/gold-ledger/internal/settlement"
	"github.com/radieske/gold-ledger/internal/shared/cache"
	"github.com/radieske/gold-ledger/internal/shared/config"
	"github.com/radieske/gold-ledger/internal/shared/kafka"
	"github.com/radieske/gold-ledger/internal/shared/logger"
	"github.com/radieske/gold-ledger/internal/shared/metrics"
	"github.com/radieske/gold-ledger/internal/store"
)

func main() {
	cfg := config.LoadFor("ledger-api")
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Store: memory, redis ou postgres
	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal("store open", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer st.Close()

	// Eventos: Kafka ou no-op
	var publ settlement.Publisher = kpub.Nop{}
	if cfg.KafkaEnabled {
		kp := kpub.NewKafkaPublisher(
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced),
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled),
			kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetVoided),
		)
		defer kp.Close()
		publ = kp
	}

	// deps
	acc := accounts.New(st, accounts.WithBcryptCost(cfg.BcryptCost))
	bl := bets.New(st)
	catalog := matches.NewCatalog(st)
	seeder := seed.New(log, st, acc)

	if cfg.SeedDefaults {
		if _, err := seeder.EnsureDefaults(ctx); err != nil {
			log.Fatal("seed defaults", zap.Error(err))
		}
	}

	// Métricas Prometheus do ledger
	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_bets_placed_total", Help: "apostas registradas"})
	wagered := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_gold_wagered_total", Help: "gold debitado em apostas"})
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ledger_bets_settled_total", Help: "apostas liquidadas por resultado"}, []string{"outcome"})
	credited := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_gold_credited_total", Help: "gold pago em apostas ganhas"})
	voided := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_bets_voided_total", Help: "apostas removidas"})
	refunded := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_gold_refunded_total", Help: "gold devolvido por remoção de apostas pendentes"})
	prometheus.MustRegister(placed, wagered, settled, credited, voided, refunded)

	svc := settlement.New(st, bl, log, publ)
	svc.OnPlaced = func(amount int64) {
		placed.Inc()
		wagered.Add(float64(amount))
	}
	svc.OnSettled = func(outcome string, c int64) {
		settled.WithLabelValues(outcome).Inc()
		credited.Add(float64(c))
	}
	svc.OnVoided = func(r int64) {
		voided.Inc()
		refunded.Add(float64(r))
	}

	api := &lhttp.API{
		Log:        log,
		Accounts:   acc,
		Bets:       bl,
		Matches:    catalog,
		Settlement: svc,
		Sessions:   session.New(st, acc, session.WithTTL(cfg.SessionTTL)),
		Analysis: analysis.New(st,
			analysis.WithTTL(cfg.AnalysisTTL),
			analysis.WithMaxEntries(cfg.AnalysisMaxEntries),
		),
		Seeder:      seeder,
		Games:       games.New(st, games.WithSpinCost(cfg.SpinCost)),
		PremiumCost: cfg.PremiumCost,
	}

	// Feed ao vivo: Redis Pub/Sub -> Hub WebSocket
	if cfg.LiveFeedEnabled {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("live feed redis", zap.Error(err))
		}
		defer rdb.Close()

		wsConns := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ledger_live_ws_connections", Help: "clientes WebSocket conectados"})
		wsSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "ledger_live_messages_sent_total", Help: "mensagens WS enviadas"})
		prometheus.MustRegister(wsConns, wsSent)

		hub := live.NewHub(log, func(*http.Request) bool { return true })
		hub.OnConnect = wsConns.Inc
		hub.OnDisconnect = wsConns.Dec
		hub.OnSent = wsSent.Inc
		if err := live.StartRedisSubscriber(ctx, rdb, hub, log); err != nil {
			log.Fatal("live feed subscribe", zap.Error(err))
		}
		api.Live = hub
		api.Broadcaster = live.NewRedisBroadcaster(rdb)
	}

	// metrics/health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, st.Ping)
	log.Info("metrics/health listening", zap.String("addr", msrv.Addr))

	// HTTP público
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = msrv.Shutdown(shutdownCtx)
	}()

	log.Info("ledger-api listening",
		zap.String("addr", apiSrv.Addr),
		zap.String("store", cfg.StoreBackend),
		zap.Bool("kafka", cfg.KafkaEnabled),
		zap.Bool("live_feed", cfg.LiveFeedEnabled),
	)
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api", zap.Error(err))
	}
	log.Info("ledger-api stopped")
}
