package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/matches"
	"github.com/radieske/gold-ledger/pkg/contracts/events"
)

// MarketMatchResult é o único mercado que o catálogo entende.
const MarketMatchResult = "1x2"

// Reader é o subconjunto de *kafka.Reader usado aqui.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Broadcaster recebe as partidas já gravadas (ver internal/live).
type Broadcaster interface {
	Publish(ctx context.Context, m matches.Match) error
}

// Processor consome odds do Kafka e atualiza o catálogo de partidas
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log     *zap.Logger
	Reader  Reader
	Catalog *matches.Catalog
	Live    Broadcaster // opcional

	OnConsumed func()       // métricas (counter++)
	OnApplied  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.OddsUpdate
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			p.fail("decode")
			continue
		}

		if ev.Market != "" && ev.Market != MarketMatchResult {
			p.Log.Debug("market ignored", zap.String("event_id", ev.EventID), zap.String("market", ev.Market))
			continue
		}

		// odds novas preservam o resumo já gravado da partida
		match := ToMatch(ev)
		created, err := p.Catalog.Upsert(ctx, match, true)
		if err != nil {
			p.Log.Warn("catalog upsert failed", zap.String("event_id", ev.EventID), zap.Error(err))
			p.fail("upsert")
			continue
		}

		p.Log.Debug("odds applied",
			zap.String("event_id", ev.EventID),
			zap.Bool("created", created),
			zap.Int("version", ev.Version),
		)
		if p.OnApplied != nil {
			p.OnApplied()
		}

		// falha no broadcast não desfaz a gravação
		if p.Live != nil {
			if err := p.Live.Publish(ctx, match); err != nil {
				p.Log.Warn("live broadcast failed", zap.String("event_id", ev.EventID), zap.Error(err))
				p.fail("broadcast")
			}
		}
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// ToMatch converte o evento do feed em partida do catálogo.
func ToMatch(ev events.OddsUpdate) matches.Match {
	m := matches.Match{
		ID:       ev.EventID,
		SportID:  ev.SportID,
		Date:     ev.StartsAt,
		HomeTeam: ev.HomeTeam,
		AwayTeam: ev.AwayTeam,
		Odds: matches.Odds{
			Home: decimal.NewFromFloat(ev.Odds.Home),
			Away: decimal.NewFromFloat(ev.Odds.Away),
		},
	}
	if ev.Odds.Draw != nil {
		d := decimal.NewFromFloat(*ev.Odds.Draw)
		m.Odds.Draw = &d
	}
	return m
}
