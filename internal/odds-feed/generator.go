package oddsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/shared/kafka"
	"github.com/radieske/gold-ledger/pkg/contracts/events"
)

// Catálogo fixo de partidas simuladas para geração de odds
func DefaultCatalog() []events.OddsUpdate {
	return []events.OddsUpdate{
		{EventID: "MATCH_001", SportID: "soccer", HomeTeam: "Flamengo", AwayTeam: "Palmeiras", Market: "1x2"},
		{EventID: "MATCH_002", SportID: "soccer", HomeTeam: "Grêmio", AwayTeam: "Internacional", Market: "1x2"},
		{EventID: "MATCH_003", SportID: "soccer", HomeTeam: "Corinthians", AwayTeam: "Santos", Market: "1x2"},
		{EventID: "MATCH_004", SportID: "soccer", HomeTeam: "São Paulo", AwayTeam: "Vasco", Market: "1x2"},
		{EventID: "MATCH_005", SportID: "basketball", HomeTeam: "Franca", AwayTeam: "Flamengo Basquete", Market: "1x2"},
	}
}

// hasDraw indica se o esporte tem empate no mercado 1x2
func hasDraw(sportID string) bool {
	return sportID == "soccer"
}

// Generator produz uma nova versão de odds para cada partida do catálogo
type Generator struct {
	catalog []events.OddsUpdate
	rnd     *rand.Rand
	now     func() time.Time
	source  string
	version int
}

func NewGenerator(source string, catalog []events.OddsUpdate, seed int64) *Generator {
	now := time.Now().UTC().Truncate(time.Hour)
	c := make([]events.OddsUpdate, len(catalog))
	for i, u := range catalog {
		if u.StartsAt.IsZero() {
			u.StartsAt = now.Add(time.Duration(i+1) * 24 * time.Hour)
		}
		c[i] = u
	}
	return &Generator{
		catalog: c,
		rnd:     rand.New(rand.NewSource(seed)),
		now:     func() time.Time { return time.Now().UTC() },
		source:  source,
	}
}

// gera número aleatório entre lo e hi com duas casas
func (g *Generator) between(lo, hi float64) float64 {
	return math.Round(((g.rnd.Float64()*(hi-lo))+lo)*100) / 100
}

// Next devolve a próxima versão de todas as partidas
func (g *Generator) Next() []events.OddsUpdate {
	g.version++
	out := make([]events.OddsUpdate, len(g.catalog))
	for i, u := range g.catalog {
		u.Odds = events.Odds{
			Home: g.between(1.40, 3.50),
			Away: g.between(2.00, 5.00),
		}
		if hasDraw(u.SportID) {
			d := g.between(2.50, 4.50)
			u.Odds.Draw = &d
		}
		u.UpdatedAt = g.now()
		u.Source = g.source
		u.Version = g.version
		out[i] = u
	}
	return out
}

// Publish escreve um lote no tópico, com o event id como chave
func Publish(ctx context.Context, w kafka.MessageWriter, updates []events.OddsUpdate) error {
	for _, u := range updates {
		b, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshal odds update: %w", err)
		}
		if err := kafka.WriteJSON(ctx, w, u.EventID, b); err != nil {
			return fmt.Errorf("write %s: %w", u.EventID, err)
		}
	}
	return nil
}

// Run publica um lote a cada tick até o contexto ser cancelado
func Run(ctx context.Context, log *zap.Logger, g *Generator, w kafka.MessageWriter, every time.Duration, onSent func(int)) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			batch := g.Next()
			if err := Publish(ctx, w, batch); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("odds publish failed", zap.Error(err))
				continue
			}
			log.Debug("odds published", zap.Int("count", len(batch)), zap.Int("version", g.version))
			if onSent != nil {
				onSent(len(batch))
			}
		}
	}
}
