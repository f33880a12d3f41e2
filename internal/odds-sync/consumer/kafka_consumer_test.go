package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/matches"
	"github.com/radieske/gold-ledger/internal/store"
	"github.com/radieske/gold-ledger/pkg/contracts/events"
)

// queueReader entrega as mensagens e cancela o contexto quando esvazia.
type queueReader struct {
	msgs   [][]byte
	cancel context.CancelFunc
}

func (r *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	v := r.msgs[0]
	r.msgs = r.msgs[1:]
	return kafka.Message{Value: v}, nil
}

func encode(t *testing.T, ev events.OddsUpdate) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestProcessor_Run(t *testing.T) {
	t.Parallel()

	draw := 3.2
	ev := events.OddsUpdate{
		EventID:   "evt-1",
		SportID:   "soccer",
		HomeTeam:  "Home FC",
		AwayTeam:  "Away United",
		Market:    MarketMatchResult,
		Odds:      events.Odds{Home: 2.1, Away: 3.4, Draw: &draw},
		StartsAt:  time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		Version:   1,
	}
	bumped := ev
	bumped.Odds.Home = 1.95
	bumped.Version = 2

	other := ev
	other.Market = "over_under"
	other.EventID = "evt-ignored"

	bad := ev
	bad.EventID = "evt-bad"
	bad.Odds.Away = 0

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	s := store.NewMemory()
	catalog := matches.NewCatalog(s)

	// resumo gravado antes deve sobreviver às odds novas
	seeded := ToMatch(ev)
	seeded.Summary = "derby"
	if _, err := catalog.Upsert(ctx, seeded, false); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var consumed, applied int
	stages := map[string]int{}
	p := &Processor{
		Log:     zap.NewNop(),
		Catalog: catalog,
		Reader: &queueReader{
			cancel: cancel,
			msgs:   [][]byte{encode(t, ev), []byte("{not json"), encode(t, other), encode(t, bad), encode(t, bumped)},
		},
		OnConsumed: func() { consumed++ },
		OnApplied:  func() { applied++ },
		OnError:    func(stage string) { stages[stage]++ },
	}

	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("run: %v", err)
	}

	if consumed != 5 || applied != 2 {
		t.Fatalf("consumed=%d applied=%d", consumed, applied)
	}
	if stages["decode"] != 1 || stages["upsert"] != 1 {
		t.Fatalf("stages = %v", stages)
	}

	m, err := catalog.Get(t.Context(), "evt-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !m.Odds.Home.Equal(decimal.RequireFromString("1.95")) || m.Summary != "derby" {
		t.Fatalf("match = %+v", m)
	}
	if m.Odds.Draw == nil || !m.Odds.Draw.Equal(decimal.RequireFromString("3.2")) {
		t.Fatalf("draw odds = %v", m.Odds.Draw)
	}

	all, _ := catalog.List(t.Context())
	if len(all) != 1 {
		t.Fatalf("catalog size = %d", len(all))
	}
}

func TestToMatch_NoDraw(t *testing.T) {
	t.Parallel()

	m := ToMatch(events.OddsUpdate{EventID: "e", HomeTeam: "A", AwayTeam: "B", Odds: events.Odds{Home: 1.5, Away: 2.5}})
	if m.Odds.Draw != nil {
		t.Fatalf("draw should be nil")
	}
	if _, err := matches.OddsFor(m, matches.Draw); err == nil {
		t.Fatalf("draw prediction should fail without draw odds")
	}
}

type recordingLive struct {
	ids  []string
	sent []matches.Match
	err  error
}

func (r *recordingLive) Publish(_ context.Context, m matches.Match) error {
	r.ids = append(r.ids, m.ID)
	r.sent = append(r.sent, m)
	return r.err
}

func TestProcessor_Broadcast(t *testing.T) {
	t.Parallel()

	ev := events.OddsUpdate{EventID: "evt-live", HomeTeam: "A", AwayTeam: "B", Odds: events.Odds{Home: 1.8, Away: 2.2}}
	bad := ev
	bad.EventID = "evt-bad"
	bad.Odds.Home = 0

	tests := []struct {
		name      string
		liveErr   error
		wantStage int
	}{
		{name: "published after upsert"},
		{name: "failure only counted", liveErr: errors.New("redis down"), wantStage: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			live := &recordingLive{err: tc.liveErr}
			stages := map[string]int{}
			catalog := matches.NewCatalog(store.NewMemory())
			p := &Processor{
				Log:     zap.NewNop(),
				Catalog: catalog,
				Live:    live,
				Reader:  &queueReader{cancel: cancel, msgs: [][]byte{encode(t, bad), encode(t, ev)}},
				OnError: func(stage string) { stages[stage]++ },
			}
			_ = p.Run(ctx)

			// partida rejeitada não é transmitida
			if len(live.ids) != 1 || live.ids[0] != "evt-live" {
				t.Fatalf("broadcast ids = %v", live.ids)
			}
			// transmite a partida convertida, não a mensagem do Kafka
			got := live.sent[0]
			if got.HomeTeam != "A" || got.AwayTeam != "B" || !got.Odds.Home.Equal(decimal.NewFromFloat(1.8)) {
				t.Fatalf("broadcast match = %+v", got)
			}
			if stages["broadcast"] != tc.wantStage {
				t.Fatalf("broadcast errors = %d", stages["broadcast"])
			}
			if _, err := catalog.Get(t.Context(), "evt-live"); err != nil {
				t.Fatalf("match should be stored: %v", err)
			}
		})
	}
}
