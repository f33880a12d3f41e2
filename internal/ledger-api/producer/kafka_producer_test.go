package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/gold-ledger/internal/settlement"
	"github.com/radieske/gold-ledger/pkg/contracts/events"
)

var (
	_ settlement.Publisher = (*KafkaPublisher)(nil)
	_ settlement.Publisher = Nop{}
	_ Writer               = (*kafka.Writer)(nil)
)

// recordWriter guarda as mensagens em memória.
type recordWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Routing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		publish func(ctx context.Context, p *KafkaPublisher) error
		topic   func(placed, settled, voided *recordWriter) *recordWriter
		key     string
		field   string
		want    any
	}{
		{
			name: "placed",
			publish: func(ctx context.Context, p *KafkaPublisher) error {
				return p.PublishBetPlaced(ctx, events.BetPlaced{BetID: "bet-1", UserID: "u-1", Amount: 50})
			},
			topic: func(p, _, _ *recordWriter) *recordWriter { return p },
			key:   "bet-1",
			field: "amount",
			want:  float64(50),
		},
		{
			name: "settled",
			publish: func(ctx context.Context, p *KafkaPublisher) error {
				return p.PublishBetSettled(ctx, events.BetSettled{BetID: "bet-2", UserID: "u-1", Outcome: "won", Credited: 105})
			},
			topic: func(_, s, _ *recordWriter) *recordWriter { return s },
			key:   "bet-2",
			field: "outcome",
			want:  "won",
		},
		{
			name: "voided",
			publish: func(ctx context.Context, p *KafkaPublisher) error {
				return p.PublishBetVoided(ctx, events.BetVoided{BetID: "bet-3", UserID: "u-2", Status: "pending", Refunded: 20})
			},
			topic: func(_, _, v *recordWriter) *recordWriter { return v },
			key:   "bet-3",
			field: "refunded",
			want:  float64(20),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			placed, settled, voided := &recordWriter{}, &recordWriter{}, &recordWriter{}
			p := NewKafkaPublisher(placed, settled, voided)
			if err := tt.publish(t.Context(), p); err != nil {
				t.Fatalf("publish: %v", err)
			}

			target := tt.topic(placed, settled, voided)
			total := len(placed.msgs) + len(settled.msgs) + len(voided.msgs)
			if len(target.msgs) != 1 || total != 1 {
				t.Fatalf("messages: target=%d total=%d, want 1/1", len(target.msgs), total)
			}
			msg := target.msgs[0]
			if string(msg.Key) != tt.key {
				t.Fatalf("key = %q, want %q", msg.Key, tt.key)
			}
			var body map[string]any
			if err := json.Unmarshal(msg.Value, &body); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if body["bet_id"] != tt.key {
				t.Fatalf("bet_id = %v, want %s", body["bet_id"], tt.key)
			}
			if body[tt.field] != tt.want {
				t.Fatalf("%s = %v, want %v", tt.field, body[tt.field], tt.want)
			}
		})
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker down")
	p := NewKafkaPublisher(&recordWriter{err: boom}, &recordWriter{}, &recordWriter{})
	err := p.PublishBetPlaced(t.Context(), events.BetPlaced{BetID: "bet-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestKafkaPublisher_Close(t *testing.T) {
	t.Parallel()

	placed, settled, voided := &recordWriter{}, &recordWriter{}, &recordWriter{}
	if err := NewKafkaPublisher(placed, settled, voided).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !placed.closed || !settled.closed || !voided.closed {
		t.Fatalf("closed = %v/%v/%v", placed.closed, settled.closed, voided.closed)
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	var p Nop
	ctx := t.Context()
	if err := p.PublishBetPlaced(ctx, events.BetPlaced{BetID: "bet-1"}); err != nil {
		t.Fatalf("placed: %v", err)
	}
	if err := p.PublishBetSettled(ctx, events.BetSettled{BetID: "bet-1"}); err != nil {
		t.Fatalf("settled: %v", err)
	}
	if err := p.PublishBetVoided(ctx, events.BetVoided{BetID: "bet-1"}); err != nil {
		t.Fatalf("voided: %v", err)
	}
}
