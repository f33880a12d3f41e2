package producer

import (
	"context"
	"encoding/json"
	"fmt"

	skafka "github.com/radieske/gold-ledger/internal/shared/kafka"
	"github.com/radieske/gold-ledger/pkg/contracts/events"
)

// Writer é o que o publisher precisa de *kafka.Writer.
type Writer interface {
	skafka.MessageWriter
	Close() error
}

// KafkaPublisher publica os eventos do ledger, um writer por tópico.
// A chave da mensagem é o id da aposta (ordem por aposta na partição).
type KafkaPublisher struct {
	Placed  Writer
	Settled Writer
	Voided  Writer
}

func NewKafkaPublisher(placed, settled, voided Writer) *KafkaPublisher {
	return &KafkaPublisher{Placed: placed, Settled: settled, Voided: voided}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	return publish(ctx, p.Placed, "bet.placed", e.BetID, e)
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	return publish(ctx, p.Settled, "bet.settled", e.BetID, e)
}

func (p *KafkaPublisher) PublishBetVoided(ctx context.Context, e events.BetVoided) error {
	return publish(ctx, p.Voided, "bet.voided", e.BetID, e)
}

func (p *KafkaPublisher) Close() error {
	var first error
	for _, w := range []Writer{p.Placed, p.Settled, p.Voided} {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func publish(ctx context.Context, w Writer, kind, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	if err := skafka.WriteJSON(ctx, w, key, b); err != nil {
		return fmt.Errorf("publish %s event: %w", kind, err)
	}
	return nil
}

// Nop descarta os eventos; usado com KAFKA_ENABLED=false.
type Nop struct{}

func (Nop) PublishBetPlaced(context.Context, events.BetPlaced) error { return nil }
func (Nop) PublishBetSettled(context.Context, events.BetSettled) error { return nil }
func (Nop) PublishBetVoided(context.Context, events.BetVoided) error { return nil }
