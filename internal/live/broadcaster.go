package live

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/gold-ledger/internal/matches"
)

// RedisBroadcaster publica atualizações de partidas no canal compartilhado
type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, m matches.Match) error {
	payload, err := json.Marshal(NewUpdate(m))
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	return b.r.Publish(ctx, Channel, payload).Err()
}
