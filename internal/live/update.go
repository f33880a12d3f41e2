package live

import (
	"time"

	"github.com/radieske/gold-ledger/internal/matches"
)

// Channel é o canal Redis Pub/Sub das atualizações de partidas
const Channel = "ledger_match_updates"

// AllMatches assina todas as partidas
const AllMatches = "*"

// Update é o payload trafegado no Redis e entregue aos clientes WebSocket
type Update struct {
	MatchID string        `json:"matchId"`
	Match   matches.Match `json:"match"`
	Ts      int64         `json:"ts"`
}

func NewUpdate(m matches.Match) Update {
	return Update{MatchID: m.ID, Match: m, Ts: time.Now().UnixMilli()}
}

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
type ClientMsg struct {
	Type    string `json:"type"`
	MatchID string `json:"matchId"` // requerido em subscribe/unsubscribe
}
