package events

import "time"

// Evento emitido quando um admin resolve uma aposta pendente.
type BetSettled struct {
	BetID    string    `json:"bet_id"`
	UserID   string    `json:"user_id"`
	Outcome  string    `json:"outcome"`  // "won" | "lost"
	Credited int64     `json:"credited"` // payout creditado, 0 em "lost"
	Orphaned bool      `json:"orphaned,omitempty"`
	Ts       time.Time `json:"ts"`
}

// Evento emitido quando uma aposta é removida. Refunded > 0 só para apostas pendentes.
type BetVoided struct {
	BetID    string    `json:"bet_id"`
	UserID   string    `json:"user_id"`
	Status   string    `json:"status"`
	Refunded int64     `json:"refunded"`
	Orphaned bool      `json:"orphaned,omitempty"`
	Ts       time.Time `json:"ts"`
}
