package events

// Evento emitido pelo ledger-api depois que o débito e a aposta foram gravados juntos.
type BetPlaced struct {
	BetID      string `json:"bet_id"`
	UserID     string `json:"user_id"`
	MatchID    string `json:"match_id"`
	Prediction string `json:"prediction"`
	Amount     int64  `json:"amount"`
	Odds       string `json:"odds"` // decimal em texto, sem perda de precisão
	Payout     int64  `json:"payout"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
