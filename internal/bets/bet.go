package bets

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
)

var validate = validator.New()

type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// ParseOutcome aceita apenas os dois estados finais.
func ParseOutcome(s string) (Status, error) {
	switch Status(s) {
	case StatusWon, StatusLost:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: outcome %q", ledgererr.ErrInvalidInput, s)
	}
}

// Bet guarda odds e payout congelados no momento da aposta.
type Bet struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	MatchID    string          `json:"matchId"`
	Prediction string          `json:"prediction"`
	Amount     int64           `json:"amount"`
	Odds       decimal.Decimal `json:"odds"`
	Payout     int64           `json:"payout"`
	Status     Status          `json:"status"`
	Timestamp  time.Time       `json:"timestamp"`
}

type PlaceRequest struct {
	UserID     string          `json:"userId" validate:"required"`
	MatchID    string          `json:"matchId" validate:"required"`
	Prediction string          `json:"prediction" validate:"required"`
	Amount     int64           `json:"amount" validate:"gt=0"`
	Odds       decimal.Decimal `json:"odds"`
}

var (
	maxGold = decimal.NewFromInt(math.MaxInt64)
)

func (r *PlaceRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ledgererr.ErrInvalidInput, err)
	}
	if !r.Odds.IsPositive() {
		return fmt.Errorf("%w: odds %s must be positive", ledgererr.ErrInvalidInput, r.Odds)
	}
	return nil
}

// Payout = round(amount * odds), meio arredondado para longe do zero.
func Payout(amount int64, odds decimal.Decimal) (int64, error) {
	p := decimal.NewFromInt(amount).Mul(odds).Round(0)
	if p.GreaterThan(maxGold) {
		return 0, fmt.Errorf("%w: payout overflow", ledgererr.ErrInvalidInput)
	}
	return p.IntPart(), nil
}
