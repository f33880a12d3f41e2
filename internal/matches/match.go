package matches

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
)

var validate = validator.New()

// Draw é o palpite literal de empate.
const Draw = "Draw"

type Odds struct {
	Home decimal.Decimal  `json:"home"`
	Away decimal.Decimal  `json:"away"`
	Draw *decimal.Decimal `json:"draw,omitempty"`
}

type Match struct {
	ID       string    `json:"id" validate:"required"`
	SportID  string    `json:"sportId"`
	Date     time.Time `json:"date"`
	HomeTeam string    `json:"homeTeam" validate:"required,ne=Draw"`
	AwayTeam string    `json:"awayTeam" validate:"required,ne=Draw,nefield=HomeTeam"`
	Odds     Odds      `json:"odds"`
	Summary  string    `json:"summary,omitempty"`
}

func (m *Match) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ledgererr.ErrInvalidInput, err)
	}
	if !m.Odds.Home.IsPositive() || !m.Odds.Away.IsPositive() {
		return fmt.Errorf("%w: odds must be positive", ledgererr.ErrInvalidInput)
	}
	if m.Odds.Draw != nil && !m.Odds.Draw.IsPositive() {
		return fmt.Errorf("%w: draw odds must be positive", ledgererr.ErrInvalidInput)
	}
	return nil
}

// OddsFor resolve a cotação do palpite: nome do mandante, do visitante ou "Draw".
func OddsFor(m Match, prediction string) (decimal.Decimal, error) {
	switch prediction {
	case m.HomeTeam:
		return m.Odds.Home, nil
	case m.AwayTeam:
		return m.Odds.Away, nil
	case Draw:
		if m.Odds.Draw == nil {
			return decimal.Zero, fmt.Errorf("%w: match %s has no draw market", ledgererr.ErrInvalidInput, m.ID)
		}
		return *m.Odds.Draw, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: prediction %q not offered by match %s", ledgererr.ErrInvalidInput, prediction, m.ID)
	}
}
