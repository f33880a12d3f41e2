package bets

import (
	"fmt"
	"time"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

// Book é a coleção de apostas carregada dentro de um store.Update.
// Só este pacote muda Status.
type Book struct {
	items []Bet
	now   func() time.Time
	newID func() string
}

func (b *Book) Save(tx *store.Txn) error {
	return tx.Encode(store.KeyBets, b.items)
}

func (b *Book) All() []Bet {
	out := make([]Bet, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Book) ForUser(userID string) []Bet {
	out := make([]Bet, 0)
	for _, it := range b.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out
}

func (b *Book) index(id string) int {
	for i, it := range b.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) Get(id string) (Bet, error) {
	i := b.index(id)
	if i < 0 {
		return Bet{}, fmt.Errorf("bet %s: %w", id, ledgererr.ErrNotFound)
	}
	return b.items[i], nil
}

// Place registra a aposta pendente. Não toca saldo.
func (b *Book) Place(req PlaceRequest) (Bet, error) {
	if err := req.Validate(); err != nil {
		return Bet{}, err
	}
	payout, err := Payout(req.Amount, req.Odds)
	if err != nil {
		return Bet{}, err
	}

	bet := Bet{
		ID:         b.newID(),
		UserID:     req.UserID,
		MatchID:    req.MatchID,
		Prediction: req.Prediction,
		Amount:     req.Amount,
		Odds:       req.Odds,
		Payout:     payout,
		Status:     StatusPending,
		Timestamp:  b.now().UTC(),
	}
	b.items = append(b.items, bet)
	return bet, nil
}

// Resolve aplica pending -> won|lost. Estados finais não mudam mais.
func (b *Book) Resolve(id string, outcome Status) (Bet, error) {
	if outcome != StatusWon && outcome != StatusLost {
		return Bet{}, fmt.Errorf("%w: outcome %q", ledgererr.ErrInvalidInput, outcome)
	}
	i := b.index(id)
	if i < 0 {
		return Bet{}, fmt.Errorf("bet %s: %w", id, ledgererr.ErrNotFound)
	}
	if b.items[i].Status != StatusPending {
		return Bet{}, fmt.Errorf("bet %s is %s: %w", id, b.items[i].Status, ledgererr.ErrInvalidTransition)
	}
	b.items[i].Status = outcome
	return b.items[i], nil
}

func (b *Book) Remove(id string) (Bet, error) {
	i := b.index(id)
	if i < 0 {
		return Bet{}, fmt.Errorf("bet %s: %w", id, ledgererr.ErrNotFound)
	}
	removed := b.items[i]
	b.items = append(b.items[:i], b.items[i+1:]...)
	return removed, nil
}
