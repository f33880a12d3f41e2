package bets

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/gold-ledger/internal/store"
)

var betsKey = []string{store.KeyBets}

type Ledger struct {
	store store.Store
	now   func() time.Time
	newID func() string
}

type Option func(*Ledger)

// WithClock fixa o relógio usado no timestamp das apostas.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{store: s, now: time.Now, newID: newBetID}
	for _, o := range opts {
		o(l)
	}
	return l
}

func newBetID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "bet-" + uuid.NewString()
	}
	return "bet-" + id.String()
}

// Load lê o livro de apostas do snapshot. Chave ausente é livro vazio.
func (l *Ledger) Load(tx *store.Txn) (*Book, error) {
	var items []Bet
	if _, err := tx.Decode(store.KeyBets, &items); err != nil {
		return nil, err
	}
	return &Book{items: items, now: l.now, newID: l.newID}, nil
}

func (l *Ledger) view(ctx context.Context, fn func(*Book) error) error {
	return store.View(ctx, l.store, betsKey, func(tx *store.Txn) error {
		book, err := l.Load(tx)
		if err != nil {
			return err
		}
		return fn(book)
	})
}

func (l *Ledger) mutate(ctx context.Context, fn func(*Book) error) error {
	return l.store.Update(ctx, betsKey, func(tx *store.Txn) error {
		book, err := l.Load(tx)
		if err != nil {
			return err
		}
		if err := fn(book); err != nil {
			return err
		}
		return book.Save(tx)
	})
}

// ListAll devolve as apostas em ordem de inserção.
func (l *Ledger) ListAll(ctx context.Context) ([]Bet, error) {
	var out []Bet
	err := l.view(ctx, func(b *Book) error {
		out = b.All()
		return nil
	})
	return out, err
}

// ListRecent ordena por timestamp, mais novas primeiro.
func (l *Ledger) ListRecent(ctx context.Context) ([]Bet, error) {
	out, err := l.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (l *Ledger) ListForUser(ctx context.Context, userID string) ([]Bet, error) {
	var out []Bet
	err := l.view(ctx, func(b *Book) error {
		out = b.ForUser(userID)
		return nil
	})
	return out, err
}

func (l *Ledger) Get(ctx context.Context, id string) (Bet, error) {
	var out Bet
	err := l.view(ctx, func(b *Book) error {
		var err error
		out, err = b.Get(id)
		return err
	})
	return out, err
}

// Place grava só a aposta. O débito é da liquidação (settlement.PlaceWager).
func (l *Ledger) Place(ctx context.Context, req PlaceRequest) (Bet, error) {
	var out Bet
	err := l.mutate(ctx, func(b *Book) error {
		var err error
		out, err = b.Place(req)
		return err
	})
	return out, err
}

func (l *Ledger) Resolve(ctx context.Context, id string, outcome Status) (Bet, error) {
	var out Bet
	err := l.mutate(ctx, func(b *Book) error {
		var err error
		out, err = b.Resolve(id, outcome)
		return err
	})
	return out, err
}

// Delete remove a aposta e devolve o registro removido.
func (l *Ledger) Delete(ctx context.Context, id string) (Bet, error) {
	var out Bet
	err := l.mutate(ctx, func(b *Book) error {
		var err error
		out, err = b.Remove(id)
		return err
	})
	return out, err
}
