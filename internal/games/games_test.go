package games

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/radieske/gold-ledger/internal/accounts"
	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

// seqRand devolve os valores na ordem, sem aleatoriedade.
type seqRand struct {
	vals []int
}

func (r *seqRand) Intn(n int) int {
	v := r.vals[0]
	r.vals = r.vals[1:]
	return v % n
}

func newMachine(t *testing.T, gold int64, draws ...int) (*Machine, *accounts.Ledger) {
	t.Helper()

	s := store.NewMemory()
	a := accounts.New(s, accounts.WithBcryptCost(bcrypt.MinCost))
	_, err := a.Create(t.Context(), accounts.NewUser{
		ID: "user-1", Email: "user@test.com", Password: "password123", DisplayName: "Regular User", Gold: gold,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New(s, WithRand(&seqRand{vals: draws})), a
}

func TestMachine_Play(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		game      Game
		gold      int64
		draws     []int
		wantPrize int64
		wantGold  int64
		wantReels []string
		wantErr   error
	}{
		{name: "roulette_jackpot", game: Roulette, gold: 100, draws: []int{1}, wantPrize: 200, wantGold: 290},
		{name: "roulette_blank", game: Roulette, gold: 100, draws: []int{6}, wantPrize: 0, wantGold: 90},
		{name: "roulette_break_even", game: Roulette, gold: 10, draws: []int{0}, wantPrize: 10, wantGold: 10},
		{
			name: "slots_three_moneybags", game: Slots, gold: 100, draws: []int{6, 6, 6},
			wantPrize: 250, wantGold: 340, wantReels: []string{"moneybag", "moneybag", "moneybag"},
		},
		{
			name: "slots_three_cherries", game: Slots, gold: 100, draws: []int{0, 0, 0},
			wantPrize: 5, wantGold: 95, wantReels: []string{"cherry", "cherry", "cherry"},
		},
		{
			name: "slots_no_match", game: Slots, gold: 100, draws: []int{6, 6, 5},
			wantPrize: 0, wantGold: 90, wantReels: []string{"moneybag", "moneybag", "diamond"},
		},
		{name: "insufficient_funds", game: Roulette, gold: 9, draws: []int{1}, wantErr: ledgererr.ErrInsufficientFunds, wantGold: 9},
		{name: "unknown_game", game: Game("poker"), gold: 100, wantErr: ledgererr.ErrInvalidInput, wantGold: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, a := newMachine(t, tt.gold, tt.draws...)
			ctx := t.Context()

			spin, err := m.Play(ctx, "user-1", tt.game)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}

			u, gerr := a.Get(ctx, "user-1")
			if gerr != nil {
				t.Fatalf("get: %v", gerr)
			}
			if u.Gold != tt.wantGold {
				t.Fatalf("gold = %d, want %d", u.Gold, tt.wantGold)
			}
			if tt.wantErr != nil {
				return
			}

			if spin.Prize != tt.wantPrize || spin.Cost != DefaultSpinCost {
				t.Fatalf("spin = %+v", spin)
			}
			if spin.User.Gold != tt.wantGold {
				t.Fatalf("spin user gold = %d, want %d", spin.User.Gold, tt.wantGold)
			}
			if tt.game == Roulette && (spin.Segment == nil || *spin.Segment != tt.draws[0]) {
				t.Fatalf("segment = %v", spin.Segment)
			}
			if len(spin.Reels) != len(tt.wantReels) {
				t.Fatalf("reels = %v, want %v", spin.Reels, tt.wantReels)
			}
			for i := range tt.wantReels {
				if spin.Reels[i] != tt.wantReels[i] {
					t.Fatalf("reels = %v, want %v", spin.Reels, tt.wantReels)
				}
			}
		})
	}
}

func TestMachine_PlayUnknownUser(t *testing.T) {
	t.Parallel()

	m, _ := newMachine(t, 100, 0)
	if _, err := m.Play(t.Context(), "ghost", Roulette); !errors.Is(err, ledgererr.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMachine_SpinCost(t *testing.T) {
	t.Parallel()

	s := store.NewMemory()
	a := accounts.New(s, accounts.WithBcryptCost(bcrypt.MinCost))
	if _, err := a.Create(t.Context(), accounts.NewUser{
		ID: "user-1", Email: "user@test.com", Password: "password123", DisplayName: "Regular User", Gold: 30,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := New(s, WithSpinCost(25), WithRand(&seqRand{vals: []int{6, 6}}))
	if m.Cost() != 25 {
		t.Fatalf("cost = %d", m.Cost())
	}
	if _, err := m.Play(t.Context(), "user-1", Roulette); err != nil {
		t.Fatalf("first spin: %v", err)
	}
	// 30 - 25 + 0 = 5, abaixo do custo
	if _, err := m.Play(t.Context(), "user-1", Roulette); !errors.Is(err, ledgererr.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"roulette", "slots"} {
		if g, err := Parse(s); err != nil || string(g) != s {
			t.Fatalf("parse %q = %q, %v", s, g, err)
		}
	}
	if _, err := Parse("Roulette"); !errors.Is(err, ledgererr.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}
