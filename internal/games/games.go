package games

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/radieske/gold-ledger/internal/accounts"
	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

type Game string

const (
	Roulette Game = "roulette"
	Slots    Game = "slots"
)

// DefaultSpinCost é o preço de uma rodada em qualquer jogo.
const DefaultSpinCost int64 = 10

// RoulettePrizes são os segmentos da roleta, em sentido horário.
var RoulettePrizes = []int64{10, 200, 10, 50, 100, 20, 0, 50}

// SlotSymbols e SlotPrizes andam juntos: trinca do símbolo i paga SlotPrizes[i].
var (
	SlotSymbols = []string{"cherry", "lemon", "orange", "watermelon", "star", "diamond", "moneybag"}
	SlotPrizes  = []int64{5, 10, 15, 20, 50, 100, 250}
)

const reelCount = 3

func Parse(s string) (Game, error) {
	switch Game(s) {
	case Roulette, Slots:
		return Game(s), nil
	default:
		return "", fmt.Errorf("%w: game %q", ledgererr.ErrInvalidInput, s)
	}
}

// Spin é o resultado de uma rodada já gravada.
type Spin struct {
	Game    Game          `json:"game"`
	Cost    int64         `json:"cost"`
	Prize   int64         `json:"prize"`
	Segment *int          `json:"segment,omitempty"` // roleta
	Reels   []string      `json:"reels,omitempty"`   // caça-níquel
	User    accounts.User `json:"user"`
}

// Rand é o que o sorteio precisa de *rand.Rand.
type Rand interface {
	Intn(n int) int
}

// Machine cobra a rodada e paga o prêmio no mesmo store.Update.
type Machine struct {
	store store.Store
	cost  int64

	mu  sync.Mutex
	rnd Rand
}

type Option func(*Machine)

func WithRand(r Rand) Option {
	return func(m *Machine) { m.rnd = r }
}

func WithSpinCost(cost int64) Option {
	return func(m *Machine) {
		if cost > 0 {
			m.cost = cost
		}
	}
}

func New(s store.Store, opts ...Option) *Machine {
	m := &Machine{
		store: s,
		cost:  DefaultSpinCost,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Machine) Cost() int64 { return m.cost }

// Play sorteia e aplica -cost+prize ao saldo. Saldo abaixo do custo devolve
// ErrInsufficientFunds e nada é gravado.
func (m *Machine) Play(ctx context.Context, userID string, game Game) (Spin, error) {
	// sorteio fora do Update: repetir o callback não muda o resultado
	spin, err := m.draw(game)
	if err != nil {
		return Spin{}, err
	}

	err = m.store.Update(ctx, []string{store.KeyUsers}, func(tx *store.Txn) error {
		users, err := accounts.Load(tx)
		if err != nil {
			return err
		}
		if _, err := users.Adjust(userID, -spin.Cost); err != nil {
			return err
		}
		u, err := users.Adjust(userID, spin.Prize)
		if err != nil {
			return err
		}
		spin.User = u
		return users.Save(tx)
	})
	if err != nil {
		return Spin{}, err
	}
	return spin, nil
}

func (m *Machine) draw(game Game) (Spin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	spin := Spin{Game: game, Cost: m.cost}
	switch game {
	case Roulette:
		i := m.rnd.Intn(len(RoulettePrizes))
		spin.Segment = &i
		spin.Prize = RoulettePrizes[i]
	case Slots:
		idx := make([]int, reelCount)
		spin.Reels = make([]string, reelCount)
		for r := range idx {
			idx[r] = m.rnd.Intn(len(SlotSymbols))
			spin.Reels[r] = SlotSymbols[idx[r]]
		}
		if idx[0] == idx[1] && idx[1] == idx[2] {
			spin.Prize = SlotPrizes[idx[0]]
		}
	default:
		return Spin{}, fmt.Errorf("%w: game %q", ledgererr.ErrInvalidInput, game)
	}
	return spin, nil
}
