package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/gold-ledger/internal/accounts"
	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

// DefaultScope é a sessão única usada fora da API HTTP.
const DefaultScope = "current"

type record struct {
	UserID     string    `json:"userId"`
	LoggedInAt time.Time `json:"loggedInAt"`
	ExpiresAt  time.Time `json:"expiresAt,omitzero"`
}

// index mapeia chave de sessão -> vencimento (zero = não vence).
type index map[string]time.Time

func expired(exp, now time.Time) bool {
	return !exp.IsZero() && !now.Before(exp)
}

// Gate associa uma chave de sessão a no máximo um usuário autenticado.
type Gate struct {
	store    store.Store
	accounts *accounts.Ledger
	key      string
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Gate)

// WithTTL faz cada login vencer depois de ttl. 0 = sem vencimento.
func WithTTL(ttl time.Duration) Option {
	return func(g *Gate) { g.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func New(s store.Store, a *accounts.Ledger, opts ...Option) *Gate {
	g := &Gate{store: s, accounts: a, key: store.KeySessionPrefix + DefaultScope, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Scoped devolve um gate preso a ledger:session:<sessionID>.
func (g *Gate) Scoped(sessionID string) *Gate {
	c := *g
	c.key = store.KeySessionPrefix + sessionID
	return &c
}

func (g *Gate) Key() string { return g.key }

// Login confere email exato e senha. Credencial errada devolve ok=false e
// não mexe na sessão; err só para falha do store.
// Sessões vencidas de outros tokens são apagadas na mesma escrita.
func (g *Gate) Login(ctx context.Context, email, password string) (accounts.User, bool, error) {
	u, err := g.accounts.FindByEmail(ctx, email)
	if errors.Is(err, ledgererr.ErrNotFound) {
		return accounts.User{}, false, nil
	}
	if err != nil {
		return accounts.User{}, false, err
	}
	if !accounts.VerifyPassword(u, password) {
		return accounts.User{}, false, nil
	}

	now := g.now().UTC()
	rec := record{UserID: u.ID, LoggedInAt: now}
	if g.ttl > 0 {
		rec.ExpiresAt = now.Add(g.ttl)
	}

	stale, err := expiredKeys(ctx, g.store, now, g.key)
	if err != nil {
		return accounts.User{}, false, err
	}
	keys := append([]string{store.KeySessionIndex, g.key}, stale...)
	err = g.store.Update(ctx, keys, func(tx *store.Txn) error {
		idx := index{}
		if _, err := tx.Decode(store.KeySessionIndex, &idx); err != nil {
			return err
		}
		prune(tx, idx, stale, now)
		idx[g.key] = rec.ExpiresAt
		if err := tx.Encode(store.KeySessionIndex, idx); err != nil {
			return err
		}
		return tx.Encode(g.key, rec)
	})
	if err != nil {
		return accounts.User{}, false, fmt.Errorf("save session: %w", err)
	}
	return u, true, nil
}

func (g *Gate) Logout(ctx context.Context) error {
	return g.drop(ctx)
}

// Current resolve o usuário da sessão. Sessão vencida ou de usuário removido
// é apagada e volta a ser anônima.
func (g *Gate) Current(ctx context.Context) (accounts.User, bool, error) {
	b, ok, err := g.store.Get(ctx, g.key)
	if err != nil || !ok {
		return accounts.User{}, false, err
	}

	var rec record
	if err := json.Unmarshal(b, &rec); err != nil {
		return accounts.User{}, false, fmt.Errorf("decode session: %w", err)
	}
	if expired(rec.ExpiresAt, g.now()) {
		return accounts.User{}, false, g.drop(ctx)
	}

	u, err := g.accounts.Get(ctx, rec.UserID)
	if errors.Is(err, ledgererr.ErrNotFound) {
		return accounts.User{}, false, g.drop(ctx)
	}
	if err != nil {
		return accounts.User{}, false, err
	}
	return u, true, nil
}

// drop remove a chave da sessão e a entrada no índice.
func (g *Gate) drop(ctx context.Context) error {
	return g.store.Update(ctx, []string{store.KeySessionIndex, g.key}, func(tx *store.Txn) error {
		idx := index{}
		if _, err := tx.Decode(store.KeySessionIndex, &idx); err != nil {
			return err
		}
		if _, ok := idx[g.key]; ok {
			delete(idx, g.key)
			if err := tx.Encode(store.KeySessionIndex, idx); err != nil {
				return err
			}
		}
		tx.Remove(g.key)
		return nil
	})
}

// Prune apaga todas as sessões vencidas em now e devolve quantas saíram.
func Prune(ctx context.Context, s store.Store, now time.Time) (int, error) {
	stale, err := expiredKeys(ctx, s, now, "")
	if err != nil || len(stale) == 0 {
		return 0, err
	}
	var n int
	err = s.Update(ctx, append([]string{store.KeySessionIndex}, stale...), func(tx *store.Txn) error {
		idx := index{}
		if _, err := tx.Decode(store.KeySessionIndex, &idx); err != nil {
			return err
		}
		n = prune(tx, idx, stale, now)
		return tx.Encode(store.KeySessionIndex, idx)
	})
	return n, err
}

// expiredKeys lê o índice fora da transação; prune confere de novo dentro dela.
func expiredKeys(ctx context.Context, s store.Store, now time.Time, skip string) ([]string, error) {
	b, ok, err := s.Get(ctx, store.KeySessionIndex)
	if err != nil || !ok {
		return nil, err
	}
	idx := index{}
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, fmt.Errorf("decode %s: %w", store.KeySessionIndex, err)
	}
	var out []string
	for k, exp := range idx {
		if k != skip && expired(exp, now) {
			out = append(out, k)
		}
	}
	return out, nil
}

func prune(tx *store.Txn, idx index, candidates []string, now time.Time) int {
	var n int
	for _, k := range candidates {
		if exp, ok := idx[k]; ok && expired(exp, now) {
			delete(idx, k)
			tx.Remove(k)
			n++
		}
	}
	return n
}
