package seed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/gold-ledger/internal/accounts"
	"github.com/radieske/gold-ledger/internal/session"
	"github.com/radieske/gold-ledger/internal/store"
)

// DefaultPassword é a senha das contas de demonstração.
const DefaultPassword = "password123"

// Defaults são as três contas de demonstração.
func Defaults() []accounts.NewUser {
	return []accounts.NewUser{
		{ID: "user-1", Email: "user@test.com", Password: DefaultPassword, DisplayName: "Regular User", Gold: 1000},
		{ID: "user-2", Email: "premium@test.com", Password: DefaultPassword, DisplayName: "Premium User", Gold: 5000, IsPremium: true},
		{ID: "user-3", Email: "admin@test.com", Password: DefaultPassword, DisplayName: "Administrator", Gold: 99999, IsAdmin: true, IsPremium: true},
	}
}

type Seeder struct {
	log      *zap.Logger
	store    store.Store
	accounts *accounts.Ledger
}

func New(log *zap.Logger, s store.Store, a *accounts.Ledger) *Seeder {
	return &Seeder{log: log, store: s, accounts: a}
}

func (s *Seeder) build() ([]accounts.User, error) {
	defs := Defaults()
	out := make([]accounts.User, 0, len(defs))
	for _, d := range defs {
		u, err := s.accounts.Build(d)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", d.Email, err)
		}
		out = append(out, u)
	}
	return out, nil
}

// EnsureDefaults cria as contas de demonstração se não houver nenhum usuário.
func (s *Seeder) EnsureDefaults(ctx context.Context) (seeded bool, err error) {
	users, err := s.build()
	if err != nil {
		return false, err
	}

	err = s.store.Update(ctx, []string{store.KeyUsers}, func(tx *store.Txn) error {
		seeded = false
		col, err := accounts.Load(tx)
		if err != nil {
			return err
		}
		if col.Len() > 0 {
			return nil
		}
		for _, u := range users {
			if err := col.Append(u); err != nil {
				return err
			}
		}
		seeded = true
		return col.Save(tx)
	})
	if err != nil {
		return false, err
	}
	if seeded {
		s.log.Info("default users seeded", zap.Int("count", len(users)))
	}
	return seeded, nil
}

// Reset volta ao estado inicial: contas padrão e nenhuma partida, aposta,
// análise ou sessão padrão, em uma escrita. Sessões vencidas saem logo depois.
func (s *Seeder) Reset(ctx context.Context) error {
	users, err := s.build()
	if err != nil {
		return err
	}

	defaultSession := store.KeySessionPrefix + session.DefaultScope
	keys := []string{store.KeyUsers, store.KeyMatches, store.KeyBets, store.KeyAnalysisCache, store.KeySessionIndex, defaultSession}

	err = s.store.Update(ctx, keys, func(tx *store.Txn) error {
		col := &accounts.Users{}
		for _, u := range users {
			if err := col.Append(u); err != nil {
				return err
			}
		}
		if err := col.Save(tx); err != nil {
			return err
		}
		tx.Remove(store.KeyMatches)
		tx.Remove(store.KeyBets)
		tx.Remove(store.KeyAnalysisCache)
		tx.Remove(defaultSession)

		sessions := map[string]time.Time{}
		if _, err := tx.Decode(store.KeySessionIndex, &sessions); err != nil {
			return err
		}
		if _, ok := sessions[defaultSession]; ok {
			delete(sessions, defaultSession)
			return tx.Encode(store.KeySessionIndex, sessions)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// tokens da API que venceram também saem
	pruned, err := session.Prune(ctx, s.store, time.Now())
	if err != nil {
		return err
	}

	s.log.Warn("ledger data reset", zap.Int("sessions_pruned", pruned))
	return nil
}
