package matches

import (
	"context"
	"fmt"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

var matchesKey = []string{store.KeyMatches}

// Collection é o catálogo carregado dentro de um store.Update.
type Collection struct {
	items []Match
}

func Load(tx *store.Txn) (*Collection, error) {
	var items []Match
	if _, err := tx.Decode(store.KeyMatches, &items); err != nil {
		return nil, err
	}
	return &Collection{items: items}, nil
}

func (c *Collection) Save(tx *store.Txn) error {
	return tx.Encode(store.KeyMatches, c.items)
}

func (c *Collection) All() []Match {
	out := make([]Match, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection) Get(id string) (Match, error) {
	for _, it := range c.items {
		if it.ID == id {
			return it, nil
		}
	}
	return Match{}, fmt.Errorf("match %s: %w", id, ledgererr.ErrNotFound)
}

// Upsert troca pelo id ou adiciona no fim. created indica inserção.
func (c *Collection) Upsert(m Match) (created bool) {
	for i, it := range c.items {
		if it.ID == m.ID {
			c.items[i] = m
			return false
		}
	}
	c.items = append(c.items, m)
	return true
}

type Catalog struct {
	store store.Store
}

func NewCatalog(s store.Store) *Catalog {
	return &Catalog{store: s}
}

func (c *Catalog) view(ctx context.Context, fn func(*Collection) error) error {
	return store.View(ctx, c.store, matchesKey, func(tx *store.Txn) error {
		col, err := Load(tx)
		if err != nil {
			return err
		}
		return fn(col)
	})
}

func (c *Catalog) List(ctx context.Context) ([]Match, error) {
	var out []Match
	err := c.view(ctx, func(col *Collection) error {
		out = col.All()
		return nil
	})
	return out, err
}

func (c *Catalog) Get(ctx context.Context, id string) (Match, error) {
	var out Match
	err := c.view(ctx, func(col *Collection) error {
		var err error
		out, err = col.Get(id)
		return err
	})
	return out, err
}

// Upsert grava a partida inteira. Se keepSummary, o resumo já gravado é preservado
// quando m não traz um (atualizações de odds não carregam texto).
func (c *Catalog) Upsert(ctx context.Context, m Match, keepSummary bool) (created bool, err error) {
	if err := m.Validate(); err != nil {
		return false, err
	}
	err = c.store.Update(ctx, matchesKey, func(tx *store.Txn) error {
		col, err := Load(tx)
		if err != nil {
			return err
		}
		if keepSummary && m.Summary == "" {
			if prev, err := col.Get(m.ID); err == nil {
				m.Summary = prev.Summary
			}
		}
		created = col.Upsert(m)
		return col.Save(tx)
	})
	return created, err
}
