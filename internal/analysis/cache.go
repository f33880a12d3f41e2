package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

var cacheKey = []string{store.KeyAnalysisCache}

// Entry guarda os textos gerados para uma partida. Campos nil nunca foram gravados.
type Entry struct {
	Summary         *string   `json:"summary,omitempty"`
	PremiumAnalysis *string   `json:"premiumAnalysis,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Patch traz só os campos a sobrescrever.
type Patch struct {
	Summary         *string `json:"summary,omitempty"`
	PremiumAnalysis *string `json:"premiumAnalysis,omitempty"`
}

// Cache memoiza texto por id de partida. ttl e maxEntries zerados = sem limite.
type Cache struct {
	store      store.Store
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(s store.Store, opts ...Option) *Cache {
	c := &Cache{store: s, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cache) expired(e Entry, now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.UpdatedAt) >= c.ttl
}

func (c *Cache) Get(ctx context.Context, matchID string) (Entry, bool, error) {
	var (
		out Entry
		ok  bool
	)
	err := store.View(ctx, c.store, cacheKey, func(tx *store.Txn) error {
		entries := map[string]Entry{}
		if _, err := tx.Decode(store.KeyAnalysisCache, &entries); err != nil {
			return err
		}
		e, found := entries[matchID]
		if !found || c.expired(e, c.now()) {
			return nil
		}
		out, ok = e, true
		return nil
	})
	return out, ok, err
}

// Save mescla o patch na entrada (último a escrever vence, por campo),
// descarta expiradas e despeja as mais antigas acima do limite.
func (c *Cache) Save(ctx context.Context, matchID string, p Patch) (Entry, error) {
	if matchID == "" {
		return Entry{}, fmt.Errorf("%w: match id required", ledgererr.ErrInvalidInput)
	}

	var out Entry
	err := c.store.Update(ctx, cacheKey, func(tx *store.Txn) error {
		entries := map[string]Entry{}
		if _, err := tx.Decode(store.KeyAnalysisCache, &entries); err != nil {
			return err
		}

		now := c.now().UTC()
		for id, e := range entries {
			if c.expired(e, now) {
				delete(entries, id)
			}
		}

		e := entries[matchID]
		if p.Summary != nil {
			e.Summary = p.Summary
		}
		if p.PremiumAnalysis != nil {
			e.PremiumAnalysis = p.PremiumAnalysis
		}
		e.UpdatedAt = now
		entries[matchID] = e

		c.evict(entries, matchID)

		out = e
		return tx.Encode(store.KeyAnalysisCache, entries)
	})
	return out, err
}

// evict remove as entradas mais antigas até caber em maxEntries. keep nunca sai.
func (c *Cache) evict(entries map[string]Entry, keep string) {
	if c.maxEntries <= 0 || len(entries) <= c.maxEntries {
		return
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		if id != keep {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := entries[ids[i]].UpdatedAt, entries[ids[j]].UpdatedAt
		if a.Equal(b) {
			return ids[i] < ids[j]
		}
		return a.Before(b)
	})

	for _, id := range ids {
		if len(entries) <= c.maxEntries {
			return
		}
		delete(entries, id)
	}
}
