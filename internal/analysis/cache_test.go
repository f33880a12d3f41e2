package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/radieske/gold-ledger/internal/shared/ledgererr"
	"github.com/radieske/gold-ledger/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func str(s string) *string { return &s }

func TestCache_MergesFields(t *testing.T) {
	t.Parallel()

	c := New(store.NewMemory())
	ctx := t.Context()

	if _, ok, err := c.Get(ctx, "m1"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	if _, err := c.Save(ctx, "m1", Patch{Summary: str("short")}); err != nil {
		t.Fatalf("save summary: %v", err)
	}
	if _, err := c.Save(ctx, "m1", Patch{PremiumAnalysis: str("deep")}); err != nil {
		t.Fatalf("save premium: %v", err)
	}

	e, ok, err := c.Get(ctx, "m1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if e.Summary == nil || *e.Summary != "short" || e.PremiumAnalysis == nil || *e.PremiumAnalysis != "deep" {
		t.Fatalf("entry = %+v", e)
	}

	// último a escrever vence no campo
	if _, err := c.Save(ctx, "m1", Patch{Summary: str("newer")}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	e, _, _ = c.Get(ctx, "m1")
	if *e.Summary != "newer" || *e.PremiumAnalysis != "deep" {
		t.Fatalf("after overwrite = %+v", e)
	}

	if _, err := c.Save(ctx, "", Patch{}); !errors.Is(err, ledgererr.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}

func TestCache_TTL(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	s := store.NewMemory()
	c := New(s, WithTTL(time.Hour), WithClock(clk.now))
	ctx := t.Context()

	_, _ = c.Save(ctx, "old", Patch{Summary: str("a")})
	clk.advance(30 * time.Minute)
	_, _ = c.Save(ctx, "fresh", Patch{Summary: str("b")})
	clk.advance(45 * time.Minute)

	if _, ok, _ := c.Get(ctx, "old"); ok {
		t.Fatalf("expired entry still readable")
	}
	if _, ok, _ := c.Get(ctx, "fresh"); !ok {
		t.Fatalf("fresh entry missing")
	}

	// save poda as expiradas
	_, _ = c.Save(ctx, "other", Patch{Summary: str("c")})
	raw := New(s)
	if _, ok, _ := raw.Get(ctx, "old"); ok {
		t.Fatalf("expired entry not pruned on save")
	}
}

func TestCache_MaxEntriesEvictsOldest(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	c := New(store.NewMemory(), WithMaxEntries(2), WithClock(clk.now))
	ctx := t.Context()

	for _, id := range []string{"m1", "m2", "m3"} {
		clk.advance(time.Minute)
		if _, err := c.Save(ctx, id, Patch{Summary: str(id)}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	if _, ok, _ := c.Get(ctx, "m1"); ok {
		t.Fatalf("oldest entry not evicted")
	}
	for _, id := range []string{"m2", "m3"} {
		if _, ok, _ := c.Get(ctx, id); !ok {
			t.Fatalf("%s evicted", id)
		}
	}

	// tocar m2 faz m3 virar a mais antiga
	clk.advance(time.Minute)
	_, _ = c.Save(ctx, "m2", Patch{PremiumAnalysis: str("x")})
	clk.advance(time.Minute)
	_, _ = c.Save(ctx, "m4", Patch{Summary: str("m4")})

	if _, ok, _ := c.Get(ctx, "m3"); ok {
		t.Fatalf("m3 should be evicted")
	}
	if _, ok, _ := c.Get(ctx, "m2"); !ok {
		t.Fatalf("m2 should survive")
	}
}
