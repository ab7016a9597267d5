package repository

import (
	"context"
	"testing"
	"time"

	"AquaWatch/internal/domain/models"
	pkgcache "AquaWatch/pkg/cache"
	applogger "AquaWatch/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestCachedDecisionStoreRoundTrip(t *testing.T) {
	mc := pkgcache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedDecisionStore(mc, testLogger(t))
	ctx := context.Background()

	d := &models.Decision{
		PondID:        "POND_01",
		Timestamp:     time.Unix(100, 0).UTC(),
		UrgencyScore:  0.42,
		PrimaryAction: models.ActionMonitorClosely,
		Confidence:    0.7,
		Tier:          "rules",
	}
	if err := store.Put(ctx, d); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(ctx, "POND_01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UrgencyScore != 0.42 || got.PrimaryAction != models.ActionMonitorClosely {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCachedDecisionStorePutSupersedes(t *testing.T) {
	mc := pkgcache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedDecisionStore(mc, testLogger(t))
	ctx := context.Background()

	for _, score := range []float64{0.1, 0.9} {
		if err := store.Put(ctx, &models.Decision{PondID: "POND_01", UrgencyScore: score}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	got, err := store.Get(ctx, "POND_01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UrgencyScore != 0.9 {
		t.Fatalf("expected latest decision, got score %v", got.UrgencyScore)
	}
}

func TestCachedDecisionStoreSnapshotOrdered(t *testing.T) {
	mc := pkgcache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedDecisionStore(mc, testLogger(t))
	ctx := context.Background()

	for _, pond := range []string{"POND_03", "POND_01", "POND_02"} {
		if err := store.Put(ctx, &models.Decision{PondID: pond}); err != nil {
			t.Fatalf("put %s: %v", pond, err)
		}
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 3 {
		t.Fatalf("expected 3 decisions, got %d", len(snap))
	}
	for i, want := range []string{"POND_01", "POND_02", "POND_03"} {
		if snap[i].PondID != want {
			t.Fatalf("snapshot[%d] = %s, want %s", i, snap[i].PondID, want)
		}
	}
}

func TestCachedDecisionStoreRejectsEmptyPond(t *testing.T) {
	mc := pkgcache.NewMemoryCache()
	defer mc.Close()
	store := NewCachedDecisionStore(mc, testLogger(t))

	if err := store.Put(context.Background(), &models.Decision{}); err == nil {
		t.Fatalf("expected error for decision without pond id")
	}
}

func TestCSVQuote(t *testing.T) {
	cases := []struct{ in, want string }{
		{"123", `"123"`},
		{`{"DO(mg/L)":5.5}`, `"{""DO(mg/L)"":5.5}"`},
		{"", `""`},
	}
	for _, c := range cases {
		if got := csvQuote(c.in); got != c.want {
			t.Fatalf("csvQuote(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}
