package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/verte-zerg/tuiorder/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "tuiorder.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestKVRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := st.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := st.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := st.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("expected v2, got %q ok=%v err=%v", v, ok, err)
	}
	if err := st.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := st.Get(ctx, "k"); ok {
		t.Fatalf("expected key to be deleted")
	}
}

func TestKVSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuiorder.db")
	ctx := context.Background()
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()
	if v, ok, err := st.Get(ctx, "k"); err != nil || !ok || v != "v" {
		t.Fatalf("expected persisted value, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestAttemptSummaries(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	attempts := []model.Attempt{
		{SetHash: "h1", Problem: 0, LockedCount: 1, Total: 3, At: base},
		{SetHash: "h1", Problem: 0, LockedCount: 3, Total: 3, Solved: true, At: base.Add(time.Minute)},
		{SetHash: "h1", Problem: 2, LockedCount: 0, Total: 2, At: base.Add(2 * time.Minute)},
		{SetHash: "h2", Problem: 0, LockedCount: 4, Total: 4, Solved: true, At: base},
	}
	for _, a := range attempts {
		if err := st.RecordAttempt(ctx, a); err != nil {
			t.Fatalf("record attempt: %v", err)
		}
	}

	got, err := st.ListAttemptSummaries(ctx, "h1")
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}
	want := []model.AttemptSummary{
		{Problem: 0, Attempts: 2, BestLocked: 3, Solved: true, LastAt: base.Add(time.Minute)},
		{Problem: 2, Attempts: 1, BestLocked: 0, Solved: false, LastAt: base.Add(2 * time.Minute)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected summaries (-want +got):\n%s", diff)
	}
}

func TestMemoryKV(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatalf("expected empty store")
	}
	_ = m.Set(ctx, "k", "v")
	if v, ok, _ := m.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected stored value, got %q", v)
	}
	if m.Keys() != 1 {
		t.Fatalf("expected one key, got %d", m.Keys())
	}
}

func TestMemoryZeroValue(t *testing.T) {
	var m Memory
	ctx := context.Background()
	if _, ok, err := m.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := m.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected stored value, got %q ok=%v", v, ok)
	}
}
