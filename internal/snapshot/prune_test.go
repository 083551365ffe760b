package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAt(t *testing.T, s *Store, key Key, ts int64) {
	t.Helper()
	if _, err := s.Write(key, ts, ts); err != nil {
		t.Fatalf("Write(%s, %d) error = %v", key, ts, err)
	}
}

func timestamps(files []File) []int64 {
	out := make([]int64, len(files))
	for i, f := range files {
		out[i] = f.Timestamp
	}
	return out
}

func TestPrune_KeepLatestK(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	for _, ts := range []int64{100, 200, 300, 400, 500} {
		writeAt(t, s, TickerKey(), ts)
	}

	removed := s.Prune(TickerKey(), PruneOptions{Keep: 2})
	if removed != 3 {
		t.Errorf("Prune() removed = %d, want 3", removed)
	}

	got := timestamps(s.list(TickerKey()))
	if len(got) != 2 || got[0] != 400 || got[1] != 500 {
		t.Errorf("surviving timestamps = %v, want [400 500]", got)
	}
}

func TestPrune_FewerThanKeep(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	writeAt(t, s, AccountKey(), 100)

	if removed := s.Prune(AccountKey(), PruneOptions{Keep: 3}); removed != 0 {
		t.Errorf("Prune() removed = %d, want 0", removed)
	}
	if got := s.list(AccountKey()); len(got) != 1 {
		t.Errorf("surviving files = %d, want 1", len(got))
	}
}

func TestPrune_GraceWindow(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	// keep=1 would normally delete everything but ts=20000; the grace
	// window protects snapshots within 10s of the reference time.
	for _, ts := range []int64{1000, 12000, 15000, 20000} {
		writeAt(t, s, TickerKey(), ts)
	}

	s.Prune(TickerKey(), PruneOptions{
		Keep:          1,
		ReferenceTime: 20000,
		GraceWindow:   10 * time.Second,
	})

	got := timestamps(s.list(TickerKey()))
	// 1000 deleted (outside keep set and older than 20000-10000);
	// 12000 and 15000 protected by the grace window; 20000 kept.
	want := []int64{12000, 15000, 20000}
	if len(got) != len(want) {
		t.Fatalf("surviving timestamps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("surviving timestamps = %v, want %v", got, want)
		}
	}
}

func TestPrune_NoGraceWindowWithoutReferenceTime(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	now := time.Now().UnixMilli()
	for i := int64(0); i < 4; i++ {
		writeAt(t, s, TickerKey(), now+i)
	}

	// Routine sweep: no reference time, so even very recent snapshots
	// outside the keep set are deleted.
	s.Prune(TickerKey(), PruneOptions{Keep: 1})

	got := s.list(TickerKey())
	if len(got) != 1 || got[0].Timestamp != now+3 {
		t.Errorf("surviving = %v, want only %d", timestamps(got), now+3)
	}
}

func TestPrune_VanishedFileIsBenign(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	for _, ts := range []int64{100, 200, 300} {
		writeAt(t, s, TickerKey(), ts)
	}

	// Another pruner already removed the oldest file.
	os.Remove(filepath.Join(s.Root(), "ticker", "000000000000100.succ"))

	removed := s.Prune(TickerKey(), PruneOptions{Keep: 1})
	if removed != 1 {
		t.Errorf("Prune() removed = %d, want 1 (the vanished file must not count or abort)", removed)
	}
	if got := s.list(TickerKey()); len(got) != 1 {
		t.Errorf("surviving files = %d, want 1", len(got))
	}
}

func TestPrune_RemovesOrphanedStaging(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.EnsureDirs()
	writeAt(t, s, TickerKey(), 100)

	stale := filepath.Join(s.Root(), "ticker", "000000000000050.dead"+stagingSuffix)
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * stagingMaxAge)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	s.Prune(TickerKey(), PruneOptions{Keep: 1})

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("orphaned staging file should have been removed by the sweep")
	}
}

func TestPurgeAll(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	s.Write(OrderKey("BTCUSD", 1), "a", 100)
	s.Write(OrderKey("ETHUSD", 2), "b", 200)
	s.Write(TickerKey(), "c", 300)

	removed := s.PurgeAll(CategoryKey(CategoryOrder))
	if removed != 2 {
		t.Errorf("PurgeAll(order) removed = %d, want 2", removed)
	}
	if got := s.list(CategoryKey(CategoryOrder)); len(got) != 0 {
		t.Errorf("order channel should be empty, has %d files", len(got))
	}

	// The ticker channel is untouched.
	if got := s.list(TickerKey()); len(got) != 1 {
		t.Errorf("ticker channel should still hold 1 file, has %d", len(got))
	}
}

func TestPrune_OrderCategorySweep(t *testing.T) {
	s := NewStore(t.TempDir(), nil)

	// The scheduled sweep prunes the order category as one channel,
	// keeping the K newest files across all orders.
	s.Write(OrderKey("BTCUSD", 1), "a", 100)
	s.Write(OrderKey("BTCUSD", 1), "b", 200)
	s.Write(OrderKey("ETHUSD", 2), "c", 300)

	s.Prune(CategoryKey(CategoryOrder), PruneOptions{Keep: 2})

	got := timestamps(s.list(CategoryKey(CategoryOrder)))
	if len(got) != 2 || got[0] != 200 || got[1] != 300 {
		t.Errorf("surviving timestamps = %v, want [200 300]", got)
	}
}
