package processor

import (
	"testing"
	"time"

	"github.com/hzhou/snapbridge/internal/feed"
	"github.com/hzhou/snapbridge/internal/model"
	"github.com/hzhou/snapbridge/internal/snapshot"
)

func newTestProcessor(t *testing.T) (*Processor, *snapshot.Store) {
	t.Helper()
	store := snapshot.NewStore(t.TempDir(), nil)
	return New(store, nil), store
}

func loadTickerTable(t *testing.T, store *snapshot.Store) []model.Ticker {
	t.Helper()
	files := store.Latest(snapshot.TickerKey(), 1)
	if len(files) != 1 {
		t.Fatalf("ticker channel has %d snapshots, want 1 readable", len(files))
	}
	var table []model.Ticker
	if err := store.Load(files[0], &table); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return table
}

func TestOnTickerBatch_FlushesTable(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnTickerBatch(feed.TickerBatch{
		Updates: []feed.TickerUpdate{
			{Symbol: "BTCUSD", Price: "100", EventTime: 1000},
			{Symbol: "ETHUSD", Price: "20", EventTime: 1000},
		},
		ReceivedAt: time.Now(),
	})

	table := loadTickerTable(t, store)
	if len(table) != 2 {
		t.Fatalf("table has %d entries, want 2", len(table))
	}
}

func TestOnTickerBatch_MonotonicMerge(t *testing.T) {
	tests := []struct {
		name      string
		first     feed.TickerUpdate
		second    feed.TickerUpdate
		wantPrice string
		wantTime  int64
	}{
		{
			name:      "newer replaces older",
			first:     feed.TickerUpdate{Symbol: "BTCUSD", Price: "100", EventTime: 1000},
			second:    feed.TickerUpdate{Symbol: "BTCUSD", Price: "101", EventTime: 1200},
			wantPrice: "101",
			wantTime:  1200,
		},
		{
			name:      "older arriving late is ignored",
			first:     feed.TickerUpdate{Symbol: "BTCUSD", Price: "101", EventTime: 1200},
			second:    feed.TickerUpdate{Symbol: "BTCUSD", Price: "100", EventTime: 1000},
			wantPrice: "101",
			wantTime:  1200,
		},
		{
			name:      "equal timestamp keeps existing record",
			first:     feed.TickerUpdate{Symbol: "BTCUSD", Price: "100", EventTime: 1000},
			second:    feed.TickerUpdate{Symbol: "BTCUSD", Price: "999", EventTime: 1000},
			wantPrice: "100",
			wantTime:  1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, store := newTestProcessor(t)

			p.OnTickerBatch(feed.TickerBatch{Updates: []feed.TickerUpdate{tt.first}})
			p.OnTickerBatch(feed.TickerBatch{Updates: []feed.TickerUpdate{tt.second}})

			table := loadTickerTable(t, store)
			if len(table) != 1 {
				t.Fatalf("table has %d entries, want 1", len(table))
			}
			if table[0].Price != tt.wantPrice || table[0].EventTime != tt.wantTime {
				t.Errorf("merged record = %+v, want price=%s time=%d",
					table[0], tt.wantPrice, tt.wantTime)
			}
		})
	}
}

func TestOnTickerBatch_MalformedUpdateSkipped(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnTickerBatch(feed.TickerBatch{
		Updates: []feed.TickerUpdate{
			{Symbol: "", Price: "1", EventTime: 1000},      // no symbol
			{Symbol: "BTCUSD", Price: "", EventTime: 1000}, // no price
			{Symbol: "ETHUSD", Price: "20", EventTime: 0},  // no event time
			{Symbol: "BNBUSD", Price: "5", EventTime: 1000},
		},
	})

	table := loadTickerTable(t, store)
	if len(table) != 1 || table[0].Symbol != "BNBUSD" {
		t.Errorf("table = %+v, want exactly the one well-formed entry", table)
	}
}

func TestOnTickerBatch_AllMalformedWritesNothing(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnTickerBatch(feed.TickerBatch{
		Updates: []feed.TickerUpdate{{Symbol: "", Price: "", EventTime: 0}},
	})

	if files := store.Latest(snapshot.TickerKey(), 1); files != nil {
		t.Errorf("empty table should not be flushed, found %v", files)
	}
}

func TestOnOrderEvent_UsesEventTimestamp(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnOrderEvent(feed.OrderEvent{
		Symbol:              "BTCUSD",
		OrderID:             42,
		EventTime:           123456,
		Side:                "BUY",
		Price:               "100",
		Status:              "FILLED",
		ExecType:            "TRADE",
		CummulativeQuoteQty: "4200",
	})

	files := store.Latest(snapshot.OrderKey("BTCUSD", 42), 1)
	if len(files) != 1 {
		t.Fatalf("order channel has %d snapshots, want 1", len(files))
	}
	if files[0].Timestamp != 123456 {
		t.Errorf("snapshot timestamp = %d, want the event's own 123456", files[0].Timestamp)
	}

	var record model.OrderStatus
	if err := store.Load(files[0], &record); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if record.Status != "FILLED" || record.CummulativeQuoteQty != "4200" {
		t.Errorf("record = %+v", record)
	}
}

func TestOnOrderEvent_EachTransitionIsOwnChannel(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnOrderEvent(feed.OrderEvent{Symbol: "BTCUSD", OrderID: 1, EventTime: 100, Status: "NEW"})
	p.OnOrderEvent(feed.OrderEvent{Symbol: "BTCUSD", OrderID: 1, EventTime: 200, Status: "FILLED"})
	p.OnOrderEvent(feed.OrderEvent{Symbol: "BTCUSD", OrderID: 2, EventTime: 150, Status: "NEW"})

	if got := len(store.Latest(snapshot.OrderKey("BTCUSD", 1), 10)); got != 2 {
		t.Errorf("order 1 has %d snapshots, want 2", got)
	}
	if got := len(store.Latest(snapshot.OrderKey("BTCUSD", 2), 10)); got != 1 {
		t.Errorf("order 2 has %d snapshots, want 1", got)
	}
}

func TestOnOrderEvent_WriterPruneTrimsOldTransitions(t *testing.T) {
	p, store := newTestProcessor(t)

	// Transitions spread further apart than the grace window.
	for _, ts := range []int64{10_000, 30_000, 50_000, 70_000, 90_000} {
		p.OnOrderEvent(feed.OrderEvent{
			Symbol: "BTCUSD", OrderID: 7, EventTime: ts, Status: "PARTIALLY_FILLED",
		})
	}

	files := store.Latest(snapshot.OrderKey("BTCUSD", 7), 10)
	if len(files) != 3 {
		t.Fatalf("order channel has %d snapshots, want the newest 3", len(files))
	}
	if files[0].Timestamp != 50_000 || files[2].Timestamp != 90_000 {
		t.Errorf("survivors = %+v, want [50000 70000 90000]", files)
	}
}

func TestOnOrderEvent_MalformedDropped(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnOrderEvent(feed.OrderEvent{Symbol: "", OrderID: 1, EventTime: 100})
	p.OnOrderEvent(feed.OrderEvent{Symbol: "BTCUSD", OrderID: 0, EventTime: 100})

	if got := store.Latest(snapshot.CategoryKey(snapshot.CategoryOrder), 10); got != nil {
		t.Errorf("malformed order events should write nothing, found %v", got)
	}
}

func TestOnAccountEvent(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnAccountEvent(feed.AccountEvent{
		EventTime: 5000,
		Balances:  []model.Balance{{Asset: "BTC", Free: "1", Locked: "0"}},
	})

	files := store.Latest(snapshot.AccountKey(), 1)
	if len(files) != 1 {
		t.Fatalf("account channel has %d snapshots, want 1", len(files))
	}
	if files[0].Timestamp != 5000 {
		t.Errorf("snapshot timestamp = %d, want 5000", files[0].Timestamp)
	}

	var acct model.AccountSnapshot
	if err := store.Load(files[0], &acct); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b := acct.Balance("BTC"); b == nil || b.Free != "1" {
		t.Errorf("account = %+v", acct)
	}
}

func TestOnAccountEvent_NoEventTimeUsesWallClock(t *testing.T) {
	p, store := newTestProcessor(t)

	before := time.Now().UnixMilli()
	p.OnAccountEvent(feed.AccountEvent{Balances: []model.Balance{{Asset: "BTC", Free: "1"}}})
	after := time.Now().UnixMilli()

	files := store.Latest(snapshot.AccountKey(), 1)
	if len(files) != 1 {
		t.Fatalf("account channel has %d snapshots, want 1", len(files))
	}
	if files[0].Timestamp < before || files[0].Timestamp > after {
		t.Errorf("timestamp %d outside wall-clock window [%d, %d]",
			files[0].Timestamp, before, after)
	}
}

func TestPurgeTickers_ResetsTableAndChannel(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnTickerBatch(feed.TickerBatch{
		Updates: []feed.TickerUpdate{{Symbol: "BTCUSD", Price: "100", EventTime: 1000}},
	})

	p.PurgeTickers()

	if files := store.Latest(snapshot.TickerKey(), 1); files != nil {
		t.Errorf("ticker channel should be empty after purge, found %v", files)
	}
	if p.TableSize() != 0 {
		t.Errorf("table size = %d after purge, want 0", p.TableSize())
	}

	// A pre-gap symbol must not resurface unless the feed re-delivers it.
	p.OnTickerBatch(feed.TickerBatch{
		Updates: []feed.TickerUpdate{{Symbol: "ETHUSD", Price: "20", EventTime: 2000}},
	})
	table := loadTickerTable(t, store)
	if len(table) != 1 || table[0].Symbol != "ETHUSD" {
		t.Errorf("post-purge table = %+v, want only ETHUSD", table)
	}
}

func TestPurgeUserData(t *testing.T) {
	p, store := newTestProcessor(t)

	p.OnOrderEvent(feed.OrderEvent{Symbol: "BTCUSD", OrderID: 1, EventTime: 100, Status: "NEW"})
	p.OnAccountEvent(feed.AccountEvent{EventTime: 200, Balances: []model.Balance{{Asset: "BTC"}}})
	p.OnTickerBatch(feed.TickerBatch{
		Updates: []feed.TickerUpdate{{Symbol: "BTCUSD", Price: "100", EventTime: 1000}},
	})

	p.PurgeUserData()

	if got := store.Latest(snapshot.CategoryKey(snapshot.CategoryOrder), 10); got != nil {
		t.Errorf("order category should be empty, found %v", got)
	}
	if got := store.Latest(snapshot.AccountKey(), 1); got != nil {
		t.Errorf("account channel should be empty, found %v", got)
	}
	// The ticker channel belongs to the market feed and is untouched.
	if got := store.Latest(snapshot.TickerKey(), 1); len(got) != 1 {
		t.Errorf("ticker channel should survive a user purge")
	}
}
