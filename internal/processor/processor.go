// Package processor normalizes feed events into channel-keyed snapshot
// writes. It owns the in-memory ticker table; the table is rebuilt from
// feed replay after a restart and is never shared across processes.
package processor

import (
	"log/slog"
	"sync"

	"github.com/hzhou/snapbridge/internal/feed"
	"github.com/hzhou/snapbridge/internal/model"
	"github.com/hzhou/snapbridge/internal/snapshot"
)

// pruneKeep is how many snapshots a writer-side prune leaves in the
// channel it just published to. The scheduled retention sweep enforces the
// same bound across all channels; this keeps hot channels tidy in between.
const pruneKeep = 3

// Processor consumes decoded feed events and drives the snapshot store.
// It implements feed.Handler and feed.CachePurger.
type Processor struct {
	store  *snapshot.Store
	logger *slog.Logger

	// table maps symbol to the latest-seen ticker record. Merges are
	// monotonic: an entry is replaced only by a strictly newer event.
	mu    sync.Mutex
	table map[string]model.Ticker
}

// New creates a Processor writing through store.
func New(store *snapshot.Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:  store,
		logger: logger,
		table:  make(map[string]model.Ticker),
	}
}

// OnTickerBatch merges a ticker-array message into the table, then flushes
// the full table as one ticker-table snapshot. Malformed entries are
// dropped individually; the rest of the batch still merges.
func (p *Processor) OnTickerBatch(batch feed.TickerBatch) {
	p.mu.Lock()
	for _, u := range batch.Updates {
		if u.Symbol == "" || u.Price == "" || u.EventTime <= 0 {
			p.logger.Warn("dropping malformed ticker update",
				"symbol", u.Symbol,
				"price", u.Price,
				"event_time", u.EventTime,
			)
			continue
		}
		prev, ok := p.table[u.Symbol]
		if ok && prev.EventTime >= u.EventTime {
			continue
		}
		p.table[u.Symbol] = model.Ticker{
			Symbol:    u.Symbol,
			Price:     u.Price,
			EventTime: u.EventTime,
		}
	}
	tickers := make([]model.Ticker, 0, len(p.table))
	for _, tk := range p.table {
		tickers = append(tickers, tk)
	}
	p.mu.Unlock()

	if len(tickers) == 0 {
		return
	}

	ts, err := p.store.Write(snapshot.TickerKey(), tickers, 0)
	if err != nil {
		// Best-effort cache: a missed flush degrades to a miss on read.
		p.logger.Warn("ticker snapshot write failed", "error", err)
		return
	}
	p.pruneAfterWrite(snapshot.TickerKey(), ts)
}

// OnOrderEvent writes one execution report to its per-order channel. The
// event's own timestamp names the snapshot, so replays and out-of-order
// delivery produce identical files.
func (p *Processor) OnOrderEvent(ev feed.OrderEvent) {
	if ev.Symbol == "" || ev.OrderID == 0 || ev.EventTime <= 0 {
		p.logger.Warn("dropping malformed order event",
			"symbol", ev.Symbol,
			"order_id", ev.OrderID,
			"event_time", ev.EventTime,
		)
		return
	}

	record := model.OrderStatus{
		Symbol:              ev.Symbol,
		OrderID:             ev.OrderID,
		EventTime:           ev.EventTime,
		Side:                ev.Side,
		Price:               ev.Price,
		Status:              ev.Status,
		ExecType:            ev.ExecType,
		CummulativeQuoteQty: ev.CummulativeQuoteQty,
	}

	key := snapshot.OrderKey(ev.Symbol, ev.OrderID)
	ts, err := p.store.Write(key, record, ev.EventTime)
	if err != nil {
		p.logger.Warn("order snapshot write failed",
			"channel", key.String(),
			"error", err,
		)
		return
	}
	p.pruneAfterWrite(key, ts)

	p.logger.Info("order snapshot written",
		"symbol", ev.Symbol,
		"order_id", ev.OrderID,
		"status", ev.Status,
	)
}

// OnAccountEvent writes an account-position update to the account channel,
// stamped with the event time when present.
func (p *Processor) OnAccountEvent(ev feed.AccountEvent) {
	record := model.AccountSnapshot{
		EventTime: ev.EventTime,
		Balances:  ev.Balances,
	}

	// ts=0 falls back to wall-clock time inside the store.
	ts, err := p.store.Write(snapshot.AccountKey(), record, ev.EventTime)
	if err != nil {
		p.logger.Warn("account snapshot write failed", "error", err)
		return
	}
	p.pruneAfterWrite(snapshot.AccountKey(), ts)
}

// pruneAfterWrite trims the channel just published to. The write's own
// timestamp is the prune's reference time, so the grace window shields the
// new snapshot and any near-simultaneous neighbors a reader may be
// resolving.
func (p *Processor) pruneAfterWrite(key snapshot.Key, ts int64) {
	p.store.Prune(key, snapshot.PruneOptions{
		Keep:          pruneKeep,
		ReferenceTime: ts,
	})
}

// PurgeTickers invalidates the ticker-table channel after a market feed
// discontinuity. The in-memory table is reset too: its pre-gap entries
// must not resurface in the first post-gap flush.
func (p *Processor) PurgeTickers() {
	p.mu.Lock()
	p.table = make(map[string]model.Ticker)
	p.mu.Unlock()

	p.store.PurgeAll(snapshot.TickerKey())
}

// PurgeUserData invalidates every order channel and the account channel
// after a user feed discontinuity.
func (p *Processor) PurgeUserData() {
	p.store.PurgeAll(snapshot.CategoryKey(snapshot.CategoryOrder))
	p.store.PurgeAll(snapshot.AccountKey())
}

// TableSize returns the number of symbols currently tracked.
func (p *Processor) TableSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.table)
}
