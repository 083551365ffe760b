// Package accessor is the public read API of the snapshot cache: every
// query resolves from the freshest valid snapshot and falls back to the
// remote REST API only on a miss.
//
// All lookups degrade to a nil result rather than an error. Callers poll
// continuously; an unanswerable query this cycle is answerable the next,
// and a panic or error return would cost more than the missing value.
package accessor

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/hzhou/snapbridge/internal/model"
	"github.com/hzhou/snapbridge/internal/snapshot"
)

// RemoteAPI is the fallback capability the accessor composes over. It is
// satisfied by *api.Client.
type RemoteAPI interface {
	GetAllTickers(ctx context.Context) ([]model.Ticker, error)
	GetSymbolTicker(ctx context.Context, symbol string) (*model.Ticker, error)
	GetOrder(ctx context.Context, symbol string, orderID int64) (*model.OrderStatus, error)
	GetAccount(ctx context.Context) (*model.AccountSnapshot, error)
}

// Accessor reads through the snapshot cache with remote fallback.
type Accessor struct {
	store  *snapshot.Store
	remote RemoteAPI
	logger *slog.Logger

	// flight collapses concurrent fallbacks for the same channel into a
	// single remote call.
	flight singleflight.Group
}

// New creates an Accessor over store, falling back to remote.
func New(store *snapshot.Store, remote RemoteAPI, logger *slog.Logger) *Accessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accessor{
		store:  store,
		remote: remote,
		logger: logger,
	}
}

// GetTickers returns the latest ticker table, or nil when neither the
// cache nor the remote API can provide one. A remote result is not
// re-seeded: the feed processor repopulates the channel on its next batch.
func (a *Accessor) GetTickers(ctx context.Context) []model.Ticker {
	if table, ok := a.loadTickerTable(); ok {
		return table
	}

	v, err, _ := a.flight.Do("tickers", func() (any, error) {
		return a.remote.GetAllTickers(ctx)
	})
	if err != nil {
		a.logger.Warn("ticker fallback failed", "error", err)
		return nil
	}
	return v.([]model.Ticker)
}

// GetSymbolTicker returns one symbol's latest ticker. When the cached
// table exists but lacks the symbol, the answer is nil: the table is the
// complete market view, so an absent symbol is absent, not stale.
func (a *Accessor) GetSymbolTicker(ctx context.Context, symbol string) *model.Ticker {
	if table, ok := a.loadTickerTable(); ok {
		for i := range table {
			if table[i].Symbol == symbol {
				return &table[i]
			}
		}
		return nil
	}

	v, err, _ := a.flight.Do("ticker/"+symbol, func() (any, error) {
		return a.remote.GetSymbolTicker(ctx, symbol)
	})
	if err != nil {
		a.logger.Warn("symbol ticker fallback failed", "symbol", symbol, "error", err)
		return nil
	}
	return v.(*model.Ticker)
}

// GetOrder returns the latest status of one order. On a miss the remote
// result is returned without caching: orders are append-mostly and
// low-volume, and the next execution report recreates the channel anyway.
func (a *Accessor) GetOrder(ctx context.Context, symbol string, orderID int64) *model.OrderStatus {
	key := snapshot.OrderKey(symbol, orderID)
	if files := a.store.Latest(key, 1); len(files) > 0 {
		var order model.OrderStatus
		if err := a.store.Load(files[len(files)-1], &order); err == nil {
			return &order
		}
		a.logger.Warn("cached order unreadable, falling back",
			"channel", key.String(),
		)
	}

	a.logger.Info("order cache miss, calling remote api",
		"symbol", symbol,
		"order_id", orderID,
	)

	v, err, _ := a.flight.Do("order/"+symbol+"_"+strconv.FormatInt(orderID, 10), func() (any, error) {
		return a.remote.GetOrder(ctx, symbol, orderID)
	})
	if err != nil {
		a.logger.Warn("order fallback failed",
			"symbol", symbol,
			"order_id", orderID,
			"error", err,
		)
		return nil
	}
	return v.(*model.OrderStatus)
}

// GetAccount returns the latest account snapshot. A remote fallback
// result re-seeds the cache: account state is otherwise refreshed only by
// infrequent push events, so the fetched snapshot is worth keeping.
func (a *Accessor) GetAccount(ctx context.Context) *model.AccountSnapshot {
	if files := a.store.Latest(snapshot.AccountKey(), 1); len(files) > 0 {
		var acct model.AccountSnapshot
		if err := a.store.Load(files[len(files)-1], &acct); err == nil {
			return &acct
		}
		a.logger.Warn("cached account snapshot unreadable, falling back")
	}

	v, err, _ := a.flight.Do("account", func() (any, error) {
		acct, err := a.remote.GetAccount(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := a.store.Write(snapshot.AccountKey(), acct, acct.EventTime); err != nil {
			// Re-seed is best-effort; the fetched result still answers
			// the caller.
			a.logger.Warn("account re-seed failed", "error", err)
		}
		return acct, nil
	})
	if err != nil {
		a.logger.Warn("account fallback failed", "error", err)
		return nil
	}
	return v.(*model.AccountSnapshot)
}

// GetBalance returns one asset's balance from the account snapshot, or
// nil when the account is unavailable or holds no such asset.
func (a *Accessor) GetBalance(ctx context.Context, asset string) *model.Balance {
	acct := a.GetAccount(ctx)
	if acct == nil {
		return nil
	}
	return acct.Balance(asset)
}

// loadTickerTable resolves the cached ticker table. ok is false on any
// miss, including an unreadable snapshot.
func (a *Accessor) loadTickerTable() ([]model.Ticker, bool) {
	files := a.store.Latest(snapshot.TickerKey(), 1)
	if len(files) == 0 {
		return nil, false
	}
	var table []model.Ticker
	if err := a.store.Load(files[len(files)-1], &table); err != nil {
		a.logger.Warn("cached ticker table unreadable, falling back")
		return nil, false
	}
	return table, true
}
