// Package retention prunes snapshot channels on a fixed interval so the
// cache directory stays bounded while the feed keeps publishing.
package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hzhou/snapbridge/internal/snapshot"
)

// Config holds sweeper configuration.
type Config struct {
	Interval time.Duration // Sweep interval (default: 1m)
	Keep     int           // Snapshots kept per channel (default: 3)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
		Keep:     3,
	}
}

// Sweeper periodically trims every snapshot channel to its retention limit.
type Sweeper struct {
	cfg    Config
	store  *snapshot.Store
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Sweeper.
func New(cfg Config, store *snapshot.Store, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Keep <= 0 {
		cfg.Keep = 3
	}
	return &Sweeper{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Start begins the sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	s.logger.Info("retention sweeper started",
		"interval", s.cfg.Interval,
		"keep", s.cfg.Keep,
	)

	return nil
}

// Stop gracefully shuts down the sweeper.
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("retention sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main sweep loop.
func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Sweep immediately on start.
	s.SweepAll()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.SweepAll()
		}
	}
}

// SweepAll trims every category concurrently and returns the total number
// of snapshots removed.
func (s *Sweeper) SweepAll() int {
	start := time.Now()

	var mu sync.Mutex
	total := 0

	g := new(errgroup.Group)
	for _, cat := range snapshot.Categories {
		g.Go(func() error {
			n := s.sweep(snapshot.CategoryKey(cat))
			mu.Lock()
			total += n
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if total > 0 {
		s.logger.Debug("sweep cycle complete",
			"removed", total,
			"duration", time.Since(start),
		)
	}

	return total
}

// SweepTickers trims the ticker channel.
func (s *Sweeper) SweepTickers() int {
	return s.sweep(snapshot.TickerKey())
}

// SweepOrders trims every order channel in one pass.
func (s *Sweeper) SweepOrders() int {
	return s.sweep(snapshot.CategoryKey(snapshot.CategoryOrder))
}

// SweepAccount trims the account channel.
func (s *Sweeper) SweepAccount() int {
	return s.sweep(snapshot.AccountKey())
}

// sweep is the routine scheduled prune: keep-latest-K only, no grace
// window. Writers protect their own fresh snapshots with targeted prunes.
func (s *Sweeper) sweep(key snapshot.Key) int {
	return s.store.Prune(key, snapshot.PruneOptions{Keep: s.cfg.Keep})
}
