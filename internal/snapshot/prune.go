package snapshot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultGraceWindow protects snapshots written shortly before a targeted
// prune's reference time: a concurrent reader may still be resolving them.
const DefaultGraceWindow = 10 * time.Second

// stagingMaxAge is how old an orphaned staging file must be before a prune
// sweep removes it. Live writes finalize in well under a second; anything
// this old was abandoned by a crashed writer.
const stagingMaxAge = time.Minute

// PruneOptions controls one prune pass over a channel.
type PruneOptions struct {
	// Keep is how many of the newest snapshots survive. Values below 1
	// are treated as 1.
	Keep int

	// ReferenceTime, when non-zero, enables the grace window: snapshots
	// with timestamps within GraceWindow of it are never deleted even if
	// they fall outside the keep set. Zero disables the grace window.
	ReferenceTime int64 // Milliseconds

	// GraceWindow overrides DefaultGraceWindow when positive. Ignored
	// unless ReferenceTime is set.
	GraceWindow time.Duration
}

// Prune enforces keep-latest-K on a channel and reports how many files it
// removed. Deletion failures are benign races with another pruner or an
// invalidation sweep; they are logged and never abort the pass.
func (s *Store) Prune(key Key, opts PruneOptions) int {
	if opts.Keep < 1 {
		opts.Keep = 1
	}
	grace := opts.GraceWindow
	if grace <= 0 {
		grace = DefaultGraceWindow
	}

	files := s.list(key)
	if len(files) <= opts.Keep {
		s.removeStaleStaging(key)
		return 0
	}

	keepFrom := len(files) - opts.Keep
	removed := 0
	for _, f := range files[:keepFrom] {
		if opts.ReferenceTime != 0 && f.Timestamp > opts.ReferenceTime-grace.Milliseconds() {
			continue
		}
		if s.remove(key, f.Path) {
			removed++
		}
	}

	s.removeStaleStaging(key)

	if removed > 0 {
		s.logger.Debug("pruned channel",
			"channel", key.String(),
			"removed", removed,
			"kept", opts.Keep,
		)
	}
	return removed
}

// PurgeAll deletes every finalized snapshot in a channel. It is the
// invalidation sweep used after a feed discontinuity, so stale pre-gap data
// can never be served while the subscription recovers.
func (s *Store) PurgeAll(key Key) int {
	files := s.list(key)
	removed := 0
	for _, f := range files {
		if s.remove(key, f.Path) {
			removed++
		}
	}

	s.logger.Info("purged channel", "channel", key.String(), "removed", removed)
	return removed
}

// remove deletes one file, tolerating it already being gone.
func (s *Store) remove(key Key, path string) bool {
	err := os.Remove(path)
	if err == nil {
		return true
	}
	if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("remove snapshot failed",
			"channel", key.String(),
			"path", path,
			"error", err,
		)
	}
	return false
}

// removeStaleStaging clears staging files orphaned by crashed writers.
// Fresh staging files are left alone: their writer may still be live.
func (s *Store) removeStaleStaging(key Key) {
	dir := s.dir(key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-stagingMaxAge)
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), stagingSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := os.Remove(path); err == nil {
			s.logger.Debug("removed orphaned staging file", "path", path)
		}
	}
}
