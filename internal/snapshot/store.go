package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// succSuffix marks a finalized snapshot. Readers only ever consider
	// files carrying it; the suffix is applied via atomic rename.
	succSuffix = ".succ"

	// stagingSuffix marks an in-flight write. Staging files are invisible
	// to readers and cleaned up by the pruner if a crash orphans them.
	stagingSuffix = ".tmp"

	// tsWidth is the zero-padded width of the millisecond timestamp in a
	// snapshot filename. 15 digits covers wall-clock time far beyond any
	// plausible deployment horizon while keeping lexicographic order equal
	// to chronological order.
	tsWidth = 15
)

// Store persists channel-keyed snapshots under a root directory, one
// subdirectory per category. It is safe for use from multiple goroutines
// and, by construction, from multiple processes sharing the root.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: dir, logger: logger}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// EnsureDirs creates the root and every category directory.
func (s *Store) EnsureDirs() error {
	for _, c := range Categories {
		if err := os.MkdirAll(filepath.Join(s.root, string(c)), 0o755); err != nil {
			return fmt.Errorf("create cache dir %s: %w", c, err)
		}
	}
	return nil
}

// dir returns the directory holding key's snapshots.
func (s *Store) dir(key Key) string {
	return filepath.Join(s.root, string(key.Category))
}

// Write serializes payload as JSON and publishes it atomically under key.
// ts is the snapshot's logical timestamp in milliseconds; pass 0 to use the
// current wall-clock time. The timestamp actually used is returned so
// callers can correlate later operations against it.
//
// The payload is first written to a uniquely named staging file, then
// renamed to its final ".succ" name. A half-written file can therefore
// never appear at the final path.
func (s *Store) Write(key Key, payload any, ts int64) (int64, error) {
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return ts, fmt.Errorf("marshal snapshot %s: %w", key, err)
	}

	dir := s.dir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ts, fmt.Errorf("create channel dir %s: %w", key.Category, err)
	}

	name := formatName(key.Prefix, ts)
	staging := filepath.Join(dir, name+"."+uuid.NewString()+stagingSuffix)
	final := filepath.Join(dir, name+succSuffix)

	if err := os.WriteFile(staging, data, 0o644); err != nil {
		return ts, fmt.Errorf("stage snapshot %s: %w", key, err)
	}
	if err := os.Rename(staging, final); err != nil {
		os.Remove(staging)
		return ts, fmt.Errorf("finalize snapshot %s: %w", key, err)
	}

	return ts, nil
}

// formatName builds a snapshot filename stem: an optional "<prefix>_"
// followed by the fixed-width zero-padded millisecond timestamp.
func formatName(prefix string, ts int64) string {
	name := fmt.Sprintf("%0*d", tsWidth, ts)
	if prefix != "" {
		name = prefix + "_" + name
	}
	return name
}

// parseName extracts the embedded timestamp from a finalized snapshot
// filename. The timestamp is always the last tsWidth characters before the
// ".succ" suffix, regardless of prefix.
func parseName(name string) (int64, bool) {
	if !strings.HasSuffix(name, succSuffix) {
		return 0, false
	}
	stem := strings.TrimSuffix(name, succSuffix)
	if len(stem) < tsWidth {
		return 0, false
	}
	ts, err := strconv.ParseInt(stem[len(stem)-tsWidth:], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// matches reports whether a finalized filename belongs to key. An empty
// prefix matches every file in the category, which is what lets purge and
// retention sweeps cover all order channels at once.
func matches(key Key, name string) bool {
	if key.Prefix == "" {
		return true
	}
	return strings.HasPrefix(name, key.Prefix+"_")
}
