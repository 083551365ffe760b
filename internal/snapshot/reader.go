package snapshot

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// listRetries bounds how many times Latest re-lists a channel when the
// newest file vanishes between listing and stat — a narrow race against a
// concurrent prune.
const listRetries = 5

// File is a handle to one finalized snapshot, located but not yet loaded.
type File struct {
	Path      string
	Timestamp int64 // Milliseconds, parsed from the filename
}

// Latest returns up to count finalized snapshots for key, newest last.
// Only filenames are examined; nothing is deserialized.
//
// An empty channel is a plain cache miss and returns nil immediately. If
// the computed newest file no longer exists at stat time, the whole listing
// is retried up to listRetries times; after that, nil is returned. Latest
// never returns an error: every failure mode degrades to a miss.
//
// When two filenames carry the identical timestamp, whichever the directory
// listing yielded later wins. That ordering is filesystem-dependent and
// accepted as nondeterministic.
func (s *Store) Latest(key Key, count int) []File {
	if count < 1 {
		count = 1
	}

	for attempt := 0; attempt < listRetries; attempt++ {
		files := s.list(key)
		if len(files) == 0 {
			return nil
		}
		if len(files) > count {
			files = files[len(files)-count:]
		}

		// Confirm the newest file still exists; a concurrent prune may
		// have removed it after the listing.
		newest := files[len(files)-1]
		if _, err := os.Stat(newest.Path); err == nil {
			return files
		} else if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("stat snapshot failed",
				"channel", key.String(),
				"path", newest.Path,
				"error", err,
			)
			return nil
		}

		s.logger.Debug("newest snapshot vanished, relisting",
			"channel", key.String(),
			"attempt", attempt+1,
		)
	}

	return nil
}

// Load deserializes one snapshot into v. Callers treat any error as a cache
// miss: a corrupt or concurrently deleted file is never escalated.
func (s *Store) Load(f File, v any) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// list returns every finalized snapshot for key, sorted by timestamp
// ascending. The sort is stable so equal timestamps keep listing order.
func (s *Store) list(key Key) []File {
	dir := s.dir(key)
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Missing directory means no snapshots yet.
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("list channel failed", "channel", key.String(), "error", err)
		}
		return nil
	}

	files := make([]File, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		ts, ok := parseName(name)
		if !ok || !matches(key, name) {
			continue
		}
		files = append(files, File{
			Path:      filepath.Join(dir, name),
			Timestamp: ts,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Timestamp < files[j].Timestamp
	})

	return files
}
