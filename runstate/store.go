// Package runstate persists a small record of the last run per project so
// rapid repeated hook invocations can be collapsed by a cooldown window.
package runstate

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
)

const stateExt = ".state"

// Entry is what is remembered about a finished run.
type Entry struct {
	Root       string
	FinishedAt time.Time
	ExitCode   int
	Failed     bool
	Files      int
	Full       bool
}

// Stats describes the state directory.
type Stats struct {
	Dir        string
	Entries    int
	TotalBytes int64
	Oldest     time.Time
	Newest     time.Time
}

// Store keeps one gob-encoded Entry file per project root.
type Store struct {
	dir   string
	mutex sync.RWMutex
}

// NewStore creates a store under dir. An empty dir defaults to
// smartlint/ under the user cache directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate user cache directory: %w", err)
		}
		dir = filepath.Join(base, "smartlint")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

// key maps a project root to its state file name.
func (s *Store) key(root string) string {
	return fmt.Sprintf("%016x%s", xxh3.HashString(filepath.Clean(root)), stateExt)
}

func (s *Store) path(root string) string {
	return filepath.Join(s.dir, s.key(root))
}

// Get returns the last entry for root. Unreadable or foreign entries are
// treated as missing.
func (s *Store) Get(root string) (Entry, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	data, err := os.ReadFile(s.path(root))
	if err != nil {
		return Entry{}, false
	}

	var entry Entry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		return Entry{}, false
	}
	// Hash collisions are possible in principle.
	if entry.Root != filepath.Clean(root) {
		return Entry{}, false
	}
	return entry, true
}

// Set stores entry, replacing any previous one for the same root.
func (s *Store) Set(entry Entry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry.Root = filepath.Clean(entry.Root)
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode run state: %w", err)
	}

	// Write then rename so a concurrent reader never sees a partial file.
	tmp, err := os.CreateTemp(s.dir, "state-*")
	if err != nil {
		return fmt.Errorf("failed to write run state: %w", err)
	}
	if _, err := tmp.Write(buffer.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write run state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write run state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(entry.Root)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write run state: %w", err)
	}
	return nil
}

// Delete removes the entry for root.
func (s *Store) Delete(root string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := os.Remove(s.path(root)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete run state: %w", err)
	}
	return nil
}

// WithinCooldown reports whether root finished a run less than window ago,
// and how long ago that was. A zero window never matches.
func (s *Store) WithinCooldown(root string, window time.Duration, now time.Time) (bool, time.Duration) {
	if window <= 0 {
		return false, 0
	}
	entry, ok := s.Get(root)
	if !ok {
		return false, 0
	}
	age := now.Sub(entry.FinishedAt)
	if age < 0 || age >= window {
		return false, age
	}
	return true, age
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := s.stateFiles()
	if err != nil {
		return 0, err
	}

	var deleted int
	for _, e := range entries {
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// Prune removes entries whose run finished before now-maxAge.
func (s *Store) Prune(maxAge time.Duration, now time.Time) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := s.stateFiles()
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-maxAge)
	var deleted int
	for _, e := range entries {
		p := filepath.Join(s.dir, e.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var entry Entry
		if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil || entry.FinishedAt.Before(cutoff) {
			if os.Remove(p) == nil {
				deleted++
			}
		}
	}
	return deleted, nil
}

// Stats summarizes the state directory.
func (s *Store) Stats() (Stats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entries, err := s.stateFiles()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Dir: s.dir, Entries: len(entries)}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.TotalBytes += info.Size()
		mod := info.ModTime()
		if stats.Oldest.IsZero() || mod.Before(stats.Oldest) {
			stats.Oldest = mod
		}
		if mod.After(stats.Newest) {
			stats.Newest = mod
		}
	}
	return stats, nil
}

func (s *Store) stateFiles() ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read state directory: %w", err)
	}
	files := entries[:0]
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), stateExt) {
			files = append(files, e)
		}
	}
	return files, nil
}
