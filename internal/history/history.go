// Package history provides the command history log and its navigation pointer.
//
// The log is loaded once at startup, grows by one entry for each non-empty
// submitted line, and is written back in full at shutdown. The pointer counts
// steps back from the present: 0 is the live line being edited, and values
// 1..Len() select log[Len()-pointer].
package history

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store holds the history log and navigation pointer.
// It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	path    string
	lines   []string
	pointer int
}

// New creates an empty store backed by path. An empty path disables Persist.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the history file at path. A missing file yields an empty store.
// Empty lines are dropped.
func Load(path string) (*Store, error) {
	s := New(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading history %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			s.lines = append(s.lines, line)
		}
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append adds line to the end of the log. Empty lines are ignored.
func (s *Store) Append(line string) {
	if line == "" {
		return
	}
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

// All returns a copy of the log, oldest first.
func (s *Store) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Pointer returns the current navigation pointer.
func (s *Store) Pointer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pointer
}

// ResetPointer returns navigation to the live line.
func (s *Store) ResetPointer() {
	s.mu.Lock()
	s.pointer = 0
	s.mu.Unlock()
}

// Back steps one entry further into the past.
// left reports whether this step moved away from the live line, so the
// caller can stash its buffer. ok is false when already at the oldest entry.
func (s *Store) Back() (line string, left bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer >= len(s.lines) {
		return "", false, false
	}
	s.pointer++
	return s.lines[len(s.lines)-s.pointer], s.pointer == 1, true
}

// Forward steps one entry toward the present.
// present reports that the pointer reached the live line, in which case line
// is empty and the caller restores its stash. ok is false when already there.
func (s *Store) Forward() (line string, present bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pointer == 0 {
		return "", false, false
	}
	s.pointer--
	if s.pointer == 0 {
		return "", true, true
	}
	return s.lines[len(s.lines)-s.pointer], false, true
}

// Persist overwrites the backing file with the log joined by newlines.
func (s *Store) Persist() error {
	if s.path == "" {
		return nil
	}
	data := strings.Join(s.All(), "\n")

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating history dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(data), 0o600); err != nil {
		return fmt.Errorf("writing history %s: %w", s.path, err)
	}
	return nil
}
