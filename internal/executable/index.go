// Package executable builds the index of program names reachable through PATH.
package executable

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Index is a sorted, deduplicated list of executable file names.
// It is built once and never refreshed; it is immutable after Build.
type Index struct {
	names []string
	set   map[string]struct{}
}

// FromEnv builds an index from the PATH environment variable.
func FromEnv() *Index {
	return Build(os.Getenv("PATH"))
}

// Build scans every directory in pathList (separated by the OS list
// separator). Empty entries and unreadable directories are skipped.
func Build(pathList string) *Index {
	seen := make(map[string]struct{})
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		eachExecutable(dir, func(name string) {
			seen[name] = struct{}{}
		})
	}
	return fromSet(seen)
}

// FromNames builds an index from an explicit list of names.
func FromNames(names ...string) *Index {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			seen[n] = struct{}{}
		}
	}
	return fromSet(seen)
}

func fromSet(set map[string]struct{}) *Index {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return &Index{names: names, set: set}
}

// eachExecutable calls f for each executable regular file in dir.
// Symlinks are followed.
func eachExecutable(dir string, f func(string)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if IsExecutable(info) {
			f(e.Name())
		}
	}
}

// IsExecutable reports whether info describes a non-directory with any
// execute permission bit set.
func IsExecutable(info os.FileInfo) bool {
	return !info.IsDir() && info.Mode()&0o111 != 0
}

// Names returns a copy of the indexed names in sorted order.
func (ix *Index) Names() []string {
	out := make([]string, len(ix.names))
	copy(out, ix.names)
	return out
}

// Len returns the number of indexed names.
func (ix *Index) Len() int {
	return len(ix.names)
}

// Contains reports whether name is indexed.
func (ix *Index) Contains(name string) bool {
	_, ok := ix.set[name]
	return ok
}

// FuzzyFind returns the names matching pattern, best match first.
// An empty pattern matches nothing.
func (ix *Index) FuzzyFind(pattern string) []string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}
	matches := fuzzy.Find(pattern, ix.names)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
