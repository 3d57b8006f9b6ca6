// Package expand resolves home-directory and environment references in paths.
package expand

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeFunc returns the current user's home directory.
type HomeFunc func() (string, error)

// Expander expands "~" prefixes and "$VAR" / "${VAR}" references.
type Expander struct {
	home   HomeFunc
	lookup func(string) (string, bool)
}

// New creates an Expander backed by the process environment.
func New() *Expander {
	return &Expander{
		home:   os.UserHomeDir,
		lookup: os.LookupEnv,
	}
}

// NewWith creates an Expander with custom home and environment lookups.
// Nil arguments fall back to the process defaults.
func NewWith(home HomeFunc, lookup func(string) (string, bool)) *Expander {
	e := New()
	if home != nil {
		e.home = home
	}
	if lookup != nil {
		e.lookup = lookup
	}
	return e
}

// Home returns the home directory.
func (e *Expander) Home() (string, error) {
	return e.home()
}

// Tilde expands a leading "~" or "~/" to the home directory.
// "~user" forms are returned unchanged.
func (e *Expander) Tilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := e.home()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Env replaces $VAR and ${VAR} references. Unset variables expand to "".
func (e *Expander) Env(s string) string {
	return os.Expand(s, func(name string) string {
		v, _ := e.lookup(name)
		return v
	})
}

// Path applies environment expansion followed by tilde expansion.
func (e *Expander) Path(path string) string {
	return e.Tilde(e.Env(path))
}

var std = New()

// Tilde expands a leading "~" using the process environment.
func Tilde(path string) string { return std.Tilde(path) }

// Path expands environment references and a leading "~".
func Path(path string) string { return std.Path(path) }
