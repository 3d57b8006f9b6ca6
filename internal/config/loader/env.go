package loader

import (
	"os"
	"strings"
)

// EnvLoader collects configuration values from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "LUASH_")
	mapping map[string]string // Env var -> config key
	lookup  func(string) (string, bool)
	environ func() []string
}

// NewEnvLoader creates a loader with explicit variable-to-key mappings.
// The prefix should include the trailing underscore (e.g., "LUASH_").
func NewEnvLoader(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
		lookup:  os.LookupEnv,
		environ: os.Environ,
	}
}

// Load returns the values of mapped variables keyed by config key, plus
// any other prefixed variable converted by envToPath.
// Empty values are kept; a set-but-empty variable is a value.
func (l *EnvLoader) Load() map[string]string {
	out := make(map[string]string)

	for env, key := range l.mapping {
		if val, ok := l.lookup(env); ok {
			out[key] = val
		}
	}

	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if _, mapped := l.mapping[name]; mapped {
			continue
		}
		out[l.envToPath(name)] = value
	}
	return out
}

// envToPath converts LUASH_THEME_KEYWORD to theme.keyword: the first
// word names the section and the rest, lowercased, the key.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, rest, ok := strings.Cut(name, "_")
	if !ok {
		return section
	}
	return section + "." + rest
}
