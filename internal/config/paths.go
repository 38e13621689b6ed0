package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const defaultBaseDir = ".irccore"

// Paths holds resolved filesystem paths for irccore data.
type Paths struct {
	Base       string // ~/.irccore
	Config     string // ~/.irccore/config.yaml
	Logs       string // ~/.irccore/logs
	LogFile    string // ~/.irccore/logs/irccore.log
	Data       string // ~/.irccore/data
	Transcript string // ~/.irccore/data/transcript.db
}

// ResolvePaths computes all standard paths from the home directory.
// If IRCCORE_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("IRCCORE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	logs := filepath.Join(base, "logs")
	data := filepath.Join(base, "data")
	return Paths{
		Base:       base,
		Config:     filepath.Join(base, "config.yaml"),
		Logs:       logs,
		LogFile:    filepath.Join(logs, "irccore.log"),
		Data:       data,
		Transcript: filepath.Join(data, "transcript.db"),
	}, nil
}

// EnsureDirs creates all standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Logs, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}

// TranscriptPath returns the configured archive path, or the default one.
func (p Paths) TranscriptPath(cfg *Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	return p.Transcript
}

// knownSections are the top-level keys Config understands.
var knownSections = []string{"server", "engine", "logging", "store"}

// ParseConfigPath splits a dot-separated config path into segments.
// The first segment must name a Config section and no segment may be empty.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	if !slices.Contains(knownSections, parts[0]) {
		return nil, &ConfigError{Message: fmt.Sprintf("unknown config section %q (want one of %v)", parts[0], knownSections)}
	}
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
	}
	return parts, nil
}

// GetValueAtPath traverses a nested map using the given path segments.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	current := any(root)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath sets a value in a nested map, creating intermediate maps as needed.
func SetValueAtPath(root map[string]any, path []string, value any) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			next = map[string]any{}
			current[key] = next
		}
		m, ok := next.(map[string]any)
		if !ok {
			m = map[string]any{}
			current[key] = m
		}
		current = m
	}
	current[path[len(path)-1]] = value
}

// UnsetValueAtPath removes a value at the given path. Returns true if removed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key]
		if !ok {
			return false
		}
		m, ok := next.(map[string]any)
		if !ok {
			return false
		}
		current = m
	}
	last := path[len(path)-1]
	if _, ok := current[last]; !ok {
		return false
	}
	delete(current, last)
	return true
}
