package config

import (
	"fmt"
	"slices"

	"github.com/lrstanley/girc"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Valid enumerations.
var (
	ValidTransports    = []string{"tcp", "websocket"}
	ValidLogLevels     = []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	ValidConsoleStyles = []string{"pretty", "json"}
)

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Server validation
	srv := cfg.Server
	if srv.Port < 0 || srv.Port > 65535 {
		add("server.port", "port must be 0-65535, got %d", srv.Port)
	}
	if srv.Transport != "" && !slices.Contains(ValidTransports, srv.Transport) {
		add("server.transport", "must be one of %v, got %q", ValidTransports, srv.Transport)
	}
	if srv.DialTimeout < 0 {
		add("server.dialTimeout", "must not be negative, got %d", srv.DialTimeout)
	}
	if srv.Nick != "" && !girc.IsValidNick(srv.Nick) {
		add("server.nick", "%q is not a valid nick", srv.Nick)
	}
	if srv.User != "" && !girc.IsValidUser(srv.User) {
		add("server.user", "%q is not a valid user name", srv.User)
	}
	for i, ch := range srv.AutoJoin {
		if !girc.IsValidChannel(ch) {
			add(fmt.Sprintf("server.autojoin[%d]", i), "%q is not a valid channel", ch)
		}
	}

	// Engine validation
	if cfg.Engine.Verbosity < 0 || cfg.Engine.Verbosity > 2 {
		add("engine.verbosity", "must be 0-2, got %d", cfg.Engine.Verbosity)
	}

	// Logging validation
	if cfg.Logging.Level != "" && !slices.Contains(ValidLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", ValidLogLevels, cfg.Logging.Level)
	}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(ValidConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", ValidConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
