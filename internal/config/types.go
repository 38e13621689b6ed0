package config

// Config is the root configuration for irccore.
type Config struct {
	Server  ServerConfig  `yaml:"server,omitempty"`
	Engine  EngineConfig  `yaml:"engine,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
}

// ServerConfig is the server the chat front end connects to first. Empty
// identity fields are prompted for.
type ServerConfig struct {
	Host        string   `yaml:"host,omitempty"`
	Port        int      `yaml:"port,omitempty"`
	User        string   `yaml:"user,omitempty"`
	Nick        string   `yaml:"nick,omitempty"`
	Realname    string   `yaml:"realname,omitempty"`
	Transport   string   `yaml:"transport,omitempty"`   // "tcp" | "websocket"
	Path        string   `yaml:"path,omitempty"`        // websocket only
	DialTimeout int      `yaml:"dialTimeout,omitempty"` // seconds
	AutoJoin    []string `yaml:"autojoin,omitempty"`
}

// EngineConfig controls the connection engine.
type EngineConfig struct {
	Verbosity int `yaml:"verbosity"` // 0 errors, 1 info, 2 detail
}

// LoggingConfig controls diagnostic logging. Logs never go to the terminal
// transcript unless file is "stderr".
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// StoreConfig controls the transcript archive.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}
