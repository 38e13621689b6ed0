package config

import "fmt"

// Built-in defaults.
const (
	DefaultPort      = 6667
	DefaultTransport = "tcp"
	DefaultWSPath    = "/"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:        DefaultPort,
			Transport:   DefaultTransport,
			Path:        DefaultWSPath,
			DialTimeout: 30,
		},
		Engine: EngineConfig{
			Verbosity: 1,
		},
		Logging: LoggingConfig{
			Level:        "warn",
			ConsoleStyle: "pretty",
		},
	}
}
