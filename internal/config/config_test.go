package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "tcp", cfg.Server.Transport)
	assert.Equal(t, "/", cfg.Server.Path)
	assert.Equal(t, 30, cfg.Server.DialTimeout)
	assert.Equal(t, 1, cfg.Engine.Verbosity)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "pretty", cfg.Logging.ConsoleStyle)
	assert.False(t, cfg.Store.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  host: irc.libera.chat
  port: 6697
  user: tester
  nick: testnick
  transport: websocket
  path: /irc
  autojoin:
    - "#general"
    - "#dev"
engine:
  verbosity: 2
logging:
  level: debug
  consoleStyle: json
store:
  enabled: true
  path: /tmp/t.db
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "irc.libera.chat", cfg.Server.Host)
	assert.Equal(t, 6697, cfg.Server.Port)
	assert.Equal(t, "tester", cfg.Server.User)
	assert.Equal(t, "testnick", cfg.Server.Nick)
	assert.Equal(t, "websocket", cfg.Server.Transport)
	assert.Equal(t, "/irc", cfg.Server.Path)
	assert.Equal(t, []string{"#general", "#dev"}, cfg.Server.AutoJoin)
	assert.Equal(t, 2, cfg.Engine.Verbosity)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.ConsoleStyle)
	assert.True(t, cfg.Store.Enabled)
	assert.Equal(t, "/tmp/t.db", cfg.Store.Path)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  host: h\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "h", cfg.Server.Host)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Engine.Verbosity)
	assert.Equal(t, "tcp", cfg.Server.Transport)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var ce *ConfigError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("IRCCORE_HOST", "env.example.org")
	t.Setenv("IRCCORE_PORT", "7000")
	t.Setenv("IRCCORE_USER", "envuser")
	t.Setenv("IRCCORE_NICK", "envnick")
	t.Setenv("IRCCORE_TRANSPORT", "WebSocket")
	t.Setenv("IRCCORE_LOG_LEVEL", "DEBUG")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "env.example.org", cfg.Server.Host)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "envuser", cfg.Server.User)
	assert.Equal(t, "envnick", cfg.Server.Nick)
	assert.Equal(t, "websocket", cfg.Server.Transport)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadBadEnvPortIgnored(t *testing.T) {
	t.Setenv("IRCCORE_PORT", "not-a-port")
	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
}

func TestLoadExpandsIdentity(t *testing.T) {
	t.Setenv("TEST_IRC_NICK", "expanded")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  nick: ${TEST_IRC_NICK}\n  user: ${TEST_IRC_UNSET_VAR}\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded", cfg.Server.Nick)
	assert.Equal(t, "${TEST_IRC_UNSET_VAR}", cfg.Server.User)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	SetValueAtPath(raw, []string{"server", "nick"}, "saved")
	require.NoError(t, SaveRaw(path, raw))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "saved", cfg.Server.Nick)

	raw2, err := LoadRaw(path)
	require.NoError(t, err)
	v, ok := GetValueAtPath(raw2, []string{"server", "nick"})
	assert.True(t, ok)
	assert.Equal(t, "saved", v)
}

func TestLoadRawEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.NotNil(t, raw)
}

func TestConfigErrorString(t *testing.T) {
	err := &ConfigError{Message: "boom"}
	assert.Equal(t, "config: boom", err.Error())
}

func TestFromRaw(t *testing.T) {
	cfg, err := FromRaw(map[string]any{
		"server": map[string]any{"nick": "me", "autojoin": []any{"#go"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "me", cfg.Server.Nick)
	assert.Equal(t, []string{"#go"}, cfg.Server.AutoJoin)
	assert.Equal(t, DefaultPort, cfg.Server.Port)

	_, err = FromRaw(map[string]any{"server": map[string]any{"port": "not a number"}})
	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestSaveRawCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveRaw(path, map[string]any{"engine": map[string]any{"verbosity": 2}}))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Engine.Verbosity)
}
