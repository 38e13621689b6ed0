package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/irccore/internal/client"
	"github.com/soyeahso/irccore/internal/config"
	"github.com/soyeahso/irccore/internal/engine"
	"github.com/soyeahso/irccore/internal/logging"
	"github.com/soyeahso/irccore/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command in a fresh IRCCORE_HOME-scoped environment.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func home(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("IRCCORE_HOME", dir)
	for _, k := range []string{"IRCCORE_HOST", "IRCCORE_PORT", "IRCCORE_USER", "IRCCORE_NICK", "IRCCORE_TRANSPORT", "IRCCORE_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestVersionCmd(t *testing.T) {
	home(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "irccore ")
}

func TestConfigSetGetUnset(t *testing.T) {
	dir := home(t)

	out, err := run(t, "config", "set", "server.nick", "tester")
	require.NoError(t, err)
	assert.Contains(t, out, "Set server.nick = tester")

	out, err = run(t, "config", "get", "server.nick")
	require.NoError(t, err)
	assert.Equal(t, "tester\n", out)

	_, err = run(t, "config", "set", "server.autojoin", "#go, #irc")
	require.NoError(t, err)
	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"#go", "#irc"}, cfg.Server.AutoJoin)
	assert.Equal(t, "tester", cfg.Server.Nick)

	_, err = run(t, "config", "unset", "server.nick")
	require.NoError(t, err)
	_, err = run(t, "config", "get", "server.nick")
	assert.ErrorContains(t, err, "not found")

	out, err = run(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml")+"\n", out)
}

func TestConfigSetRejectsInvalid(t *testing.T) {
	home(t)

	_, err := run(t, "config", "set", "server.port", "70000")
	assert.ErrorContains(t, err, "server.port")

	_, err = run(t, "config", "set", "server.autojoin", "nochan")
	assert.ErrorContains(t, err, "server.autojoin[0]")

	_, err = run(t, "config", "set", "gateway.port", "1")
	assert.Error(t, err)

	_, err = run(t, "config", "get", "server.port")
	assert.ErrorContains(t, err, "not found")
}

func TestConfigValidate(t *testing.T) {
	home(t)

	out, err := run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Config OK")

	t.Setenv("IRCCORE_TRANSPORT", "pigeon")
	out, err = run(t, "config", "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "server.transport")
}

func TestStatus(t *testing.T) {
	home(t)

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not found (using defaults)")
	assert.Contains(t, out, "host=(prompt) port=6667 transport=tcp")
	assert.Contains(t, out, "Store:   disabled")
	assert.NotContains(t, out, "Validation issues")
}

func seedTranscript(t *testing.T, dir string) {
	t.Helper()
	db, err := store.Open(filepath.Join(dir, "data", "transcript.db"), logging.New(nil, "silent"))
	require.NoError(t, err)
	defer db.Close()

	tr := store.NewTranscript(db)
	now := time.Now()
	for i, e := range []store.Entry{
		{Host: "irc.example.org", Label: "#go", Kind: store.KindNotify, Text: "Joining channel #go"},
		{Host: "irc.example.org", Label: "#go", Kind: store.KindSent, Text: "PRIVMSG #go :hello gophers"},
		{Host: "irc.example.org", Label: "(Server)", Kind: store.KindReceived, Text: "PING :x"},
	} {
		e.Timestamp = now.Add(time.Duration(i) * time.Second)
		require.NoError(t, tr.Record(e))
	}
}

func TestLogCmd(t *testing.T) {
	dir := home(t)

	_, err := run(t, "log")
	assert.ErrorContains(t, err, "no transcript archive")

	seedTranscript(t, dir)

	out, err := run(t, "log")
	require.NoError(t, err)
	assert.Contains(t, out, "irc.example.org")
	assert.Contains(t, out, "#go")
	assert.Contains(t, out, "(Server)")

	out, err = run(t, "log", "#go")
	require.NoError(t, err)
	assert.Contains(t, out, "* Joining channel #go")
	assert.Contains(t, out, "< PRIVMSG #go :hello gophers")

	out, err = run(t, "log", "-n", "1", "#go")
	require.NoError(t, err)
	assert.NotContains(t, out, "Joining")

	out, err = run(t, "log", "--search", "gophers")
	require.NoError(t, err)
	assert.Contains(t, out, "irc.example.org/#go <")

	_, err = run(t, "log", "--delete", "#go")
	assert.ErrorContains(t, err, "host-qualified")

	out, err = run(t, "log", "--delete", "irc.example.org/#go")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted irc.example.org/#go")

	out, err = run(t, "log")
	require.NoError(t, err)
	assert.NotContains(t, out, "#go")
}

func TestApplyChatArgs(t *testing.T) {
	cfg := config.Defaults()
	applyChatArgs(&cfg, []string{"irc.example.org", "6697", "u", "n"})
	assert.Equal(t, "irc.example.org", cfg.Server.Host)
	assert.Equal(t, 6697, cfg.Server.Port)
	assert.Equal(t, "u", cfg.Server.User)
	assert.Equal(t, "n", cfg.Server.Nick)

	applyChatArgs(&cfg, []string{"h", "port"})
	assert.Equal(t, -1, cfg.Server.Port)
	assert.NotEmpty(t, config.Validate(&cfg))
}

func TestChatVerbosity(t *testing.T) {
	assert.Equal(t, int(engine.LevelError), chatVerbosity(1, chatFlags{quiet: true}))
	assert.Equal(t, 1, chatVerbosity(1, chatFlags{}))
	assert.Equal(t, 2, chatVerbosity(1, chatFlags{verbose: 1}))
	assert.Equal(t, int(engine.LevelDetail), chatVerbosity(1, chatFlags{verbose: 5}))
}

func TestStartClientStopWaitsForLoop(t *testing.T) {
	log := logging.New(nil, "silent")
	db, err := store.Open(store.MemoryPath, log)
	require.NoError(t, err)
	defer db.Close()
	rec := store.NewFlusher(store.NewTranscript(db), store.FlusherConfig{}, log)

	c, err := client.New(log, client.Options{Transcript: rec})
	require.NoError(t, err)

	stop := startClient(context.Background(), c)
	require.NoError(t, c.SubmitUserInput("hello"))
	stop()

	select {
	case <-c.Done():
	default:
		t.Fatal("loop still running after stop")
	}
	assert.ErrorIs(t, c.SubmitUserInput("late"), client.ErrStopped)
	require.NoError(t, rec.Close())
}
