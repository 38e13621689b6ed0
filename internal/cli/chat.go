package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/soyeahso/irccore/internal/client"
	"github.com/soyeahso/irccore/internal/config"
	"github.com/soyeahso/irccore/internal/engine"
	"github.com/soyeahso/irccore/internal/logging"
	"github.com/soyeahso/irccore/internal/store"
	"github.com/soyeahso/irccore/internal/terminal"
	"github.com/soyeahso/irccore/internal/version"
	"github.com/spf13/cobra"
)

// quitGrace gives the writer time to flush QUIT before the process exits.
const quitGrace = 500 * time.Millisecond

type chatFlags struct {
	quiet   bool
	verbose int
	prompt  bool
}

func newChatCmd() *cobra.Command {
	var f chatFlags

	cmd := &cobra.Command{
		Use:   "chat [host [port [user [nick]]]]",
		Short: "Connect to a server and chat from the terminal",
		Args:  cobra.MaximumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			applyChatArgs(&cfg, args)
			cfg.Engine.Verbosity = chatVerbosity(cfg.Engine.Verbosity, f)

			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			return runChat(cmd.Context(), &cfg, f)
		},
	}

	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "only show errors from the connection engine")
	cmd.Flags().CountVarP(&f.verbose, "verbose", "v", "show more engine detail; -vv also shows raw protocol lines")
	cmd.Flags().BoolVar(&f.prompt, "prompt", false, "always prompt for server, port, user and nick")
	return cmd
}

// applyChatArgs overrides the configured server with positional arguments.
func applyChatArgs(cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Server.Host = args[0]
	}
	if len(args) > 1 {
		if port, err := strconv.Atoi(args[1]); err == nil {
			cfg.Server.Port = port
		} else {
			cfg.Server.Port = -1
		}
	}
	if len(args) > 2 {
		cfg.Server.User = args[2]
	}
	if len(args) > 3 {
		cfg.Server.Nick = args[3]
	}
}

func chatVerbosity(base int, f chatFlags) int {
	if f.quiet {
		return int(engine.LevelError)
	}
	v := base + f.verbose
	if v > int(engine.LevelDetail) {
		v = int(engine.LevelDetail)
	}
	return v
}

// chatLogger sends diagnostics to the log file so they stay out of the
// transcript on stdout.
func chatLogger(cfg *config.Config) (*logging.Logger, io.Closer, error) {
	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	if cfg.Logging.File == "stderr" {
		l, err := logging.NewWithStyle(os.Stderr, level, cfg.Logging.ConsoleStyle)
		return l, nopCloser{}, err
	}

	path := cfg.Logging.File
	if path == "" {
		path = paths.LogFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	l, err := logging.NewWithStyle(f, level, cfg.Logging.ConsoleStyle)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return l, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// startClient runs c's loop until the returned stop is called. stop waits
// for the loop to exit, so nothing records after it returns.
func startClient(ctx context.Context, c *client.Client) (stop func()) {
	runCtx, cancel := context.WithCancel(ctx)
	go c.Run(runCtx)
	return func() {
		cancel()
		<-c.Done()
	}
}

func runChat(parent context.Context, cfg *config.Config, f chatFlags) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	chatLog, logFile, err := chatLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	opts := client.Options{
		Transport:   cfg.Server.Transport,
		Path:        cfg.Server.Path,
		DialTimeout: time.Duration(cfg.Server.DialTimeout) * time.Second,
		Realname:    cfg.Server.Realname,
		Verbosity:   cfg.Engine.Verbosity,
		AutoJoin:    cfg.Server.AutoJoin,
	}
	if opts.Realname == "" {
		opts.Realname = version.Realname()
	}

	if cfg.Store.Enabled {
		db, err := store.Open(paths.TranscriptPath(cfg), chatLog)
		if err != nil {
			return err
		}
		defer db.Close()
		rec := store.NewFlusher(store.NewTranscript(db), store.FlusherConfig{}, chatLog)
		defer rec.Close()
		opts.Transcript = rec
	}

	c, err := client.New(chatLog, opts)
	if err != nil {
		return err
	}

	line := terminal.OpenLiner(filepath.Join(paths.Data, "history"))
	defer line.Close()

	ui := terminal.New(c, line, os.Stdout, terminal.Options{
		ShowRaw: cfg.Engine.Verbosity >= int(engine.LevelDetail),
	})
	ui.Println("Welcome to irccore " + version.Version + ". Type /help for commands.")

	// Runs before the transcript and database defers above.
	defer startClient(ctx, c)()

	ep := engine.Endpoint{
		Host: cfg.Server.Host,
		Port: strconv.Itoa(cfg.Server.Port),
		User: cfg.Server.User,
		Nick: cfg.Server.Nick,
	}
	if f.prompt || ep.Host == "" || ep.Nick == "" || ep.User == "" {
		if ep.User == "" {
			ep.User = ep.Nick
		}
		ep, err = ui.PromptEndpoint(ep)
		if err != nil {
			return nil
		}
	}
	if ep.User == "" {
		ep.User = ep.Nick
	}
	if ep.Nick == "" {
		ep.Nick = ep.User
	}
	chatLog.Info().Str("host", ep.Host).Str("port", ep.Port).Str("nick", ep.Nick).Msg("starting chat")
	if err := c.Connect(ep.Host, ep.Port, ep.User, ep.Nick); err != nil {
		return err
	}

	if err := ui.Run(ctx); err != nil {
		return err
	}

	select {
	case <-time.After(quitGrace):
	case <-parent.Done():
	}
	return nil
}
