// Package client assembles the event loop, the context router and the command
// layer into the facade front ends talk to. Every method is safe to call from
// any goroutine; the work itself runs on the loop.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccore/internal/command"
	"github.com/soyeahso/irccore/internal/engine"
	"github.com/soyeahso/irccore/internal/hooks"
	"github.com/soyeahso/irccore/internal/logging"
	"github.com/soyeahso/irccore/internal/routing"
	"github.com/soyeahso/irccore/internal/store"
)

// Transport names accepted by Options.Transport.
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "websocket"
)

// ErrStopped is returned when the loop is no longer running.
var ErrStopped = errors.New("client stopped")

// Recorder archives transcript lines.
type Recorder interface {
	Record(e store.Entry) error
}

// Options configures a Client.
type Options struct {
	Transport   string
	Path        string
	DialTimeout time.Duration
	Realname    string
	Verbosity   int
	AutoJoin    []string
	Transcript  Recorder

	// NewTransport overrides Transport, Path and DialTimeout.
	NewTransport func(loop *engine.Loop) engine.Transport
}

// Client owns one event loop and everything that runs on it.
type Client struct {
	opts  Options
	loop  *engine.Loop
	core  *routing.Core
	layer *command.Layer
	log   *logging.Logger
}

// New builds a client. Nothing runs until Run is called.
func New(log *logging.Logger, opts Options) (*Client, error) {
	factory, err := transportFactory(log, opts)
	if err != nil {
		return nil, err
	}
	for _, ch := range opts.AutoJoin {
		if !girc.IsValidChannel(ch) {
			return nil, fmt.Errorf("invalid autojoin channel %q", ch)
		}
	}

	c := &Client{
		opts: opts,
		loop: engine.NewLoop(log),
		log:  log.Sub("client"),
	}
	c.core = routing.NewCore(log, routing.Options{
		NewTransport: func() engine.Transport { return factory(c.loop) },
		Realname:     opts.Realname,
		Verbosity:    opts.Verbosity,
	})
	c.layer, err = command.NewLayer(c.core, log)
	if err != nil {
		return nil, err
	}

	c.core.Events().On(routing.EventConnectionStateChanged, "autojoin", c.autoJoin)
	if opts.Transcript != nil {
		ev := c.core.Events()
		ev.On(routing.EventNotify, "transcript", c.recorder(store.KindNotify))
		ev.On(routing.EventSendingLine, "transcript", c.recorder(store.KindSent))
		ev.On(routing.EventReceivedLine, "transcript", c.recorder(store.KindReceived))
	}
	return c, nil
}

func transportFactory(log *logging.Logger, opts Options) (func(*engine.Loop) engine.Transport, error) {
	if opts.NewTransport != nil {
		return opts.NewTransport, nil
	}

	var dialer engine.Dialer
	switch opts.Transport {
	case "", TransportTCP:
		dialer = engine.TCPDialer{Timeout: opts.DialTimeout}
	case TransportWebSocket:
		dialer = engine.WebSocketDialer{Path: opts.Path}
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}
	return func(loop *engine.Loop) engine.Transport {
		return engine.NewStreamTransport(loop, dialer, log)
	}, nil
}

// Events returns the router's event manager. Handlers run on the loop.
func (c *Client) Events() *hooks.Manager[routing.Event] { return c.core.Events() }

// Run processes posted work until ctx is canceled.
func (c *Client) Run(ctx context.Context) error { return c.loop.Run(ctx) }

// Done is closed once Run has returned.
func (c *Client) Done() <-chan struct{} { return c.loop.Done() }

// Do runs f on the loop and waits for it. It is the only safe way to read
// router state from another goroutine.
func (c *Client) Do(ctx context.Context, f func(core *routing.Core)) error {
	return c.loop.Call(ctx, func() { f(c.core) })
}

func (c *Client) post(f func()) error {
	if !c.loop.Post(f) {
		return ErrStopped
	}
	return nil
}

// Connect points the current connection at a server and connects it. The
// first call creates the connection.
func (c *Client) Connect(host, port, user, nick string) error {
	return c.post(func() {
		cur := c.core.Current()
		if cur == nil {
			c.core.Connect(host, port, user, nick)
			return
		}
		cur.Conn().Connect(host, port, user, nick)
	})
}

// Reconnect reconnects the current connection to its last endpoint.
func (c *Client) Reconnect() error {
	return c.onCurrent(func(ctx *routing.Context) { ctx.Conn().Reconnect() })
}

// Disconnect quits the current connection with an optional reason.
func (c *Client) Disconnect(reason string) error {
	return c.onCurrent(func(ctx *routing.Context) { ctx.Conn().Disconnect(reason) })
}

// SendRaw queues a protocol line on the current connection.
func (c *Client) SendRaw(line string) error {
	return c.onCurrent(func(ctx *routing.Context) { ctx.Conn().SendRaw(line) })
}

// SubmitUserInput hands a typed line to the command layer in the current
// context. Failures are reported as notify events.
func (c *Client) SubmitUserInput(text string) error {
	return c.post(func() {
		_ = c.layer.ProcessUserInput(text, c.core.Current())
	})
}

// CycleContext moves the current context by n.
func (c *Client) CycleContext(n int) error {
	return c.post(func() {
		if err := c.core.CycleContext(n); err != nil {
			c.log.Debug().Err(err).Int("n", n).Msg("cycle context")
			c.core.Notify(nil, "Error: "+err.Error())
		}
	})
}

func (c *Client) onCurrent(f func(ctx *routing.Context)) error {
	return c.post(func() {
		cur := c.core.Current()
		if cur == nil {
			c.core.Notify(nil, "Error: not connected to anything yet")
			return
		}
		f(cur)
	})
}

// autoJoin joins the configured channels whenever a connection registers.
func (c *Client) autoJoin(e routing.Event) error {
	if e.State != engine.Connected || len(c.opts.AutoJoin) == 0 {
		return nil
	}
	for _, ch := range c.opts.AutoJoin {
		cmd, err := command.NewCommand([]string{"join", ch})
		if err != nil {
			return err
		}
		if err := c.layer.ProcessCommand(cmd, e.Context); err != nil {
			return fmt.Errorf("autojoin %s: %w", ch, err)
		}
	}
	c.log.Info().Strs("channels", c.opts.AutoJoin).Msg("autojoin sent")
	return nil
}

// recorder archives events of one kind.
func (c *Client) recorder(kind string) hooks.Handler[routing.Event] {
	return func(e routing.Event) error {
		if e.Text == "" {
			return nil
		}
		entry := store.Entry{
			Kind:      kind,
			Level:     int(e.Level),
			Text:      e.Text,
			Timestamp: time.Now(),
			Label:     "(Global)",
		}
		if e.Context != nil {
			entry.Host = hostOf(e.Context.Conn())
			entry.Label = localLabel(e.Context)
		}
		return c.opts.Transcript.Record(entry)
	}
}

func hostOf(conn *engine.Connection) string {
	if h := conn.RequestedLast().Host; h != "" {
		return h
	}
	return conn.RequestNext().Host
}

func localLabel(ctx *routing.Context) string {
	switch ctx.Kind() {
	case routing.Channel:
		return ctx.Target()
	case routing.Query:
		return "Q:" + ctx.Target()
	default:
		return "(Server)"
	}
}
