// Package routing owns the connections and the conversation contexts, and
// decides which context each decoded message belongs to.
package routing

import (
	"errors"

	"github.com/soyeahso/irccore/internal/engine"
	"github.com/soyeahso/irccore/internal/hooks"
	"github.com/soyeahso/irccore/internal/logging"
	"github.com/soyeahso/irccore/internal/proto"
)

// ErrNoContexts is returned by CycleContext when nothing is open.
var ErrNoContexts = errors.New("no contexts")

// Event names emitted by Core.
const (
	EventNotify                 = "notify"
	EventSendingLine            = "sending_line"
	EventReceivedLine           = "received_line"
	EventConnectionStateChanged = "connection_state_changed"
	EventContextCreated         = "context_created"
	EventFocusRequested         = "focus_requested"
	EventLastRequestedChanged   = "last_requested_changed"
)

// AllEvents lists every event Core emits.
var AllEvents = []string{
	EventNotify,
	EventSendingLine,
	EventReceivedLine,
	EventConnectionStateChanged,
	EventContextCreated,
	EventFocusRequested,
	EventLastRequestedChanged,
}

// Event is the payload of every Core event.
type Event struct {
	Context *Context
	Level   engine.Level
	Text    string
	State   engine.State
}

// TransportFactory returns a fresh transport for a new connection.
type TransportFactory func() engine.Transport

// Options configures a Core.
type Options struct {
	NewTransport TransportFactory
	Realname     string
	Verbosity    int
	Vocabulary   *proto.Vocabulary
}

// Core holds every connection and context. Like Connection, it must only be
// used from the event loop.
type Core struct {
	opts   Options
	events *hooks.Manager[Event]
	log    *logging.Logger
	parent *logging.Logger

	conns    []*engine.Connection
	contexts []*Context
	index    map[Key]*Context
	current  int
}

// NewCore creates an empty core.
func NewCore(log *logging.Logger, opts Options) *Core {
	if opts.Vocabulary == nil {
		opts.Vocabulary = proto.DefaultVocabulary()
	}
	return &Core{
		opts:    opts,
		events:  hooks.NewManager[Event](log),
		log:     log.Sub("routing"),
		parent:  log,
		index:   make(map[Key]*Context),
		current: -1,
	}
}

// Events returns the manager front ends subscribe to.
func (c *Core) Events() *hooks.Manager[Event] { return c.events }

// Connections returns the connections in creation order.
func (c *Core) Connections() []*engine.Connection {
	out := make([]*engine.Connection, len(c.conns))
	copy(out, c.conns)
	return out
}

// Contexts returns the contexts in creation order.
func (c *Core) Contexts() []*Context {
	out := make([]*Context, len(c.contexts))
	copy(out, c.contexts)
	return out
}

// Context returns the context with the given handle.
func (c *Core) Context(id int) (*Context, bool) {
	if id < 0 || id >= len(c.contexts) {
		return nil, false
	}
	return c.contexts[id], true
}

// Lookup finds a context by identity.
func (c *Core) Lookup(key Key) (*Context, bool) {
	ctx, ok := c.index[key]
	return ctx, ok
}

// ServerContext returns the server context of conn.
func (c *Core) ServerContext(conn *engine.Connection) *Context {
	return c.index[Key{Conn: conn, Kind: Server}]
}

// Current returns the context front ends should show, or nil.
func (c *Core) Current() *Context {
	if c.current < 0 {
		return nil
	}
	return c.contexts[c.current]
}

// Notify emits a user-facing line. ctx may be nil for lines that belong to
// no context.
func (c *Core) Notify(ctx *Context, text string) {
	c.emit(EventNotify, Event{Context: ctx, Level: engine.LevelError, Text: text})
}

// Focus makes ctx current and asks front ends to show it.
func (c *Core) Focus(ctx *Context) {
	c.current = ctx.id
	c.emit(EventFocusRequested, Event{Context: ctx})
}

// NewConnection creates a disconnected connection and its server context.
func (c *Core) NewConnection() *engine.Connection {
	conn := engine.NewConnection(c.opts.NewTransport(), c.parent, engine.Options{
		Realname:   c.opts.Realname,
		Verbosity:  c.opts.Verbosity,
		Vocabulary: c.opts.Vocabulary,
	})
	c.conns = append(c.conns, conn)
	server, _ := c.CreateOrGet(conn, Server, "")
	c.subscribe(conn, server)

	c.log.Debug().Int("connections", len(c.conns)).Msg("connection created")
	return conn
}

// Connect creates a new connection and starts connecting it.
func (c *Core) Connect(host, port, user, nick string) *Context {
	conn := c.NewConnection()
	conn.Connect(host, port, user, nick)
	return c.ServerContext(conn)
}

// CreateOrGet returns the context with the given identity, creating it if
// needed. created is true only for a new context, and only then is
// context_created emitted.
func (c *Core) CreateOrGet(conn *engine.Connection, kind Kind, target string) (ctx *Context, created bool) {
	key := Key{Conn: conn, Kind: kind, Target: target}
	if ctx, ok := c.index[key]; ok {
		return ctx, false
	}

	ctx = &Context{
		core:   c,
		id:     len(c.contexts),
		conn:   conn,
		kind:   kind,
		target: target,
	}
	c.contexts = append(c.contexts, ctx)
	c.index[key] = ctx
	if c.current < 0 {
		c.current = ctx.id
	}

	c.log.Debug().Stringer("kind", kind).Str("target", target).Int("id", ctx.id).Msg("context created")
	c.emit(EventContextCreated, Event{Context: ctx})
	return ctx, true
}

// CycleContext moves the current-context pointer by n, wrapping around.
func (c *Core) CycleContext(n int) error {
	if len(c.contexts) == 0 {
		return ErrNoContexts
	}
	if n == 0 {
		return nil
	}
	cur := c.current
	if cur < 0 {
		cur = 0
	}
	l := len(c.contexts)
	next := ((cur+n)%l + l) % l
	c.Focus(c.contexts[next])
	return nil
}

// Disambiguator labels ctx for views shared between contexts. The host
// prefix is added only when more than one connection exists.
func (c *Core) Disambiguator(ctx *Context) string {
	var label string
	switch ctx.kind {
	case Server:
		label = "(Server)"
	case Channel:
		label = ctx.target
	case Query:
		label = "Q:" + ctx.target
	}

	if len(c.conns) > 1 {
		host := ctx.conn.RequestedLast().Host
		if host == "" {
			host = ctx.conn.RequestNext().Host
		}
		label = host + "/" + label
	}
	return label
}

// subscribe forwards conn's events, attributed to its server context, and
// routes its decoded messages.
func (c *Core) subscribe(conn *engine.Connection, server *Context) {
	ev := conn.Events()
	ev.On(engine.EventNotify, "routing", func(e engine.Event) error {
		c.emit(EventNotify, Event{Context: server, Level: e.Level, Text: e.Text})
		return nil
	})
	ev.On(engine.EventSendingLine, "routing", func(e engine.Event) error {
		c.emit(EventSendingLine, Event{Context: server, Text: e.Text})
		return nil
	})
	ev.On(engine.EventReceivedLine, "routing", func(e engine.Event) error {
		c.emit(EventReceivedLine, Event{Context: server, Text: e.Text})
		return nil
	})
	ev.On(engine.EventStateChanged, "routing", func(e engine.Event) error {
		c.emit(EventConnectionStateChanged, Event{Context: server, State: e.State})
		return nil
	})
	ev.On(engine.EventLastRequestedChanged, "routing", func(engine.Event) error {
		c.emit(EventLastRequestedChanged, Event{Context: server})
		return nil
	})
	ev.On(engine.EventMessage, "routing", func(e engine.Event) error {
		c.deliver(conn, e.Incoming)
		return nil
	})
}

// deliver hands in to the contexts of conn that exist right now: channel and
// query contexts in creation order, the server context last.
func (c *Core) deliver(conn *engine.Connection, in *proto.Incoming) {
	var server *Context
	targets := make([]*Context, 0, len(c.contexts))
	for _, ctx := range c.contexts {
		if ctx.conn != conn {
			continue
		}
		if ctx.kind == Server {
			server = ctx
			continue
		}
		targets = append(targets, ctx)
	}
	if server != nil {
		targets = append(targets, server)
	}

	for _, ctx := range targets {
		ctx.receive(in)
	}
}

func (c *Core) emit(event string, e Event) {
	c.events.Emit(event, e)
}
