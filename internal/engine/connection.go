package engine

import (
	"bytes"
	"fmt"

	"github.com/soyeahso/irccore/internal/hooks"
	"github.com/soyeahso/irccore/internal/logging"
	"github.com/soyeahso/irccore/internal/proto"
)

const (
	// LowWaterMark is the number of unwritten bytes at or above which the
	// outbound queue stops handing lines to the transport.
	LowWaterMark = 512
	// MaxReadBuffer caps the unterminated inbound remainder.
	MaxReadBuffer = 1 << 20

	// DefaultRealname is sent in USER when none is configured.
	DefaultRealname = "an irccore user"
)

var crlf = []byte("\r\n")

// Event is the payload of every Connection event. Only the fields relevant
// to the event name are set.
type Event struct {
	Conn     *Connection
	Level    Level
	Text     string
	State    State
	Incoming *proto.Incoming
}

// Sink receives transport callbacks. All methods run on the event loop.
type Sink interface {
	HandleConnected()
	HandleData(p []byte)
	HandleError(err error)
	HandleDrained()
}

// Transport is a non-blocking byte stream to the server.
type Transport interface {
	// Open starts connecting in the background and reports progress to sink.
	Open(host, port string, sink Sink) error
	// Write queues p for sending without blocking.
	Write(p []byte) error
	// InFlight is the number of queued bytes not yet written to the peer.
	InFlight() int
	// IsOpen reports whether the stream is connected and writable.
	IsOpen() bool
	// Abort closes the stream. Queued bytes are written on a best-effort
	// basis.
	Abort()
}

// Options configures a Connection.
type Options struct {
	Realname   string
	Verbosity  int
	Vocabulary *proto.Vocabulary
}

// Connection is one server link. It is not safe for concurrent use; every
// method must run on the event loop that drives its transport.
type Connection struct {
	transport Transport
	vocab     *proto.Vocabulary
	events    *hooks.Manager[Event]
	log       *logging.Logger

	state     State
	next      Endpoint
	last      Endpoint
	realname  string
	verbosity int

	queue    []string
	flushing bool
	readBuf  []byte
	// gen increments whenever the session is torn down so in-progress
	// framing can notice.
	gen int
}

// NewConnection creates a disconnected Connection that talks over t.
func NewConnection(t Transport, log *logging.Logger, opts Options) *Connection {
	if opts.Realname == "" {
		opts.Realname = DefaultRealname
	}
	if opts.Vocabulary == nil {
		opts.Vocabulary = proto.DefaultVocabulary()
	}
	return &Connection{
		transport: t,
		vocab:     opts.Vocabulary,
		events:    hooks.NewManager[Event](log),
		log:       log.Sub("engine"),
		realname:  opts.Realname,
		verbosity: opts.Verbosity,
	}
}

// Events returns the manager consumers subscribe to.
func (c *Connection) Events() *hooks.Manager[Event] { return c.events }

// State returns the current lifecycle state.
func (c *Connection) State() State { return c.state }

// RequestNext returns the endpoint the next (re)connect will use.
func (c *Connection) RequestNext() Endpoint { return c.next }

// RequestedLast returns the endpoint last actually used. Host and port are
// empty while a reconnect is in progress.
func (c *Connection) RequestedLast() Endpoint { return c.last }

// Verbosity returns the notification threshold.
func (c *Connection) Verbosity() int { return c.verbosity }

// SetVerbosity sets the notification threshold.
func (c *Connection) SetVerbosity(v int) { c.verbosity = v }

// QueueLen returns the number of lines waiting to be written.
func (c *Connection) QueueLen() int { return len(c.queue) }

// Connect stores a new endpoint and reconnects to it.
func (c *Connection) Connect(host, port, user, nick string) {
	if c.state != Disconnected {
		c.Disconnect("")
	}

	c.notify(LevelDetail, fmt.Sprintf("Setting host:port to request next to %s:%s, user to %s, nick to %s.",
		host, port, user, nick))
	c.next = Endpoint{Host: host, Port: port, User: user, Nick: nick}

	c.Reconnect()
}

// Reconnect opens the transport to the requested-next endpoint.
func (c *Connection) Reconnect() {
	if c.state != Disconnected {
		c.Disconnect("")
	}

	host, port := c.next.Host, c.next.Port
	c.last.Host, c.last.Port = "", ""

	c.notify(LevelInfo, fmt.Sprintf("(Re)Connecting to %s:%s", host, port))
	c.log.Info().Str("host", host).Str("port", port).Msg("connecting")
	c.setState(Connecting)

	if err := c.transport.Open(host, port, c); err != nil {
		c.HandleError(err)
		return
	}

	c.last.Host, c.last.Port = host, port
	c.events.Emit(EventLastRequestedChanged, Event{Conn: c})
}

// Disconnect sends QUIT when registered, drops everything queued and closes
// the transport. An empty reason sends a bare QUIT.
func (c *Connection) Disconnect(reason string) {
	if c.state == Disconnected {
		c.notify(LevelInfo, "Already disconnected.")
		return
	}

	if c.state >= Registering {
		quit := "QUIT"
		if reason == "" {
			c.notify(LevelInfo, "Sending quit request to server...")
		} else {
			c.notify(LevelInfo, "Sending quit request (message: "+reason+") to server...")
			quit += " :" + reason
		}
		c.writeNow(quit)
	}

	c.notify(LevelDetail, "Aborting connection...")
	c.teardown()
	c.log.Info().Str("reason", reason).Msg("disconnected")
}

// writeNow hands line straight to an open transport, skipping the queue and
// the low-water check. The queue is about to be dropped, so QUIT cannot wait
// behind it.
func (c *Connection) writeNow(line string) {
	if !c.transport.IsOpen() {
		return
	}
	c.events.Emit(EventSendingLine, Event{Conn: c, Text: line})
	c.log.Trace().Str("line", line).Msg("send")
	if err := c.transport.Write([]byte(line + "\r\n")); err != nil {
		c.log.Warn().Err(err).Msg("quit not sent")
	}
}

// SendRaw queues a line (without CRLF) and flushes as far as backpressure
// allows. It never blocks.
func (c *Connection) SendRaw(line string) {
	c.queue = append(c.queue, line)
	c.flush()
}

func (c *Connection) flush() {
	if c.flushing {
		return
	}
	c.flushing = true
	defer func() { c.flushing = false }()

	for len(c.queue) > 0 && c.transport.IsOpen() && c.transport.InFlight() < LowWaterMark {
		line := c.queue[0]
		c.queue[0] = ""
		c.queue = c.queue[1:]

		c.events.Emit(EventSendingLine, Event{Conn: c, Text: line})
		c.log.Trace().Str("line", line).Msg("send")
		if err := c.transport.Write([]byte(line + "\r\n")); err != nil {
			c.flushing = false
			c.HandleError(err)
			return
		}
	}
}

// HandleConnected registers with the server once the transport is up.
func (c *Connection) HandleConnected() {
	if c.state != Connecting {
		return
	}
	c.setState(Registering)

	user := c.next.User
	c.notify(LevelDetail, "Registering as user "+user+"...")
	c.SendRaw(fmt.Sprintf("USER %s * * :%s", user, c.realname))
	c.last.User = user

	nick := c.next.Nick
	c.notify(LevelDetail, "Requesting nick "+nick+"...")
	c.SendRaw("NICK " + nick)
	c.last.Nick = nick

	c.events.Emit(EventLastRequestedChanged, Event{Conn: c})
}

// HandleDrained resumes flushing after the transport wrote queued bytes.
func (c *Connection) HandleDrained() {
	c.flush()
}

// HandleError treats err as a transport fault: notify and disconnect without
// retrying.
func (c *Connection) HandleError(err error) {
	if c.state == Disconnected {
		return
	}
	c.log.Warn().Err(err).Msg("transport fault")
	c.notify(LevelError, "Connection error: "+err.Error())
	c.teardown()
}

// HandleData frames and processes received bytes. Partial lines are kept
// until the rest arrives.
func (c *Connection) HandleData(p []byte) {
	if c.state == Disconnected {
		return
	}
	c.readBuf = append(c.readBuf, p...)

	gen := c.gen
	off := 0
	for {
		i := bytes.Index(c.readBuf[off:], crlf)
		if i < 0 {
			break
		}
		line := c.readBuf[off : off+i]
		off += i + len(crlf)

		if bytes.IndexByte(line, 0) >= 0 {
			c.protocolViolation("Received line containing a NUL byte!")
			return
		}
		if bytes.IndexByte(line, '\n') >= 0 || bytes.IndexByte(line, '\r') >= 0 {
			c.protocolViolation("Server seems to have broken line-termination!")
			return
		}

		raw := make(proto.RawLine, len(line))
		copy(raw, line)
		c.processLine(raw)

		if c.gen != gen || c.state == Disconnected {
			return
		}
	}

	rest := c.readBuf[off:]
	switch {
	case len(rest) > MaxReadBuffer:
		c.protocolViolation("Socket read buffer size exceeded!")
		return
	case bytes.IndexByte(rest, 0) >= 0:
		c.protocolViolation("Received line containing a NUL byte!")
		return
	case bytes.IndexByte(rest, '\n') >= 0:
		c.protocolViolation("Server seems to have broken line-termination!")
		return
	case len(rest) > 1 && bytes.IndexByte(rest[:len(rest)-1], '\r') >= 0:
		c.protocolViolation("Server seems to have broken line-termination!")
		return
	}
	c.readBuf = append(c.readBuf[:0], rest...)
}

func (c *Connection) processLine(raw proto.RawLine) {
	c.events.Emit(EventReceivedLine, Event{Conn: c, Text: raw.String()})
	c.log.Trace().Str("line", raw.String()).Msg("recv")

	line := proto.Tokenize(raw)
	if line.Empty() {
		return
	}
	if len(line.Tokens) == 0 {
		c.protocolViolation("Received line with a prefix token only!")
		return
	}

	in := &proto.Incoming{Raw: raw, Line: line}
	name := in.Command()
	mt, ok := c.vocab.Lookup(name)
	if !ok {
		c.notify(LevelInfo, fmt.Sprintf("Unrecognized IRC protocol message (%s): %s", name, raw))
		return
	}
	in.Type = mt

	msg, err := mt.Decode(line)
	if err != nil {
		if mt.Strict {
			c.protocolViolation(err.Error())
			return
		}
		c.notify(LevelError, "Protocol error, ignoring: "+err.Error())
		return
	}
	in.Message = msg

	c.react(in)
	if c.state == Disconnected {
		return
	}

	c.events.Emit(EventMessage, Event{Conn: c, Incoming: in})
	if !in.Handled {
		c.notify(LevelInfo, fmt.Sprintf("Unhandled IRC protocol message (%s): %s", name, raw))
	}
}

// react runs the engine's own handling before consumers see the message.
func (c *Connection) react(in *proto.Incoming) {
	switch p := in.Payload().(type) {
	case *proto.Ping:
		c.SendRaw("PONG :" + string(p.Source))
		in.Handled = true
	case *proto.Welcome:
		if c.state != Registering {
			c.protocolViolation("Got random Welcome/001 message")
			return
		}
		c.notify(LevelInfo, "Got welcome message; we're connected, now")
		c.setState(Connected)
		in.Handled = true
	}
}

func (c *Connection) protocolViolation(text string) {
	c.log.Warn().Str("reason", text).Msg("protocol violation")
	c.notify(LevelError, "Protocol error, disconnecting: "+text)
	c.Disconnect("Protocol error")
}

func (c *Connection) teardown() {
	c.queue = nil
	c.readBuf = nil
	c.gen++
	c.transport.Abort()
	c.setState(Disconnected)
}

func (c *Connection) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debug().Stringer("from", c.state).Stringer("to", s).Msg("state changed")
	c.state = s
	c.events.Emit(EventStateChanged, Event{Conn: c, State: s})
}

func (c *Connection) notify(level Level, text string) {
	if int(level) > c.verbosity {
		return
	}
	c.events.Emit(EventNotify, Event{Conn: c, Level: level, Text: text})
}
