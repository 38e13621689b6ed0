package routing

import (
	"errors"
	"fmt"

	"github.com/soyeahso/irccore/internal/engine"
	"github.com/soyeahso/irccore/internal/proto"
)

// ErrNoTarget is returned when chatting in a context without an outgoing
// target, such as a server context.
var ErrNoTarget = errors.New("this context does not have an outgoing target; can't send a chat message here")

// Kind is the conversation type of a Context.
type Kind int

const (
	Server Kind = iota
	Channel
	Query
)

func (k Kind) String() string {
	switch k {
	case Server:
		return "server"
	case Channel:
		return "channel"
	case Query:
		return "query"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Key is the identity of a Context. Target is empty only for Server.
type Key struct {
	Conn   *engine.Connection
	Kind   Kind
	Target string
}

// Context is one tracked conversation on a connection. Contexts are created
// by Core and live as long as it does.
type Context struct {
	core   *Core
	id     int
	conn   *engine.Connection
	kind   Kind
	target string
}

// ID is the stable arena handle of the context.
func (x *Context) ID() int { return x.id }

// Conn returns the owning connection.
func (x *Context) Conn() *engine.Connection { return x.conn }

// Kind returns the conversation type.
func (x *Context) Kind() Kind { return x.kind }

// Target returns the outgoing target: a channel, a nick, or empty.
func (x *Context) Target() string { return x.target }

// Key returns the identity tuple.
func (x *Context) Key() Key {
	return Key{Conn: x.conn, Kind: x.kind, Target: x.target}
}

// Equal reports whether both contexts have the same identity.
func (x *Context) Equal(other *Context) bool {
	if x == nil || other == nil {
		return x == other
	}
	return x.Key() == other.Key()
}

// Label is the disambiguator front ends show for this context.
func (x *Context) Label() string { return x.core.Disambiguator(x) }

// Notify emits a user-facing line attributed to this context.
func (x *Context) Notify(text string) {
	x.core.Notify(x, text)
}

// Nick returns the nick this client registered with on the context's
// connection, falling back to the one it will request next.
func (x *Context) Nick() string {
	if n := x.conn.RequestedLast().Nick; n != "" {
		return n
	}
	return x.conn.RequestNext().Nick
}

// SendChatMessage echoes text locally and sends it as a PRIVMSG to the
// context's target. Multi-line or oversized text goes out as several
// messages.
func (x *Context) SendChatMessage(text string) error {
	if x.target == "" {
		return ErrNoTarget
	}
	for _, line := range SplitChat(text, MaxChatBytes) {
		x.Notify("<" + x.Nick() + "> " + line)
		x.conn.SendRaw("PRIVMSG " + x.target + " :" + line)
	}
	return nil
}

// receive handles a message unless an earlier context already did.
func (x *Context) receive(in *proto.Incoming) {
	if in.Handled {
		return
	}
	x.handle(in)
}

func (x *Context) handle(in *proto.Incoming) {
	switch p := in.Payload().(type) {
	case *proto.Join:
		x.handleJoin(in, p)
	case *proto.Chatter:
		x.handleChatter(in, p)
	}
}

func (x *Context) handleJoin(in *proto.Incoming, j *proto.Join) {
	for _, ch := range j.Channels {
		switch {
		case x.kind == Server:
			ctx, created := x.core.CreateOrGet(x.conn, Channel, string(ch))
			if created {
				ctx.handle(in)
			}
		case x.kind == Channel && string(ch) == x.target:
			text := "Joined channel " + string(ch)
			if in.Message.HasOrigin && in.Message.Origin != "" {
				text += ": " + string(in.Message.Origin)
			}
			x.Notify(text)
		}
	}

	// Only the server context sees every channel of a multi-channel JOIN.
	if x.kind == Server || (len(j.Channels) == 1 && string(j.Channels[0]) == x.target) {
		in.Handled = true
	}
}

func (x *Context) handleChatter(in *proto.Incoming, c *proto.Chatter) {
	nick := proto.NickFromSource(string(in.Message.Origin))
	if nick == "" {
		nick = "*"
	}
	line := "<" + nick + "> " + string(c.Text)
	if c.Notice {
		line = "-" + nick + "- " + string(c.Text)
	}

	for _, t := range c.Targets {
		key := ResolveChatterKey(x.conn, t, in.Message.Origin)

		if x.kind == Server && key.Kind != Server {
			ctx, created := x.core.CreateOrGet(key.Conn, key.Kind, key.Target)
			if created {
				ctx.handle(in)
			}
			continue
		}
		if key.Kind != x.kind || key.Target != x.target {
			continue
		}

		x.Notify(line)
		if len(c.Targets) == 1 {
			in.Handled = true
		}
	}

	if x.kind == Server {
		in.Handled = true
	}
}
