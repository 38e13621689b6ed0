package proto

import (
	"fmt"
	"strings"
)

// DecodeError reports that a line for a known command did not match its
// schema.
type DecodeError struct {
	Command string
	Reason  string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %s", e.Command, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Payload is the typed form of a decoded message. Implementations are
// closed to this package.
type Payload interface {
	isPayload()
}

// Ping is a server keepalive probe.
type Ping struct {
	Source Source
}

// Welcome is the 001 numeric that completes registration.
type Welcome struct {
	Params List
}

// Join announces that Origin joined one or more channels.
type Join struct {
	Channels []Channel
	Keys     []Key
}

// Chatter is a PRIVMSG or NOTICE.
type Chatter struct {
	Notice  bool
	Targets []Target
	Text    ChatterData
}

func (*Ping) isPayload()    {}
func (*Welcome) isPayload() {}
func (*Join) isPayload()    {}
func (*Chatter) isPayload() {}

// DecodedMessage is the result of applying a MessageType to a line.
type DecodedMessage struct {
	Origin    Source
	HasOrigin bool
	Args      []Value
	Payload   Payload
}

// MessageType is a named schema for one command.
type MessageType struct {
	// Name is the upper-cased verb or the three digit numeric.
	Name string
	// Args are applied in order; together they must consume every token.
	Args []ArgumentType
	// Strict marks schemas whose mismatch is a protocol violation rather
	// than a per-message error.
	Strict bool
	// Build turns the decoded arguments into a typed payload.
	Build func(args []Value) (Payload, error)
}

// Decode applies the schema to a tokenized line.
func (t *MessageType) Decode(line TokenizedLine) (*DecodedMessage, error) {
	c := NewCursor(line.Tokens)
	args := make([]Value, 0, len(t.Args))
	for i, a := range t.Args {
		v, err := a.Decode(c)
		if err != nil {
			return nil, &DecodeError{
				Command: t.Name,
				Reason:  fmt.Sprintf("argument %d (%s): %v", i, a.Name(), err),
				Err:     err,
			}
		}
		args = append(args, v)
	}
	if !c.Exhausted() {
		return nil, &DecodeError{
			Command: t.Name,
			Reason:  fmt.Sprintf("unexpected token count %d", len(line.Tokens)),
		}
	}

	msg := &DecodedMessage{
		Origin:    Source(line.Prefix),
		HasOrigin: line.HasPrefix,
		Args:      args,
	}
	if t.Build != nil {
		p, err := t.Build(args)
		if err != nil {
			return nil, &DecodeError{Command: t.Name, Reason: err.Error(), Err: err}
		}
		msg.Payload = p
	}
	return msg, nil
}

// Incoming wraps one received line on its way through reactions and
// consumers. Type and Message are nil for unrecognized commands.
type Incoming struct {
	Raw     RawLine
	Line    TokenizedLine
	Type    *MessageType
	Message *DecodedMessage
	Handled bool
}

// Command returns the upper-cased first token of the line.
func (in *Incoming) Command() string {
	if len(in.Line.Tokens) == 0 {
		return ""
	}
	return strings.ToUpper(string(in.Line.Tokens[0]))
}

// Payload returns the typed payload, or nil.
func (in *Incoming) Payload() Payload {
	if in.Message == nil {
		return nil
	}
	return in.Message.Payload
}
