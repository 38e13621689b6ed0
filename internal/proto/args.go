package proto

import (
	"bytes"
	"fmt"
	"strings"
)

// Cursor walks the tokens of a line during schema application.
type Cursor struct {
	tokens [][]byte
	pos    int
}

// NewCursor returns a cursor positioned at the first token.
func NewCursor(tokens [][]byte) *Cursor {
	return &Cursor{tokens: tokens}
}

// Next consumes and returns the next token.
func (c *Cursor) Next() ([]byte, bool) {
	if c.pos >= len(c.tokens) {
		return nil, false
	}
	t := c.tokens[c.pos]
	c.pos++
	return t, true
}

// Exhausted reports whether every token has been consumed.
func (c *Cursor) Exhausted() bool { return c.pos >= len(c.tokens) }

// Remaining returns the number of unconsumed tokens.
func (c *Cursor) Remaining() int { return len(c.tokens) - c.pos }

// ArgumentType decodes one schema position from a cursor.
type ArgumentType interface {
	// Name describes the decoder, e.g. "List<Channel>".
	Name() string
	// Decode consumes the tokens it needs and returns the decoded value.
	Decode(c *Cursor) (Value, error)

	argumentType()
}

func next(c *Cursor, what string) ([]byte, error) {
	t, ok := c.Next()
	if !ok {
		return nil, fmt.Errorf("missing %s", what)
	}
	return t, nil
}

// CommandNameArg decodes an alphabetic verb and upper-cases it.
type CommandNameArg struct{}

func (CommandNameArg) Name() string { return "CommandName" }

func (CommandNameArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "command name")
	if err != nil {
		return nil, err
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("empty command name")
	}
	for _, b := range t {
		if !isLetter(b) {
			return nil, fmt.Errorf("command name %q is not alphabetic", t)
		}
	}
	return CommandName(strings.ToUpper(string(t))), nil
}

// NumericArg decodes a three digit reply code.
type NumericArg struct{}

func (NumericArg) Name() string { return "NumericCommandName" }

func (NumericArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "numeric")
	if err != nil {
		return nil, err
	}
	if len(t) != 3 || !isDigit(t[0]) || !isDigit(t[1]) || !isDigit(t[2]) {
		return nil, fmt.Errorf("%q is not a three digit numeric", t)
	}
	return Numeric(t), nil
}

// SourceArg decodes a sender identity.
type SourceArg struct{}

func (SourceArg) Name() string { return "Source" }

func (SourceArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "source")
	if err != nil {
		return nil, err
	}
	return Source(t), nil
}

// DefaultChannelMarkers are the leading characters that mark a channel name.
const DefaultChannelMarkers = "#"

// TargetArg decodes a recipient, yielding a Channel when the token starts
// with one of Markers and a Nick otherwise.
type TargetArg struct {
	Markers string
}

func (TargetArg) Name() string { return "Target" }

func (a TargetArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "target")
	if err != nil {
		return nil, err
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("empty target")
	}
	markers := a.Markers
	if markers == "" {
		markers = DefaultChannelMarkers
	}
	if strings.IndexByte(markers, t[0]) >= 0 {
		return Channel(t), nil
	}
	return Nick(t), nil
}

// ChannelArg decodes a channel name.
type ChannelArg struct{}

func (ChannelArg) Name() string { return "Channel" }

func (ChannelArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "channel")
	if err != nil {
		return nil, err
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("empty channel")
	}
	return Channel(t), nil
}

// KeyArg decodes a channel key.
type KeyArg struct{}

func (KeyArg) Name() string { return "Key" }

func (KeyArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "key")
	if err != nil {
		return nil, err
	}
	return Key(t), nil
}

// ChatterDataArg decodes free text.
type ChatterDataArg struct{}

func (ChatterDataArg) Name() string { return "ChatterData" }

func (ChatterDataArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "text")
	if err != nil {
		return nil, err
	}
	return ChatterData(t), nil
}

// UnrecognizedArg accepts any single token.
type UnrecognizedArg struct{}

func (UnrecognizedArg) Name() string { return "Unrecognized" }

func (UnrecognizedArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "parameter")
	if err != nil {
		return nil, err
	}
	return Unrecognized(t), nil
}

// ListArg consumes one token, splits it on commas and decodes every piece
// with Elem.
type ListArg struct {
	Elem ArgumentType
}

func (a ListArg) Name() string { return "List<" + a.Elem.Name() + ">" }

func (a ListArg) Decode(c *Cursor) (Value, error) {
	t, err := next(c, "list")
	if err != nil {
		return nil, err
	}
	pieces := bytes.Split(t, []byte{','})
	out := make(List, 0, len(pieces))
	for i, piece := range pieces {
		v, err := a.Elem.Decode(NewCursor([][]byte{piece}))
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// OptionalArg decodes Elem, or yields an absent Optional when the cursor is
// already exhausted.
type OptionalArg struct {
	Elem ArgumentType
}

func (a OptionalArg) Name() string { return "Optional<" + a.Elem.Name() + ">" }

func (a OptionalArg) Decode(c *Cursor) (Value, error) {
	if c.Exhausted() {
		return Optional{}, nil
	}
	v, err := a.Elem.Decode(c)
	if err != nil {
		return nil, err
	}
	return Optional{Present: true, Value: v}, nil
}

// ConstArg decodes Elem and requires the result to equal Want.
type ConstArg struct {
	Elem ArgumentType
	Want Value
}

func (a ConstArg) Name() string { return "Const<" + a.Elem.Name() + ">" }

func (a ConstArg) Decode(c *Cursor) (Value, error) {
	v, err := a.Elem.Decode(c)
	if err != nil {
		return nil, err
	}
	if !Equal(v, a.Want) {
		return nil, fmt.Errorf("expected %v, got %v", a.Want, v)
	}
	return v, nil
}

// RestArg decodes every remaining token with Elem.
type RestArg struct {
	Elem ArgumentType
}

func (a RestArg) Name() string { return "Rest<" + a.Elem.Name() + ">" }

func (a RestArg) Decode(c *Cursor) (Value, error) {
	out := make(List, 0, c.Remaining())
	for !c.Exhausted() {
		v, err := a.Elem.Decode(c)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (CommandNameArg) argumentType()  {}
func (NumericArg) argumentType()      {}
func (SourceArg) argumentType()       {}
func (TargetArg) argumentType()       {}
func (ChannelArg) argumentType()      {}
func (KeyArg) argumentType()          {}
func (ChatterDataArg) argumentType()  {}
func (UnrecognizedArg) argumentType() {}
func (ListArg) argumentType()         {}
func (OptionalArg) argumentType()     {}
func (ConstArg) argumentType()        {}
func (RestArg) argumentType()         {}

func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
