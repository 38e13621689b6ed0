package proto

// Value is a decoded argument. The set of implementations is closed to this
// package; consumers switch on the concrete type.
type Value interface {
	isValue()
}

// Target is a message recipient: either a Channel or a Nick.
type Target interface {
	Value
	TargetName() string
}

type (
	// CommandName is an alphabetic verb, upper-cased.
	CommandName string
	// Numeric is a three digit reply code such as "001".
	Numeric string
	// Source is a sender identity such as a server name or nick!user@host.
	Source string
	// Channel is a channel name including its marker character.
	Channel string
	// Nick is a user nickname.
	Nick string
	// Key is a channel key given to JOIN.
	Key string
	// ChatterData is free text, usually the trailing parameter.
	ChatterData string
	// Unrecognized is a token whose meaning the schema does not care about.
	Unrecognized string
)

// List is the result of a comma-split or rest-of-line decoder.
type List []Value

// Optional wraps a decoder result that may be absent.
type Optional struct {
	Present bool
	Value   Value
}

func (CommandName) isValue()  {}
func (Numeric) isValue()      {}
func (Source) isValue()       {}
func (Channel) isValue()      {}
func (Nick) isValue()         {}
func (Key) isValue()          {}
func (ChatterData) isValue()  {}
func (Unrecognized) isValue() {}
func (List) isValue()         {}
func (Optional) isValue()     {}

func (c Channel) TargetName() string { return string(c) }
func (n Nick) TargetName() string    { return string(n) }

// Equal reports whether two decoded values have the same type and content.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Optional:
		bv, ok := b.(Optional)
		if !ok || av.Present != bv.Present {
			return false
		}
		return !av.Present || Equal(av.Value, bv.Value)
	case nil:
		return b == nil
	default:
		return a == b
	}
}
