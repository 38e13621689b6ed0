package proto

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary maps upper-cased command names and numerics to their schemas.
type Vocabulary struct {
	types map[string]*MessageType
}

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{types: make(map[string]*MessageType)}
}

// Register adds a schema. Names are registered once.
func (v *Vocabulary) Register(t *MessageType) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("message type must have a name")
	}
	key := strings.ToUpper(t.Name)
	if _, exists := v.types[key]; exists {
		return fmt.Errorf("message type %q already registered", key)
	}
	v.types[key] = t
	return nil
}

// Lookup finds the schema for a command token.
func (v *Vocabulary) Lookup(command string) (*MessageType, bool) {
	t, ok := v.types[strings.ToUpper(command)]
	return t, ok
}

// Names returns the registered names, sorted.
func (v *Vocabulary) Names() []string {
	names := make([]string, 0, len(v.types))
	for n := range v.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultVocabulary registers the schemas the engine understands.
func DefaultVocabulary() *Vocabulary {
	v := NewVocabulary()
	for _, t := range []*MessageType{
		PingType(),
		WelcomeType(),
		JoinType(),
		ChatterType("PRIVMSG"),
		ChatterType("NOTICE"),
	} {
		if err := v.Register(t); err != nil {
			panic(err)
		}
	}
	return v
}

// PingType is PING <source>. A mismatch disconnects.
func PingType() *MessageType {
	return &MessageType{
		Name:   "PING",
		Strict: true,
		Args: []ArgumentType{
			ConstArg{Elem: CommandNameArg{}, Want: CommandName("PING")},
			SourceArg{},
		},
		Build: func(args []Value) (Payload, error) {
			return &Ping{Source: args[1].(Source)}, nil
		},
	}
}

// WelcomeType is the 001 numeric; its parameters are kept but not
// interpreted.
func WelcomeType() *MessageType {
	return &MessageType{
		Name: "001",
		Args: []ArgumentType{
			ConstArg{Elem: NumericArg{}, Want: Numeric("001")},
			RestArg{Elem: UnrecognizedArg{}},
		},
		Build: func(args []Value) (Payload, error) {
			return &Welcome{Params: args[1].(List)}, nil
		},
	}
}

// JoinType is JOIN <channel>{,<channel>} [<key>{,<key>}].
func JoinType() *MessageType {
	return &MessageType{
		Name: "JOIN",
		Args: []ArgumentType{
			ConstArg{Elem: CommandNameArg{}, Want: CommandName("JOIN")},
			ListArg{Elem: ChannelArg{}},
			OptionalArg{Elem: ListArg{Elem: KeyArg{}}},
		},
		Build: func(args []Value) (Payload, error) {
			j := &Join{}
			for _, c := range args[1].(List) {
				j.Channels = append(j.Channels, c.(Channel))
			}
			if keys := args[2].(Optional); keys.Present {
				for _, k := range keys.Value.(List) {
					j.Keys = append(j.Keys, k.(Key))
				}
			}
			return j, nil
		},
	}
}

// ChatterType is PRIVMSG or NOTICE <target>{,<target>} <text>.
func ChatterType(name string) *MessageType {
	name = strings.ToUpper(name)
	return &MessageType{
		Name: name,
		Args: []ArgumentType{
			ConstArg{Elem: CommandNameArg{}, Want: CommandName(name)},
			ListArg{Elem: TargetArg{}},
			ChatterDataArg{},
		},
		Build: func(args []Value) (Payload, error) {
			c := &Chatter{Notice: name == "NOTICE", Text: args[2].(ChatterData)}
			for _, t := range args[1].(List) {
				c.Targets = append(c.Targets, t.(Target))
			}
			return c, nil
		},
	}
}
