// Package engine owns the server link: the transport, line framing, the
// outbound queue and the registration state machine.
package engine

import "fmt"

// State is the connection lifecycle state. States are ordered; comparisons
// like state >= Registering are meaningful.
type State int

const (
	Disconnected State = iota
	Connecting
	Registering
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Registering:
		return "registering"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Endpoint is the set of fields used to open and register a connection.
type Endpoint struct {
	Host string
	Port string
	User string
	Nick string
}

// Level grades a user notification. A notification is emitted only when its
// level is at or below the connection's verbosity.
type Level int

const (
	LevelError Level = iota
	LevelInfo
	LevelDetail
)

// Event names emitted by a Connection.
const (
	EventNotify               = "notify"
	EventSendingLine          = "sending_line"
	EventReceivedLine         = "received_line"
	EventStateChanged         = "state_changed"
	EventLastRequestedChanged = "last_requested_changed"
	EventMessage              = "message"
)

// AllEvents lists every event a Connection emits.
var AllEvents = []string{
	EventNotify,
	EventSendingLine,
	EventReceivedLine,
	EventStateChanged,
	EventLastRequestedChanged,
	EventMessage,
}
