package routing

import (
	"github.com/soyeahso/irccore/internal/engine"
	"github.com/soyeahso/irccore/internal/proto"
)

// ResolveChatterKey builds the context key a PRIVMSG or NOTICE target
// belongs to.
//
// Kinds:
//   - Channel: the target is a channel; keyed by the channel name
//   - Query: the target is a nick; keyed by the sender's nick, which is
//     where replies go
//   - Server: the target is a nick and the line carried no origin, so
//     there is no one to reply to
func ResolveChatterKey(conn *engine.Connection, target proto.Target, origin proto.Source) Key {
	if ch, ok := target.(proto.Channel); ok {
		return Key{Conn: conn, Kind: Channel, Target: string(ch)}
	}

	nick := proto.NickFromSource(string(origin))
	if nick == "" {
		return Key{Conn: conn, Kind: Server}
	}
	return Key{Conn: conn, Kind: Query, Target: nick}
}
