package command

import (
	"strings"
	"testing"

	"github.com/soyeahso/irccore/internal/engine"
	"github.com/soyeahso/irccore/internal/logging"
	"github.com/soyeahso/irccore/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	sink    engine.Sink
	open    bool
	host    string
	port    string
	written []string
}

func (m *mockTransport) Open(host, port string, sink engine.Sink) error {
	m.host, m.port, m.sink = host, port, sink
	return nil
}
func (m *mockTransport) Write(p []byte) error {
	m.written = append(m.written, strings.TrimSuffix(string(p), "\r\n"))
	return nil
}
func (m *mockTransport) InFlight() int { return 0 }
func (m *mockTransport) IsOpen() bool  { return m.open }
func (m *mockTransport) Abort()        { m.open = false }

type fixture struct {
	core       *routing.Core
	layer      *Layer
	transports []*mockTransport
	notes      []routing.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{}
	log := logging.New(nil, "silent")
	f.core = routing.NewCore(log, routing.Options{
		Verbosity: 1,
		NewTransport: func() engine.Transport {
			mt := &mockTransport{}
			f.transports = append(f.transports, mt)
			return mt
		},
	})
	f.core.Events().On(routing.EventNotify, "test", func(e routing.Event) error {
		f.notes = append(f.notes, e)
		return nil
	})

	layer, err := NewLayer(f.core, log)
	require.NoError(t, err)
	f.layer = layer
	return f
}

func (f *fixture) connect(host string) (*routing.Context, *mockTransport) {
	server := f.core.Connect(host, "6667", "me", "me")
	mt := f.transports[len(f.transports)-1]
	mt.open = true
	mt.sink.HandleConnected()
	mt.sink.HandleData([]byte(":" + host + " 001 me :Welcome\r\n"))
	mt.written = nil
	f.notes = nil
	return server, mt
}

func (f *fixture) textsFor(ctx *routing.Context) []string {
	var out []string
	for _, n := range f.notes {
		if n.Context == ctx {
			out = append(out, n.Text)
		}
	}
	return out
}

func TestLayerTreeShape(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "", f.layer.Root().Name())

	irc, ok := f.layer.Root().SubGroup(IRCGroupName)
	require.True(t, ok)
	for _, name := range []string{"raw", "join", "msg", "connect", "server", "reconnect", "disconnect", "window", "help"} {
		_, ok := irc.Definition(name)
		assert.True(t, ok, name)
	}
}

func TestJoinCommand(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")

	require.NoError(t, f.layer.ProcessUserInput("/join #test", server))

	ch, ok := f.core.Lookup(routing.Key{Conn: server.Conn(), Kind: routing.Channel, Target: "#test"})
	require.True(t, ok)
	assert.Equal(t, []string{"Joining channel #test"}, f.textsFor(ch))
	assert.Equal(t, []string{"JOIN #test"}, mt.written)
	assert.Same(t, ch, f.core.Current())
}

func TestJoinCommandErrors(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")

	err := f.layer.ProcessUserInput("/join", server)
	assert.ErrorIs(t, err, ErrUsage)

	err = f.layer.ProcessUserInput("/join nochan", server)
	require.Error(t, err)
	assert.Contains(t, f.textsFor(server), "Error: "+err.Error())

	assert.Empty(t, mt.written)
}

func TestPlainTextIsChat(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")
	ch, _ := f.core.CreateOrGet(server.Conn(), routing.Channel, "#test")

	require.NoError(t, f.layer.ProcessUserInput("not a command", ch))
	assert.Equal(t, []string{"PRIVMSG #test :not a command"}, mt.written)
	assert.Equal(t, []string{"<me> not a command"}, f.textsFor(ch))
}

func TestSlashSpaceEscapesChat(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")
	ch, _ := f.core.CreateOrGet(server.Conn(), routing.Channel, "#test")

	require.NoError(t, f.layer.ProcessUserInput("/ /join is a command", ch))
	require.NoError(t, f.layer.ProcessUserInput("/", ch))
	require.NoError(t, f.layer.ProcessUserInput("", ch))
	assert.Equal(t, []string{"PRIVMSG #test :/join is a command"}, mt.written)
}

func TestChatOnServerContextFails(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")

	err := f.layer.ProcessUserInput("hello", server)
	assert.ErrorIs(t, err, routing.ErrNoTarget)
	assert.Equal(t, []string{"Error: " + routing.ErrNoTarget.Error()}, f.textsFor(server))
	assert.Empty(t, mt.written)
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)
	server, _ := f.connect("irc.example.org")

	err := f.layer.ProcessUserInput("/bogus arg", server)
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, []string{"Error: unknown command: bogus"}, f.textsFor(server))
}

func TestUnbalancedQuoteReported(t *testing.T) {
	f := newFixture(t)
	server, _ := f.connect("irc.example.org")

	err := f.layer.ProcessUserInput(`/raw "oops`, server)
	assert.ErrorIs(t, err, ErrUnbalancedQuote)
}

func TestNoContext(t *testing.T) {
	f := newFixture(t)

	err := f.layer.ProcessUserInput("hello", nil)
	assert.ErrorIs(t, err, ErrNoContext)
	require.Len(t, f.notes, 1)
	assert.Nil(t, f.notes[0].Context)

	cmd, _ := ParseCommand("raw x")
	assert.ErrorIs(t, f.layer.ProcessCommand(cmd, nil), ErrNoContext)
}

func TestRawCommand(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")

	require.NoError(t, f.layer.ProcessUserInput("/raw PRIVMSG #x :hi", server))
	assert.Equal(t, []string{"PRIVMSG #x :hi"}, mt.written)

	assert.ErrorIs(t, f.layer.ProcessUserInput("/raw", server), ErrUsage)
}

func TestMsgCommand(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")

	require.NoError(t, f.layer.ProcessUserInput("/msg bob hi there", server))
	q, ok := f.core.Lookup(routing.Key{Conn: server.Conn(), Kind: routing.Query, Target: "bob"})
	require.True(t, ok)
	assert.Equal(t, []string{"<me> hi there"}, f.textsFor(q))

	require.NoError(t, f.layer.ProcessUserInput("/msg #chan yo", server))
	assert.Equal(t, []string{"PRIVMSG bob :hi there", "PRIVMSG #chan :yo"}, mt.written)

	assert.ErrorIs(t, f.layer.ProcessUserInput("/msg bob", server), ErrUsage)
}

func TestDisconnectCommand(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")

	require.NoError(t, f.layer.ProcessUserInput("/disconnect gone fishing", server))
	assert.Equal(t, []string{"QUIT :gone fishing"}, mt.written)
	assert.Equal(t, engine.Disconnected, server.Conn().State())
}

func TestConnectCommandKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")

	require.NoError(t, f.layer.ProcessUserInput("/connect other.example.org", server))
	next := server.Conn().RequestNext()
	assert.Equal(t, engine.Endpoint{Host: "other.example.org", Port: DefaultPort, User: "me", Nick: "me"}, next)
	assert.Equal(t, "other.example.org", mt.host)
	assert.Len(t, f.transports, 1)

	assert.Error(t, f.layer.ProcessUserInput("/connect h notaport", server))
	assert.Error(t, f.layer.ProcessUserInput("/connect h 6667 u 1nick", server))
	assert.ErrorIs(t, f.layer.ProcessUserInput("/connect", server), ErrUsage)
}

func TestServerCommandOpensConnection(t *testing.T) {
	f := newFixture(t)
	server, _ := f.connect("irc.example.org")

	require.NoError(t, f.layer.ProcessUserInput("/server second.example.org 7000", server))
	require.Len(t, f.core.Connections(), 2)
	require.Len(t, f.transports, 2)
	assert.Equal(t, "second.example.org", f.transports[1].host)
	assert.Equal(t, "7000", f.transports[1].port)

	current := f.core.Current()
	require.NotNil(t, current)
	assert.Equal(t, routing.Server, current.Kind())
	assert.Equal(t, "me", current.Conn().RequestNext().Nick)
}

func TestReconnectCommand(t *testing.T) {
	f := newFixture(t)
	server, mt := f.connect("irc.example.org")

	require.NoError(t, f.layer.ProcessUserInput("/reconnect", server))
	assert.Equal(t, engine.Connecting, server.Conn().State())
	assert.Equal(t, "irc.example.org", mt.host)

	assert.ErrorIs(t, f.layer.ProcessUserInput("/reconnect now", server), ErrUsage)

	idle := f.core.ServerContext(f.core.NewConnection())
	assert.Error(t, f.layer.ProcessUserInput("/reconnect", idle))
}

func TestWindowCommand(t *testing.T) {
	f := newFixture(t)
	server, _ := f.connect("irc.example.org")
	a, _ := f.core.CreateOrGet(server.Conn(), routing.Channel, "#a")

	require.NoError(t, f.layer.ProcessUserInput("/window 1", server))
	assert.Same(t, a, f.core.Current())
	require.NoError(t, f.layer.ProcessUserInput("/window -1", server))
	assert.Same(t, server, f.core.Current())

	assert.Error(t, f.layer.ProcessUserInput("/window next", server))
}

func TestHelpCommand(t *testing.T) {
	f := newFixture(t)
	server, _ := f.connect("irc.example.org")

	require.NoError(t, f.layer.ProcessUserInput("/help", server))
	texts := f.textsFor(server)
	assert.Len(t, texts, 9)
	assert.True(t, strings.HasPrefix(texts[0], "connect <host>"))

	f.notes = nil
	require.NoError(t, f.layer.ProcessUserInput("/help join", server))
	assert.Equal(t, []string{"join <channel>", "Open a channel context and join it"}, f.textsFor(server))

	assert.ErrorIs(t, f.layer.ProcessUserInput("/help nope", server), ErrUnknownCommand)
}

func TestHelpListsLaterRegistrations(t *testing.T) {
	f := newFixture(t)
	server, _ := f.connect("irc.example.org")

	irc, ok := f.layer.Root().SubGroup(IRCGroupName)
	require.True(t, ok)
	require.NoError(t, irc.Register(Definition{
		Name: "away",
		Run:  func(*Command, *routing.Context) error { return nil },
		Help: help("away [message...]", "Mark yourself away"),
	}))

	require.NoError(t, f.layer.ProcessUserInput("/help", server))
	texts := f.textsFor(server)
	assert.Len(t, texts, 10)
	assert.True(t, strings.HasPrefix(texts[0], "away [message...]"))

	f.notes = nil
	require.NoError(t, f.layer.ProcessUserInput("/help away", server))
	assert.Equal(t, []string{"away [message...]", "Mark yourself away"}, f.textsFor(server))
}
