package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccore/internal/routing"
)

// DefaultPort is used by connect and server when no port is given.
const DefaultPort = "6667"

// ErrUsage is wrapped by argument errors.
var ErrUsage = errors.New("usage")

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
}

// NewIRCGroup returns the group of built-in IRC commands.
func NewIRCGroup(core *routing.Core) *Group {
	b := &ircCommands{core: core}
	b.group = NewGroup(IRCGroupName, b.definitions)
	return b.group
}

type ircCommands struct {
	core *routing.Core
	// group is the live group, so help also lists commands registered later.
	group *Group
}

func (b *ircCommands) definitions() []Definition {
	return []Definition{
		{Name: "raw", Run: b.raw, Help: help("raw <line...>", "Send raw IRC protocol message")},
		{Name: "join", Run: b.join, Help: help("join <channel>", "Open a channel context and join it")},
		{Name: "msg", Run: b.msg, Help: help("msg <target> <text...>", "Send a chat message to a channel or nick")},
		{Name: "connect", Run: b.connect, Help: help("connect <host> [port] [user] [nick]", "Reconnect this connection to another server")},
		{Name: "server", Run: b.server, Help: help("server <host> [port] [user] [nick]", "Open an additional connection")},
		{Name: "reconnect", Run: b.reconnect, Help: help("reconnect", "Reconnect to the last requested server")},
		{Name: "disconnect", Run: b.disconnect, Help: help("disconnect [reason...]", "Send QUIT and close the connection")},
		{Name: "window", Run: b.window, Help: help("window <+n|-n>", "Switch to another context")},
		{Name: "help", Run: b.help, Help: help("help [command]", "List commands or describe one")},
	}
}

func help(lines ...string) HelpFunc {
	return func() []string { return lines }
}

func (b *ircCommands) raw(cmd *Command, ctx *routing.Context) error {
	args := cmd.Args()
	if len(args) == 0 {
		return usage("raw <line...>")
	}
	ctx.Conn().SendRaw(strings.Join(args, " "))
	return nil
}

func (b *ircCommands) join(cmd *Command, ctx *routing.Context) error {
	args := cmd.Args()
	if len(args) != 1 {
		return usage("join <channel>")
	}
	channel := args[0]
	if !girc.IsValidChannel(channel) {
		return fmt.Errorf("invalid channel name %q", channel)
	}

	target, _ := b.core.CreateOrGet(ctx.Conn(), routing.Channel, channel)
	target.Notify("Joining channel " + channel)
	b.core.Focus(target)
	ctx.Conn().SendRaw("JOIN " + channel)
	return nil
}

func (b *ircCommands) msg(cmd *Command, ctx *routing.Context) error {
	args := cmd.Args()
	if len(args) < 2 {
		return usage("msg <target> <text...>")
	}
	kind := routing.Query
	if girc.IsValidChannel(args[0]) {
		kind = routing.Channel
	} else if !girc.IsValidNick(args[0]) {
		return fmt.Errorf("invalid target %q", args[0])
	}

	target, _ := b.core.CreateOrGet(ctx.Conn(), kind, args[0])
	return target.SendChatMessage(strings.Join(args[1:], " "))
}

// endpoint fills missing connect arguments from what conn would use next.
func endpoint(args []string, next [4]string) ([4]string, error) {
	if len(args) < 1 || len(args) > 4 {
		return next, usage("<host> [port] [user] [nick]")
	}
	ep := next
	copy(ep[:], args)
	if ep[1] == "" {
		ep[1] = DefaultPort
	}
	if _, err := strconv.ParseUint(ep[1], 10, 16); err != nil {
		return ep, fmt.Errorf("invalid port %q", ep[1])
	}
	if ep[2] == "" {
		ep[2] = ep[3]
	}
	if ep[3] == "" {
		ep[3] = ep[2]
	}
	if !girc.IsValidNick(ep[3]) {
		return ep, fmt.Errorf("invalid nick %q", ep[3])
	}
	if !girc.IsValidUser(ep[2]) {
		return ep, fmt.Errorf("invalid user %q", ep[2])
	}
	return ep, nil
}

func (b *ircCommands) connect(cmd *Command, ctx *routing.Context) error {
	n := ctx.Conn().RequestNext()
	ep, err := endpoint(cmd.Args(), [4]string{n.Host, n.Port, n.User, n.Nick})
	if err != nil {
		return err
	}
	ctx.Conn().Connect(ep[0], ep[1], ep[2], ep[3])
	return nil
}

func (b *ircCommands) server(cmd *Command, ctx *routing.Context) error {
	n := ctx.Conn().RequestNext()
	ep, err := endpoint(cmd.Args(), [4]string{"", "", n.User, n.Nick})
	if err != nil {
		return err
	}
	b.core.Focus(b.core.Connect(ep[0], ep[1], ep[2], ep[3]))
	return nil
}

func (b *ircCommands) reconnect(cmd *Command, ctx *routing.Context) error {
	if len(cmd.Args()) != 0 {
		return usage("reconnect")
	}
	if ctx.Conn().RequestNext().Host == "" {
		return errors.New("no server to reconnect to; use connect first")
	}
	ctx.Conn().Reconnect()
	return nil
}

func (b *ircCommands) disconnect(cmd *Command, ctx *routing.Context) error {
	ctx.Conn().Disconnect(strings.Join(cmd.Args(), " "))
	return nil
}

func (b *ircCommands) window(cmd *Command, _ *routing.Context) error {
	args := cmd.Args()
	if len(args) != 1 {
		return usage("window <+n|-n>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid window offset %q", args[0])
	}
	return b.core.CycleContext(n)
}

func (b *ircCommands) help(cmd *Command, ctx *routing.Context) error {
	group := b.group
	if err := group.RegisterAll(); err != nil {
		return err
	}

	args := cmd.Args()
	if len(args) == 0 {
		for _, d := range group.Definitions() {
			lines := d.HelpLines()
			summary := d.Name
			if len(lines) > 1 {
				summary = fmt.Sprintf("%-40s %s", lines[0], lines[1])
			}
			ctx.Notify(summary)
		}
		return nil
	}

	d, ok := group.Definition(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	for _, line := range d.HelpLines() {
		ctx.Notify(line)
	}
	return nil
}
