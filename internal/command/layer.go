package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/irccore/internal/logging"
	"github.com/soyeahso/irccore/internal/routing"
)

// IRCGroupName is the group commands are dispatched from.
const IRCGroupName = "IRC"

var (
	// ErrUnknownCommand is wrapped by dispatch errors for unregistered names.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoContext is returned when input arrives without a context.
	ErrNoContext = errors.New("no current context")
)

// Layer decides whether a typed line is chat or a command and runs it.
type Layer struct {
	core *routing.Core
	root *Group
	log  *logging.Logger
}

// NewLayer builds the command tree: an unnamed root holding the IRC group.
func NewLayer(core *routing.Core, log *logging.Logger) (*Layer, error) {
	root := NewGroup("", nil)
	if err := root.AddSubGroup(NewIRCGroup(core)); err != nil {
		return nil, err
	}
	return &Layer{
		core: core,
		root: root,
		log:  log.Sub("command"),
	}, nil
}

// Root returns the unnamed root group.
func (l *Layer) Root() *Group { return l.root }

// ProcessUserInput sends line as chat or runs it as a /command. Errors are
// reported to the user on ctx and also returned.
func (l *Layer) ProcessUserInput(line string, ctx *routing.Context) error {
	if line == "" {
		return nil
	}

	text := line
	isCommand := false
	if strings.HasPrefix(text, "/") {
		switch {
		case len(text) == 1:
			text = ""
		case text[1] == ' ':
			text = text[2:]
		default:
			text = text[1:]
			isCommand = true
		}
	}

	if ctx == nil {
		l.core.Notify(nil, "Error: "+ErrNoContext.Error())
		return ErrNoContext
	}

	var err error
	if isCommand {
		err = l.processLine(text, ctx)
	} else if text != "" {
		err = ctx.SendChatMessage(text)
	}
	if err != nil {
		l.log.Debug().Err(err).Str("input", line).Msg("user input failed")
		ctx.Notify("Error: " + err.Error())
	}
	return err
}

func (l *Layer) processLine(text string, ctx *routing.Context) error {
	cmd, err := ParseCommand(text)
	if err != nil {
		return fmt.Errorf("parsing command: %w", err)
	}
	return l.ProcessCommand(cmd, ctx)
}

// ProcessCommand runs cmd from the IRC group.
func (l *Layer) ProcessCommand(cmd *Command, ctx *routing.Context) error {
	if ctx == nil {
		return ErrNoContext
	}
	group, ok := l.root.SubGroup(IRCGroupName)
	if !ok {
		return fmt.Errorf("command group %q missing", IRCGroupName)
	}
	def, ok := group.Definition(cmd.Name())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Name())
	}

	l.log.Debug().Str("command", cmd.Name()).Int("args", len(cmd.Args())).Msg("dispatching")
	return def.Run(cmd, ctx)
}
