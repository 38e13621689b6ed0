// Package terminal is a line-oriented front end: it prints router events and
// feeds typed lines to the client.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/lrstanley/girc"
	"github.com/peterh/liner"
	"github.com/soyeahso/irccore/internal/client"
	"github.com/soyeahso/irccore/internal/engine"
	"github.com/soyeahso/irccore/internal/routing"
)

// Prompt is shown while reading chat input.
const Prompt = "irccore> "

const keepHint = "Enter an empty line for the setting to stay the same."

// LineReader reads edited lines. *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// Options configures a UI.
type Options struct {
	// ShowRaw prints every sent and received protocol line.
	ShowRaw bool
}

// UI prints events from one client and submits typed lines to it.
type UI struct {
	client *client.Client
	in     LineReader
	opts   Options

	mu  sync.Mutex
	out io.Writer
}

// New creates a UI and subscribes it to c's events.
func New(c *client.Client, in LineReader, out io.Writer, opts Options) *UI {
	u := &UI{client: c, in: in, out: out, opts: opts}

	ev := c.Events()
	ev.On(routing.EventNotify, "terminal", func(e routing.Event) error {
		u.Println(FormatNotify(e))
		return nil
	})
	if opts.ShowRaw {
		ev.On(routing.EventSendingLine, "terminal", func(e routing.Event) error {
			u.Println(FormatRaw(e, '<'))
			return nil
		})
		ev.On(routing.EventReceivedLine, "terminal", func(e routing.Event) error {
			u.Println(FormatRaw(e, '>'))
			return nil
		})
	}
	ev.On(routing.EventConnectionStateChanged, "terminal", func(e routing.Event) error {
		u.Println(fmt.Sprintf("[%s] Connection state changed to %d: %s", label(e.Context), int(e.State), e.State))
		return nil
	})
	ev.On(routing.EventFocusRequested, "terminal", func(e routing.Event) error {
		u.Println("Now in " + label(e.Context))
		return nil
	})
	return u
}

// Println writes one line. Safe for concurrent use.
func (u *UI) Println(line string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintln(u.out, line)
}

// PromptEndpoint asks for each field of the endpoint in turn. An empty
// answer keeps the value from current.
func (u *UI) PromptEndpoint(current engine.Endpoint) (engine.Endpoint, error) {
	ep := current
	fields := []struct {
		name  string
		value *string
	}{
		{"Server", &ep.Host},
		{"Port", &ep.Port},
		{"User", &ep.User},
		{"Nick", &ep.Nick},
	}
	for _, f := range fields {
		u.Println(fmt.Sprintf("%s requested is set to %q. %s", f.name, *f.value, keepHint))
		answer, err := u.in.Prompt(f.name + ": ")
		if err != nil {
			return current, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			u.Println(fmt.Sprintf("%s stays at %q.", f.name, *f.value))
			continue
		}
		*f.value = answer
	}
	return ep, nil
}

// Run reads lines until the input ends or ctx is canceled. End of input
// disconnects the current connection.
func (u *UI) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := u.in.Prompt(Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				_ = u.client.Disconnect("")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		u.in.AppendHistory(line)
		if err := u.client.SubmitUserInput(line); err != nil {
			return err
		}
	}
}

// FormatNotify renders a notification as "[label] text". IRC formatting
// codes are stripped.
func FormatNotify(e routing.Event) string {
	return fmt.Sprintf("[%s] %s", label(e.Context), girc.StripRaw(e.Text))
}

// FormatRaw renders a protocol line with a direction marker, '<' for sent
// and '>' for received.
func FormatRaw(e routing.Event, dir byte) string {
	return fmt.Sprintf("[%s] %c %s", label(e.Context), dir, e.Text)
}

func label(ctx *routing.Context) string {
	if ctx == nil {
		return "*"
	}
	return ctx.Label()
}

// History wraps a liner with a history file.
type History struct {
	*liner.State
	path string
}

// OpenLiner starts line editing on the controlling terminal and loads
// history from path when it exists.
func OpenLiner(path string) *History {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	h := &History{State: state, path: path}
	if path == "" {
		return h
	}
	if f, err := os.Open(path); err == nil {
		_, _ = state.ReadHistory(f)
		f.Close()
	}
	return h
}

// Close saves history and restores the terminal.
func (h *History) Close() error {
	if h.path != "" {
		if f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = h.State.WriteHistory(f)
			f.Close()
		}
	}
	return h.State.Close()
}
