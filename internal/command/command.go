// Package command turns user-typed lines into chat messages or into
// invocations of named commands from a tree of command groups.
package command

import (
	"errors"
	"strings"
	"unicode"
)

var (
	// ErrUnbalancedQuote is returned by SplitLine for an unterminated quote.
	ErrUnbalancedQuote = errors.New("unbalanced quote")
	// ErrEmptyCommand is returned when a command has no name token.
	ErrEmptyCommand = errors.New("a command needs at least one token, the command name")
)

// SplitLine splits text on runs of whitespace. A double quote toggles a mode
// in which whitespace is literal; the quotes themselves are dropped, so ""
// yields an empty token.
func SplitLine(text string) ([]string, error) {
	var (
		tokens  []string
		token   strings.Builder
		started bool
		quoted  bool
	)

	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case quoted:
			token.WriteRune(r)
		case unicode.IsSpace(r):
			if started {
				tokens = append(tokens, token.String())
				token.Reset()
				started = false
			}
		default:
			token.WriteRune(r)
			started = true
		}
	}

	if quoted {
		return nil, ErrUnbalancedQuote
	}
	if started {
		tokens = append(tokens, token.String())
	}
	return tokens, nil
}

// Command is a tokenized user command. The first token is its name.
type Command struct {
	tokens []string
}

// NewCommand wraps tokens. At least one token is required.
func NewCommand(tokens []string) (*Command, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Command{tokens: tokens}, nil
}

// ParseCommand splits line and wraps the tokens.
func ParseCommand(line string) (*Command, error) {
	tokens, err := SplitLine(line)
	if err != nil {
		return nil, err
	}
	return NewCommand(tokens)
}

// Tokens returns every token including the name.
func (c *Command) Tokens() []string { return c.tokens }

// Name returns the first token.
func (c *Command) Name() string { return c.tokens[0] }

// Args returns the tokens after the name.
func (c *Command) Args() []string { return c.tokens[1:] }
