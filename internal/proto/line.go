// Package proto implements the IRC wire grammar: line tokenizing, typed
// argument decoders and the per-command message schemas built from them.
package proto

// RawLine is exactly one wire message with its CRLF terminator removed.
// It is treated as immutable once framed.
type RawLine []byte

func (l RawLine) String() string { return string(l) }

// TokenizedLine is a RawLine split into its optional sender prefix and the
// ordered list of remaining tokens. The trailing parameter, if any, is the
// last token.
type TokenizedLine struct {
	Prefix    []byte
	HasPrefix bool
	Tokens    [][]byte
}

// Empty reports whether the line carried neither a prefix nor any tokens.
func (t TokenizedLine) Empty() bool {
	return !t.HasPrefix && len(t.Tokens) == 0
}

// Tokenize splits a raw line on runs of spaces.
//
// A first token beginning with ':' is the sender prefix. A ':' that starts a
// later token opens the trailing parameter, which runs verbatim to the end of
// the line and may be empty.
func Tokenize(line RawLine) TokenizedLine {
	var (
		tokens   [][]byte
		token    []byte
		started  bool
		trailing bool
	)

	for _, c := range line {
		if trailing {
			token = append(token, c)
			continue
		}

		switch c {
		case ' ':
			if !started {
				continue
			}
			tokens = append(tokens, token)
			token = nil
			started = false
		case ':':
			if len(tokens) == 0 || started {
				token = append(token, c)
				started = true
				continue
			}
			trailing = true
			started = true
		default:
			token = append(token, c)
			started = true
		}
	}

	if started {
		if token == nil {
			token = []byte{}
		}
		tokens = append(tokens, token)
	}

	var out TokenizedLine
	if len(tokens) > 0 && len(tokens[0]) > 0 && tokens[0][0] == ':' {
		out.Prefix = tokens[0][1:]
		out.HasPrefix = true
		tokens = tokens[1:]
	}
	out.Tokens = tokens
	return out
}
