package proto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tokenStrings(t TokenizedLine) []string {
	out := make([]string, len(t.Tokens))
	for i, tok := range t.Tokens {
		out[i] = string(tok)
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		prefix    string
		hasPrefix bool
		tokens    []string
	}{
		{"no prefix", "PING irc.example.org", "", false, []string{"PING", "irc.example.org"}},
		{"trailing", "PING :irc.example.org", "", false, []string{"PING", "irc.example.org"}},
		{"prefix and trailing with spaces", ":nick!user@host PRIVMSG #chan :hello there",
			"nick!user@host", true, []string{"PRIVMSG", "#chan", "hello there"}},
		{"prefix only", ":irc.example.org", "irc.example.org", true, []string{}},
		{"runs of spaces", "JOIN    #a,#b   key", "", false, []string{"JOIN", "#a,#b", "key"}},
		{"empty trailing", "PRIVMSG #chan :", "", false, []string{"PRIVMSG", "#chan", ""}},
		{"colon inside middle", "MODE a:b", "", false, []string{"MODE", "a:b"}},
		{"trailing keeps colons and spaces", "X :a : b:", "", false, []string{"X", "a : b:"}},
		{"leading spaces", "   PING x", "", false, []string{"PING", "x"}},
		{"empty", "", "", false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(RawLine(tt.line))
			assert.Equal(t, tt.hasPrefix, got.HasPrefix)
			assert.Equal(t, tt.prefix, string(got.Prefix))
			assert.Equal(t, tt.tokens, tokenStrings(got))
		})
	}
}

func TestTokenize_RejoinMatchesInput(t *testing.T) {
	lines := []string{
		":srv 001 me :Welcome to the network",
		"PRIVMSG #go :generics are here",
		"JOIN #a,#b",
	}
	for _, line := range lines {
		got := Tokenize(RawLine(line))

		var b bytes.Buffer
		if got.HasPrefix {
			b.WriteByte(':')
			b.Write(got.Prefix)
			b.WriteByte(' ')
		}
		for i, tok := range got.Tokens {
			if i > 0 {
				b.WriteByte(' ')
			}
			if i == len(got.Tokens)-1 && bytes.IndexByte(tok, ' ') >= 0 {
				b.WriteByte(':')
			}
			b.Write(tok)
		}
		assert.Equal(t, line, b.String())
	}
}

func TestTokenizedLine_Empty(t *testing.T) {
	assert.True(t, Tokenize(RawLine("")).Empty())
	assert.True(t, Tokenize(RawLine("    ")).Empty())
	assert.False(t, Tokenize(RawLine(":prefix")).Empty())
}
