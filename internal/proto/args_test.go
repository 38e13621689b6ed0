package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cursorOf(tokens ...string) *Cursor {
	bs := make([][]byte, len(tokens))
	for i, t := range tokens {
		bs[i] = []byte(t)
	}
	return NewCursor(bs)
}

func TestCommandNameArg(t *testing.T) {
	v, err := CommandNameArg{}.Decode(cursorOf("privmsg"))
	require.NoError(t, err)
	assert.Equal(t, CommandName("PRIVMSG"), v)

	_, err = CommandNameArg{}.Decode(cursorOf("001"))
	assert.Error(t, err)

	_, err = CommandNameArg{}.Decode(cursorOf())
	assert.Error(t, err)
}

func TestNumericArg(t *testing.T) {
	v, err := NumericArg{}.Decode(cursorOf("001"))
	require.NoError(t, err)
	assert.Equal(t, Numeric("001"), v)

	for _, bad := range []string{"01", "0001", "abc", ""} {
		_, err := NumericArg{}.Decode(cursorOf(bad))
		assert.Error(t, err, bad)
	}
}

func TestTargetArg(t *testing.T) {
	v, err := TargetArg{}.Decode(cursorOf("#chan"))
	require.NoError(t, err)
	assert.Equal(t, Channel("#chan"), v)

	v, err = TargetArg{}.Decode(cursorOf("alice"))
	require.NoError(t, err)
	assert.Equal(t, Nick("alice"), v)

	v, err = TargetArg{Markers: "#&"}.Decode(cursorOf("&local"))
	require.NoError(t, err)
	assert.Equal(t, Channel("&local"), v)

	_, err = TargetArg{}.Decode(cursorOf(""))
	assert.Error(t, err)
}

func TestListArg(t *testing.T) {
	v, err := ListArg{Elem: TargetArg{}}.Decode(cursorOf("#a,bob,#c"))
	require.NoError(t, err)
	assert.Equal(t, List{Channel("#a"), Nick("bob"), Channel("#c")}, v)
	assert.Equal(t, "List<Target>", ListArg{Elem: TargetArg{}}.Name())

	_, err = ListArg{Elem: ChannelArg{}}.Decode(cursorOf("#a,,#b"))
	assert.Error(t, err)
}

func TestOptionalArg(t *testing.T) {
	opt := OptionalArg{Elem: KeyArg{}}

	v, err := opt.Decode(cursorOf())
	require.NoError(t, err)
	assert.Equal(t, Optional{}, v)

	v, err = opt.Decode(cursorOf("secret"))
	require.NoError(t, err)
	assert.Equal(t, Optional{Present: true, Value: Key("secret")}, v)
}

func TestConstArg(t *testing.T) {
	c := ConstArg{Elem: CommandNameArg{}, Want: CommandName("PING")}

	v, err := c.Decode(cursorOf("ping"))
	require.NoError(t, err)
	assert.Equal(t, CommandName("PING"), v)

	_, err = c.Decode(cursorOf("PONG"))
	assert.Error(t, err)
}

func TestRestArg(t *testing.T) {
	c := cursorOf("a", "b", "c")
	v, err := RestArg{Elem: UnrecognizedArg{}}.Decode(c)
	require.NoError(t, err)
	assert.Equal(t, List{Unrecognized("a"), Unrecognized("b"), Unrecognized("c")}, v)
	assert.True(t, c.Exhausted())

	v, err = RestArg{Elem: UnrecognizedArg{}}.Decode(cursorOf())
	require.NoError(t, err)
	assert.Equal(t, List{}, v)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Channel("#a"), Channel("#a")))
	assert.False(t, Equal(Channel("#a"), Nick("#a")))
	assert.True(t, Equal(List{Key("a"), Key("b")}, List{Key("a"), Key("b")}))
	assert.False(t, Equal(List{Key("a")}, List{Key("a"), Key("b")}))
	assert.False(t, Equal(List{Key("a")}, Key("a")))
	assert.True(t, Equal(Optional{}, Optional{}))
	assert.True(t, Equal(Optional{Present: true, Value: List{}}, Optional{Present: true, Value: List{}}))
	assert.False(t, Equal(Optional{}, Optional{Present: true, Value: Key("k")}))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Key("")))
}
