package hooks

import (
	"errors"
	"testing"

	"github.com/soyeahso/irccore/internal/logging"
	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	Text string
}

func testManager() *Manager[testEvent] {
	return NewManager[testEvent](logging.New(nil, "silent"))
}

func TestManager_On_And_Emit(t *testing.T) {
	m := testManager()

	var got string
	m.On("notify", "test", func(e testEvent) error {
		got = e.Text
		return nil
	})

	m.Emit("notify", testEvent{Text: "hello"})
	assert.Equal(t, "hello", got)
}

func TestManager_Emit_Order(t *testing.T) {
	m := testManager()

	var order []string
	m.On("notify", "first", func(testEvent) error {
		order = append(order, "first")
		return nil
	})
	m.On("notify", "second", func(testEvent) error {
		order = append(order, "second")
		return nil
	})

	m.Emit("notify", testEvent{})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestManager_Emit_HandlerErrorAndPanic(t *testing.T) {
	m := testManager()

	var thirdCalled bool
	m.On("notify", "failing", func(testEvent) error { return errors.New("handler broke") })
	m.On("notify", "panicking", func(testEvent) error { panic("boom") })
	m.On("notify", "third", func(testEvent) error {
		thirdCalled = true
		return nil
	})

	m.Emit("notify", testEvent{})
	assert.True(t, thirdCalled)
}

func TestManager_Emit_NoHandlers(t *testing.T) {
	m := testManager()
	m.Emit("nobody", testEvent{})
}

func TestManager_Emit_HandlerRegistersDuringEmit(t *testing.T) {
	m := testManager()

	var late int
	m.On("notify", "outer", func(testEvent) error {
		m.On("notify", "late", func(testEvent) error {
			late++
			return nil
		})
		return nil
	})

	m.Emit("notify", testEvent{})
	assert.Equal(t, 0, late)
	assert.Equal(t, 2, m.Count("notify"))
}

func TestManager_Off(t *testing.T) {
	m := testManager()

	var removed, kept int
	m.On("notify", "remove-me", func(testEvent) error {
		removed++
		return nil
	})
	m.On("notify", "keep-me", func(testEvent) error {
		kept++
		return nil
	})

	m.Emit("notify", testEvent{})
	m.Off("notify", "remove-me")
	m.Emit("notify", testEvent{})

	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, kept)
}

func TestManager_OnAll(t *testing.T) {
	m := testManager()

	var seen []string
	m.OnAll([]string{"a", "b"}, "both", func(e testEvent) error {
		seen = append(seen, e.Text)
		return nil
	})

	m.Emit("a", testEvent{Text: "1"})
	m.Emit("b", testEvent{Text: "2"})
	m.Emit("c", testEvent{Text: "3"})
	assert.Equal(t, []string{"1", "2"}, seen)
}

func TestManager_CountAndEvents(t *testing.T) {
	m := testManager()
	assert.Equal(t, 0, m.Count("x"))

	m.On("x", "h1", func(testEvent) error { return nil })
	m.On("x", "h2", func(testEvent) error { return nil })
	m.On("a", "h3", func(testEvent) error { return nil })

	assert.Equal(t, 2, m.Count("x"))
	assert.Equal(t, []string{"a", "x"}, m.Events())

	m.Off("a", "h3")
	assert.Equal(t, []string{"x"}, m.Events())
}
