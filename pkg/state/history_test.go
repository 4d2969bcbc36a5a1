package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryBackForward(t *testing.T) {
	h := NewHistory(10)
	h.Push("a")
	h.Push("b")
	h.Push("c")

	prev, ok := h.Back()
	assert.True(t, ok)
	assert.Equal(t, "b", prev)

	next, ok := h.Forward()
	assert.True(t, ok)
	assert.Equal(t, "c", next)

	_, ok = h.Forward()
	assert.False(t, ok)
}

func TestHistoryPushTruncatesForward(t *testing.T) {
	h := NewHistory(10)
	h.Push("a")
	h.Push("b")
	h.Push("c")
	h.Back()
	h.Back()
	h.Push("d")

	entries, pos := h.Entries()
	assert.Equal(t, []string{"a", "d"}, entries)
	assert.Equal(t, 1, pos)
	_, ok := h.Forward()
	assert.False(t, ok)
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(3)
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		h.Push(v)
	}
	entries, pos := h.Entries()
	assert.Equal(t, []string{"c", "d", "e"}, entries)
	assert.Equal(t, 2, pos)
	assert.Equal(t, "e", h.Current())
}

func TestHistoryReplaceKeepsForward(t *testing.T) {
	h := NewHistory(10)
	h.Push("a")
	h.Push("b")
	h.Push("c")
	h.Back()

	h.Replace("B")
	entries, pos := h.Entries()
	assert.Equal(t, []string{"a", "B", "c"}, entries)
	assert.Equal(t, 1, pos)

	empty := NewHistory(10)
	empty.Replace("x")
	assert.Equal(t, "x", empty.Current())
}
