package editor

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/draft"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMirrorWritesOnceAfterQuiet(t *testing.T) {
	slots := newMemorySlots()
	m := NewMirror(slots, 100*time.Millisecond, quietLogger())
	defer m.Close()

	h := newFakeHandle("n1", "T", "t", "")
	for _, text := range []string{"a", "ab", "abc"} {
		h.setText(text)
		m.OnChange(h)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Empty(t, slots.writeLog(), "nothing is written while edits keep coming")

	require.Eventually(t, func() bool { return len(slots.writeLog()) == 1 }, time.Second, 5*time.Millisecond)
	got, ok := m.Recover(context.Background(), "n1")
	require.True(t, ok)
	assert.Equal(t, "abc", got.Content)
}

func TestMirrorFlushAndClose(t *testing.T) {
	slots := newMemorySlots()
	m := NewMirror(slots, time.Hour, quietLogger())

	h := newFakeHandle("n1", "T", "t", "flushed")
	m.OnChange(h)
	m.Flush()
	assert.Equal(t, []string{"n1"}, slots.writeLog())

	h.setText("dropped")
	m.OnChange(h)
	m.Close()
	m.Flush()
	assert.Equal(t, []string{"n1"}, slots.writeLog())
}

func TestMirrorSwitchingNotesKeepsPendingWrite(t *testing.T) {
	slots := newMemorySlots()
	m := NewMirror(slots, time.Hour, quietLogger())
	defer m.Close()

	m.OnChange(newFakeHandle("n1", "T", "t", "one"))
	m.OnChange(newFakeHandle("n2", "T", "t", "two"))
	assert.Equal(t, []string{"n1"}, slots.writeLog())

	m.Flush()
	assert.Equal(t, []string{"n1", "n2"}, slots.writeLog())
}

func TestMirrorSwallowsStoreErrors(t *testing.T) {
	slots := newMemorySlots()
	slots.fail = true
	m := NewMirror(slots, time.Hour, quietLogger())
	defer m.Close()

	h := newFakeHandle("n1", "T", "t", "text")
	m.OnChange(h)
	assert.NotPanics(t, m.Flush)

	_, ok := m.Recover(context.Background(), "n1")
	assert.False(t, ok)
	// editor state is untouched
	assert.Equal(t, "text", h.Markdown())
}

func TestMirrorRecoversFromFileStore(t *testing.T) {
	store, err := draft.NewFileStore(filepath.Join(t.TempDir(), "drafts"))
	require.NoError(t, err)

	m := NewMirror(store, time.Hour, quietLogger())
	defer m.Close()

	_, ok := m.Recover(context.Background(), "n1")
	assert.False(t, ok)

	m.OnChange(newFakeHandle("n1", "T", "t", "line one\nline two"))
	m.Flush()

	got, ok := m.Recover(context.Background(), "n1")
	require.True(t, ok)
	assert.Equal(t, "line one\n\nline two", got.Content)
	assert.False(t, got.UpdatedAt.IsZero())
}
