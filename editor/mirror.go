package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"notesync/draft"
	"notesync/metrics"
	"notesync/utils"
)

const (
	DefaultMirrorDelay = 500 * time.Millisecond
	mirrorWriteTimeout = 5 * time.Second
)

// Mirror writes the markdown of the open note to its local draft slot once
// edits have been quiet for the configured delay. Write failures are logged
// and otherwise ignored.
type Mirror struct {
	store  draft.SlotStore
	logger *slog.Logger

	mu        sync.Mutex
	pendingID string
	debouncer *utils.Debouncer[Handle]
}

func NewMirror(store draft.SlotStore, delay time.Duration, logger *slog.Logger) *Mirror {
	if delay <= 0 {
		delay = DefaultMirrorDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mirror{store: store, logger: logger}
	m.debouncer = utils.NewDebouncer(delay, m.write)
	return m
}

// OnChange restarts the quiet timer for h. A pending write for a different
// note is flushed first so switching notes never drops it.
func (m *Mirror) OnChange(h Handle) {
	m.mu.Lock()
	switchNote := m.pendingID != "" && m.pendingID != h.NoteID()
	m.mu.Unlock()
	if switchNote {
		m.debouncer.Flush()
	}

	m.mu.Lock()
	m.pendingID = h.NoteID()
	m.mu.Unlock()
	m.debouncer.Trigger(h)
}

func (m *Mirror) write(h Handle) {
	m.mu.Lock()
	if m.pendingID == h.NoteID() {
		m.pendingID = ""
	}
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
	defer cancel()

	if err := m.store.Write(ctx, h.NoteID(), h.Markdown()); err != nil {
		metrics.DraftWritesTotal.WithLabelValues("error").Inc()
		m.logger.Warn("local draft write failed", "note_id", h.NoteID(), "error", err)
		return
	}
	metrics.DraftWritesTotal.WithLabelValues("ok").Inc()
	m.logger.Debug("local draft written", "note_id", h.NoteID())
}

// Recover returns the last mirrored slot of noteID, if any.
func (m *Mirror) Recover(ctx context.Context, noteID string) (draft.Slot, bool) {
	slot, err := m.store.Read(ctx, noteID)
	if errors.Is(err, draft.ErrNoDraft) {
		return draft.Slot{}, false
	}
	if err != nil {
		m.logger.Warn("local draft read failed", "note_id", noteID, "error", err)
		return draft.Slot{}, false
	}
	return slot, true
}

// Flush writes a pending change now.
func (m *Mirror) Flush() {
	m.debouncer.Flush()
}

// Close drops any pending write. The slot store stays open.
func (m *Mirror) Close() {
	m.debouncer.Stop()
}
