package editor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"notesync/content"
	"notesync/draft"
	"notesync/model"
)

type fakeHandle struct {
	mu    sync.Mutex
	id    string
	title string
	slug  string
	text  string
}

func newFakeHandle(id, title, slug, text string) *fakeHandle {
	return &fakeHandle{id: id, title: title, slug: slug, text: text}
}

func (h *fakeHandle) NoteID() string { return h.id }

func (h *fakeHandle) Title() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.title
}

func (h *fakeHandle) Slug() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.slug
}

func (h *fakeHandle) Document() content.Document {
	h.mu.Lock()
	defer h.mu.Unlock()
	return content.ToDocument(h.text)
}

func (h *fakeHandle) Markdown() string {
	return content.ToMarkdown(h.Document())
}

func (h *fakeHandle) setText(text string) {
	h.mu.Lock()
	h.text = text
	h.mu.Unlock()
}

// fakeAPI records updates. When block is set each call waits for a value
// on it (or for ctx) before answering.
type fakeAPI struct {
	calls   atomic.Int32
	started chan struct{}
	block   chan struct{}
	err     error

	mu      sync.Mutex
	updates []model.NoteUpdate
}

func (a *fakeAPI) GetNote(ctx context.Context, id string) (*model.Note, error) {
	return &model.Note{ID: id}, nil
}

func (a *fakeAPI) UpdateNote(ctx context.Context, id string, upd model.NoteUpdate) (*model.Note, error) {
	a.calls.Add(1)
	a.mu.Lock()
	a.updates = append(a.updates, upd)
	a.mu.Unlock()

	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if a.err != nil {
		return nil, a.err
	}
	return &model.Note{ID: id, Title: *upd.Title, Slug: *upd.Slug, Content: *upd.Content}, nil
}

func (a *fakeAPI) lastUpdate() model.NoteUpdate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updates[len(a.updates)-1]
}

// recordingNotifier captures outcomes and the coordinator state seen while
// a failure is being reported.
type recordingNotifier struct {
	mu          sync.Mutex
	coordinator *Coordinator
	saved       []*model.Note
	failed      []error
	failedState []State
}

func (n *recordingNotifier) Saved(note *model.Note) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saved = append(n.saved, note)
}

func (n *recordingNotifier) Failed(err error) {
	var state State
	if n.coordinator != nil {
		state = n.coordinator.State()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, err)
	n.failedState = append(n.failedState, state)
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.saved), len(n.failed)
}

// memorySlots is an in-memory draft.SlotStore that can be told to fail.
type memorySlots struct {
	mu     sync.Mutex
	slots  map[string]string
	writes []string
	fail   bool
}

func newMemorySlots() *memorySlots {
	return &memorySlots{slots: make(map[string]string)}
}

func (s *memorySlots) Write(ctx context.Context, noteID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("disk full")
	}
	s.slots[noteID] = content
	s.writes = append(s.writes, noteID)
	return nil
}

func (s *memorySlots) Read(ctx context.Context, noteID string) (draft.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.slots[noteID]
	if !ok {
		return draft.Slot{}, draft.ErrNoDraft
	}
	return draft.Slot{NoteID: noteID, Content: c}, nil
}

func (s *memorySlots) List(ctx context.Context) ([]draft.Slot, error) { return nil, nil }

func (s *memorySlots) Close() error { return nil }

func (s *memorySlots) writeLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.writes...)
}
