package editor

import (
	"notesync/draft"
	"notesync/model"
)

// DraftStatus describes a local draft relative to the server copy.
type DraftStatus int

const (
	NoDraft DraftStatus = iota
	// DraftInSync holds the same markdown as the server copy.
	DraftInSync
	// DraftStale was written before the server's last save.
	DraftStale
	// DraftNewer was written after the server's last save and differs from it.
	DraftNewer
)

func (s DraftStatus) String() string {
	switch s {
	case NoDraft:
		return "none"
	case DraftInSync:
		return "in-sync"
	case DraftStale:
		return "stale"
	case DraftNewer:
		return "newer"
	default:
		return "unknown"
	}
}

// CompareDraft classifies slot against note, whose markdown rendering is
// serverMarkdown.
func CompareDraft(slot draft.Slot, found bool, note *model.Note, serverMarkdown string) DraftStatus {
	switch {
	case !found:
		return NoDraft
	case slot.Content == serverMarkdown:
		return DraftInSync
	case slot.UpdatedAt.After(note.UpdatedAt):
		return DraftNewer
	default:
		return DraftStale
	}
}

// OpeningText picks what the editor starts from. The server copy wins
// unless the caller asked for the draft and the draft is newer.
func OpeningText(status DraftStatus, slot draft.Slot, serverMarkdown string, useDraft bool) string {
	if useDraft && status == DraftNewer {
		return slot.Content
	}
	return serverMarkdown
}
