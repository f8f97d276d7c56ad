// Package editor holds the client side of note syncing: the local draft
// mirror, the save coordinator and the API client they talk to. Both take
// an explicit Handle to the note being edited instead of reaching into
// shared editor state.
package editor

import (
	"notesync/content"
)

// Handle is a live view of one open note.
type Handle interface {
	NoteID() string
	Title() string
	Slug() string
	Document() content.Document
	Markdown() string
}
