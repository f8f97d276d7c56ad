// Package draft keeps the local, advisory copy of each note an editor is
// working on. One slot per note id, overwritten in place, never expired.
package draft

import (
	"context"
	"errors"
	"time"
)

var ErrNoDraft = errors.New("no local draft for note")

type Slot struct {
	NoteID    string    `json:"note_id" yaml:"note_id"`
	Content   string    `json:"content" yaml:"content"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// SlotStore persists draft slots. Implementations must be safe for
// concurrent use.
type SlotStore interface {
	Write(ctx context.Context, noteID, content string) error
	// Read returns ErrNoDraft when the slot was never written.
	Read(ctx context.Context, noteID string) (Slot, error)
	List(ctx context.Context) ([]Slot, error)
	Close() error
}
