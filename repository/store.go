package repository

import (
	"context"
	"errors"

	"notesync/model"
)

var (
	// ErrNoteNotFound is returned when no note matches the id or slug for the user.
	ErrNoteNotFound = errors.New("note not found")
	// ErrSlugTaken is returned when another note of the same user already owns the slug.
	ErrSlugTaken = errors.New("slug already in use")
)

// NoteStore is the authoritative note storage. Every call is scoped to a
// resolved user id; a note owned by another user is reported as not found.
type NoteStore interface {
	FetchByID(ctx context.Context, userID, id string) (*model.Note, error)
	FetchBySlug(ctx context.Context, userID, slug string) (*model.Note, error)
	FetchList(ctx context.Context, userID string, q model.ListQuery) (*model.NotePage, error)
	Insert(ctx context.Context, userID string, note *model.Note) (*model.Note, error)
	Update(ctx context.Context, userID, id string, upd model.NoteUpdate) (*model.Note, error)
	Delete(ctx context.Context, userID, id string) error
}
