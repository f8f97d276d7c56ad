package model

import (
	"time"
)

type Note struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Title     string    `bson:"title" json:"title"`
	Slug      string    `bson:"slug" json:"slug"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NoteUpdate carries a partial update. A nil or empty field leaves the
// stored value as it is.
type NoteUpdate struct {
	Title   *string `json:"title,omitempty"`
	Slug    *string `json:"slug,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Apply copies every provided, non-empty field onto note.
func (u NoteUpdate) Apply(note *Note) {
	if u.Title != nil && *u.Title != "" {
		note.Title = *u.Title
	}
	if u.Slug != nil && *u.Slug != "" {
		note.Slug = *u.Slug
	}
	if u.Content != nil && *u.Content != "" {
		note.Content = *u.Content
	}
}

// NotePage is one page of a user's note list, newest first.
type NotePage struct {
	Notes  []*Note `json:"notes"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
	Search string  `json:"search,omitempty"`
	Total  int     `json:"total"`
}

type ListQuery struct {
	Page   int
	Limit  int
	Search string
}
