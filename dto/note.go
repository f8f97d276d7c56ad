package dto

import (
	"time"

	"notesync/content"
	"notesync/model"
)

const excerptLength = 140

type CreateNoteRequest struct {
	Title   string `json:"title" binding:"required,max=255"`
	Slug    string `json:"slug" binding:"required,max=255,slug"`
	Content string `json:"content" binding:"required"`
}

// UpdateNoteRequest is a partial update; omitted or empty fields are kept.
type UpdateNoteRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=255"`
	Slug    *string `json:"slug" binding:"omitempty,max=255,slug"`
	Content *string `json:"content"`
}

func (r UpdateNoteRequest) ToModel() model.NoteUpdate {
	return model.NoteUpdate{Title: r.Title, Slug: r.Slug, Content: r.Content}
}

type NoteLink struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"` // Optional: GET, POST, PUT, PATCH, DELETE
}

type NoteResponse struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Slug      string              `json:"slug"`
	Content   string              `json:"content"`
	Excerpt   string              `json:"excerpt"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Links     map[string]NoteLink `json:"_links,omitempty"`
}

type NotesPageResponse struct {
	Notes     []NoteResponse      `json:"notes"`
	Total     int                 `json:"total"`
	Page      int                 `json:"page"`
	Limit     int                 `json:"limit"`
	PageCount int                 `json:"page_count"`
	Search    string              `json:"search,omitempty"`
	Links     map[string]NoteLink `json:"_links,omitempty"`
}

// NoteLinks builds the hypermedia links of a single note.
func NoteLinks(baseURL string, note *model.Note) map[string]NoteLink {
	self := baseURL + "/notes/" + note.ID
	return map[string]NoteLink{
		"self":    {Href: self, Method: "GET"},
		"by_slug": {Href: baseURL + "/notes/slug/" + note.Slug, Method: "GET"},
		"update":  {Href: self, Method: "PATCH"},
		"delete":  {Href: self, Method: "DELETE"},
	}
}

// Convert a single note to NoteResponse
func ToNoteResponse(note *model.Note, links map[string]NoteLink) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Slug:      note.Slug,
		Content:   note.Content,
		Excerpt:   content.Excerpt(content.ToDocument(note.Content), excerptLength),
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
		Links:     links,
	}
}

// Convert slice of notes to slice of NoteResponse
func ToNoteResponses(notes []*model.Note, getNoteLinks func(note *model.Note) map[string]NoteLink) []NoteResponse {
	responses := make([]NoteResponse, len(notes))
	for i, note := range notes {
		responses[i] = ToNoteResponse(note, getNoteLinks(note))
	}
	return responses
}

func NewNotesPageResponse(page *model.NotePage, links map[string]NoteLink, getNoteLinks func(note *model.Note) map[string]NoteLink) *NotesPageResponse {
	pageCount := 0
	if page.Limit > 0 {
		pageCount = (page.Total + page.Limit - 1) / page.Limit
	}
	return &NotesPageResponse{
		Notes:     ToNoteResponses(page.Notes, getNoteLinks),
		Total:     page.Total,
		Page:      page.Page,
		Limit:     page.Limit,
		PageCount: pageCount,
		Search:    page.Search,
		Links:     links,
	}
}
