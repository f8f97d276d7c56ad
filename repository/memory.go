package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"notesync/model"

	"github.com/google/uuid"
)

var _ NoteStore = (*MemoryRepo)(nil)

// MemoryRepo is a map-backed NoteStore for local development and tests.
// It enforces the same (user_id, slug) uniqueness as the Mongo index.
type MemoryRepo struct {
	mu    sync.RWMutex
	notes map[string]model.Note
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		notes: make(map[string]model.Note),
		now:   time.Now,
	}
}

func (r *MemoryRepo) FetchByID(ctx context.Context, userID, id string) (*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, ok := r.notes[id]
	if !ok || note.UserID != userID {
		return nil, ErrNoteNotFound
	}
	return &note, nil
}

func (r *MemoryRepo) FetchBySlug(ctx context.Context, userID, slug string) (*model.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, note := range r.notes {
		if note.UserID == userID && note.Slug == slug {
			return &note, nil
		}
	}
	return nil, ErrNoteNotFound
}

func (r *MemoryRepo) FetchList(ctx context.Context, userID string, q model.ListQuery) (*model.NotePage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(q.Search)
	matched := make([]*model.Note, 0)
	for _, note := range r.notes {
		if note.UserID != userID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(note.Title), search) &&
			!strings.Contains(strings.ToLower(note.Content), search) {
			continue
		}
		n := note
		matched = append(matched, &n)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := &model.NotePage{
		Notes:  []*model.Note{},
		Page:   q.Page,
		Limit:  q.Limit,
		Search: q.Search,
		Total:  len(matched),
	}

	start := (q.Page - 1) * q.Limit
	if start >= len(matched) {
		return page, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	page.Notes = matched[start:end]
	return page, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, userID string, note *model.Note) (*model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slugTaken(userID, note.Slug, "") {
		return nil, ErrSlugTaken
	}

	created := *note
	if created.ID == "" {
		created.ID = uuid.New().String()
	}
	created.UserID = userID
	now := r.now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.notes[created.ID] = created
	return &created, nil
}

func (r *MemoryRepo) Update(ctx context.Context, userID, id string, upd model.NoteUpdate) (*model.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, ok := r.notes[id]
	if !ok || note.UserID != userID {
		return nil, ErrNoteNotFound
	}

	upd.Apply(&note)
	if r.slugTaken(userID, note.Slug, id) {
		return nil, ErrSlugTaken
	}
	note.UpdatedAt = r.now().UTC()

	r.notes[id] = note
	return &note, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, ok := r.notes[id]
	if !ok || note.UserID != userID {
		return ErrNoteNotFound
	}

	delete(r.notes, id)
	return nil
}

// slugTaken must be called with the lock held.
func (r *MemoryRepo) slugTaken(userID, slug, exceptID string) bool {
	for id, note := range r.notes {
		if id != exceptID && note.UserID == userID && note.Slug == slug {
			return true
		}
	}
	return false
}
