package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"notesync/metrics"
	"notesync/model"
	"notesync/repository"
	"notesync/services"
	"notesync/utils"
)

// ErrValidation is returned, wrapped with the offending field, before any
// store or cache call is made.
var ErrValidation = errors.New("validation failed")

const (
	DefaultNoteTTL = 300 * time.Second
	MaxListLimit   = 100

	// DefaultInvalidateTimeout bounds the post-commit cache eviction, which
	// runs detached from the caller's context.
	DefaultInvalidateTimeout = 5 * time.Second
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	utils.RegisterCustomValidators(v)
	return v
}

// NotesService combines each store call with the cache protocol for it.
// Reads go cache first; writes commit to the store and then evict every key
// that could still describe the old state.
type NotesService struct {
	Store             repository.NoteStore
	Cache             *services.NoteCache
	Policy            services.ListPolicy
	TTL               time.Duration
	InvalidateTimeout time.Duration
	Logger            *slog.Logger
}

func NewNotesService(store repository.NoteStore, cache *services.NoteCache, logger *slog.Logger) *NotesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotesService{
		Store:             store,
		Cache:             cache,
		Policy:            services.DefaultListPolicy,
		TTL:               DefaultNoteTTL,
		InvalidateTimeout: DefaultInvalidateTimeout,
		Logger:            logger,
	}
}

type CreateNoteInput struct {
	Title   string `validate:"required,max=255"`
	Slug    string `validate:"required,max=255,slug"`
	Content string `validate:"required"`
}

func (s *NotesService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultNoteTTL
	}
	return s.TTL
}

func (s *NotesService) policy() services.ListPolicy {
	if s.Policy.MaxPage == 0 || len(s.Policy.Limits) == 0 {
		return services.DefaultListPolicy
	}
	return s.Policy
}

func (s *NotesService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// fill stores value under key. Failures only cost a future miss.
func (s *NotesService) fill(ctx context.Context, key string, value any) {
	if err := s.Cache.Set(ctx, key, value, s.ttl()); err != nil {
		s.logger().Warn("cache fill failed", "key", key, "error", err)
	}
}

func (s *NotesService) GetNoteCached(ctx context.Context, userID, id string) (*model.Note, error) {
	key := services.NoteKey(userID, id)

	var note model.Note
	if s.Cache.Get(ctx, key, &note) {
		return &note, nil
	}

	found, err := s.Store.FetchByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, found)
	return found, nil
}

func (s *NotesService) GetNoteBySlugCached(ctx context.Context, userID, slug string) (*model.Note, error) {
	key := services.NoteSlugKey(userID, slug)

	var note model.Note
	if s.Cache.Get(ctx, key, &note) {
		return &note, nil
	}

	found, err := s.Store.FetchBySlug(ctx, userID, slug)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, found)
	return found, nil
}

// ListNotesCached serves a list page. Only queries inside the list policy
// are cached; anything else reads the store every time.
func (s *NotesService) ListNotesCached(ctx context.Context, userID string, q model.ListQuery) (*model.NotePage, error) {
	q = normalizeListQuery(q)

	policy := s.policy()
	if !policy.Cacheable(q.Page, q.Limit, q.Search) {
		return s.Store.FetchList(ctx, userID, q)
	}

	key := services.NotesListKey(userID, q.Page, q.Limit, q.Search)
	var page model.NotePage
	if s.Cache.Get(ctx, key, &page) {
		return &page, nil
	}

	found, err := s.Store.FetchList(ctx, userID, q)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, key, found)
	return found, nil
}

func normalizeListQuery(q model.ListQuery) model.ListQuery {
	if q.Page < 1 {
		q.Page = services.DefaultListPage
	}
	if q.Limit < 1 {
		q.Limit = services.DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// CreateNoteAndInvalidate inserts a note and evicts the user's list pages so
// the new note shows up on the next list read.
func (s *NotesService) CreateNoteAndInvalidate(ctx context.Context, userID string, in CreateNoteInput) (*model.Note, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}

	note, err := s.Store.Insert(ctx, userID, &model.Note{
		Title:   in.Title,
		Slug:    in.Slug,
		Content: in.Content,
	})
	if err != nil {
		return nil, err
	}

	// the slug key may still hold a note that previously used this slug
	keys := append(s.policy().Keys(userID), services.NoteSlugKey(userID, note.Slug))
	if err := s.invalidate(ctx, keys); err != nil {
		return nil, fmt.Errorf("create note %s: %w", note.ID, err)
	}

	metrics.TrackNoteOperation("create")
	s.logger().Info("note created", "user_id", userID, "note_id", note.ID)
	return note, nil
}

// ApplyUpdateAndInvalidate applies a partial update, then evicts the note
// key, the old slug key, the new slug key and every list page.
func (s *NotesService) ApplyUpdateAndInvalidate(ctx context.Context, userID, id string, upd model.NoteUpdate) (*model.Note, error) {
	if err := validateUpdate(upd); err != nil {
		return nil, err
	}

	existing, err := s.Store.FetchByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.Store.Update(ctx, userID, id, upd)
	if err != nil {
		return nil, err
	}

	keys := []string{
		services.NoteKey(userID, id),
		services.NoteSlugKey(userID, existing.Slug),
		services.NoteSlugKey(userID, updated.Slug),
	}
	keys = append(keys, s.policy().Keys(userID)...)
	if err := s.invalidate(ctx, keys); err != nil {
		return nil, fmt.Errorf("update note %s: %w", id, err)
	}

	metrics.TrackNoteOperation("update")
	s.logger().Info("note updated", "user_id", userID, "note_id", id, "slug_changed", existing.Slug != updated.Slug)
	return updated, nil
}

// ApplyDeleteAndInvalidate removes a note, then evicts its id key, its slug
// key and every list page.
func (s *NotesService) ApplyDeleteAndInvalidate(ctx context.Context, userID, id string) error {
	existing, err := s.Store.FetchByID(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.Store.Delete(ctx, userID, id); err != nil {
		return err
	}

	keys := append([]string{
		services.NoteKey(userID, id),
		services.NoteSlugKey(userID, existing.Slug),
	}, s.policy().Keys(userID)...)
	if err := s.invalidate(ctx, keys); err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}

	metrics.TrackNoteOperation("delete")
	s.logger().Info("note deleted", "user_id", userID, "note_id", id)
	return nil
}

// invalidate evicts keys after a committed write. A caller that hangs up
// must not cut the eviction short, so only the timeout bounds it.
func (s *NotesService) invalidate(ctx context.Context, keys []string) error {
	timeout := s.InvalidateTimeout
	if timeout <= 0 {
		timeout = DefaultInvalidateTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return s.Cache.DeleteMany(ctx, keys)
}

func validateUpdate(upd model.NoteUpdate) error {
	if upd.Title != nil && utf8.RuneCountInString(*upd.Title) > 255 {
		return fmt.Errorf("%w: title must be at most 255 characters", ErrValidation)
	}
	if upd.Slug != nil && *upd.Slug != "" && !utils.ValidateSlug(*upd.Slug) {
		return fmt.Errorf("%w: slug must be 1-255 characters without spaces or '/'", ErrValidation)
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}
