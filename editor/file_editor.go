package editor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"notesync/content"
	"notesync/model"
	"notesync/utils"
)

var _ Handle = (*FileEditor)(nil)

// FileEditor exposes a note edited as a plain file on disk, so any text
// editor can be the editing surface.
type FileEditor struct {
	path   string
	noteID string
	// base is the stored document; blocks the user leaves alone are taken
	// from it unchanged.
	base content.Document

	mu    sync.RWMutex
	title string
	slug  string
	text  string
}

// NewFileEditor writes initial markdown to path and returns a handle over it.
func NewFileEditor(path string, note *model.Note, initial string) (*FileEditor, error) {
	if err := os.WriteFile(path, []byte(initial), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	slug := note.Slug
	if slug == "" {
		slug = utils.Slugify(note.Title)
	}
	return &FileEditor{
		path:   path,
		noteID: note.ID,
		base:   content.ToDocument(note.Content),
		title:  note.Title,
		slug:   slug,
		text:   initial,
	}, nil
}

func (f *FileEditor) Path() string   { return f.path }
func (f *FileEditor) NoteID() string { return f.noteID }

func (f *FileEditor) Title() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.title
}

func (f *FileEditor) Slug() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.slug
}

// SetTitle renames the note. An empty slug is derived from the title.
func (f *FileEditor) SetTitle(title, slug string) {
	if slug == "" {
		slug = utils.Slugify(title)
	}
	f.mu.Lock()
	f.title, f.slug = title, slug
	f.mu.Unlock()
}

// Document parses the file as markdown.
func (f *FileEditor) Document() content.Document {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return content.Reconcile(f.base, content.FromMarkdown(f.text))
}

func (f *FileEditor) Markdown() string {
	return content.ToMarkdown(f.Document())
}

// Reload re-reads the file and reports whether its text changed.
func (f *FileEditor) Reload() (bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", f.path, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if string(data) == f.text {
		return false, nil
	}
	f.text = string(data)
	return true, nil
}

// Watch calls onChange after every change to the file until ctx is done.
// The parent directory is watched because many editors save by renaming a
// new file over the old one.
func (f *FileEditor) Watch(ctx context.Context, logger *slog.Logger, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(f.path), err)
	}
	target := filepath.Clean(f.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			changed, err := f.Reload()
			if err != nil {
				logger.Debug("reload after fs event failed", "path", f.path, "error", err)
				continue
			}
			if changed {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("fsnotify error", "error", err)
		}
	}
}
