package draft

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	draftExt       = ".md"
	tempFilePrefix = "notesync-tmp-"
)

var _ SlotStore = (*FileStore)(nil)

// FileStore keeps one markdown file per note under Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create draft dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(noteID string) string {
	return filepath.Join(s.Dir, url.PathEscape(noteID)+draftExt)
}

func (s *FileStore) Write(ctx context.Context, noteID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFileAtomic(s.path(noteID), []byte(content), 0o600)
}

func (s *FileStore) Read(ctx context.Context, noteID string) (Slot, error) {
	path := s.path(noteID)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Slot{}, ErrNoDraft
	}
	if err != nil {
		return Slot{}, fmt.Errorf("failed to read draft: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Slot{}, fmt.Errorf("failed to stat draft: %w", err)
	}
	return Slot{NoteID: noteID, Content: string(data), UpdatedAt: info.ModTime()}, nil
}

// List returns every slot, most recently written first.
func (s *FileStore) List(ctx context.Context) ([]Slot, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	slots := make([]Slot, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, tempFilePrefix) || !strings.HasSuffix(name, draftExt) {
			continue
		}
		noteID, err := url.PathUnescape(strings.TrimSuffix(name, draftExt))
		if err != nil {
			continue
		}
		slot, err := s.Read(ctx, noteID)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].UpdatedAt.After(slots[j].UpdatedAt)
	})
	return slots, nil
}

func (s *FileStore) Close() error { return nil }

// writeFileAtomic writes to a temp file in the same directory and renames it
// over filename, so a crash never leaves a half-written draft.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), tempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}
