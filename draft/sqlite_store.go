package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS drafts (
	note_id    TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

var _ SlotStore = (*SQLiteStore)(nil)

// SQLiteStore keeps all slots in one SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite creates or opens the draft database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// single writer avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		schemaSQL,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Write(ctx context.Context, noteID, content string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO drafts (note_id, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		noteID, content, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context, noteID string) (Slot, error) {
	var (
		slot    = Slot{NoteID: noteID}
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT content, updated_at FROM drafts WHERE note_id = ?", noteID,
	).Scan(&slot.Content, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Slot{}, ErrNoDraft
	}
	if err != nil {
		return Slot{}, fmt.Errorf("failed to read draft: %w", err)
	}

	slot.UpdatedAt = time.Unix(0, updated)
	return slot, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT note_id, content, updated_at FROM drafts ORDER BY updated_at DESC, note_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var (
			slot    Slot
			updated int64
		)
		if err := rows.Scan(&slot.NoteID, &slot.Content, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		slot.UpdatedAt = time.Unix(0, updated)
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
