package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"notesync/content"
	"notesync/model"
	"notesync/utils"
)

const (
	DefaultSaveTimeout   = 10 * time.Second
	DefaultAutoSaveDelay = 1500 * time.Millisecond
)

// ErrValidation is returned when a save is attempted without a title or
// slug. Nothing is sent.
var ErrValidation = errors.New("title and slug are required")

type State int

const (
	Idle State = iota
	Saving
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Saving:
		return "saving"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Notifier is told how each save ended.
type Notifier interface {
	Saved(note *model.Note)
	Failed(err error)
}

type CoordinatorOptions struct {
	SaveTimeout   time.Duration
	AutoSaveDelay time.Duration
}

// Coordinator serializes saves of one open note. At most one save is in
// flight; a trigger that arrives meanwhile is dropped, not queued. Manual
// and automatic saves share that guard.
type Coordinator struct {
	api      NotesAPI
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration

	mu    sync.Mutex
	state State

	auto *utils.Debouncer[Handle]
}

func NewCoordinator(api NotesAPI, notifier Notifier, logger *slog.Logger, opts CoordinatorOptions) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	if opts.AutoSaveDelay <= 0 {
		opts.AutoSaveDelay = DefaultAutoSaveDelay
	}

	c := &Coordinator{
		api:      api,
		notifier: notifier,
		logger:   logger,
		timeout:  opts.SaveTimeout,
	}
	c.auto = utils.NewDebouncer(opts.AutoSaveDelay, func(h Handle) {
		if _, err := c.Save(context.Background(), h); err != nil {
			c.logger.Debug("auto-save did not complete", "note_id", h.NoteID(), "error", err)
		}
	})
	return c
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Save sends the current title, slug and document of h. It reports false
// without touching any state when a save is already in flight.
func (c *Coordinator) Save(ctx context.Context, h Handle) (bool, error) {
	title, slug := h.Title(), h.Slug()

	c.mu.Lock()
	if c.state == Saving {
		c.mu.Unlock()
		c.logger.Debug("save already in flight, trigger dropped", "note_id", h.NoteID())
		return false, nil
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(slug) == "" {
		c.mu.Unlock()
		c.notifier.Failed(ErrValidation)
		return false, ErrValidation
	}
	c.state = Saving
	c.mu.Unlock()

	body, err := content.ToStorageString(h.Document())
	if err != nil {
		c.fail(err)
		return true, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	note, err := c.api.UpdateNote(ctx, h.NoteID(), model.NoteUpdate{
		Title:   &title,
		Slug:    &slug,
		Content: &body,
	})
	if err != nil {
		c.fail(err)
		return true, err
	}

	c.setState(Idle)
	c.notifier.Saved(note)
	return true, nil
}

// fail passes through Error so the notifier observes it, then settles on
// Idle. No retry is scheduled.
func (c *Coordinator) fail(err error) {
	c.setState(Error)
	c.notifier.Failed(err)
	c.setState(Idle)
}

// Schedule requests an auto-save once edits to h have been quiet for the
// auto-save delay.
func (c *Coordinator) Schedule(h Handle) {
	c.auto.Trigger(h)
}

// Close cancels a scheduled auto-save. An in-flight save is not interrupted.
func (c *Coordinator) Close() {
	c.auto.Stop()
}

// LogNotifier reports save outcomes to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Saved(note *model.Note) {
	n.Logger.Info("note saved", "note_id", note.ID, "slug", note.Slug)
}

func (n LogNotifier) Failed(err error) {
	n.Logger.Error("note save failed, local draft kept", "error", err)
}
