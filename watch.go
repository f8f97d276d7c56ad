package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"notesync/content"
	"notesync/draft"
	"notesync/editor"
	"notesync/model"
)

var (
	watchFile     string
	watchToken    string
	watchUseDraft bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <note-id>",
	Short: "Edit a note as a local file and sync it to the server",
	Long: `watch downloads a note into a markdown file and follows it with fsnotify.
Every change is mirrored to the local draft store and auto-saved once edits
settle. Type :w and Enter to save now, :q to quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := watchToken
		if token == "" {
			token = cfg.Client.Token
		}
		api := editor.NewHTTPClient(cfg.Client.BaseURL, token)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		note, err := api.GetNote(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load note: %w", err)
		}

		slots, err := openSlotStore()
		if err != nil {
			return err
		}
		defer slots.Close()

		mirror := editor.NewMirror(slots, cfg.Client.MirrorDelay, logger)
		defer mirror.Close()

		out := cmd.OutOrStdout()
		server := content.ToMarkdown(content.ToDocument(note.Content))
		slot, found := mirror.Recover(ctx, note.ID)
		status := editor.CompareDraft(slot, found, note, server)
		initial := editor.OpeningText(status, slot, server, watchUseDraft)
		reportDraft(out, note.ID, status, slot, initial != server)

		path := watchFile
		if path == "" {
			path = note.Slug + ".md"
		}
		path, err = filepath.Abs(path)
		if err != nil {
			return err
		}

		fe, err := editor.NewFileEditor(path, note, initial)
		if err != nil {
			return err
		}

		coord := editor.NewCoordinator(api, printNotifier{out: out}, logger, editor.CoordinatorOptions{
			SaveTimeout:   cfg.Client.SaveTimeout,
			AutoSaveDelay: cfg.Client.AutoSaveDelay,
		})
		defer coord.Close()

		fmt.Fprintf(out, "Editing %q in %s\n", note.Title, path)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return fe.Watch(gctx, logger, func() {
				mirror.OnChange(fe)
				coord.Schedule(fe)
			})
		})
		g.Go(func() error {
			return readCommands(gctx, cmd.InOrStdin(), func(command string) bool {
				switch command {
				case ":w":
					if started, _ := coord.Save(gctx, fe); !started {
						fmt.Fprintln(out, "Save already in progress")
					}
				case ":q":
					return false
				default:
					fmt.Fprintf(out, "Unknown command %q (use :w or :q)\n", command)
				}
				return true
			})
		})

		err = g.Wait()
		mirror.Flush()
		if errors.Is(err, errQuit) {
			return nil
		}
		return err
	},
}

var errQuit = errors.New("quit")

func reportDraft(out io.Writer, noteID string, status editor.DraftStatus, slot draft.Slot, opened bool) {
	switch {
	case opened:
		fmt.Fprintf(out, "Opening local draft from %s instead of the server copy.\n", slot.UpdatedAt.Format(time.RFC3339))
	case status == editor.DraftNewer:
		fmt.Fprintf(out, "A local draft from %s is newer than the server copy. See it with `notesync draft show %s`, or rerun with --use-draft to open it.\n",
			slot.UpdatedAt.Format(time.RFC3339), noteID)
	case status == editor.DraftStale:
		fmt.Fprintln(out, "Ignoring a local draft older than the server copy.")
	}
}

// readCommands feeds trimmed stdin lines to handle until it returns false
// or ctx is done.
func readCommands(ctx context.Context, in io.Reader, handle func(string) bool) error {
	lines := make(chan string)
	go func(lines chan<- string) {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}(lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// no more input; keep syncing until interrupted
				lines = nil
				continue
			}
			if line == "" {
				continue
			}
			if !handle(line) {
				return errQuit
			}
		}
	}
}

type printNotifier struct {
	out io.Writer
}

func (p printNotifier) Saved(note *model.Note) {
	fmt.Fprintf(p.out, "Saved %s at %s\n", note.Slug, note.UpdatedAt.Format("15:04:05"))
}

func (p printNotifier) Failed(err error) {
	fmt.Fprintf(p.out, "Save failed, local draft kept: %v\n", err)
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchFile, "file", "f", "", "File to edit (defaults to <slug>.md)")
	watchCmd.Flags().StringVar(&watchToken, "token", "", "Bearer token (defaults to client.token)")
	watchCmd.Flags().BoolVar(&watchUseDraft, "use-draft", false, "Open the local draft when it is newer than the server copy")
}
