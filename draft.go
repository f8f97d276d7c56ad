package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"notesync/content"
	"notesync/draft"
)

var draftOutput string

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect local drafts",
}

var draftShowCmd = &cobra.Command{
	Use:   "show [note-id]",
	Short: "Print a local draft, or list all of them",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		switch draftOutput {
		case "text", "json", "yaml":
			return nil
		}
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", draftOutput)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSlotStore()
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		if len(args) == 1 {
			slot, err := store.Read(ctx, args[0])
			if errors.Is(err, draft.ErrNoDraft) {
				return fmt.Errorf("no local draft for note %s", args[0])
			}
			if err != nil {
				return err
			}
			if draftOutput != "text" {
				return encodeOutput(out, draftOutput, slot)
			}
			fmt.Fprint(out, slot.Content)
			return nil
		}

		slots, err := store.List(ctx)
		if err != nil {
			return err
		}
		if draftOutput != "text" {
			return encodeOutput(out, draftOutput, slots)
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NOTE\tUPDATED\tPREVIEW")
		for _, s := range slots {
			preview := content.Excerpt(content.ToDocument(s.Content), 60)
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.NoteID, s.UpdatedAt.Format(time.RFC3339), preview)
		}
		return w.Flush()
	},
}

// openSlotStore picks SQLite when client.draft_db is set, files otherwise.
func openSlotStore() (draft.SlotStore, error) {
	if cfg.Client.DraftDB != "" {
		return draft.OpenSQLite(cfg.Client.DraftDB)
	}
	return draft.NewFileStore(cfg.Client.DraftDir)
}

func encodeOutput(out io.Writer, format string, v any) error {
	if format == "yaml" {
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(v)
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.AddCommand(draftShowCmd)
	draftShowCmd.Flags().StringVarP(&draftOutput, "output", "o", "text", "Output format: text, json or yaml")
}
