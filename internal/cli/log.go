package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/lrstanley/girc"
	"github.com/soyeahso/irccore/internal/config"
	"github.com/soyeahso/irccore/internal/store"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var (
		limit  int
		search string
		remove bool
	)

	cmd := &cobra.Command{
		Use:   "log [label]",
		Short: "Show archived transcripts",
		Long: "Without a label, lists archived conversations. A label is a context label such as\n" +
			"\"#go\", \"Q:nick\" or \"(Server)\", optionally prefixed with \"host/\".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			path := paths.TranscriptPath(&cfg)
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no transcript archive at %s", path)
			}

			db, err := store.Open(path, log)
			if err != nil {
				return err
			}
			defer db.Close()
			tr := store.NewTranscript(db)
			out := cmd.OutOrStdout()

			switch {
			case search != "":
				entries, err := tr.Search(search, limit)
				if err != nil {
					return err
				}
				printEntries(out, entries, true)
			case remove:
				if len(args) == 0 {
					return fmt.Errorf("--delete needs a host-qualified label")
				}
				host, label, ok := store.SplitLabel(args[0])
				if !ok {
					return fmt.Errorf("--delete needs a host-qualified label, got %q", args[0])
				}
				if err := tr.Delete(host, label); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %s\n", args[0])
			case len(args) == 1:
				entries, err := tr.Recent(args[0], limit)
				if err != nil {
					return err
				}
				printEntries(out, entries, false)
			default:
				convs, err := tr.Conversations()
				if err != nil {
					return err
				}
				if len(convs) == 0 {
					fmt.Fprintln(out, "No conversations archived.")
					return nil
				}
				for _, c := range convs {
					fmt.Fprintf(out, "%-30s %-20s %6d lines  %s\n",
						c.Host, c.Label, c.Lines, c.UpdatedAt.Local().Format("2006-01-02 15:04"))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of lines (default 50)")
	cmd.Flags().StringVar(&search, "search", "", "full-text search across all conversations")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the conversation named by a host/label argument")
	return cmd
}

func printEntries(w io.Writer, entries []store.Entry, withLabel bool) {
	for _, e := range entries {
		ts := e.Timestamp.Local().Format("15:04:05")
		mark := kindMark(e.Kind)
		if withLabel {
			fmt.Fprintf(w, "%s %s/%s %s %s\n", ts, e.Host, e.Label, mark, girc.StripRaw(e.Text))
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", ts, mark, girc.StripRaw(e.Text))
	}
}

func kindMark(kind string) string {
	switch kind {
	case store.KindSent:
		return "<"
	case store.KindReceived:
		return ">"
	default:
		return "*"
	}
}
