package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/soyeahso/irccore/internal/config"
	"github.com/soyeahso/irccore/internal/store"
	"github.com/soyeahso/irccore/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show irccore status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "irccore %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:  error loading: %v\n", err)
				return nil
			}
			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config:  not found (using defaults)")
			}

			srv := cfg.Server
			host := srv.Host
			if host == "" {
				host = "(prompt)"
			}
			fmt.Fprintf(out, "Server:  host=%s port=%d transport=%s nick=%s user=%s\n",
				host, srv.Port, srv.Transport, orDash(srv.Nick), orDash(srv.User))
			if srv.Transport == "websocket" {
				fmt.Fprintf(out, "         path=%s\n", srv.Path)
			}
			if len(srv.AutoJoin) > 0 {
				fmt.Fprintf(out, "Join:    %s\n", strings.Join(srv.AutoJoin, ", "))
			}
			fmt.Fprintf(out, "Engine:  verbosity=%d\n", cfg.Engine.Verbosity)

			if cfg.Store.Enabled {
				printStoreStatus(cmd, paths.TranscriptPath(&cfg))
			} else {
				fmt.Fprintln(out, "Store:   disabled")
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}

			return nil
		},
	}

	return cmd
}

func printStoreStatus(cmd *cobra.Command, path string) {
	out := cmd.OutOrStdout()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "Store:   %s (not created yet)\n", path)
		return
	}
	db, err := store.Open(path, log)
	if err != nil {
		fmt.Fprintf(out, "Store:   %s (error: %v)\n", path, err)
		return
	}
	defer db.Close()

	convs, err := store.NewTranscript(db).Conversations()
	if err != nil {
		fmt.Fprintf(out, "Store:   %s (error: %v)\n", path, err)
		return
	}
	lines := 0
	for _, c := range convs {
		lines += c.Lines
	}
	schema, _ := db.SchemaVersion()
	fmt.Fprintf(out, "Store:   %s schema=v%d conversations=%d lines=%d\n", path, schema, len(convs), lines)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
