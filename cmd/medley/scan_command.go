package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"medley/internal/api"
	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan library roots for new, changed, and missing files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				scan := scanner.New(cfg, store, logging.NewNop())
				result, err := scan.Scan(cmd.Context())
				if err != nil {
					return fmt.Errorf("scan library: %w", err)
				}

				if asJSON {
					return writeJSON(cmd, api.FromScanResult(result))
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %d files in %s\n", result.ScannedFiles, result.Duration.Round(time.Millisecond))
				fmt.Fprintf(out, "Added:        %d\n", result.Added)
				fmt.Fprintf(out, "Changed:      %d\n", result.Changed)
				fmt.Fprintf(out, "Rediscovered: %d\n", result.Rediscovered)
				fmt.Fprintf(out, "Missing:      %d\n", result.Missing)
				fmt.Fprintf(out, "Unchanged:    %d\n", result.Unchanged)
				if result.Added > 0 || result.Changed > 0 || result.Rediscovered > 0 {
					fmt.Fprintln(out, "Run the daemon (medleyd) to probe and index new items.")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
