package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"medley/internal/config"
	"medley/internal/deps"
	"medley/internal/library"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog health and external dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}

				statuses := deps.CheckBinaries(deps.Requirements(cfg))
				statuses = append(statuses, deps.CheckOllama(cmd.Context(), cfg))

				if asJSON {
					return writeJSON(cmd, statusPayload{
						DatabasePath: store.Path(),
						Health:       health,
						Counts:       statusCountMap(stats),
						Dependencies: statuses,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Catalog", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, store.Path(), colorize))
				fmt.Fprintln(out, renderStatusLine("Total items", statusInfo, fmt.Sprintf("%d", health.Total), colorize))
				fmt.Fprintln(out, renderStatusLine("Indexed", statusOK, fmt.Sprintf("%d", health.Indexed), colorize))
				fmt.Fprintln(out, renderStatusLine("Pending", statusInfo, fmt.Sprintf("%d", health.Pending), colorize))
				fmt.Fprintln(out, renderStatusLine("Processing", statusInfo, fmt.Sprintf("%d", health.Processing), colorize))
				failedKind := statusOK
				if health.Failed > 0 {
					failedKind = statusError
				}
				fmt.Fprintln(out, renderStatusLine("Failed", failedKind, fmt.Sprintf("%d", health.Failed), colorize))
				missingKind := statusOK
				if health.Missing > 0 {
					missingKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Missing", missingKind, fmt.Sprintf("%d", health.Missing), colorize))
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, dep := range statuses {
					kind := statusOK
					message := dep.Command
					if !dep.Available {
						kind = statusError
						if dep.Optional {
							kind = statusWarn
						}
						message = dep.Detail
					}
					fmt.Fprintln(out, renderStatusLine(dep.Name, kind, message, colorize))
				}
				if missing := deps.MissingRequired(statuses); len(missing) > 0 {
					fmt.Fprintln(out)
					fmt.Fprintf(out, "Required dependencies missing: %v\n", missing)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

type statusPayload struct {
	DatabasePath string                `json:"databasePath"`
	Health       library.HealthSummary `json:"health"`
	Counts       map[string]int        `json:"counts"`
	Dependencies []deps.Status         `json:"dependencies"`
}

func statusCountMap(stats map[library.Status]int) map[string]int {
	counts := make(map[string]int, len(stats))
	for status, count := range stats {
		counts[string(status)] = count
	}
	return counts
}
