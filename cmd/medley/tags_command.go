package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"medley/internal/api"
	"medley/internal/config"
	"medley/internal/library"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with item counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				counts, err := store.TagCounts(cmd.Context())
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, api.TagCountsResponse{Tags: counts})
				}

				if len(counts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tags yet")
					return nil
				}

				type tagCount struct {
					tag   string
					count int
				}
				sorted := make([]tagCount, 0, len(counts))
				for tag, count := range counts {
					sorted = append(sorted, tagCount{tag, count})
				}
				sort.Slice(sorted, func(i, j int) bool {
					if sorted[i].count == sorted[j].count {
						return sorted[i].tag < sorted[j].tag
					}
					return sorted[i].count > sorted[j].count
				})

				rows := make([][]string, 0, len(sorted))
				for _, entry := range sorted {
					rows = append(rows, []string{entry.tag, fmt.Sprintf("%d", entry.count)})
				}
				table := renderTable([]string{"Tag", "Items"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
