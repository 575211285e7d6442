package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medley/internal/api"
	"medley/internal/config"
	"medley/internal/library"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var listTag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				var items []*library.Item
				var err error

				if tag := strings.TrimSpace(listTag); tag != "" {
					if len(listStatuses) > 0 {
						return fmt.Errorf("--tag cannot be combined with --status")
					}
					items, err = store.ItemsByTag(cmd.Context(), tag)
				} else {
					var statuses []library.Status
					for _, value := range listStatuses {
						status, ok := library.ParseStatus(value)
						if !ok {
							return fmt.Errorf("unknown status %q", value)
						}
						statuses = append(statuses, status)
					}
					items, err = store.List(cmd.Context(), statuses...)
				}
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, api.ItemListResponse{Items: api.FromItems(items)})
				}

				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.ID),
						truncateText(displayTitle(item), 40),
						string(item.MediaType),
						string(item.Status),
						formatSize(item.SizeBytes),
						formatTimestamp(item.UpdatedAt),
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Type", "Status", "Size", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by item status (repeatable)")
	cmd.Flags().StringVarP(&listTag, "tag", "t", "", "Filter by tag")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func displayTitle(item *library.Item) string {
	if strings.TrimSpace(item.Title) != "" {
		return item.Title
	}
	return item.Path
}
