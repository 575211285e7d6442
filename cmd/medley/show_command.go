package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medley/internal/api"
	"medley/internal/config"
	"medley/internal/library"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show full details for a catalog item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("item %d not found", id)
				}

				if asJSON {
					return writeJSON(cmd, api.ItemResponse{Item: api.FromItem(item)})
				}

				out := cmd.OutOrStdout()
				printField := func(label, value string) {
					if strings.TrimSpace(value) == "" {
						return
					}
					fmt.Fprintf(out, "%-16s %s\n", label+":", value)
				}

				printField("ID", fmt.Sprintf("%d", item.ID))
				printField("Title", item.Title)
				printField("Path", item.Path)
				printField("Type", string(item.MediaType))
				printField("Status", string(item.Status))
				printField("Size", formatSize(item.SizeBytes))
				printField("Hash", item.ContentHash)
				printField("Tags", strings.Join(item.Tags(), ", "))
				printField("Description", item.Description)
				printField("Embedding", item.EmbeddingModel)
				printField("Thumbnail", item.ThumbnailPath)
				printField("Added", formatTimestamp(item.CreatedAt))
				printField("Updated", formatTimestamp(item.UpdatedAt))
				if item.ProgressStage != "" {
					printField("Progress", fmt.Sprintf("%s (%.0f%%) %s", item.ProgressStage, item.ProgressPercent, item.ProgressMessage))
				}
				printField("Error", item.ErrorMessage)
				if item.NeedsReview {
					printField("Needs review", yesNo(item.NeedsReview))
					printField("Review reason", item.ReviewReason)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
