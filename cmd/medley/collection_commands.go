package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"medley/internal/api"
	"medley/internal/config"
	"medley/internal/library"
)

func newCollectionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Manage named collections of catalog items",
	}
	cmd.AddCommand(
		newCollectionListCommand(ctx),
		newCollectionCreateCommand(ctx),
		newCollectionShowCommand(ctx),
		newCollectionDeleteCommand(ctx),
		newCollectionAddCommand(ctx),
		newCollectionRemoveCommand(ctx),
		newCollectionPruneCommand(ctx),
	)
	return cmd
}

func newCollectionListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				collections, err := store.ListCollections(cmd.Context())
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, api.CollectionListResponse{Collections: api.FromCollections(collections)})
				}

				if len(collections) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No collections yet")
					return nil
				}

				rows := make([][]string, 0, len(collections))
				for _, collection := range collections {
					rows = append(rows, []string{
						fmt.Sprintf("%d", collection.ID),
						collection.Name,
						fmt.Sprintf("%d", collection.ItemCount),
						formatTimestamp(collection.UpdatedAt),
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Items", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newCollectionCreateCommand(ctx *commandContext) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				collection, err := store.CreateCollection(cmd.Context(), args[0], description)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created collection %q (id %d)\n", collection.Name, collection.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Collection description")
	return cmd
}

func newCollectionShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <name-or-id>",
		Short: "Show a collection and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				collection, err := resolveCollection(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				items, err := store.CollectionItems(cmd.Context(), collection.ID)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, api.CollectionResponse{
						Collection: api.FromCollection(collection),
						Items:      api.FromItems(items),
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%d items)\n", collection.Name, len(items))
				if strings.TrimSpace(collection.Description) != "" {
					fmt.Fprintln(out, collection.Description)
				}
				if len(items) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.ID),
						truncateText(displayTitle(item), 40),
						string(item.MediaType),
						string(item.Status),
					})
				}
				table := renderTable(
					[]string{"ID", "Title", "Type", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newCollectionDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name-or-id>",
		Short: "Delete a collection (catalog items are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				collection, err := resolveCollection(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if _, err := store.DeleteCollection(cmd.Context(), collection.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted collection %q\n", collection.Name)
				return nil
			})
		},
	}
}

func newCollectionAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name-or-id> <itemID...>",
		Short: "Add catalog items to a collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				collection, err := resolveCollection(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, arg := range args[1:] {
					id, err := parseItemID(arg)
					if err != nil {
						return err
					}
					item, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if item == nil {
						fmt.Fprintf(out, "Item %d not found\n", id)
						continue
					}
					added, err := store.AddToCollection(cmd.Context(), collection.ID, id)
					if err != nil {
						return err
					}
					if added {
						fmt.Fprintf(out, "Added item %d to %q\n", id, collection.Name)
					} else {
						fmt.Fprintf(out, "Item %d is already in %q\n", id, collection.Name)
					}
				}
				return nil
			})
		},
	}
}

func newCollectionRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name-or-id> <itemID...>",
		Short: "Remove catalog items from a collection",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				collection, err := resolveCollection(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, arg := range args[1:] {
					id, err := parseItemID(arg)
					if err != nil {
						return err
					}
					removed, err := store.RemoveFromCollection(cmd.Context(), collection.ID, id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed item %d from %q\n", id, collection.Name)
					} else {
						fmt.Fprintf(out, "Item %d is not in %q\n", id, collection.Name)
					}
				}
				return nil
			})
		},
	}
}

func newCollectionPruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete all empty collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				removed, err := store.DeleteEmptyCollections(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d empty collections\n", removed)
				return nil
			})
		},
	}
}

// resolveCollection accepts either a collection ID or its exact name.
func resolveCollection(ctx context.Context, store *library.Store, ref string) (*library.Collection, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil && id > 0 {
		collection, err := store.GetCollection(ctx, id)
		if err != nil {
			return nil, err
		}
		if collection != nil {
			return collection, nil
		}
	}
	collection, err := store.GetCollectionByName(ctx, ref)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, fmt.Errorf("collection %q not found", ref)
	}
	return collection, nil
}
