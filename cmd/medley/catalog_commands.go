package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/media/thumbs"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Requeue failed items for another indexing attempt",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseItemID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				out := cmd.OutOrStdout()
				if len(ids) == 0 {
					updated, err := store.RetryFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Requeued %d failed items\n", updated)
					return nil
				}

				for _, id := range ids {
					item, err := store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if item == nil {
						fmt.Fprintf(out, "Item %d not found\n", id)
						continue
					}
					if item.Status != library.StatusFailed {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
						continue
					}
					updated, err := store.RetryFailed(cmd.Context(), id)
					if err != nil {
						return err
					}
					if updated > 0 {
						fmt.Fprintf(out, "Item %d requeued\n", id)
					} else {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	var removeMissing bool

	cmd := &cobra.Command{
		Use:   "remove [itemID...]",
		Short: "Remove catalog entries (files on disk are never touched)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !removeMissing {
				return errors.New("specify item IDs or --missing")
			}
			if len(args) > 0 && removeMissing {
				return errors.New("specify either item IDs or --missing, not both")
			}

			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				out := cmd.OutOrStdout()
				if removeMissing {
					removed, err := store.RemoveMissing(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d missing items\n", removed)
					return nil
				}

				gen := thumbs.NewGenerator(cfg)
				for _, arg := range args {
					id, err := parseItemID(arg)
					if err != nil {
						return err
					}
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						_ = gen.Remove(id)
						fmt.Fprintf(out, "Removed item %d\n", id)
					} else {
						fmt.Fprintf(out, "Item %d not found\n", id)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&removeMissing, "missing", false, "Remove all items whose files have disappeared")
	return cmd
}
