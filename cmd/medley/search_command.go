package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"medley/internal/api"
	"medley/internal/config"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/search"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search the catalog by meaning",
		Long:  "Search embeds the query with the configured Ollama model and ranks indexed items by cosine similarity.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				searcher := search.NewSearcher(cfg, store, logging.NewNop())
				matches, err := searcher.Search(cmd.Context(), query, limit)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, api.SearchResponse{Query: query, Matches: api.FromMatches(matches)})
				}
				printMatches(cmd, matches)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 uses the configured default)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "similar <itemID>",
		Short: "Find items similar to an indexed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *library.Store) error {
				searcher := search.NewSearcher(cfg, store, logging.NewNop())
				matches, err := searcher.Similar(cmd.Context(), id, limit)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, api.SearchResponse{Matches: api.FromMatches(matches)})
				}
				printMatches(cmd, matches)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 uses the configured default)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func printMatches(cmd *cobra.Command, matches []search.Match) {
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches")
		return
	}

	rows := make([][]string, 0, len(matches))
	for _, match := range matches {
		rows = append(rows, []string{
			fmt.Sprintf("%.3f", match.Similarity),
			fmt.Sprintf("%d", match.Item.ID),
			truncateText(displayTitle(match.Item), 40),
			string(match.Item.MediaType),
			truncateText(match.Item.Path, 60),
		})
	}
	table := renderTable(
		[]string{"Score", "ID", "Title", "Type", "Path"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
	)
	fmt.Fprintln(out, table)
}
