package cmd

import (
	"context"
	"fmt"

	"github.com/floorgraph/floorgraph/pkg/search"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Semantic search over the embedding index",
	Long: `Embeds the query and ranks indexed chunks by cosine similarity.
Filters restrict the candidate set before ranking: --type whitelists
chunk levels, --filter applies substring filters (bare term, or
key:value against chunk attributes), all ANDed.

With --similar, ranks chunks similar to an already-indexed chunk
instead of a text query. With --list, skips ranking and prints
filter matches in index order.

Examples:
  floorgraph search "corner sofa near a window" -k 5
  floorgraph search "seating" --type item --filter brand:acme
  floorgraph search --similar room/2f4a.json -k 8
  floorgraph search "storage" --diverse --lambda 0.4
  floorgraph search --list --type room --filter room_type:living`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntP("top", "k", 8, "number of results")
	searchCmd.Flags().StringSlice("type", nil, "chunk level whitelist (project, floor, design, room, item)")
	searchCmd.Flags().StringArray("filter", nil, "attribute filter, bare term or key:value (repeatable)")
	searchCmd.Flags().String("similar", "", "rank chunks similar to this indexed chunk path")
	searchCmd.Flags().Bool("list", false, "list filter matches without similarity ranking")
	searchCmd.Flags().Bool("diverse", false, "re-rank with MMR for result diversity")
	searchCmd.Flags().Float64("lambda", search.DefaultLambda, "MMR relevance/diversity tradeoff (1.0 = pure relevance)")
	searchCmd.Flags().String("index", "index", "index directory")
	searchCmd.Flags().String("chunks", "", "chunk directory (default from index config)")
	addOllamaFlags(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	k, _ := cmd.Flags().GetInt("top")
	types, _ := cmd.Flags().GetStringSlice("type")
	terms, _ := cmd.Flags().GetStringArray("filter")
	similar, _ := cmd.Flags().GetString("similar")
	listOnly, _ := cmd.Flags().GetBool("list")
	diverse, _ := cmd.Flags().GetBool("diverse")
	lambda, _ := cmd.Flags().GetFloat64("lambda")
	indexDir, _ := cmd.Flags().GetString("index")
	chunksDir, _ := cmd.Flags().GetString("chunks")

	filter, err := parseFilter(types, terms)
	if err != nil {
		return err
	}

	engine, _, _, err := openEngine(indexDir, chunksDir, newOllamaClient(cmd))
	if err != nil {
		return err
	}

	// MMR needs a wider candidate pool to pick diverse hits from.
	fetchK := k
	if diverse && !listOnly {
		fetchK = k * 4
	}

	var results []search.Result
	switch {
	case listOnly:
		results = engine.Retrieve(filter, k)
	case similar != "":
		results, err = engine.SearchChunk(context.Background(), similar, fetchK, filter)
	case len(args) == 1:
		results, err = engine.SearchText(context.Background(), args[0], fetchK, filter)
	default:
		return fmt.Errorf("provide a query, --similar, or --list")
	}
	if err != nil {
		return err
	}
	if diverse && !listOnly {
		results = engine.Diversify(results, k, lambda)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	printResults(results, listOnly)
	return nil
}

func printResults(results []search.Result, unscored bool) {
	for i, r := range results {
		if unscored {
			fmt.Printf("%2d. %s\n", i+1, r.Meta.Title)
		} else {
			fmt.Printf("%2d. [%.3f] %s\n", i+1, r.Score, r.Meta.Title)
		}
		if r.Meta.Breadcrumb != "" {
			fmt.Printf("    %s\n", r.Meta.Breadcrumb)
		}
		fmt.Printf("    %s\n", r.Meta.Path)
	}
}
