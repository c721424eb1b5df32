package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/compare"
	"github.com/floorgraph/floorgraph/pkg/products"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Suggest furnishings for a room from similar rooms",
	Long: `Mines brand+type pairs the seed room lacks from the rooms that
overlap it most, and cites a concrete example item for each suggestion.

The seed is either an existing room chunk (--seed) or a virtual room
assembled from item ids (--from-items).

Examples:
  floorgraph complete --seed room/2f4a.json
  floorgraph complete --from-items item/a1.json,b2 --top 10
  floorgraph complete --seed room/2f4a.json --resolve-products`,
	RunE: runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)

	completeCmd.Flags().String("seed", "", "seed room chunk path or id")
	completeCmd.Flags().String("from-items", "", "comma-separated item ids for a virtual seed room")
	completeCmd.Flags().Int("neighbors", 12, "number of neighbor rooms to mine")
	completeCmd.Flags().Int("top", 6, "maximum suggestions")
	completeCmd.Flags().Bool("resolve-products", false, "enrich suggestions from the product catalog")
	completeCmd.Flags().String("editor-version", "", "optional catalog revision for product lookups")
	completeCmd.Flags().Bool("json", false, "emit the raw completion as JSON")
	completeCmd.Flags().String("chunks", "chunks", "chunk directory")
}

func runComplete(cmd *cobra.Command, args []string) error {
	seedSpec, _ := cmd.Flags().GetString("seed")
	fromItems, _ := cmd.Flags().GetString("from-items")
	neighbors, _ := cmd.Flags().GetInt("neighbors")
	topN, _ := cmd.Flags().GetInt("top")
	resolve, _ := cmd.Flags().GetBool("resolve-products")
	editorVersion, _ := cmd.Flags().GetString("editor-version")
	asJSON, _ := cmd.Flags().GetBool("json")
	chunksDir, _ := cmd.Flags().GetString("chunks")

	store := chunk.NewStore(chunksDir)

	var seed *chunk.Chunk
	var err error
	switch {
	case seedSpec != "" && fromItems != "":
		return fmt.Errorf("--seed and --from-items are mutually exclusive")
	case seedSpec != "":
		seed, err = store.Read(chunk.LevelRoom, chunk.CoerceID(seedSpec))
		if err != nil {
			return fmt.Errorf("seed room %q: %w", seedSpec, err)
		}
	case fromItems != "":
		seed, err = compare.VirtualSeed(store, strings.Split(fromItems, ","))
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("provide --seed or --from-items")
	}

	result, err := compare.Complete(store, seed, compare.CompleteConfig{
		Neighbors:   neighbors,
		Suggestions: topN,
	})
	if err != nil {
		return err
	}

	if resolve {
		enrichFromCatalog(store, result, editorVersion)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println()
	fmt.Println("=== Room Completion ===")
	fmt.Println()
	fmt.Printf("Seed: %s\n", result.SeedTitle)
	fmt.Println()
	fmt.Println("Neighbors used:")
	if len(result.Neighbors) == 0 {
		fmt.Println("  (none; no rooms share a brand+type pair with the seed)")
	}
	for _, nb := range result.Neighbors {
		fmt.Printf("  %s — %d shared pairs, %d items (%s)\n", nb.Title, nb.SharedPairs, nb.ItemCount, nb.Rel)
	}
	fmt.Println()
	fmt.Println("Suggestions:")
	if len(result.Suggestions) == 0 {
		fmt.Println("  (none)")
	}
	for i, sug := range result.Suggestions {
		fmt.Printf("  %d. %s / %s — seen in %d neighbor(s)\n", i+1, orDash(sug.Brand), orDash(sug.Type), sug.SeenInNeighbors)
		if sug.ExampleName != "" {
			fmt.Printf("     e.g. %q (%s in %s)\n", sug.ExampleName, sug.ExampleItem, sug.ExampleRoom)
		}
	}
	return nil
}

// enrichFromCatalog resolves example items against the product catalog
// and fills in missing brand or category fields. Best-effort: lookup
// failures leave the suggestions untouched.
func enrichFromCatalog(store *chunk.Store, result *compare.Completion, editorVersion string) {
	cfg := products.DefaultConfig()
	cfg.EditorVersion = editorVersion
	resolver := products.NewResolver(cfg)

	for i := range result.Suggestions {
		sug := &result.Suggestions[i]
		if sug.ExampleItem == "" {
			continue
		}
		c, err := store.ReadRel(sug.ExampleItem)
		if err != nil || c.Item == nil {
			continue
		}
		ids := products.CandidateIDs(c.Item)
		if len(ids) == 0 {
			continue
		}
		records := resolver.ByIDs(context.Background(), ids)
		for _, id := range ids {
			p, ok := records[id]
			if !ok {
				continue
			}
			if sug.Brand == "" && p.Brand != "" {
				sug.Brand = strings.ToLower(p.Brand)
			}
			if p.Category != "" {
				sug.Type = compare.NormalizeCategory(p.Name, p.Category)
			}
			break
		}
	}
}
