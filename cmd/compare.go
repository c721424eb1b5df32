package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/compare"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [a] [b]",
	Short: "Compare two chunks or two projects by their items",
	Long: `Compares two chunks (given as store-relative paths, any level; a bare
id is read as a room) or two projects (given by name with --projects).
Reports exact item overlap with Jaccard, relaxed brand+type overlap,
brand and category rollups, and the cosine similarity of the two
summaries. Chunks without item links, such as designs or floors,
compare by summary cosine alone.

Examples:
  floorgraph compare room/2f4a.json room/91bc.json
  floorgraph compare design/07fe.json design/a3d1.json
  floorgraph compare "Demo Home" "Showroom" --projects
  floorgraph compare room/2f4a.json room/91bc.json --insight`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Bool("projects", false, "compare projects by name instead of rooms by path")
	compareCmd.Flags().Bool("insight", false, "ask the chat model for an analyst summary")
	compareCmd.Flags().Bool("json", false, "emit the raw comparison as JSON")
	compareCmd.Flags().String("chunks", "chunks", "chunk directory")
	addOllamaFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	byProject, _ := cmd.Flags().GetBool("projects")
	insight, _ := cmd.Flags().GetBool("insight")
	asJSON, _ := cmd.Flags().GetBool("json")
	chunksDir, _ := cmd.Flags().GetString("chunks")

	client := newOllamaClient(cmd)
	store := chunk.NewStore(chunksDir)
	ctx := context.Background()

	var cmp *compare.Comparison
	var err error
	if byProject {
		var a, b *chunk.Chunk
		if a, err = store.FindProjectByName(args[0]); err != nil {
			return fmt.Errorf("project %q: %w", args[0], err)
		}
		if b, err = store.FindProjectByName(args[1]); err != nil {
			return fmt.Errorf("project %q: %w", args[1], err)
		}
		cmp, err = compare.CompareProjects(ctx, store, client, a, b)
	} else {
		var a, b chunk.StoredChunk
		if a, err = readChunk(store, args[0]); err != nil {
			return err
		}
		if b, err = readChunk(store, args[1]); err != nil {
			return err
		}
		cmp, err = compare.CompareChunks(ctx, store, client, a, b)
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cmp)
	}

	printComparison(cmp)

	if insight {
		analysis, err := client.Chat(ctx, compareInsightSystem, compareInsightPrompt(cmp))
		if err != nil {
			return fmt.Errorf("insight generation failed: %w", err)
		}
		fmt.Println()
		fmt.Println("=== Insight ===")
		fmt.Println(analysis)
	}
	return nil
}

// readChunk loads a chunk by store-relative path ("design/AAA.json",
// extension optional) at any level, or by bare id, which is treated as
// a room for short-form convenience.
func readChunk(store *chunk.Store, spec string) (chunk.StoredChunk, error) {
	rel := strings.TrimSpace(spec)
	if strings.Contains(rel, "/") {
		if !strings.HasSuffix(rel, ".json") {
			rel += ".json"
		}
		c, err := store.ReadRel(rel)
		if err != nil {
			return chunk.StoredChunk{}, fmt.Errorf("chunk %q: %w", spec, err)
		}
		return chunk.StoredChunk{Rel: rel, Chunk: c}, nil
	}
	id := chunk.CoerceID(rel)
	c, err := store.Read(chunk.LevelRoom, id)
	if err != nil {
		return chunk.StoredChunk{}, fmt.Errorf("room %q: %w", spec, err)
	}
	return chunk.StoredChunk{Rel: chunk.RelPath(chunk.LevelRoom, id), Chunk: c}, nil
}

func printComparison(cmp *compare.Comparison) {
	fmt.Println()
	fmt.Println("=== Comparison ===")
	fmt.Println()
	fmt.Printf("A: %s (%s)\n", cmp.ATitle, cmp.ARel)
	fmt.Printf("B: %s (%s)\n", cmp.BTitle, cmp.BRel)
	fmt.Println()
	fmt.Printf("Cosine similarity:  %.3f\n", cmp.Cosine)
	fmt.Printf("Exact overlap:      %d / %d (Jaccard %.3f)\n",
		cmp.Exact.SharedCount, cmp.Exact.UnionCount, cmp.Exact.Jaccard)
	fmt.Printf("Relaxed overlap:    %d shared brand+type pairs\n", cmp.Relaxed.SharedTotal)
	fmt.Println()

	printSignatures("Shared items", cmp.Exact.Shared)
	printSignatures("Only in A", cmp.Exact.OnlyA)
	printSignatures("Only in B", cmp.Exact.OnlyB)

	printRollup("A rollup", cmp.AggA)
	printRollup("B rollup", cmp.AggB)
}

func printSignatures(header string, sigs []compare.Signature) {
	fmt.Printf("%s:\n", header)
	if len(sigs) == 0 {
		fmt.Println("  (none)")
		return
	}
	const limit = 10
	for i, s := range sigs {
		if i == limit {
			fmt.Printf("  ... and %d more\n", len(sigs)-limit)
			break
		}
		fmt.Printf("  %s | %s | %s\n", orDash(s.Name), orDash(s.Brand), orDash(s.Type))
	}
}

func printRollup(header string, agg compare.Rollup) {
	fmt.Printf("%s:\n", header)
	fmt.Printf("  brands: %s\n", labelCounts(agg.Brands))
	fmt.Printf("  types:  %s\n", labelCounts(agg.Types))
}

func labelCounts(lcs []compare.LabelCount) string {
	if len(lcs) == 0 {
		return "(none)"
	}
	out := ""
	for i, lc := range lcs {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s (%d)", lc.Label, lc.Count)
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

const compareInsightSystem = "You are an analyst for an interior design retail team. Be concise (6-10 bullets)."

// compareInsightPrompt renders the comparison for the chat model:
// differences and commonalities, why they matter, and next actions.
func compareInsightPrompt(cmp *compare.Comparison) string {
	return fmt.Sprintf(`Two floorplan entities were compared. Do three things:
1) Differences & commonalities (mention brand/type patterns and the relaxed-overlap signal)
2) Why it matters (merchandising/design implications)
3) Concrete next actions

Entities:
- A: %s
- B: %s
- Exact overlap: %d / %d (Jaccard=%.3f)
- Relaxed overlap (brand+type): %d

Top brands A: %s
Top brands B: %s
Top categories A: %s
Top categories B: %s`,
		cmp.ATitle, cmp.BTitle,
		cmp.Exact.SharedCount, cmp.Exact.UnionCount, cmp.Exact.Jaccard,
		cmp.Relaxed.SharedTotal,
		labelCounts(cmp.AggA.Brands), labelCounts(cmp.AggB.Brands),
		labelCounts(cmp.AggA.Types), labelCounts(cmp.AggB.Types))
}
