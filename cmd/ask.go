package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/search"
	"github.com/spf13/cobra"
)

const askSystemPrompt = `You are a helpful assistant that answers strictly using the provided context chunks from a floorplan export.
If the answer is not in the context, say so and suggest what to search for. Cite chunk indices like [#3].`

const askUserTemplate = `Question:
%s

Context:
%s

Instructions:
- Cite chunk indices like [#3] when used.
- Prefer items/rooms/designs that match the user's intent.
- If conflicting info appears, mention it concisely.`

// contextAttrKeys are the chunk attributes surfaced to the chat model,
// in output order.
var contextAttrKeys = []string{"name", "room_type", "type", "brand", "color"}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question grounded in indexed chunks",
	Long: `Retrieves the chunks most similar to the question, assembles them
into a numbered context block, and asks the chat model to answer using
only that context, citing chunk indices.

Example:
  floorgraph ask "which rooms have a sofa and a tv?" -k 8`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().IntP("top", "k", 8, "number of context chunks")
	askCmd.Flags().StringSlice("type", nil, "chunk level whitelist")
	askCmd.Flags().StringArray("filter", nil, "attribute filter, bare term or key:value (repeatable)")
	askCmd.Flags().Bool("show-context", false, "print the retrieved context before the answer")
	askCmd.Flags().String("index", "index", "index directory")
	askCmd.Flags().String("chunks", "", "chunk directory (default from index config)")
	addOllamaFlags(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	k, _ := cmd.Flags().GetInt("top")
	types, _ := cmd.Flags().GetStringSlice("type")
	terms, _ := cmd.Flags().GetStringArray("filter")
	showContext, _ := cmd.Flags().GetBool("show-context")
	indexDir, _ := cmd.Flags().GetString("index")
	chunksDir, _ := cmd.Flags().GetString("chunks")

	filter, err := parseFilter(types, terms)
	if err != nil {
		return err
	}

	client := newOllamaClient(cmd)
	engine, _, store, err := openEngine(indexDir, chunksDir, client)
	if err != nil {
		return err
	}

	ctx := context.Background()
	results, err := engine.SearchText(ctx, question, k, filter)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matching chunks; try a broader query or fewer filters.")
		return nil
	}

	contextBlock := buildAskContext(store, results)
	if showContext {
		fmt.Fprintln(os.Stderr, "--- Context ---")
		fmt.Fprintln(os.Stderr, contextBlock)
		fmt.Fprintln(os.Stderr, "---------------")
	}

	answer, err := client.Chat(ctx, askSystemPrompt, fmt.Sprintf(askUserTemplate, question, contextBlock))
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	fmt.Println(strings.TrimSpace(answer))

	fmt.Println()
	fmt.Println("Sources:")
	for i, r := range results {
		fmt.Printf("  [#%d] %s — %s\n", i+1, r.Meta.Title, r.Meta.Path)
	}
	return nil
}

// buildAskContext renders retrieved chunks as numbered blocks: header,
// location, summary, then the attributes the model is likely to need.
func buildAskContext(store *chunk.Store, results []search.Result) string {
	var blocks []string
	for i, r := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "[#%d] (%s) %s — %s\n", i+1, r.Meta.Type, r.Meta.Title, r.Meta.Path)
		if r.Meta.Breadcrumb != "" {
			fmt.Fprintf(&b, "[where] %s\n", r.Meta.Breadcrumb)
		}
		c, err := store.ReadRel(r.Meta.Path)
		if err != nil {
			b.WriteString("(chunk file unavailable)")
			blocks = append(blocks, b.String())
			continue
		}
		b.WriteString(c.SummaryText)
		attrs := c.AttrStrings()
		for _, key := range contextAttrKeys {
			if v := attrs[key]; v != "" {
				fmt.Fprintf(&b, "\n%s: %s", key, v)
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
