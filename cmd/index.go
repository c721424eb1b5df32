package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/floorgraph/floorgraph/pkg/cache"
	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/index"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the embedding index over a chunk directory",
	Long: `Embeds every chunk's summary text with the configured Ollama model
and writes three index artifacts: vectors.bin, meta.jsonl, and
config.json. Rows of the vector file and lines of the metadata file
correspond 1:1, in a deterministic build order.

Example:
  floorgraph index --chunks chunks --out index`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().String("chunks", "chunks", "chunk directory to index")
	indexCmd.Flags().StringP("out", "o", "index", "output directory for index artifacts")
	indexCmd.Flags().Int("max-chars", 1200, "maximum characters per embedded text")
	addOllamaFlags(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	chunksDir, _ := cmd.Flags().GetString("chunks")
	outDir, _ := cmd.Flags().GetString("out")
	maxChars, _ := cmd.Flags().GetInt("max-chars")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
		cancel()
	}()

	client := newOllamaClient(cmd)
	store := chunk.NewStore(chunksDir)

	paths, err := store.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no chunks found in %s (run 'floorgraph chunk' first)", chunksDir)
	}

	bar := progressbar.NewOptions64(
		int64(len(paths)),
		progressbar.OptionSetDescription("Embedding"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("chunks"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)

	embedder := cache.WrapEmbedder(client, cache.DefaultConfig())

	var lastDone int
	builder := index.NewBuilder(store, embedder, index.BuilderConfig{
		MaxChars: maxChars,
		OnEmbed: func(done, total int) {
			_ = bar.Add(done - lastDone)
			lastDone = done
		},
	})

	fmt.Fprintf(os.Stderr, "Embedding %d chunks with %s...\n", len(paths), client.EmbedModel())
	start := time.Now()
	count, err := builder.Build(ctx, outDir)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	idx, err := index.Load(outDir)
	if err != nil {
		return fmt.Errorf("failed to reload index: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Index Complete ===")
	fmt.Println()
	fmt.Printf("Chunks embedded:  %d\n", count)
	fmt.Printf("Dimensions:       %d\n", idx.Config.Dims)
	fmt.Printf("Embed model:      %s\n", idx.Config.EmbedModel)
	fmt.Printf("Duration:         %v\n", time.Since(start).Round(time.Millisecond))
	if stats := embedder.Stats(); stats.Hits > 0 {
		fmt.Printf("Cache hit rate:   %.1f%%\n", stats.HitRate())
	}
	fmt.Println()
	fmt.Printf("Index written to %s\n", outDir)
	return nil
}
