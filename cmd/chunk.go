package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/fml"
	"github.com/floorgraph/floorgraph/pkg/normalize"
	"github.com/spf13/cobra"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Normalize floorplan exports into chunk files",
	Long: `Reads raw floorplan exports (FML JSON), walks each project, floor,
design, room, and item tree, and writes one JSON chunk per entity under
typed subdirectories of the output directory.

--file accepts a single export or a directory; a directory is scanned
for .json and .fml files, and a file that fails to parse is logged and
skipped without stopping the batch.

Chunk ids are derived from content, so re-running on the same export
rewrites identical files.

Examples:
  floorgraph chunk --file export.json --out chunks
  floorgraph chunk --file exports/ --out chunks`,
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)

	chunkCmd.Flags().StringP("file", "f", "", "floorplan export JSON or a directory of exports (required)")
	_ = chunkCmd.MarkFlagRequired("file")
	chunkCmd.Flags().StringP("out", "o", "chunks", "output directory for chunk files")
}

func runChunk(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file")
	outDir, _ := cmd.Flags().GetString("out")

	files, err := exportFiles(filePath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no export files found in %s", filePath)
	}

	start := time.Now()
	store := chunk.NewStore(outDir)
	counts := make(map[chunk.Level]int)
	total := 0
	failed := 0

	for _, f := range files {
		doc, err := fml.ParseFile(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", f, err)
			failed++
			continue
		}

		chunks := normalize.Project(doc)
		if err := store.WriteAll(chunks); err != nil {
			return fmt.Errorf("failed to write chunks for %s: %w", f, err)
		}

		for _, c := range chunks {
			counts[c.Level]++
		}
		total += len(chunks)
		fmt.Fprintf(os.Stderr, "Normalized %q (%d chunks)\n", doc.Name, len(chunks))
	}

	if total == 0 {
		return fmt.Errorf("all %d export files failed to parse", failed)
	}

	fmt.Fprintf(os.Stderr, "Done in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Println()
	fmt.Println("=== Chunking Complete ===")
	fmt.Println()
	for _, level := range chunk.Levels {
		fmt.Printf("%-10s %d\n", level, counts[level])
	}
	fmt.Printf("%-10s %d\n", "total", total)
	if failed > 0 {
		fmt.Printf("%-10s %d\n", "skipped", failed)
	}
	fmt.Println()
	fmt.Printf("Chunks written to %s\n", outDir)
	return nil
}

// exportFiles expands a path into the list of export files to process:
// the file itself, or every .json/.fml file directly in the directory.
func exportFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", path, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".fml":
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
