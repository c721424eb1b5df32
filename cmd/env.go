package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/index"
	"github.com/floorgraph/floorgraph/pkg/ollama"
	"github.com/floorgraph/floorgraph/pkg/search"
	"github.com/spf13/cobra"
)

// addOllamaFlags registers the Ollama connection flags shared by every
// command that embeds or chats.
func addOllamaFlags(cmd *cobra.Command) {
	cmd.Flags().String("ollama-url", "", "Ollama endpoint (or use OLLAMA_URL)")
	cmd.Flags().String("embed-model", "", "embedding model (or use OLLAMA_EMBED_MODEL)")
	cmd.Flags().String("chat-model", "", "chat model (or use OLLAMA_CHAT_MODEL)")
	cmd.Flags().Duration("ollama-timeout", 300*time.Second, "timeout for Ollama calls")
}

// newOllamaClient builds a client from flags, falling back to the
// OLLAMA_* environment variables and package defaults.
func newOllamaClient(cmd *cobra.Command) *ollama.Client {
	url, _ := cmd.Flags().GetString("ollama-url")
	embedModel, _ := cmd.Flags().GetString("embed-model")
	chatModel, _ := cmd.Flags().GetString("chat-model")
	timeout, _ := cmd.Flags().GetDuration("ollama-timeout")

	if url == "" {
		url = os.Getenv("OLLAMA_URL")
	}
	if embedModel == "" {
		embedModel = os.Getenv("OLLAMA_EMBED_MODEL")
	}
	if chatModel == "" {
		chatModel = os.Getenv("OLLAMA_CHAT_MODEL")
	}

	return ollama.NewClient(ollama.Config{
		BaseURL:    url,
		EmbedModel: embedModel,
		ChatModel:  chatModel,
		Timeout:    timeout,
	})
}

// openEngine loads the index and chunk store behind a search engine.
// The chunk store root recorded in the index config wins unless the
// caller overrides it.
func openEngine(indexDir, chunksDir string, embedder search.Embedder) (*search.Engine, *index.Index, *chunk.Store, error) {
	idx, err := index.Load(indexDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load index from %s: %w", indexDir, err)
	}
	root := chunksDir
	if root == "" {
		root = idx.Config.ChunksRoot
	}
	store := chunk.NewStore(root)
	return search.NewEngine(idx, store, embedder), idx, store, nil
}

// parseFilter converts --type and --filter flags into a search filter.
func parseFilter(types, terms []string) (*search.Filter, error) {
	for _, t := range types {
		if !chunk.ValidLevel(t) {
			return nil, fmt.Errorf("unknown chunk type %q (valid: project, floor, design, room, item)", t)
		}
	}
	if len(types) == 0 && len(terms) == 0 {
		return nil, nil
	}
	return &search.Filter{Types: types, Terms: terms}, nil
}
