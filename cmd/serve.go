package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/floorgraph/floorgraph/pkg/chunk"
	"github.com/floorgraph/floorgraph/pkg/compare"
	"github.com/floorgraph/floorgraph/pkg/metrics"
	"github.com/floorgraph/floorgraph/pkg/ollama"
	"github.com/floorgraph/floorgraph/pkg/search"
	"github.com/floorgraph/floorgraph/pkg/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Floorgraph HTTP server",
	Long: `Starts an HTTP server over a built index and chunk store.

Example:
  floorgraph serve --port 8080 --index index

The server exposes:
  POST /v1/search         - Semantic search with filters
  POST /v1/compare        - Overlap and cosine comparison of two chunks
  POST /v1/complete       - Furnishing suggestions for a seed room
  GET  /health            - Health check
  GET  /metrics           - Prometheus metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server settings
	serveCmd.Flags().IntP("port", "p", 8080, "HTTP server port")
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")

	// Data settings
	serveCmd.Flags().String("index", "index", "index directory")
	serveCmd.Flags().String("chunks", "", "chunk directory (default from index config)")

	// Tracing settings
	serveCmd.Flags().Bool("tracing", false, "enable OpenTelemetry tracing")
	serveCmd.Flags().String("tracing-exporter", "otlp", "trace exporter (otlp, stdout, none)")
	serveCmd.Flags().String("tracing-endpoint", "localhost:4317", "OTLP collector endpoint")

	addOllamaFlags(serveCmd)

	// Bind to viper
	_ = viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
}

// Server holds the HTTP server state.
type Server struct {
	engine   *search.Engine
	store    *chunk.Store
	embedder *meteredEmbedder
	metrics  *metrics.Metrics
	tracing  *telemetry.Provider
}

// meteredEmbedder times and counts every embedding call the server
// issues, for both search queries and comparison cosines.
type meteredEmbedder struct {
	inner   *ollama.Client
	metrics *metrics.Metrics
}

func (e *meteredEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := e.inner.Embed(ctx, text)
	e.metrics.RecordEmbed(err, time.Since(start))
	return vec, err
}

func (e *meteredEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.inner.EmbedBatch(ctx, texts)
	e.metrics.RecordEmbed(err, time.Since(start))
	return vecs, err
}

// SearchRequest is the JSON request body for /v1/search.
type SearchRequest struct {
	Query   string   `json:"query,omitempty"`
	Similar string   `json:"similar,omitempty"`
	K       int      `json:"k,omitempty"`
	Types   []string `json:"types,omitempty"`
	Filters []string `json:"filters,omitempty"`
}

// SearchResponse is the JSON response for /v1/search.
type SearchResponse struct {
	Results   []ResultResponse `json:"results"`
	LatencyMs int64            `json:"latency_ms"`
}

// ResultResponse represents one hit in the response.
type ResultResponse struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Path       string  `json:"path"`
	Title      string  `json:"title"`
	Breadcrumb string  `json:"breadcrumb,omitempty"`
	Score      float32 `json:"score"`
}

// CompareRequest is the JSON request body for /v1/compare.
type CompareRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// CompleteRequest is the JSON request body for /v1/complete.
type CompleteRequest struct {
	Seed      string   `json:"seed,omitempty"`
	ItemIDs   []string `json:"item_ids,omitempty"`
	Neighbors int      `json:"neighbors,omitempty"`
	Top       int      `json:"top,omitempty"`
}

func runServe(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	indexDir, _ := cmd.Flags().GetString("index")
	chunksDir, _ := cmd.Flags().GetString("chunks")
	tracingEnabled, _ := cmd.Flags().GetBool("tracing")
	tracingExporter, _ := cmd.Flags().GetString("tracing-exporter")
	tracingEndpoint, _ := cmd.Flags().GetString("tracing-endpoint")

	reg := metrics.New()
	embedder := &meteredEmbedder{inner: newOllamaClient(cmd), metrics: reg}
	engine, idx, store, err := openEngine(indexDir, chunksDir, embedder)
	if err != nil {
		return err
	}

	tracingCfg := telemetry.DefaultConfig()
	tracingCfg.Enabled = tracingEnabled
	tracingCfg.Exporter = tracingExporter
	tracingCfg.Endpoint = tracingEndpoint
	tracing, err := telemetry.Init(context.Background(), tracingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	server := &Server{
		engine:   engine,
		store:    store,
		embedder: embedder,
		metrics:  reg,
		tracing:  tracing,
	}

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/search", server.metrics.Middleware("/v1/search", server.handleSearch))
	mux.HandleFunc("/v1/compare", server.metrics.Middleware("/v1/compare", server.handleCompare))
	mux.HandleFunc("/v1/complete", server.metrics.Middleware("/v1/complete", server.handleComplete))
	mux.HandleFunc("/health", server.handleHealth)
	mux.Handle("/metrics", server.metrics.Handler())

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Fprintln(os.Stderr, "\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	// Start server
	fmt.Printf("Floorgraph server starting on %s\n", addr)
	fmt.Printf("  Index: %s (%d chunks, %d dims, %s)\n", indexDir, idx.Config.Count, idx.Config.Dims, idx.Config.EmbedModel)
	fmt.Printf("  Chunks: %s\n", store.Root())
	fmt.Println()
	fmt.Println("Endpoints:")
	fmt.Printf("  POST http://%s/v1/search\n", addr)
	fmt.Printf("  POST http://%s/v1/compare\n", addr)
	fmt.Printf("  POST http://%s/v1/complete\n", addr)
	fmt.Printf("  GET  http://%s/health\n", addr)
	fmt.Printf("  GET  http://%s/metrics\n", addr)
	fmt.Println()

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	fmt.Println("Server stopped")
	return nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if req.Query == "" && req.Similar == "" {
		http.Error(w, "Either 'query' or 'similar' is required", http.StatusBadRequest)
		return
	}
	if req.K <= 0 {
		req.K = 8
	}

	filter, err := parseFilter(req.Types, req.Filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, span := s.tracing.StartSearch(r.Context(), req.K)
	defer span.End()

	start := time.Now()
	var results []search.Result
	if req.Similar != "" {
		results, err = s.engine.SearchChunk(ctx, req.Similar, req.K, filter)
	} else {
		results, err = s.engine.SearchText(ctx, req.Query, req.K, filter)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		http.Error(w, fmt.Sprintf("Search failed: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordSearch(len(results))
	telemetry.RecordResult(span, req.K, len(results), time.Since(start))

	resp := SearchResponse{
		Results:   make([]ResultResponse, len(results)),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	for i, res := range results {
		resp.Results[i] = ResultResponse{
			ID:         res.Meta.ID,
			Type:       res.Meta.Type,
			Path:       res.Meta.Path,
			Title:      res.Meta.Title,
			Breadcrumb: res.Meta.Breadcrumb,
			Score:      res.Score,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if req.A == "" || req.B == "" {
		http.Error(w, "Both 'a' and 'b' chunk paths are required", http.StatusBadRequest)
		return
	}

	a, err := readChunk(s.store, req.A)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	b, err := readChunk(s.store, req.B)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	ctx, span := s.tracing.StartCompare(r.Context(), a.Rel, b.Rel)
	defer span.End()

	cmp, err := compare.CompareChunks(ctx, s.store, s.embedder, a, b)
	if err != nil {
		telemetry.RecordError(span, err)
		http.Error(w, fmt.Sprintf("Comparison failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cmp)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	var seed *chunk.Chunk
	var err error
	switch {
	case req.Seed != "" && len(req.ItemIDs) > 0:
		http.Error(w, "'seed' and 'item_ids' are mutually exclusive", http.StatusBadRequest)
		return
	case req.Seed != "":
		seed, err = s.store.Read(chunk.LevelRoom, chunk.CoerceID(req.Seed))
		if err != nil {
			http.Error(w, fmt.Sprintf("Seed room: %v", err), http.StatusNotFound)
			return
		}
	case len(req.ItemIDs) > 0:
		seed, err = compare.VirtualSeed(s.store, req.ItemIDs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, "Either 'seed' or 'item_ids' is required", http.StatusBadRequest)
		return
	}

	_, span := s.tracing.StartComplete(r.Context(), strings.TrimSpace(req.Seed), req.Neighbors)
	defer span.End()

	result, err := compare.Complete(s.store, seed, compare.CompleteConfig{
		Neighbors:   req.Neighbors,
		Suggestions: req.Top,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		http.Error(w, fmt.Sprintf("Completion failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
