// Package ollama is a client for a local Ollama server. It covers the
// two capabilities the retrieval core consumes: text embeddings and
// chat completion. Calls are synchronous with no retry; a failed call
// is fatal for that operation.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "http://localhost:11434"
	defaultEmbedModel = "nomic-embed-text"
	defaultChatModel  = "llama3.1:8b"
	defaultTimeout    = 300 * time.Second
)

// ErrNoEmbedding is returned when the server responds without a vector.
var ErrNoEmbedding = errors.New("no embedding returned")

// Config holds Ollama client configuration.
type Config struct {
	// BaseURL is the server address (default http://localhost:11434).
	BaseURL string

	// EmbedModel is the embedding model name.
	EmbedModel string

	// ChatModel is the chat model name.
	ChatModel string

	// Timeout for API requests.
	Timeout time.Duration
}

// Client talks to one Ollama server.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates an Ollama client with defaults filled in.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaultChatModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// EmbedModel returns the configured embedding model name.
func (c *Client) EmbedModel() string {
	return c.cfg.EmbedModel
}

// ChatModel returns the configured chat model name.
func (c *Client) ChatModel() string {
	return c.cfg.ChatModel
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// Embed converts one text into a vector. It fails when the server
// returns no vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := c.post(ctx, "/api/embeddings", embedRequest{
		Model:  c.cfg.EmbedModel,
		Prompt: text,
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp embedResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("embedding failed: %s", resp.Error)
	}
	if len(resp.Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds texts one call at a time, strictly in order. The
// vector at position i corresponds to texts[i]; this 1:1 ordering is a
// correctness requirement for index construction.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := c.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d/%d: %w", i+1, len(texts), err)
		}
		out[i] = vec
	}
	return out, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// Chat sends a system+user prompt pair and returns the concatenated
// response text. It streams from /api/chat; older servers without that
// endpoint fall back to the single-prompt /api/generate protocol.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	opts := map[string]any{"temperature": 0.2}

	body, err := c.postStream(ctx, "/api/chat", chatRequest{
		Model: c.cfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream:  true,
		Options: opts,
	})
	if err == nil {
		defer body.Close()
		return consumeNDJSON(body)
	}
	if !errors.Is(err, errChatUnsupported) {
		return "", err
	}

	// Fallback for servers predating /api/chat.
	prompt := fmt.Sprintf("System:\n%s\n\nUser:\n%s", system, user)
	body, err = c.postStream(ctx, "/api/generate", generateRequest{
		Model:   c.cfg.ChatModel,
		Prompt:  prompt,
		Stream:  true,
		Options: opts,
	})
	if err != nil {
		return "", err
	}
	defer body.Close()
	return consumeNDJSON(body)
}

var errChatUnsupported = errors.New("chat endpoint missing")

func (c *Client) post(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	body, status, err := c.do(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		defer body.Close()
		return nil, apiError(path, status, body)
	}
	return body, nil
}

func (c *Client) postStream(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	body, status, err := c.do(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		body.Close()
		return nil, errChatUnsupported
	}
	if status >= 400 {
		defer body.Close()
		return nil, apiError(path, status, body)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, path string, payload any) (io.ReadCloser, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request to %s failed: %w", path, err)
	}
	return resp.Body, resp.StatusCode, nil
}

func apiError(path string, status int, body io.Reader) error {
	var resp struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	if json.Unmarshal(data, &resp) == nil && resp.Error != "" {
		return fmt.Errorf("ollama %s error %d: %s", path, status, resp.Error)
	}
	return fmt.Errorf("ollama %s error %d", path, status)
}

// consumeNDJSON collects the streamed response pieces into one string.
// Both the chat shape ({"message":{"content":...}}) and the generate
// shape ({"response":...}) are handled.
func consumeNDJSON(r io.Reader) (string, error) {
	var out strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var obj struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Response string `json:"response"`
			Done     bool   `json:"done"`
		}
		if err := json.Unmarshal(line, &obj); err != nil {
			continue
		}
		out.WriteString(obj.Message.Content)
		out.WriteString(obj.Response)
		if obj.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read stream: %w", err)
	}
	return strings.TrimSpace(out.String()), nil
}
