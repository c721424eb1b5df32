package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Ollama.URL != "http://localhost:11434" {
		t.Errorf("expected default ollama url, got %s", cfg.Ollama.URL)
	}
	if cfg.Ollama.EmbedModel != "nomic-embed-text" {
		t.Errorf("expected default embed model nomic-embed-text, got %s", cfg.Ollama.EmbedModel)
	}
	if cfg.Index.MaxChars != 1200 {
		t.Errorf("expected default max_chars 1200, got %d", cfg.Index.MaxChars)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 70000
	err := Validate(cfg)
	if err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestValidate_EmptyChunksDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunks.Dir = ""
	err := Validate(cfg)
	if err == nil {
		t.Error("expected error for empty chunks dir")
	}
}

func TestValidate_EmptyEmbedModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ollama.EmbedModel = ""
	err := Validate(cfg)
	if err == nil {
		t.Error("expected error for empty embed model")
	}
}

func TestValidate_InvalidExporter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry.Tracing.Exporter = "jaeger"
	err := Validate(cfg)
	if err == nil {
		t.Error("expected error for unsupported exporter")
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = -1
	cfg.Chunks.Dir = ""
	cfg.Telemetry.Tracing.SampleRate = 5.0
	err := Validate(cfg)
	if err == nil {
		t.Error("expected multiple validation errors")
	}
}

func TestInterpolateEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "hello")

	tests := []struct {
		input    string
		expected string
	}{
		{"${TEST_VAR}", "hello"},
		{"prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
		{"${NONEXISTENT_VAR:-fallback}", "fallback"},
		{"${NONEXISTENT_VAR}", "${NONEXISTENT_VAR}"},
		{"no-vars-here", "no-vars-here"},
		{"${TEST_VAR:-default}", "hello"}, // env var exists, ignore default
	}

	for _, tt := range tests {
		result := InterpolateEnv(tt.input)
		if result != tt.expected {
			t.Errorf("InterpolateEnv(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  port: 9090
  host: 127.0.0.1

chunks:
  dir: /data/chunks

index:
  dir: /data/index
  max_chars: 800

ollama:
  url: http://ollama:11434
  embed_model: mxbai-embed-large
  chat_model: qwen2.5:7b
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "floorgraph.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Server.Host)
	}
	if cfg.Chunks.Dir != "/data/chunks" {
		t.Errorf("expected chunks dir /data/chunks, got %s", cfg.Chunks.Dir)
	}
	if cfg.Index.MaxChars != 800 {
		t.Errorf("expected max_chars 800, got %d", cfg.Index.MaxChars)
	}
	if cfg.Ollama.URL != "http://ollama:11434" {
		t.Errorf("expected ollama url http://ollama:11434, got %s", cfg.Ollama.URL)
	}
	if cfg.Ollama.EmbedModel != "mxbai-embed-large" {
		t.Errorf("expected embed model mxbai-embed-large, got %s", cfg.Ollama.EmbedModel)
	}
	if cfg.Ollama.ChatModel != "qwen2.5:7b" {
		t.Errorf("expected chat model qwen2.5:7b, got %s", cfg.Ollama.ChatModel)
	}
}

func TestLoadFromFile_WithEnvInterpolation(t *testing.T) {
	t.Setenv("TEST_OLLAMA_URL", "http://gpu-box:11434")

	content := `
ollama:
  url: ${TEST_OLLAMA_URL}
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "floorgraph.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Ollama.URL != "http://gpu-box:11434" {
		t.Errorf("expected interpolated url, got %s", cfg.Ollama.URL)
	}
}

func TestLoadFromFile_InvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/floorgraph.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "floorgraph.yaml")
	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFromFile(cfgPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromFile_InvalidValues(t *testing.T) {
	content := `
server:
  port: 99999
chunks:
  dir: ""
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "floorgraph.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFromFile(cfgPath)
	if err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadFromFile_DefaultsPreserved(t *testing.T) {
	// Partial config should preserve defaults for unset fields
	content := `
server:
  port: 3000
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "floorgraph.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Server.Port)
	}
	// Defaults should be preserved for unset fields
	if cfg.Ollama.EmbedModel != "nomic-embed-text" {
		t.Errorf("expected default embed model, got %s", cfg.Ollama.EmbedModel)
	}
	if cfg.Index.MaxChars != 1200 {
		t.Errorf("expected default max_chars 1200, got %d", cfg.Index.MaxChars)
	}
}

func TestGenerateTemplate(t *testing.T) {
	tmpl := GenerateTemplate()

	// Verify key sections exist
	required := []string{
		"chunks:", "dir:",
		"index:", "max_chars:",
		"ollama:", "embed_model:", "chat_model:",
		"products:", "base_url:",
		"server:", "port:", "host:",
		"telemetry:", "tracing:",
	}

	for _, s := range required {
		if !strings.Contains(tmpl, s) {
			t.Errorf("template missing %q", s)
		}
	}
}
