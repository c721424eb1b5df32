// Package index builds and loads the flat-file retrieval index: a
// packed float32 vector array, a line-oriented metadata file, and a
// small config record. Row i of the vector array and line i of the
// metadata file describe the same chunk; that 1:1 ordering is a
// correctness requirement for every search.
package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	vectorsFile = "vectors.bin"
	metaFile    = "meta.jsonl"
	configFile  = "config.json"

	// vectorsMagic identifies the packed vector file format.
	vectorsMagic = "FGV1"
)

// ErrCorrupt is returned when the three index artifacts disagree.
var ErrCorrupt = errors.New("index artifacts are inconsistent")

// Meta is one metadata record, one line of meta.jsonl.
type Meta struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Path       string `json:"path"`
	Title      string `json:"title"`
	Breadcrumb string `json:"breadcrumb"`
}

// Config is the index configuration record written alongside the
// vectors, used for retrieval sanity checks.
type Config struct {
	ChunksRoot string `json:"chunks_root"`
	EmbedModel string `json:"embed_model"`
	Count      int    `json:"count"`
	Dims       int    `json:"dims"`
	CreatedAt  int64  `json:"created_at"`
}

// Index is a loaded retrieval index. It is read-only for the session.
type Index struct {
	Vectors [][]float32
	Meta    []Meta
	Config  Config
}

// Load reads the index artifacts from dir and validates that vector
// count, metadata count, and the config record agree.
func Load(dir string) (*Index, error) {
	vectors, err := readVectors(filepath.Join(dir, vectorsFile))
	if err != nil {
		return nil, err
	}
	meta, err := readMeta(filepath.Join(dir, metaFile))
	if err != nil {
		return nil, err
	}

	var cfg Config
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read index config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode index config: %w", err)
	}

	if len(vectors) != len(meta) {
		return nil, fmt.Errorf("%w: %d vectors vs %d metadata lines", ErrCorrupt, len(vectors), len(meta))
	}
	if cfg.Count != len(vectors) {
		return nil, fmt.Errorf("%w: config says %d vectors, file has %d", ErrCorrupt, cfg.Count, len(vectors))
	}
	if len(vectors) > 0 && cfg.Dims != len(vectors[0]) {
		return nil, fmt.Errorf("%w: config says %d dims, vectors have %d", ErrCorrupt, cfg.Dims, len(vectors[0]))
	}
	return &Index{Vectors: vectors, Meta: meta, Config: cfg}, nil
}

// Write persists a complete index to dir.
func Write(dir string, vectors [][]float32, meta []Meta, chunksRoot, embedModel string) error {
	if len(vectors) != len(meta) {
		return fmt.Errorf("%w: %d vectors vs %d metadata records", ErrCorrupt, len(vectors), len(meta))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	if err := writeVectors(filepath.Join(dir, vectorsFile), vectors, dims); err != nil {
		return err
	}
	if err := writeMeta(filepath.Join(dir, metaFile), meta); err != nil {
		return err
	}

	cfg := Config{
		ChunksRoot: chunksRoot,
		EmbedModel: embedModel,
		Count:      len(vectors),
		Dims:       dims,
		CreatedAt:  time.Now().Unix(),
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFile), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write index config: %w", err)
	}
	return nil
}

func writeVectors(path string, vectors [][]float32, dims int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(vectorsMagic); err != nil {
		return fmt.Errorf("failed to write vector header: %w", err)
	}
	header := []uint32{uint32(len(vectors)), uint32(dims)}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("failed to write vector header: %w", err)
	}
	for i, vec := range vectors {
		if len(vec) != dims {
			return fmt.Errorf("%w: vector %d has %d dims, expected %d", ErrCorrupt, i, len(vec), dims)
		}
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("failed to write vector %d: %w", i, err)
		}
	}
	return w.Flush()
}

func readVectors(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(vectorsMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read vector header: %w", err)
	}
	if string(magic) != vectorsMagic {
		return nil, fmt.Errorf("%w: bad vector file magic %q", ErrCorrupt, magic)
	}
	var header [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read vector header: %w", err)
	}
	count, dims := int(header[0]), int(header[1])

	vectors := make([][]float32, count)
	for i := 0; i < count; i++ {
		vec := make([]float32, dims)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("%w: truncated vector file at row %d", ErrCorrupt, i)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func writeMeta(path string, meta []Meta) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metadata file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, m := range meta {
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("failed to write metadata line: %w", err)
		}
	}
	return w.Flush()
}

func readMeta(path string) ([]Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	var out []Meta
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m Meta
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("failed to decode metadata line %d: %w", len(out)+1, err)
		}
		out = append(out, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	return out, nil
}
