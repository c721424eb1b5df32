package chunk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when a chunk file does not exist.
var ErrNotFound = errors.New("chunk not found")

// Store reads and writes one JSON file per chunk under typed
// subdirectories: <root>/<level>/<chunk_id>.json. Writes are
// once-per-id, so the store needs no locking.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute file path for a chunk.
func (s *Store) Path(level Level, id string) string {
	return filepath.Join(s.root, string(level), id+".json")
}

// RelPath returns the store-relative path for a chunk, e.g.
// "room/<id>.json". This is the form recorded in index metadata.
func RelPath(level Level, id string) string {
	return string(level) + "/" + id + ".json"
}

// Write persists one chunk.
func (s *Store) Write(c *Chunk) error {
	path := s.Path(c.Level, c.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create chunk dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chunk %s: %w", c.ID, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write chunk %s: %w", c.ID, err)
	}
	return nil
}

// WriteAll persists a batch of chunks.
func (s *Store) WriteAll(chunks []*Chunk) error {
	for _, c := range chunks {
		if err := s.Write(c); err != nil {
			return err
		}
	}
	return nil
}

// Read loads one chunk by level and id.
func (s *Store) Read(level Level, id string) (*Chunk, error) {
	return s.readFile(s.Path(level, id))
}

// ReadRel loads a chunk by store-relative path ("room/<id>.json").
// Bare ids without a level prefix are rejected.
func (s *Store) ReadRel(rel string) (*Chunk, error) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if strings.Contains(rel, "..") || !strings.Contains(rel, "/") {
		return nil, fmt.Errorf("invalid chunk path %q", rel)
	}
	return s.readFile(filepath.Join(s.root, filepath.FromSlash(rel)))
}

func (s *Store) readFile(path string) (*Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read chunk file: %w", err)
	}
	var c Chunk
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &c, nil
}

// List returns the store-relative paths of all chunks at one level,
// sorted by filename.
func (s *Store) List(level Level) ([]string, error) {
	dir := filepath.Join(s.root, string(level))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s chunks: %w", level, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, string(level)+"/"+e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// ListAll returns the relative paths of every chunk in canonical level
// order (project, floor, design, room, item), each level sorted by
// filename. The index builder depends on this ordering.
func (s *Store) ListAll() ([]string, error) {
	var out []string
	for _, level := range Levels {
		paths, err := s.List(level)
		if err != nil {
			return nil, err
		}
		out = append(out, paths...)
	}
	return out, nil
}

// ByID loads every chunk into a map keyed by chunk id, for breadcrumb
// resolution. Unreadable files are skipped.
func (s *Store) ByID() (map[string]*Chunk, error) {
	paths, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*Chunk, len(paths))
	for _, rel := range paths {
		c, err := s.ReadRel(rel)
		if err != nil {
			continue
		}
		byID[c.ID] = c
	}
	return byID, nil
}

// Rooms loads every room chunk with its relative path.
func (s *Store) Rooms() ([]StoredChunk, error) {
	return s.readLevel(LevelRoom)
}

// Projects loads every project chunk with its relative path.
func (s *Store) Projects() ([]StoredChunk, error) {
	return s.readLevel(LevelProject)
}

// StoredChunk pairs a chunk with its store-relative path.
type StoredChunk struct {
	Rel   string
	Chunk *Chunk
}

func (s *Store) readLevel(level Level) ([]StoredChunk, error) {
	paths, err := s.List(level)
	if err != nil {
		return nil, err
	}
	out := make([]StoredChunk, 0, len(paths))
	for _, rel := range paths {
		c, err := s.ReadRel(rel)
		if err != nil {
			continue
		}
		out = append(out, StoredChunk{Rel: rel, Chunk: c})
	}
	return out, nil
}

// FindProjectByName returns the project chunk whose name matches
// (case-insensitive), or ErrNotFound.
func (s *Store) FindProjectByName(name string) (*Chunk, error) {
	projects, err := s.Projects()
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, p := range projects {
		if strings.ToLower(strings.TrimSpace(p.Chunk.Name())) == want {
			return p.Chunk, nil
		}
	}
	return nil, ErrNotFound
}

// CoerceID extracts a bare chunk id from forms like "item/AAA.json",
// "AAA.json", or "AAA".
func CoerceID(spec string) string {
	s := strings.TrimSpace(spec)
	s = strings.TrimSuffix(s, ".json")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
