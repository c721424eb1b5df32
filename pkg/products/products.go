// Package products resolves catalog product records for item chunks
// via the public product search API. All lookups are best-effort: the
// catalog is an enrichment source, never a dependency, so failures
// resolve to empty results rather than errors.
package products

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/floorgraph/floorgraph/pkg/chunk"
)

const (
	defaultBaseURL = "https://search.floorplanner.com"
	defaultTimeout = 15 * time.Second
)

// Product is one resolved catalog record. Unknown fields are kept in
// Raw for callers that need more than the core attributes.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	Category string `json:"category"`

	Raw json.RawMessage `json:"-"`
}

// Config holds product resolver settings.
type Config struct {
	BaseURL string
	// EditorVersion optionally pins the catalog revision.
	EditorVersion string
	Timeout       time.Duration
}

// DefaultConfig returns settings for the public catalog endpoint.
func DefaultConfig() Config {
	return Config{BaseURL: defaultBaseURL, Timeout: defaultTimeout}
}

// Resolver looks up products by id.
type Resolver struct {
	cfg  Config
	http *http.Client
}

// NewResolver creates a resolver from cfg; zero-value fields fall back
// to defaults.
func NewResolver(cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Resolver{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// ByIDs resolves product records for the given ids. Best-effort: any
// transport, status, or decode failure yields an empty map. List
// responses are normalized to a map keyed by the record's own id.
func (r *Resolver) ByIDs(ctx context.Context, ids []string) map[string]Product {
	if len(ids) == 0 {
		return map[string]Product{}
	}

	endpoint := r.cfg.BaseURL + "/products/ids"
	if r.cfg.EditorVersion != "" {
		endpoint += "?editor_version=" + url.QueryEscape(r.cfg.EditorVersion)
	}
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return map[string]Product{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return map[string]Product{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.http.Do(req)
	if err != nil {
		return map[string]Product{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return map[string]Product{}
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return map[string]Product{}
	}
	return normalize(raw)
}

// normalize accepts either response shape: a map keyed by id, or a
// bare list of records carrying their own id field.
func normalize(raw json.RawMessage) map[string]Product {
	out := map[string]Product{}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err == nil {
		for id, rec := range asMap {
			p := decodeProduct(rec)
			if p.ID == "" {
				p.ID = id
			}
			out[id] = p
		}
		return out
	}

	var asList []json.RawMessage
	if err := json.Unmarshal(raw, &asList); err == nil {
		for _, rec := range asList {
			p := decodeProduct(rec)
			if p.ID == "" {
				continue
			}
			out[p.ID] = p
		}
	}
	return out
}

func decodeProduct(rec json.RawMessage) Product {
	var fields struct {
		ID       json.Number `json:"id"`
		AltID    json.Number `json:"_id"`
		SKU      string      `json:"sku"`
		Name     string      `json:"name"`
		Brand    string      `json:"brand"`
		Category string      `json:"category"`
	}
	_ = json.Unmarshal(rec, &fields)

	id := fields.ID.String()
	if id == "" {
		id = fields.AltID.String()
	}
	if id == "" {
		id = fields.SKU
	}
	return Product{
		ID:       id,
		Name:     fields.Name,
		Brand:    fields.Brand,
		Category: fields.Category,
		Raw:      rec,
	}
}

// idAttrKeys are the item attributes that may carry a catalog id, in
// preference order.
var idAttrKeys = []string{"productId", "product_id", "id", "sku", "fp_id"}

// CandidateIDs collects plausible catalog ids from an item chunk's
// extra attributes.
func CandidateIDs(it *chunk.ItemAttrs) []string {
	if it == nil {
		return nil
	}
	var out []string
	for _, k := range idAttrKeys {
		if v := strings.TrimSpace(it.Extra[k]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// RoomCandidateIDs collects unique catalog ids across every item in a
// room, in first-seen order.
func RoomCandidateIDs(s *chunk.Store, room *chunk.Chunk) []string {
	if room.Room == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, id := range room.Room.Items {
		c, err := s.Read(chunk.LevelItem, id)
		if err != nil || c.Item == nil {
			continue
		}
		for _, pid := range CandidateIDs(c.Item) {
			if _, dup := seen[pid]; dup {
				continue
			}
			seen[pid] = struct{}{}
			out = append(out, pid)
		}
	}
	return out
}

// String implements fmt.Stringer for log lines.
func (p Product) String() string {
	return fmt.Sprintf("%s (%s, %s)", p.Name, p.Brand, p.Category)
}
