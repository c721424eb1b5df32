package compare

import "sort"

// Overlap is the exact signature comparison of two item sets.
// Signatures are deduplicated before comparing; Jaccard is 0 when both
// sides are empty.
type Overlap struct {
	Shared []Signature `json:"shared"`
	OnlyA  []Signature `json:"only_a"`
	OnlyB  []Signature `json:"only_b"`

	SharedCount int     `json:"shared_count"`
	UnionCount  int     `json:"union_count"`
	CountA      int     `json:"count_a"`
	CountB      int     `json:"count_b"`
	Jaccard     float64 `json:"jaccard"`
}

// ExactOverlap computes set intersection, differences, and Jaccard on
// full (name, brand, type) signatures.
func ExactOverlap(a, b []Signature) Overlap {
	setA := toSet(a)
	setB := toSet(b)

	var o Overlap
	for sig := range setA {
		if _, ok := setB[sig]; ok {
			o.Shared = append(o.Shared, sig)
		} else {
			o.OnlyA = append(o.OnlyA, sig)
		}
	}
	for sig := range setB {
		if _, ok := setA[sig]; !ok {
			o.OnlyB = append(o.OnlyB, sig)
		}
	}
	sortSignatures(o.Shared)
	sortSignatures(o.OnlyA)
	sortSignatures(o.OnlyB)

	o.SharedCount = len(o.Shared)
	o.CountA = len(setA)
	o.CountB = len(setB)
	o.UnionCount = len(setA) + len(setB) - o.SharedCount
	if o.UnionCount > 0 {
		o.Jaccard = float64(o.SharedCount) / float64(o.UnionCount)
	}
	return o
}

func toSet(sigs []Signature) map[Signature]struct{} {
	set := make(map[Signature]struct{}, len(sigs))
	for _, s := range sigs {
		set[s] = struct{}{}
	}
	return set
}

// PairCount is one (brand, type) entry in a relaxed overlap. Count is
// the multiset min for shared pairs and the side's own count for
// one-sided pairs. Example carries one item name for flavor; it is
// empty for shared pairs.
type PairCount struct {
	Brand   string `json:"brand"`
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Example string `json:"example,omitempty"`
}

// Relaxed is the (brand, type) multiset comparison of two item sets.
// Pairs with neither brand nor type are ignored as noise.
type Relaxed struct {
	Shared []PairCount `json:"shared"`
	OnlyA  []PairCount `json:"only_a"`
	OnlyB  []PairCount `json:"only_b"`

	SharedTotal int `json:"shared_total"`
	TotalA      int `json:"total_a"`
	TotalB      int `json:"total_b"`
}

// RelaxedOverlap collapses signatures to (brand, type) multisets and
// intersects them, so exact SKU and naming differences do not matter.
func RelaxedOverlap(a, b []Signature) Relaxed {
	countsA, namesA := pairCounts(a)
	countsB, namesB := pairCounts(b)

	var r Relaxed
	for p, ca := range countsA {
		r.TotalA += ca
		if cb, ok := countsB[p]; ok {
			r.Shared = append(r.Shared, PairCount{Brand: p.Brand, Type: p.Type, Count: min(ca, cb)})
			r.SharedTotal += min(ca, cb)
		} else {
			r.OnlyA = append(r.OnlyA, PairCount{Brand: p.Brand, Type: p.Type, Count: ca, Example: namesA[p]})
		}
	}
	for p, cb := range countsB {
		r.TotalB += cb
		if _, ok := countsA[p]; !ok {
			r.OnlyB = append(r.OnlyB, PairCount{Brand: p.Brand, Type: p.Type, Count: cb, Example: namesB[p]})
		}
	}
	sortPairCounts(r.Shared)
	sortPairCounts(r.OnlyA)
	sortPairCounts(r.OnlyB)
	return r
}

func pairCounts(sigs []Signature) (map[Pair]int, map[Pair]string) {
	counts := make(map[Pair]int)
	names := make(map[Pair]string)
	for _, s := range sigs {
		p := s.Pair()
		if p.empty() {
			continue
		}
		counts[p]++
		if _, ok := names[p]; !ok {
			names[p] = s.Name
		}
	}
	return counts, names
}

func sortPairCounts(pcs []PairCount) {
	sort.Slice(pcs, func(i, j int) bool {
		if pcs[i].Brand != pcs[j].Brand {
			return pcs[i].Brand < pcs[j].Brand
		}
		return pcs[i].Type < pcs[j].Type
	})
}

// LabelCount is one frequency rollup entry.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Rollup summarizes an item set by brand, by type, and by brand × type
// pair, each truncated to the top entries.
type Rollup struct {
	Brands []LabelCount `json:"brands_top"`
	Types  []LabelCount `json:"types_top"`
	Pairs  []LabelCount `json:"pairs_top"`
}

const rollupTopN = 10

// Aggregate rolls up signature frequencies. Ties rank by label so the
// output is deterministic.
func Aggregate(sigs []Signature) Rollup {
	brands := make(map[string]int)
	types := make(map[string]int)
	pairs := make(map[string]int)
	for _, s := range sigs {
		if s.Brand != "" {
			brands[s.Brand]++
		}
		if s.Type != "" {
			types[s.Type]++
		}
		if s.Brand != "" && s.Type != "" {
			pairs[s.Brand+"×"+s.Type]++
		}
	}
	return Rollup{
		Brands: topLabels(brands, rollupTopN),
		Types:  topLabels(types, rollupTopN),
		Pairs:  topLabels(pairs, rollupTopN),
	}
}

func topLabels(counts map[string]int, n int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, c := range counts {
		out = append(out, LabelCount{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
