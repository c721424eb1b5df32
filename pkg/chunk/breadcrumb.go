package chunk

import "strings"

// maxBreadcrumbHops bounds the parent walk; the hierarchy is five
// levels deep, so six hops covers it with room for a spare link.
const maxBreadcrumbHops = 6

// Breadcrumb reconstructs a human-readable ancestry string by following
// parent ids through byID. Each visited node renders as "level:name"
// (bare level when unnamed). The walk stops at a missing parent id, a
// dangling reference, a revisited id, or the hop bound. The chain is
// returned root-to-leaf, joined with " > ".
func Breadcrumb(c *Chunk, byID map[string]*Chunk) string {
	var chain []string
	seen := make(map[string]bool)

	cur := c
	for hops := 0; hops < maxBreadcrumbHops && cur != nil; hops++ {
		if name := cur.Name(); name != "" {
			chain = append(chain, string(cur.Level)+":"+name)
		} else {
			chain = append(chain, string(cur.Level))
		}

		pid := cur.ParentID
		if pid == "" || seen[pid] {
			break
		}
		seen[pid] = true
		cur = byID[pid]
	}

	// Reverse to root-to-leaf order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return strings.Join(chain, " > ")
}
