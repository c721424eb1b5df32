package normalize

import "strings"

// roomTypeRule classifies a room from the joined, lowercased display
// names of the items inside it.
type roomTypeRule struct {
	result string
	match  func(joined string) bool
}

func anyOf(keywords ...string) func(string) bool {
	return func(joined string) bool {
		for _, k := range keywords {
			if strings.Contains(joined, k) {
				return true
			}
		}
		return false
	}
}

// roomTypeRules are evaluated in order, first match wins. The ordering
// is semantically significant: a room with both a bed and a desk is a
// bedroom, not an office.
var roomTypeRules = []roomTypeRule{
	{"bedroom", anyOf("bed", "nightstand", "dresser", "wardrobe")},
	{"living", func(joined string) bool {
		seating := strings.Contains(joined, "sofa") || strings.Contains(joined, "couch")
		screen := strings.Contains(joined, "tv") || strings.Contains(joined, "television")
		return seating && screen
	}},
	{"kitchen", anyOf("stove", "sink", "fridge", "kitchen", "hood", "cabinet")},
	{"washroom", anyOf("toilet", "washbasin", "shower", "bathtub", "bath", "wc")},
	{"office", anyOf("desk", "office", "workstation")},
}

// GuessRoomType infers a room type from the display names of the items
// it contains. Returns "unknown" when no rule matches.
func GuessRoomType(itemNames []string) string {
	parts := make([]string, 0, len(itemNames))
	for _, n := range itemNames {
		parts = append(parts, strings.ToLower(n))
	}
	joined := strings.Join(parts, " ")

	for _, rule := range roomTypeRules {
		if rule.match(joined) {
			return rule.result
		}
	}
	return "unknown"
}
