package compare

import (
	"regexp"
	"strings"
)

// categoryRules map loose retailer naming onto canonical furniture
// categories. First match wins, so the order is load-bearing.
var categoryRules = []struct {
	re   *regexp.Regexp
	norm string
}{
	{regexp.MustCompile(`\bcoffee\b|\bcenter table\b`), "coffee table"},
	{regexp.MustCompile(`\bside table\b|\bend table\b|\bround side\b`), "side table"},
	{regexp.MustCompile(`\bconsole\b`), "console table"},
	{regexp.MustCompile(`\barm\s*chair\b|\bhost chair\b|\baccent chair\b|\bclub chair\b`), "armchair"},
	{regexp.MustCompile(`\bottoman\b|\bpouf\b`), "ottoman"},
	{regexp.MustCompile(`\bfloor lamp\b`), "floor lamp"},
	{regexp.MustCompile(`\btable lamp\b|\bdesk lamp\b`), "table lamp"},
	{regexp.MustCompile(`\brug\b|\bcarpet\b`), "rug"},
	{regexp.MustCompile(`\bbookcase\b|\bshelf\b|\bshelving\b|\bunit\b`), "shelving unit"},
	{regexp.MustCompile(`\bmedia\b|\bconsole\b.*media`), "media console"},
	{regexp.MustCompile(`\bfireplace\b|\bhearth\b`), "fireplace"},
	{regexp.MustCompile(`\bwall unit\b`), "shelving unit"},
}

// NormalizeCategory maps an item's name and raw type guess to a
// canonical category label. Falls back to generic lighting and table
// buckets, then to the raw guess, then to "decor".
func NormalizeCategory(name, typeGuess string) string {
	hay := strings.ToLower(name) + " " + strings.ToLower(typeGuess)
	for _, rule := range categoryRules {
		if rule.re.MatchString(hay) {
			return rule.norm
		}
	}
	if strings.Contains(hay, "lighting") {
		if strings.Contains(hay, "floor") {
			return "floor lamp"
		}
		return "table lamp"
	}
	if strings.Contains(hay, "table") {
		if strings.Contains(hay, "side") {
			return "side table"
		}
		return "coffee table"
	}
	if t := strings.ToLower(strings.TrimSpace(typeGuess)); t != "" {
		return t
	}
	return "decor"
}
