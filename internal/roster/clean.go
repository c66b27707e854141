package roster

import (
	"regexp"
	"sort"
	"strings"
)

// placeholders are filler values found in real rosters where a researcher
// had nothing to record. They carry no signal and are removed on ingest.
var placeholders = []string{
	"no board service info",
	"no employment information provided",
	"no info available",
	"no employment/military info in database",
	"no employment info",
	"no board service information provided",
	"no known board roles",
	"no publicly known board positions",
	"no board affiliations found.",
	"no board service identified",
	"no formal board service identified",
	"no professional information",
	"no board roles identified",
	"no explicit board memberships found",
	"no information found - refers to facilities not a person",
	"no information found",
	"nonprofit: none",
	"(retired)",
	"retired",
}

// orgSuffixes are legal-form and institution words that appear in nearly
// every employer name.
var orgSuffixes = []string{
	"inc", "corp", "corporation", "ltd", "llc", "co", "company", "foundation", "institute",
	"university", "college", "academy", "association", "group", "holdings",
}

var (
	placeholderPattern = compilePlaceholders(placeholders)
	lineBreakPattern   = regexp.MustCompile(`(?i)<br\s*/?>`)
	yearRangePattern   = regexp.MustCompile(`(?i)\b\d{4}\s*-\s*(\d{4}|present)\b`)
	spacePattern       = regexp.MustCompile(`\s+`)
	orgSuffixPattern   = regexp.MustCompile(`(?i)\b(` + strings.Join(orgSuffixes, "|") + `)\b\.?`)
)

func compilePlaceholders(phrases []string) *regexp.Regexp {
	sorted := append([]string(nil), phrases...)
	// Longer phrases first so a prefix never shadows the full phrase.
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, p := range sorted {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// Clean strips placeholder phrases, HTML line breaks and tenure year ranges
// from a cell value and collapses whitespace.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = lineBreakPattern.ReplaceAllString(text, " ")
	text = placeholderPattern.ReplaceAllString(text, " ")
	text = yearRangePattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// StripOrgSuffixes removes organization suffixes such as "Inc." or
// "Foundation" so that shared legal forms do not make unrelated employers
// look alike.
func StripOrgSuffixes(text string) string {
	if text == "" {
		return ""
	}
	text = orgSuffixPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
