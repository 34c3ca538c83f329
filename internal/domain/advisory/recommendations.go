package advisory

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	bulletRe   = regexp.MustCompile(`^\s*(?:[-•]|\*|\d+[.)]|[a-z][.)])\s+(.+)$`)
	numberedRe = regexp.MustCompile(`^(\d+)[.)]\s*`)
)

type section struct {
	number     int
	key        string
	actionable bool
}

// sections mirror the five headings the prompt asks for.
var sections = []section{
	{1, "health summary", false},
	{2, "creditworthiness", false},
	{3, "risk factor", false},
	{4, "cost optimization", true},
	{5, "product suggestion", true},
	{5, "bank/nbfc", true},
}

const maxHeadingLen = 60

// ExtractRecommendations collects bullet lines under the cost optimization
// and product suggestion sections of an advisory summary. The summary itself
// is left untouched.
func ExtractRecommendations(summary string) []string {
	out := []string{}
	seen := map[string]bool{}
	inSection := false

	for _, line := range strings.Split(summary, "\n") {
		if known, actionable := headingOf(line); known {
			inSection = actionable
			continue
		}
		if !inSection {
			continue
		}
		m := bulletRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := strings.TrimSpace(m[1])
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// headingOf recognises a section heading. A line counts when it carries
// heading markup (#, fully bold), ends with a colon, or is a bare label.
// A numbered line must also carry the section's own number, so list items
// that merely mention a section never open or close one.
func headingOf(line string) (known, actionable bool) {
	s := strings.TrimSpace(line)
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "•") || strings.HasPrefix(s, "* ") {
		return false, false
	}

	marked := strings.HasPrefix(s, "#")
	s = strings.TrimSpace(strings.TrimLeft(s, "#"))
	if strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**") && len(s) > 4 {
		marked = true
	}
	s = strings.Trim(s, "*_ ")

	number := 0
	if m := numberedRe.FindStringSubmatch(s); m != nil {
		number, _ = strconv.Atoi(m[1])
		s = s[len(m[0]):]
	}
	s = strings.Trim(s, "*_ ")
	labelled := strings.HasSuffix(s, ":")
	s = strings.Trim(s, "*_: ")
	if s == "" || len(s) > maxHeadingLen {
		return false, false
	}
	// unmarked lines only count when they read like a title
	if !marked && !labelled && !isBareLabel(s) {
		return false, false
	}

	l := strings.ToLower(s)
	for _, sec := range sections {
		if !strings.Contains(l, sec.key) {
			continue
		}
		if number > 0 && number != sec.number {
			return false, false
		}
		return true, sec.actionable
	}
	return false, false
}

// isBareLabel reports whether s reads like a title rather than a sentence.
func isBareLabel(s string) bool {
	return !strings.ContainsAny(s, ".,;") && len(strings.Fields(s)) <= 4
}
