package advisory

import "strings"

// Languages the advisory prompt is offered in.
var Languages = []string{"English", "Hindi"}

// NormalizeLanguage returns the canonical spelling of a supported language.
func NormalizeLanguage(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Languages {
		if strings.EqualFold(s, l) {
			return l, true
		}
	}
	return "", false
}
