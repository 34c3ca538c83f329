package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Sections are the headings the advisor is asked to answer, in order.
var Sections = []string{
	"Financial health summary",
	"Creditworthiness",
	"Risk factors",
	"Cost optimization",
	"Bank/NBFC product suggestions",
}

// GetSystemPrompt returns the fixed advisor persona.
func GetSystemPrompt() string {
	return "You are an SME financial advisor."
}

// GetUserPrompt embeds industry, language and the financial data as JSON.
func GetUserPrompt(financials any, industry, language string) (string, error) {
	data, err := json.MarshalIndent(financials, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "prompt: marshal financials")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Industry: %s\n", industry)
	fmt.Fprintf(&b, "Language: %s\n\n", language)
	b.WriteString("Financial Data:\n")
	b.Write(data)
	b.WriteString("\n\nProvide:\n")
	for i, s := range Sections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
