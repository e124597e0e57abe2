package tools

import "strings"

// unicodeReplacer maps symbols common in clinical text to ASCII
// equivalents before the non-ASCII strip, so meaning survives where a
// plain strip would drop it.
var unicodeReplacer = strings.NewReplacer(
	"≥", ">=",
	"≤", "<=",
	"±", "+/-",
	"μ", "u",
	"•", "*",
	"–", "-",
	"—", "--",
	"’", "'",
	"“", `"`,
	"”", `"`,
)

// SanitizeUnicode normalizes tool output to plain ASCII. Known symbols
// get readable replacements; anything else non-ASCII is dropped.
func SanitizeUnicode(text string) string {
	if text == "" {
		return text
	}

	text = unicodeReplacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
