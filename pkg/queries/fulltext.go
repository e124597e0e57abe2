package queries

import "strings"

// luceneSpecials are the characters with special meaning to the store's
// fulltext query syntax. They are stripped from user input before the
// fuzzy query is assembled.
var luceneSpecials = strings.NewReplacer(
	`+`, " ",
	`-`, " ",
	`&`, " ",
	`|`, " ",
	`!`, " ",
	`(`, " ",
	`)`, " ",
	`{`, " ",
	`}`, " ",
	`[`, " ",
	`]`, " ",
	`^`, " ",
	`"`, " ",
	`~`, " ",
	`*`, " ",
	`?`, " ",
	`:`, " ",
	`\`, " ",
	`/`, " ",
)

// GenerateFulltextQuery converts a free-text phrase into a fulltext
// query: special characters are stripped, each remaining token gets an
// edit-distance-2 fuzzy operator, and tokens are joined with AND. The
// tolerance absorbs common misspellings when mapping medication names
// from user questions to stored values. Empty or fully stripped input
// yields "" and must not be executed.
func GenerateFulltextQuery(input string) string {
	words := strings.Fields(luceneSpecials.Replace(input))
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	for i, word := range words {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(word)
		b.WriteString("~2")
	}
	return b.String()
}
