package usecase

import (
	"strings"

	"argus/internal/adapter/chunker"
)

// ExtractSnippet returns up to contextLength characters of context on
// each side of the first case-insensitive occurrence of query in text.
// When the query is not found verbatim, the snippet falls back to a
// plain truncation of the text from its start. Ellipsis markers flag
// truncation at either edge.
func ExtractSnippet(text, query string, contextLength int) string {
	index := strings.Index(strings.ToLower(text), strings.ToLower(query))
	if index == -1 {
		return chunker.TruncateText(text, contextLength*2)
	}

	start := index - contextLength
	if start < 0 {
		start = 0
	}
	end := index + len(query) + contextLength
	if end > len(text) {
		end = len(text)
	}

	snippet := text[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet = snippet + "..."
	}
	return snippet
}
