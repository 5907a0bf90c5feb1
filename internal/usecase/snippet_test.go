package usecase

import (
	"strings"
	"testing"
)

func TestExtractSnippet(t *testing.T) {
	long := strings.Repeat("filler ", 40) + "needle in the haystack " + strings.Repeat("filler ", 40)

	tests := []struct {
		name          string
		text          string
		query         string
		contextLength int
		check         func(t *testing.T, snippet string)
	}{
		{
			name:          "query in middle gets both markers",
			text:          long,
			query:         "needle",
			contextLength: 30,
			check: func(t *testing.T, snippet string) {
				if !strings.Contains(snippet, "needle") {
					t.Errorf("snippet missing query: %q", snippet)
				}
				if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
					t.Errorf("expected ellipsis on both edges: %q", snippet)
				}
			},
		},
		{
			name:          "case insensitive match",
			text:          "The NEEDLE is here",
			query:         "needle",
			contextLength: 50,
			check: func(t *testing.T, snippet string) {
				if snippet != "The NEEDLE is here" {
					t.Errorf("expected full text, got %q", snippet)
				}
			},
		},
		{
			name:          "query at start has no leading marker",
			text:          "needle " + strings.Repeat("filler ", 40),
			query:         "needle",
			contextLength: 20,
			check: func(t *testing.T, snippet string) {
				if strings.HasPrefix(snippet, "...") {
					t.Errorf("unexpected leading ellipsis: %q", snippet)
				}
				if !strings.HasSuffix(snippet, "...") {
					t.Errorf("expected trailing ellipsis: %q", snippet)
				}
			},
		},
		{
			name:          "query not found falls back to truncation",
			text:          strings.Repeat("word ", 100),
			query:         "absent",
			contextLength: 20,
			check: func(t *testing.T, snippet string) {
				if !strings.HasSuffix(snippet, "...") {
					t.Errorf("expected truncated fallback: %q", snippet)
				}
				if len(snippet) > 50 {
					t.Errorf("fallback too long (%d chars): %q", len(snippet), snippet)
				}
			},
		},
		{
			name:          "short text returned whole",
			text:          "tiny",
			query:         "absent",
			contextLength: 20,
			check: func(t *testing.T, snippet string) {
				if snippet != "tiny" {
					t.Errorf("expected text unchanged, got %q", snippet)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ExtractSnippet(tt.text, tt.query, tt.contextLength))
		})
	}
}
