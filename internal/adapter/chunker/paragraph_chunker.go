package chunker

import (
	"regexp"
	"strings"
)

var (
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	multiSpace     = regexp.MustCompile(` +`)
	multiNewline   = regexp.MustCompile(`\n\s*\n+`)
)

// ParagraphChunker splits text into chunks on paragraph boundaries.
// Paragraphs accumulate into a chunk until adding the next one would
// exceed targetSize tokens; a single paragraph larger than targetSize is
// split with a sliding window of targetSize tokens and overlap tokens of
// repetition, so no chunk ever exceeds targetSize.
type ParagraphChunker struct {
	targetSize int
	overlap    int
}

func NewParagraphChunker(targetSize, overlap int) *ParagraphChunker {
	if targetSize <= 0 {
		targetSize = 500
	}
	if overlap < 0 || overlap >= targetSize {
		overlap = targetSize / 10
	}
	return &ParagraphChunker{
		targetSize: targetSize,
		overlap:    overlap,
	}
}

// Chunk splits text into ordered chunk strings. Empty or whitespace-only
// input yields no chunks.
func (c *ParagraphChunker) Chunk(text string) []string {
	text = CleanWhitespace(text)
	if text == "" {
		return nil
	}

	paragraphs := paragraphSplit.Split(text, -1)

	var chunks []string
	var current []string
	currentSize := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			currentSize = 0
		}
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		words := strings.Fields(para)

		if len(words) > c.targetSize {
			// Oversized paragraph: emit what we have, then window it.
			flush()
			chunks = append(chunks, c.window(words)...)
			continue
		}

		if currentSize+len(words) > c.targetSize && len(current) > 0 {
			flush()
		}
		current = append(current, para)
		currentSize += len(words)
	}

	flush()

	return chunks
}

// window splits an oversized paragraph into targetSize-token chunks with
// overlap tokens repeated between consecutive windows.
func (c *ParagraphChunker) window(words []string) []string {
	var chunks []string
	step := c.targetSize - c.overlap

	for start := 0; start < len(words); start += step {
		end := start + c.targetSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks
}

// CleanWhitespace collapses runs of spaces and blank lines.
func CleanWhitespace(text string) string {
	text = multiSpace.ReplaceAllString(text, " ")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// TruncateText cuts text at a word boundary under maxLength characters,
// appending an ellipsis when anything was removed.
func TruncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	cut := text[:maxLength]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
