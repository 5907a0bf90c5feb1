package chunker

import (
	"strings"
	"testing"
)

func TestChunkEmpty(t *testing.T) {
	c := NewParagraphChunker(100, 10)

	for _, input := range []string{"", "   ", "\n\n\t \n"} {
		if got := c.Chunk(input); len(got) != 0 {
			t.Errorf("Chunk(%q) = %d chunks, want 0", input, len(got))
		}
	}
}

func TestChunkShortText(t *testing.T) {
	c := NewParagraphChunker(100, 10)

	text := "A short paragraph.\n\nAnd another one."
	chunks := c.Chunk(text)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("expected chunk to equal input, got %q", chunks[0])
	}
}

func TestChunkParagraphBoundaries(t *testing.T) {
	c := NewParagraphChunker(10, 2)

	paras := []string{
		"one two three four five six",
		"seven eight nine ten eleven twelve",
		"thirteen fourteen fifteen",
	}
	text := strings.Join(paras, "\n\n")

	chunks := c.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Every paragraph must land whole in exactly one chunk.
	for _, para := range paras {
		found := 0
		for _, chunk := range chunks {
			if strings.Contains(chunk, para) {
				found++
			}
		}
		if found != 1 {
			t.Errorf("paragraph %q found in %d chunks, want 1", para, found)
		}
	}

	// No chunk exceeds the target size.
	for i, chunk := range chunks {
		if n := len(strings.Fields(chunk)); n > 10 {
			t.Errorf("chunk %d has %d tokens, want <= 10", i, n)
		}
	}
}

func TestChunkOversizedParagraphOverlap(t *testing.T) {
	c := NewParagraphChunker(20, 5)

	// One atomic 40-word paragraph forces sliding-window splitting.
	words := make([]string, 40)
	for i := range words {
		words[i] = "w" + string(rune('a'+i%26)) + strings.Repeat("x", i/26)
	}
	text := strings.Join(words, " ")

	chunks := c.Chunk(text)

	if len(chunks) < 2 {
		t.Fatalf("expected windowed chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if n := len(strings.Fields(chunk)); n > 20 {
			t.Errorf("chunk %d has %d tokens, want <= 20", i, n)
		}
	}

	// Tail of chunk i reappears at the head of chunk i+1.
	for i := 0; i < len(chunks)-1; i++ {
		prev := strings.Fields(chunks[i])
		next := strings.Fields(chunks[i+1])
		tail := strings.Join(prev[len(prev)-5:], " ")
		head := strings.Join(next[:5], " ")
		if tail != head {
			t.Errorf("chunks %d/%d: overlap mismatch: tail %q, head %q", i, i+1, tail, head)
		}
	}
}

func TestChunkThreeParagraphScenario(t *testing.T) {
	c := NewParagraphChunker(20, 5)

	text := "alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu nu xi\n\n" +
		"omicron pi rho sigma tau upsilon phi chi psi omega one two three\n\n" +
		"four five six seven eight nine ten eleven twelve thirteen"

	chunks := c.Chunk(text)

	if len(chunks) < 2 || len(chunks) > 3 {
		t.Fatalf("expected 2 or 3 chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := len(strings.Fields(chunk)); n > 20 {
			t.Errorf("chunk %d has %d tokens, want <= 20", i, n)
		}
	}
}

func TestChunkOrderPreservesText(t *testing.T) {
	c := NewParagraphChunker(8, 0)

	paras := []string{"a b c", "d e f", "g h i", "j k l"}
	text := strings.Join(paras, "\n\n")

	chunks := c.Chunk(text)

	// With zero overlap, chunks concatenated in order reproduce the
	// paragraph sequence exactly.
	joined := strings.Join(chunks, "\n\n")
	if joined != text {
		t.Errorf("concatenated chunks = %q, want %q", joined, text)
	}
}

func TestCleanWhitespace(t *testing.T) {
	got := CleanWhitespace("  a   b\n\n\n\nc  ")
	want := "a b\n\nc"
	if got != want {
		t.Errorf("CleanWhitespace = %q, want %q", got, want)
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("short", 10); got != "short" {
		t.Errorf("unexpected truncation: %q", got)
	}

	got := TruncateText("the quick brown fox jumps", 15)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis suffix, got %q", got)
	}
	if len(got) > 18 {
		t.Errorf("truncated text too long: %q", got)
	}
}
