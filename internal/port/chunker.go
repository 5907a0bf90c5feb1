package port

// Chunker splits raw document text into bounded, ordered segments.
// Output order is significant: it becomes the chunk index assignment.
type Chunker interface {
	Chunk(text string) []string
}
