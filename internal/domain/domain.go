package domain

import (
	"context"
	"path/filepath"
)

// Page is one text unit of a loaded document, in extraction order.
type Page struct {
	Number int
	Text   string
}

// Document represents a single source file loaded into the system.
// A document is identified by its path; it is immutable once ingested.
type Document struct {
	Path  string
	Pages []Page
}

// Name returns the document's basename, used as its display identity.
func (d Document) Name() string { return filepath.Base(d.Path) }

// Chunk is a bounded span of document text, the unit of embedding and retrieval.
// Fingerprint is a content digest that doubles as the chunk's identity in the store.
type Chunk struct {
	Source      string
	Page        int
	Index       int
	Text        string
	Fingerprint string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}

// Loader reads a source document into ordered page texts.
type Loader interface {
	Load(ctx context.Context, path string) (Document, error)
}

// Chunker splits documents into chunks suitable for embedding.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a fixed-dimension vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
