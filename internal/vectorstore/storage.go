// Package vectorstore defines the persistence contract for embedded chunks.
package vectorstore

import (
	"context"

	"guardian/internal/domain"
)

// Store is an open handle onto a chunk store. Entries are keyed by chunk
// fingerprint; adding an existing fingerprint replaces the entry, so ingestion
// stays idempotent even when a membership probe misjudges. Handles must be
// closed after use.
type Store interface {
	// Existing reports which of the given fingerprints are already stored.
	Existing(ctx context.Context, fingerprints []string) (map[string]struct{}, error)

	// Add embeds and persists the given chunks under their fingerprints.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Search embeds the query text and returns the k most similar chunks,
	// most relevant first.
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)

	// Count returns the number of stored entries.
	Count() (int, error)

	Close() error
}
