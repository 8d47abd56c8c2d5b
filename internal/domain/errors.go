package domain

import "errors"

// Failure classes surfaced by the pipeline. Callers classify with errors.Is;
// the wrapped cause stays visible in the message.
var (
	// ErrStoreUnavailable: the store could not be destroyed or renamed aside.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDocumentLoad: the source document is missing or unreadable.
	ErrDocumentLoad = errors.New("document load failed")

	// ErrEmbedding: the embedding capability is unreachable or returned garbage.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStoreOpen: a store that exists on disk could not be opened.
	ErrStoreOpen = errors.New("store open failed")
)
