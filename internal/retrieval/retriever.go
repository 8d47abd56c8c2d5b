// Package retrieval ranks stored chunks against a query and narrows the
// results to the documents the caller cares about.
package retrieval

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"guardian/internal/domain"
	"guardian/internal/vectorstore"
)

const (
	// DefaultPoolSize is how many candidates are pulled from the store
	// before any per-document filtering is applied.
	DefaultPoolSize = 20

	// DefaultLimit is how many chunks a query returns when the caller
	// does not ask for a specific amount.
	DefaultLimit = 5
)

// Scope narrows retrieval to one document or leaves it open to all of them.
type Scope struct {
	document string
}

// SingleDocument restricts results to chunks whose source matches the
// given document. Comparison is by basename, so callers can pass either
// a full path or a bare file name.
func SingleDocument(name string) Scope {
	return Scope{document: filepath.Base(name)}
}

// AllDocuments imposes no source restriction.
func AllDocuments() Scope {
	return Scope{}
}

// Result is a ranked set of chunks plus a per-source breakdown.
type Result struct {
	Chunks []domain.SearchResult

	// Sources lists the documents the chunks came from, in the order
	// they first appear in the ranking.
	Sources []string

	// Distribution counts chunks per source document.
	Distribution map[string]int

	// UsedFallback is set when a single-document scope matched nothing
	// and the unfiltered ranking was returned instead.
	UsedFallback bool
}

// Retriever answers similarity queries over an open store.
type Retriever struct {
	store    vectorstore.Store
	poolSize int
	log      *zap.SugaredLogger
}

// NewRetriever wraps an open store. A non-positive poolSize falls back
// to DefaultPoolSize.
func NewRetriever(store vectorstore.Store, poolSize int, log *zap.SugaredLogger) *Retriever {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	return &Retriever{store: store, poolSize: poolSize, log: log}
}

// Retrieve returns up to k chunks relevant to the query within the scope.
//
// For a single-document scope it searches a wider candidate pool first and
// filters by source. When the filter eliminates every candidate the
// unfiltered ranking is returned and UsedFallback is set, so the caller
// still gets context instead of an empty answer.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope Scope, k int) (Result, error) {
	if k <= 0 {
		k = DefaultLimit
	}

	if scope.document == "" {
		hits, err := r.store.Search(ctx, query, k)
		if err != nil {
			return Result{}, fmt.Errorf("search: %w", err)
		}
		return r.assemble(hits, false), nil
	}

	pool := r.poolSize
	if pool < k {
		pool = k
	}
	hits, err := r.store.Search(ctx, query, pool)
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}

	var filtered []domain.SearchResult
	for _, hit := range hits {
		if filepath.Base(hit.Chunk.Source) == scope.document {
			filtered = append(filtered, hit)
		}
	}

	if len(filtered) == 0 && len(hits) > 0 {
		r.log.Warnw("no chunks matched document, falling back to unfiltered results",
			"document", scope.document, "pool", len(hits))
		if len(hits) > k {
			hits = hits[:k]
		}
		return r.assemble(hits, true), nil
	}

	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return r.assemble(filtered, false), nil
}

func (r *Retriever) assemble(hits []domain.SearchResult, fallback bool) Result {
	res := Result{
		Chunks:       hits,
		Distribution: make(map[string]int),
		UsedFallback: fallback,
	}
	for _, hit := range hits {
		source := filepath.Base(hit.Chunk.Source)
		if _, seen := res.Distribution[source]; !seen {
			res.Sources = append(res.Sources, source)
		}
		res.Distribution[source]++
	}
	return res
}
