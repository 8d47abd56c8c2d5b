package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"guardian/internal/domain"
)

// Storage is an in-memory chunk store using brute-force cosine similarity.
// It keeps the fingerprint-keyed upsert semantics of the persistent store, so
// the ingestion and retrieval layers behave identically against it.
type Storage struct {
	mu       sync.RWMutex
	embedder domain.Embedder
	byFp     map[string]int
	vectors  [][]float32
	chunks   []domain.Chunk
}

func NewStorage(embedder domain.Embedder) *Storage {
	return &Storage{embedder: embedder, byFp: make(map[string]int)}
}

func (s *Storage) Existing(ctx context.Context, fingerprints []string) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing := make(map[string]struct{})
	for _, fp := range fingerprints {
		if _, ok := s.byFp[fp]; ok {
			existing[fp] = struct{}{}
		}
	}
	return existing, nil
}

func (s *Storage) Add(ctx context.Context, chunks []domain.Chunk) error {
	if s.embedder == nil {
		return errors.New("store opened without embedding capability")
	}
	for _, c := range chunks {
		if c.Fingerprint == "" {
			return fmt.Errorf("chunk %d of %s has no fingerprint", c.Index, c.Source)
		}
		vec, err := s.embedder.Embed(ctx, c.Text)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if i, ok := s.byFp[c.Fingerprint]; ok {
			s.chunks[i] = c
			s.vectors[i] = vec
		} else {
			s.byFp[c.Fingerprint] = len(s.chunks)
			s.chunks = append(s.chunks, c)
			s.vectors = append(s.vectors, vec)
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if s.embedder == nil {
		return nil, errors.New("store opened without embedding capability")
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		k = 5
	}
	scores := make([]float32, len(s.vectors))
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], vector)
	}
	idxs := argsortDesc(scores)
	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.SearchResult, 0, k)
	for i := 0; i < k; i++ {
		j := idxs[i]
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *Storage) Close() error { return nil }

func dot(a, b []float32) float32 {
	n := min(len(a), len(b))
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float32) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	quicksort(idxs, vals, 0, len(idxs)-1)
	return idxs
}

func quicksort(idxs []int, vals []float32, lo, hi int) {
	if lo >= hi {
		return
	}
	i, j := lo, hi
	pivot := vals[idxs[(lo+hi)/2]]
	for i <= j {
		for vals[idxs[i]] > pivot { // desc order
			i++
		}
		for vals[idxs[j]] < pivot {
			j--
		}
		if i <= j {
			idxs[i], idxs[j] = idxs[j], idxs[i]
			i++
			j--
		}
	}
	if lo < j {
		quicksort(idxs, vals, lo, j)
	}
	if i < hi {
		quicksort(idxs, vals, i, hi)
	}
}
