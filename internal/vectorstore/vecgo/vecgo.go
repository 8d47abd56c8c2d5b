// Package vecgo persists chunks in an embedded vecgo engine directory.
package vecgo

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/vecgo/distance"
	"github.com/hupe1980/vecgo/engine"
	"github.com/hupe1980/vecgo/model"
	"go.uber.org/zap"

	"guardian/internal/domain"
	"guardian/internal/fingerprint"
)

// Options configures an opened store.
type Options struct {
	// Dimension overrides the embedder's vector dimension. Required when the
	// store is opened without an embedder (introspection only).
	Dimension int
	Logger    *zap.SugaredLogger
}

// Store is a persistent chunk store backed by a vecgo engine directory.
// Entries are keyed by the numeric form of the chunk fingerprint; inserting an
// existing key replaces the entry.
type Store struct {
	eng      *engine.Engine
	embedder domain.Embedder
}

// Open opens the store directory, creating it when absent. The embedder may be
// nil for operations that never embed (counting entries); Add and Search then
// fail. Cosine is the similarity metric, matching the embedding geometry.
func Open(dir string, embedder domain.Embedder, opts Options) (*Store, error) {
	dim := opts.Dimension
	if dim == 0 && embedder != nil {
		dim = embedder.Dimension()
	}
	if dim <= 0 {
		return nil, fmt.Errorf("open store %s: embedding dimension unknown", dir)
	}
	var engOpts []engine.Option
	if opts.Logger != nil {
		engOpts = append(engOpts, engine.WithLogger(opts.Logger))
	}
	eng, err := engine.Open(dir, dim, distance.MetricCosine, engOpts...)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	return &Store{eng: eng, embedder: embedder}, nil
}

// Existing reports which fingerprints already have an entry. A failed lookup
// counts as absent: the keyed upsert keeps the store consistent if that ever
// misjudges, only the skip counters would be off.
func (s *Store) Existing(ctx context.Context, fingerprints []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	for _, fp := range fingerprints {
		key, err := fingerprint.Key(fp)
		if err != nil {
			continue
		}
		if _, err := s.eng.Get(model.PrimaryKey(key)); err == nil {
			existing[fp] = struct{}{}
		}
	}
	return existing, nil
}

func (s *Store) Add(ctx context.Context, chunks []domain.Chunk) error {
	if s.embedder == nil {
		return errors.New("store opened without embedding capability")
	}
	records := make([]model.Record, 0, len(chunks))
	for _, c := range chunks {
		key, err := fingerprint.Key(c.Fingerprint)
		if err != nil {
			return fmt.Errorf("chunk %d of %s: %w", c.Index, c.Source, err)
		}
		vec, err := s.embedder.Embed(ctx, c.Text)
		if err != nil {
			return err
		}
		records = append(records, model.Record{
			PK:     model.PrimaryKey(key),
			Vector: vec,
			Metadata: map[string]interface{}{
				"source": c.Source,
				"page":   c.Page,
				"index":  c.Index,
			},
			Payload: []byte(c.Text),
		})
	}
	if err := s.eng.BatchInsert(records); err != nil {
		return fmt.Errorf("insert %d chunks: %w", len(records), err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if s.embedder == nil {
		return nil, errors.New("store opened without embedding capability")
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	candidates, err := s.eng.Search(ctx, vec, k, engine.WithMetadata(), engine.WithPayload())
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	results := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		chunk := domain.Chunk{
			Text:        string(c.Payload),
			Fingerprint: fmt.Sprintf("%016x", uint64(c.PK)),
		}
		if src, ok := c.Metadata["source"].(string); ok {
			chunk.Source = src
		}
		chunk.Page = asInt(c.Metadata["page"])
		chunk.Index = asInt(c.Metadata["index"])
		results = append(results, domain.SearchResult{Chunk: chunk, Score: c.Score})
	}
	return results, nil
}

func (s *Store) Count() (int, error) {
	return s.eng.Stats().RowCount, nil
}

func (s *Store) Close() error {
	return s.eng.Close()
}

// asInt tolerates the numeric widths metadata values come back with.
func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
