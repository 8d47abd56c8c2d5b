package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guardian/internal/domain"
	"guardian/internal/fingerprint"
	"guardian/internal/vectorstore"
	"guardian/internal/vectorstore/memory"
)

type flatEmbedder struct{}

func (flatEmbedder) Name() string   { return "flat" }
func (flatEmbedder) Dimension() int { return 2 }
func (flatEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, float32(len(text) % 7)}, nil
}

// diskBackend ties a memory store's lifetime to a directory, matching the
// persistent store's observable behavior: removing the directory loses the
// contents, reopening an existing directory sees them again.
type diskBackend struct {
	dir   string
	store *memory.Storage
}

func (b *diskBackend) open(ctx context.Context) (vectorstore.Store, error) {
	if _, err := os.Stat(b.dir); err != nil {
		if err := os.MkdirAll(b.dir, 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(filepath.Join(b.dir, "segment_0.bin"), []byte("data"), 0o644); err != nil {
			return nil, err
		}
		b.store = memory.NewStorage(flatEmbedder{})
	}
	if b.store == nil {
		b.store = memory.NewStorage(flatEmbedder{})
	}
	return b.store, nil
}

func newTestManager(t *testing.T) (*Manager, *diskBackend) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "compliance_db")
	backend := &diskBackend{dir: dir}
	m := NewManager(dir, backend.open, zap.NewNop().Sugar())
	m.retryBackoff = time.Millisecond
	return m, backend
}

func docWithChunks(name string, texts ...string) (domain.Document, []domain.Chunk) {
	doc := domain.Document{Path: name, Pages: []domain.Page{{Number: 1, Text: "x"}}}
	var chunks []domain.Chunk
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			Source: name, Page: 1, Index: i, Text: text, Fingerprint: fingerprint.Sum(text),
		})
	}
	return doc, chunks
}

func TestIngestFreshThenAccumulate(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	docA, chunksA := docWithChunks("a.pdf", "first clause", "second clause", "third clause")

	st, stats, err := m.Ingest(ctx, docA, chunksA, ModeFresh)
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 3, Skipped: 0, Total: 3}, stats)
	require.NoError(t, st.Close())

	st, stats, err = m.Ingest(ctx, docA, chunksA, ModeAccumulate)
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 0, Skipped: 3, Total: 3}, stats)
	require.NoError(t, st.Close())

	docB, chunksB := docWithChunks("b.pdf", "fourth clause", "fifth clause")
	st, stats, err = m.Ingest(ctx, docB, chunksB, ModeAccumulate)
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 2, Skipped: 0, Total: 2}, stats)

	n, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.NoError(t, st.Close())
}

func TestIngestStatsAlwaysSum(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	for round := 0; round < 4; round++ {
		doc, chunks := docWithChunks("a.pdf", "alpha", "beta", fmt.Sprintf("round %d", round))
		st, stats, err := m.Ingest(ctx, doc, chunks, ModeAccumulate)
		require.NoError(t, err)
		assert.Equal(t, stats.Total, stats.Inserted+stats.Skipped)
		require.NoError(t, st.Close())
	}
}

func TestIngestFreshResetsPriorContents(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	docA, chunksA := docWithChunks("a.pdf", "one", "two", "three")
	st, _, err := m.Ingest(ctx, docA, chunksA, ModeFresh)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	docB, chunksB := docWithChunks("b.pdf", "four", "five")
	st, stats, err := m.Ingest(ctx, docB, chunksB, ModeFresh)
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 2, Skipped: 0, Total: 2}, stats)

	n, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, st.Close())
}

func TestIngestRejectsUnknownMode(t *testing.T) {
	m, _ := newTestManager(t)
	doc, chunks := docWithChunks("a.pdf", "text")
	_, _, err := m.Ingest(context.Background(), doc, chunks, Mode("interactive"))
	require.Error(t, err)
}

func TestIngestAccumulateOnAbsentStore(t *testing.T) {
	m, _ := newTestManager(t)
	doc, chunks := docWithChunks("a.pdf", "only chunk")

	st, stats, err := m.Ingest(context.Background(), doc, chunks, ModeAccumulate)
	require.NoError(t, err)
	assert.Equal(t, Stats{Inserted: 1, Skipped: 0, Total: 1}, stats)
	require.NoError(t, st.Close())
}

func TestIngestOpenFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "compliance_db")
	m := NewManager(dir, func(ctx context.Context) (vectorstore.Store, error) {
		return nil, errors.New("corrupt manifest")
	}, zap.NewNop().Sugar())

	doc, chunks := docWithChunks("a.pdf", "text")
	_, _, err := m.Ingest(context.Background(), doc, chunks, ModeAccumulate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt manifest")
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"fresh", ModeFresh, false},
		{"accumulate", ModeAccumulate, false},
		{"", "", true},
		{"Fresh", "", true},
		{"merge", "", true},
	} {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
		} else {
			require.NoError(t, err, "input %q", tc.in)
			assert.Equal(t, tc.want, got)
		}
	}
}

func TestResetRetriesThenRenamesAside(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	doc, chunks := docWithChunks("a.pdf", "one", "two")
	st, _, err := m.Ingest(ctx, doc, chunks, ModeFresh)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	deleteAttempts := 0
	m.removeAll = func(string) error {
		deleteAttempts++
		return errors.New("directory busy")
	}
	renamed := ""
	m.rename = func(old, backup string) error {
		renamed = backup
		return os.Rename(old, backup)
	}
	m.now = func() time.Time { return time.Unix(1700000000, 0) }

	docB, chunksB := docWithChunks("b.pdf", "three")
	st, stats, err := m.Ingest(ctx, docB, chunksB, ModeFresh)
	require.NoError(t, err)
	assert.Equal(t, 3, deleteAttempts)
	assert.Equal(t, m.dir+"_backup_1700000000", renamed)
	assert.DirExists(t, renamed)

	// the new store at the original path holds only the new document
	n, err := st.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, st.Close())
}

func TestResetDeleteAndRenameFail(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	doc, chunks := docWithChunks("a.pdf", "one")
	st, _, err := m.Ingest(ctx, doc, chunks, ModeFresh)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	m.removeAll = func(string) error { return errors.New("directory busy") }
	m.rename = func(string, string) error { return errors.New("permission denied") }

	_, _, err = m.Ingest(ctx, doc, chunks, ModeFresh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.Contains(t, err.Error(), "directory busy")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestResetAbsentStoreIsNoop(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Reset())
}
