package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"guardian/internal/domain"
	"guardian/internal/vectorstore"
)

func TestDescribeAbsentStore(t *testing.T) {
	m, _ := newTestManager(t)

	info := m.Describe()
	assert.False(t, info.Exists)
	assert.Zero(t, info.SizeBytes)
}

func TestDescribeSumsFileSizes(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, os.MkdirAll(filepath.Join(m.dir, "wal"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(m.dir, "segment_0.bin"), make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(m.dir, "wal", "log.bin"), make([]byte, 28), 0o644))

	info := m.Describe()
	assert.True(t, info.Exists)
	assert.Equal(t, int64(128), info.SizeBytes)
}

func TestCountChunksAbsentStore(t *testing.T) {
	m, _ := newTestManager(t)

	n, err := m.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCountChunksPopulatedStore(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	doc, chunks := docWithChunks("a.pdf", "one", "two", "three")
	st, _, err := m.Ingest(ctx, doc, chunks, ModeFresh)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	n, err := m.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCountChunksOpenFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "compliance_db")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	m := NewManager(dir, func(ctx context.Context) (vectorstore.Store, error) {
		return nil, errors.New("truncated segment")
	}, zap.NewNop().Sugar())

	_, err := m.CountChunks(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreOpen))
	assert.Contains(t, err.Error(), "truncated segment")
}
