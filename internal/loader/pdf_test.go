package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian/internal/domain"
)

func TestLoadMissingFile(t *testing.T) {
	l := NewPDFLoader()
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentLoad))
}

func TestLoadGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	l := NewPDFLoader()
	_, err := l.Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentLoad))
}
