package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "vecgo", cfg.Store.Type)
	assert.Equal(t, "./compliance_db", cfg.Store.Dir)
	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, "gemini", cfg.Embedder.Type)
	require.NotNil(t, cfg.Embedder.Gemini)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Embedder.Gemini.APIKeyEnv)
	assert.Equal(t, 768, cfg.Embedder.Gemini.Dimension)
	require.NotNil(t, cfg.LLM.Gemini)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Gemini.Model)
	assert.InDelta(t, 0.3, cfg.LLM.Gemini.Temperature, 1e-9)
	assert.Equal(t, 20, cfg.Retrieval.PoolSize)
	assert.Equal(t, 5, cfg.Retrieval.Limit)
	assert.Equal(t, 10, cfg.Retrieval.AllDocsLimit)
	assert.Equal(t, "static", cfg.Audit.Auditor)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  dir: /var/lib/guardian/db
chunker:
  size: 500
embedder:
  type: gemini
  gemini:
    model: text-embedding-004
retrieval:
  limit: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/guardian/db", cfg.Store.Dir)
	assert.Equal(t, "vecgo", cfg.Store.Type)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, "GEMINI_API_KEY", cfg.Embedder.Gemini.APIKeyEnv)
	assert.Equal(t, 30, cfg.Embedder.Gemini.TimeoutSecs)
	assert.Equal(t, 3, cfg.Retrieval.Limit)
	assert.Equal(t, 20, cfg.Retrieval.PoolSize)
}

func TestLoadDefaultsOpenAIEmbedder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
embedder:
  type: openai
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, 1536, cfg.Embedder.OpenAI.Dimension)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Store.Dir = "/data/db"
	cfg.Logging.File = "/var/log/guardian.log"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/db", loaded.Store.Dir)
	assert.Equal(t, "/var/log/guardian.log", loaded.Logging.File)
	assert.Equal(t, cfg.Embedder.Gemini.Model, loaded.Embedder.Gemini.Model)
}
