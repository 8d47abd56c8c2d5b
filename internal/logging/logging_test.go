package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zap.InfoLevel, parseLevel("info"))
	assert.Equal(t, zap.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zap.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zap.InfoLevel, parseLevel(""))
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose"))
}

func TestFileOnlyWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.log")
	log := NewFileOnly(Config{Level: "info", File: path})

	log.Infow("ingested document", "source", "gdpr.pdf", "inserted", 3)
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp"`)
	assert.Contains(t, string(data), `"INFO"`)
	assert.Contains(t, string(data), `"message":"ingested document"`)
	assert.Contains(t, string(data), `"source":"gdpr.pdf"`)
}

func TestFileOnlyWithoutPathDiscards(t *testing.T) {
	log := NewFileOnly(Config{})
	require.NotNil(t, log)
	log.Infow("dropped")
}

func TestFileCoreRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.log")
	core := fileCore(Config{File: path}, zapcore.WarnLevel)
	log := zap.New(core).Sugar()

	log.Infow("below threshold")
	log.Warnw("at threshold")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "below threshold")
	assert.Contains(t, string(data), "at threshold")
}
