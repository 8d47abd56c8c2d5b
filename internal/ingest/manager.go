// Package ingest maintains the persistent chunk store across runs: mode
// selection, deduplication against stored fingerprints, and the destroy or
// rename-aside lifecycle of the store directory.
package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"guardian/internal/domain"
	"guardian/internal/vectorstore"
)

// Mode selects how ingestion treats an existing store. It must be stated
// explicitly by the caller; there is no default.
type Mode string

const (
	// ModeFresh destroys the existing store before inserting.
	ModeFresh Mode = "fresh"
	// ModeAccumulate merges into the existing store, skipping known chunks.
	ModeAccumulate Mode = "accumulate"
)

// ParseMode validates a mode given on the command line.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFresh, ModeAccumulate:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid ingestion mode %q (want %q or %q)", s, ModeFresh, ModeAccumulate)
}

// Stats reports what one ingestion call did.
type Stats struct {
	Inserted int
	Skipped  int
	Total    int
}

// OpenFunc opens (creating when absent) the store this manager maintains.
type OpenFunc func(ctx context.Context) (vectorstore.Store, error)

// Manager is the only component that transitions the store lifecycle:
// absent, created, populated, destroyed or renamed aside.
type Manager struct {
	dir  string
	open OpenFunc
	log  *zap.SugaredLogger

	deleteRetries int
	retryBackoff  time.Duration

	removeAll func(string) error
	rename    func(string, string) error
	now       func() time.Time
}

func NewManager(dir string, open OpenFunc, log *zap.SugaredLogger) *Manager {
	return &Manager{
		dir:           dir,
		open:          open,
		log:           log,
		deleteRetries: 3,
		retryBackoff:  time.Second,
		removeAll:     os.RemoveAll,
		rename:        os.Rename,
		now:           time.Now,
	}
}

// Exists reports whether the store directory is present on disk.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.dir)
	return err == nil
}

// Open opens the existing store (or creates an empty one). Callers close the
// returned handle.
func (m *Manager) Open(ctx context.Context) (vectorstore.Store, error) {
	return m.open(ctx)
}

// Ingest embeds and stores the document's chunks. Chunks arrive carrying
// content fingerprints; in accumulate mode the ones already present are
// counted as skipped and not re-embedded. The returned handle is open so the
// caller can retrieve against it; the caller closes it.
func (m *Manager) Ingest(ctx context.Context, doc domain.Document, chunks []domain.Chunk, mode Mode) (vectorstore.Store, Stats, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, Stats{}, err
	}

	if mode == ModeFresh && m.Exists() {
		if err := m.Reset(); err != nil {
			return nil, Stats{}, err
		}
	}

	store, err := m.open(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open store at %s: %w", m.dir, err)
	}

	stats := Stats{Total: len(chunks)}
	novel := chunks
	if mode == ModeAccumulate {
		fps := make([]string, len(chunks))
		for i, c := range chunks {
			fps[i] = c.Fingerprint
		}
		existing, err := store.Existing(ctx, fps)
		if err != nil {
			// Treat a failed membership probe as an empty store; the
			// fingerprint-keyed upsert keeps contents consistent.
			m.log.Warnw("membership check failed, treating all chunks as new", "error", err)
			existing = nil
		}
		novel = novel[:0:0]
		for _, c := range chunks {
			if _, ok := existing[c.Fingerprint]; ok {
				stats.Skipped++
				continue
			}
			novel = append(novel, c)
		}
	}

	if len(novel) > 0 {
		if err := store.Add(ctx, novel); err != nil {
			_ = store.Close()
			return nil, Stats{}, err
		}
	}
	stats.Inserted = len(novel)

	m.log.Infow("ingested document",
		"source", doc.Name(),
		"mode", string(mode),
		"inserted", stats.Inserted,
		"skipped", stats.Skipped,
		"total", stats.Total,
	)
	return store, stats, nil
}

// Reset destroys the store directory. Deletion is retried a bounded number of
// times because another process may still hold handles into the directory; if
// it keeps failing the directory is renamed aside with a timestamp suffix so
// a fresh store can be created at the original path. Only when the rename
// fails too does the operation give up.
func (m *Manager) Reset() error {
	if !m.Exists() {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= m.deleteRetries; attempt++ {
		lastErr = m.removeAll(m.dir)
		if lastErr == nil {
			m.log.Infow("store destroyed", "dir", m.dir, "attempt", attempt)
			return nil
		}
		m.log.Warnw("store deletion failed", "dir", m.dir, "attempt", attempt, "error", lastErr)
		if attempt < m.deleteRetries {
			time.Sleep(m.retryBackoff)
		}
	}

	backup := fmt.Sprintf("%s_backup_%d", m.dir, m.now().Unix())
	if err := m.rename(m.dir, backup); err != nil {
		return fmt.Errorf("%w: delete failed (%v), rename to %s failed (%v)",
			domain.ErrStoreUnavailable, lastErr, backup, err)
	}
	m.log.Infow("store renamed aside", "dir", m.dir, "backup", backup)
	return nil
}
