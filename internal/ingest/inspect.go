package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"guardian/internal/domain"
)

// StoreInfo describes the on-disk footprint of the store.
type StoreInfo struct {
	Exists    bool
	SizeBytes int64
}

// Describe sums file sizes under the store directory. An absent store is
// {false, 0}; unreadable entries are skipped, the size is approximate.
func (m *Manager) Describe() StoreInfo {
	if !m.Exists() {
		return StoreInfo{}
	}
	info := StoreInfo{Exists: true}
	_ = filepath.WalkDir(m.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			info.SizeBytes += fi.Size()
		}
		return nil
	})
	return info
}

// CountChunks returns the number of stored entries: 0 when no store exists,
// and a typed failure when a store is present but cannot be opened.
func (m *Manager) CountChunks(ctx context.Context) (int, error) {
	if !m.Exists() {
		return 0, nil
	}
	store, err := m.open(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreOpen, err)
	}
	defer store.Close()
	return store.Count()
}
