package store

import (
	"fmt"
	"os"
	"sync"
)

// Manager owns the active store generation and the swap that publishes a
// rebuilt one. Queries read the active generation under a shared lock, so
// an in-flight query always sees either the fully-old or the fully-new
// store, never a partially rebuilt one. Reindex builds into a sibling file
// and Publish renames it over the active path while holding the write lock.
type Manager struct {
	mu     sync.RWMutex
	path   string
	dim    int
	active *SQLiteStore // nil until an index has been built
}

// OpenManager binds a manager to the store file at path. A missing file is
// not an error: the manager starts empty and serves empty results until the
// first reindex publishes a store.
func OpenManager(path string, dim int) (*Manager, error) {
	m := &Manager{path: path, dim: dim}
	if _, err := os.Stat(path); err == nil {
		s, err := Open(path, dim)
		if err != nil {
			return nil, err
		}
		m.active = s
	}
	return m, nil
}

// Path returns the active store file path.
func (m *Manager) Path() string { return m.path }

// buildPath is where reindex assembles the next generation.
func (m *Manager) buildPath() string { return m.path + ".rebuild" }

// Search delegates to the active generation. With no store published yet it
// returns an empty result set, matching the empty-store contract.
func (m *Manager) Search(queryEmbedding []float32, k int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		if k <= 0 {
			return nil, fmt.Errorf("k must be positive, got %d", k)
		}
		return nil, nil
	}
	return m.active.Search(queryEmbedding, k)
}

func (m *Manager) TotalDocuments() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return 0, nil
	}
	return m.active.TotalDocuments()
}

func (m *Manager) ListDocuments() ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return nil, nil
	}
	return m.active.ListDocuments()
}

// NewBuild opens a fresh store file for the next generation, discarding any
// stale leftovers from an earlier aborted reindex.
func (m *Manager) NewBuild() (*SQLiteStore, error) {
	m.DiscardBuild()
	return Open(m.buildPath(), m.dim)
}

// Publish atomically swaps the rebuilt store in as the active generation.
// The builder must already be closed. On any failure the previous
// generation stays active.
func (m *Manager) Publish() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.buildPath()); err != nil {
		return fmt.Errorf("no rebuilt store to publish: %w", err)
	}

	hadActive := m.active != nil
	if m.active != nil {
		if err := m.active.Close(); err != nil {
			return fmt.Errorf("close active store: %w", err)
		}
		m.active = nil
	}
	removeSidecars(m.path)

	if err := os.Rename(m.buildPath(), m.path); err != nil {
		// The swap never happened, so m.path still holds the previous
		// generation. Reopen it; a failed publish must not leave the
		// manager serving empty results over an intact store.
		if hadActive {
			if s, reopenErr := Open(m.path, m.dim); reopenErr == nil {
				m.active = s
			}
		}
		return fmt.Errorf("swap store: %w", err)
	}
	removeSidecars(m.buildPath())

	s, err := Open(m.path, m.dim)
	if err != nil {
		return fmt.Errorf("reopen published store: %w", err)
	}
	m.active = s
	return nil
}

// DiscardBuild removes a partially built next generation, if any.
func (m *Manager) DiscardBuild() {
	os.Remove(m.buildPath())
	removeSidecars(m.buildPath())
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	err := m.active.Close()
	m.active = nil
	return err
}

// removeSidecars clears SQLite WAL companions left beside a database file.
func removeSidecars(path string) {
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
}
