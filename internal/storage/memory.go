package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps files in memory. It records every Delete call, which
// makes it the store of choice in tests. Safe for concurrent use.
type MemoryStore struct {
	publicURL string
	mu        sync.RWMutex
	files     map[string][]byte
	deleted   []string
	failOn    map[string]error
}

func NewMemoryStore(publicURL string) *MemoryStore {
	return &MemoryStore{
		publicURL: publicURL,
		files:     make(map[string][]byte),
		failOn:    make(map[string]error),
	}
}

func (m *MemoryStore) Store(ctx context.Context, r io.Reader, size int64, contentType, filename string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	url := joinURL(m.publicURL, objectKey(time.Now(), contentType, filename))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[url] = data
	return url, nil
}

// Put registers content under an explicit URL.
func (m *MemoryStore) Put(url string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[url] = data
}

// FailDelete makes Delete(url) return err.
func (m *MemoryStore) FailDelete(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[url] = err
}

func (m *MemoryStore) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, url)
	if err, ok := m.failOn[url]; ok {
		return err
	}
	delete(m.files, url)
	return nil
}

func (m *MemoryStore) Exists(url string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[url]
	return ok
}

// Deleted returns the sorted list of URLs passed to Delete.
func (m *MemoryStore) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]string(nil), m.deleted...)
	sort.Strings(out)
	return out
}

var _ FileStore = (*MemoryStore)(nil)
