package store

import (
	"bytes"
	"sort"
	"sync"
)

// MemStore keeps encoded records in memory. It round-trips through the same
// codecs as BoltStore, which makes it a faithful stand-in for tests and
// throwaway engines.
type MemStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
	// FailCommit, when set, is returned by the next Commit.
	FailCommit error
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	m := &MemStore{buckets: make(map[string]map[string][]byte)}
	for _, name := range allBuckets {
		m.buckets[string(name)] = make(map[string][]byte)
	}
	return m
}

// Load decodes the stored records.
func (m *MemStore) Load() (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errStoreClosed
	}
	return loadSnapshot(memReader{m})
}

// Commit applies the batch, or nothing if encoding fails.
func (m *MemStore) Commit(b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errStoreClosed
	}
	if err := m.FailCommit; err != nil {
		m.FailCommit = nil
		return err
	}
	if b == nil || b.Empty() {
		return nil
	}
	puts, err := b.encode()
	if err != nil {
		return err
	}
	for _, p := range puts {
		m.buckets[string(p.bucket)][string(p.key)] = bytes.Clone(p.value)
	}
	return nil
}

// Close marks the store closed.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type memReader struct{ m *MemStore }

// sortedKeys returns the bucket's keys in byte order, matching bbolt.
func (r memReader) sortedKeys(bucket []byte) []string {
	b := r.m.buckets[string(bucket)]
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r memReader) forEach(bucket []byte, fn func(k, v []byte) error) error {
	b := r.m.buckets[string(bucket)]
	for _, k := range r.sortedKeys(bucket) {
		if err := fn([]byte(k), b[k]); err != nil {
			return err
		}
	}
	return nil
}

func (r memReader) forEachPrefix(bucket, prefix []byte, fn func(k, v []byte) error) error {
	return r.forEach(bucket, func(k, v []byte) error {
		if !bytes.HasPrefix(k, prefix) {
			return nil
		}
		return fn(k, v)
	})
}

func (r memReader) get(bucket, key []byte) []byte {
	return r.m.buckets[string(bucket)][string(key)]
}
