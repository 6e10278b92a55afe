package chain

import (
	"bytes"
	"context"
	"sort"
)

// MemStorage is an in-memory Storage. It backs component unit tests and
// read-only snapshots; it is not safe for concurrent use.
type MemStorage struct {
	data map[string][]byte
}

// NewMemStorage creates an empty MemStorage.
func NewMemStorage() *MemStorage {
	return &MemStorage{data: make(map[string][]byte)}
}

// Get implements Storage.
func (m *MemStorage) Get(_ context.Context, key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Set implements Storage.
func (m *MemStorage) Set(_ context.Context, key, value []byte) error {
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

// Delete implements Storage.
func (m *MemStorage) Delete(_ context.Context, key []byte) error {
	delete(m.data, string(key))
	return nil
}

// Range implements Storage.
func (m *MemStorage) Range(_ context.Context, start, end []byte, order Order, limit int) ([]KV, error) {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		kb := []byte(k)
		if start != nil && bytes.Compare(kb, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(kb, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if order == Descending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: []byte(k), Value: append([]byte(nil), m.data[k]...)})
	}
	return out, nil
}

// Len returns the number of stored keys.
func (m *MemStorage) Len() int { return len(m.data) }
