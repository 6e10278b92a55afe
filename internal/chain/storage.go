package chain

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrStateNotFound is returned when a required storage entry is absent.
var ErrStateNotFound = errors.New("state not found")

// Order selects range iteration direction.
type Order int

const (
	Ascending Order = iota + 1
	Descending
)

// KV is a raw storage entry.
type KV struct {
	Key   []byte
	Value []byte
}

// Storage is the key-value space of a single component.
//
// Keys are scoped to the component by the host; components cannot read or
// write another component's keys. Writes become durable only if the
// enclosing top-level call succeeds.
type Storage interface {
	// Get returns the value for key, or nil if absent.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Range returns entries with start <= key < end in the given order.
	// A nil bound is unbounded. limit <= 0 means no limit.
	Range(ctx context.Context, start, end []byte, order Order, limit int) ([]KV, error)
}

// Item is a typed singleton stored under a fixed key.
type Item[T any] struct {
	key []byte
}

// NewItem creates an Item stored under key.
func NewItem[T any](key string) Item[T] {
	return Item[T]{key: []byte(key)}
}

// Key returns the raw storage key.
func (i Item[T]) Key() []byte { return i.key }

// Load returns the stored value or ErrStateNotFound.
func (i Item[T]) Load(ctx context.Context, s Storage) (T, error) {
	v, ok, err := i.May(ctx, s)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("load %s: %w", i.key, ErrStateNotFound)
	}
	return v, nil
}

// May returns the stored value and whether it exists.
func (i Item[T]) May(ctx context.Context, s Storage) (T, bool, error) {
	var v T
	raw, err := s.Get(ctx, i.key)
	if err != nil {
		return v, false, fmt.Errorf("load %s: %w", i.key, err)
	}
	if raw == nil {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", i.key, err)
	}
	return v, true, nil
}

// Save stores v.
func (i Item[T]) Save(ctx context.Context, s Storage, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", i.key, err)
	}
	if err := s.Set(ctx, i.key, raw); err != nil {
		return fmt.Errorf("save %s: %w", i.key, err)
	}
	return nil
}

// Update runs load -> fn -> save. If fn fails nothing is written.
func (i Item[T]) Update(ctx context.Context, s Storage, fn func(T) (T, error)) (T, error) {
	v, err := i.Load(ctx, s)
	if err != nil {
		return v, err
	}
	v, err = fn(v)
	if err != nil {
		return v, err
	}
	return v, i.Save(ctx, s, v)
}

// Remove deletes the item.
func (i Item[T]) Remove(ctx context.Context, s Storage) error {
	return s.Delete(ctx, i.key)
}

// Map is a typed collection stored under a namespace.
// Entry keys are the length-prefixed namespace followed by the entry key.
type Map[T any] struct {
	prefix []byte
}

// NewMap creates a Map under namespace.
func NewMap[T any](namespace string) Map[T] {
	return Map[T]{prefix: namespacePrefix(namespace)}
}

// MapEntry is a decoded Map entry.
type MapEntry[T any] struct {
	Key   string
	Value T
}

func namespacePrefix(ns string) []byte {
	out := make([]byte, 2, 2+len(ns))
	binary.BigEndian.PutUint16(out, uint16(len(ns)))
	return append(out, ns...)
}

// prefixEnd returns the smallest key greater than every key starting with p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func (m Map[T]) rawKey(k string) []byte {
	out := make([]byte, 0, len(m.prefix)+len(k))
	out = append(out, m.prefix...)
	return append(out, k...)
}

// Load returns the entry for k or ErrStateNotFound.
func (m Map[T]) Load(ctx context.Context, s Storage, k string) (T, error) {
	v, ok, err := m.May(ctx, s, k)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("load %q: %w", k, ErrStateNotFound)
	}
	return v, nil
}

// May returns the entry for k and whether it exists.
func (m Map[T]) May(ctx context.Context, s Storage, k string) (T, bool, error) {
	var v T
	raw, err := s.Get(ctx, m.rawKey(k))
	if err != nil {
		return v, false, fmt.Errorf("load %q: %w", k, err)
	}
	if raw == nil {
		return v, false, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %q: %w", k, err)
	}
	return v, true, nil
}

// Has reports whether k exists.
func (m Map[T]) Has(ctx context.Context, s Storage, k string) (bool, error) {
	raw, err := s.Get(ctx, m.rawKey(k))
	if err != nil {
		return false, err
	}
	return raw != nil, nil
}

// Save stores v under k.
func (m Map[T]) Save(ctx context.Context, s Storage, k string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", k, err)
	}
	if err := s.Set(ctx, m.rawKey(k), raw); err != nil {
		return fmt.Errorf("save %q: %w", k, err)
	}
	return nil
}

// Remove deletes k.
func (m Map[T]) Remove(ctx context.Context, s Storage, k string) error {
	return s.Delete(ctx, m.rawKey(k))
}

// Range lists entries whose key starts with keyPrefix, skipping keys up to
// and including startAfter (in iteration order). limit <= 0 means no limit.
func (m Map[T]) Range(ctx context.Context, s Storage, keyPrefix, startAfter string, order Order, limit int) ([]MapEntry[T], error) {
	start := m.rawKey(keyPrefix)
	end := prefixEnd(start)
	if startAfter != "" {
		after := m.rawKey(startAfter)
		if order == Descending {
			end = after
		} else {
			start = append(after, 0x00)
		}
	}

	kvs, err := s.Range(ctx, start, end, order, limit)
	if err != nil {
		return nil, fmt.Errorf("range: %w", err)
	}

	out := make([]MapEntry[T], 0, len(kvs))
	for _, kv := range kvs {
		var v T
		if err := json.Unmarshal(kv.Value, &v); err != nil {
			return nil, fmt.Errorf("decode range entry: %w", err)
		}
		out = append(out, MapEntry[T]{Key: string(kv.Key[len(m.prefix):]), Value: v})
	}
	return out, nil
}

// JoinKey builds a composite key whose first part is length-prefixed,
// so Range over JoinKey(a, "") lists exactly the entries under a.
func JoinKey(first, second string) string {
	return string(namespacePrefix(first)) + second
}
