package host

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/mintgate/internal/chain"
)

// TxIDGenerator generates the id every invocation of one top-level call
// shares. Implemented by UUIDv7Generator (production) and FixedGenerator
// (tests).
type TxIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 tx ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined tx ids for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedGenerator("tx-1", "tx-2")
//	gen.Generate() // "tx-1"
//	gen.Generate() // "tx-2"
//	gen.Generate() // panic: all tx ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, so a test that makes more calls
// than it planned for fails loudly.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all tx ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// AddressGenerator assigns addresses to new contracts. seq is the
// contract's deployment sequence number, starting at 1.
type AddressGenerator interface {
	Address(seq uint64, codeID uint64, label string) chain.Addr
}

// DefaultAddressPrefix is the prefix of SequentialAddresses.
const DefaultAddressPrefix = "contract"

// SequentialAddresses derives "<prefix><seq>", e.g. "contract1".
type SequentialAddresses struct {
	Prefix string
}

// Address implements AddressGenerator.
func (s SequentialAddresses) Address(seq, _ uint64, _ string) chain.Addr {
	prefix := s.Prefix
	if prefix == "" {
		prefix = DefaultAddressPrefix
	}
	return chain.Addr(fmt.Sprintf("%s%d", prefix, seq))
}

// FixedAddresses hands out predetermined addresses in deployment order,
// then falls back to Fallback.
type FixedAddresses struct {
	mu       sync.Mutex
	addrs    []chain.Addr
	idx      int
	Fallback AddressGenerator
}

// NewFixedAddresses creates a generator returning addrs in order.
func NewFixedAddresses(addrs ...chain.Addr) *FixedAddresses {
	return &FixedAddresses{addrs: addrs, Fallback: SequentialAddresses{}}
}

// Address implements AddressGenerator.
func (f *FixedAddresses) Address(seq, codeID uint64, label string) chain.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.idx < len(f.addrs) {
		a := f.addrs[f.idx]
		f.idx++
		return a
	}
	return f.Fallback.Address(seq, codeID, label)
}
