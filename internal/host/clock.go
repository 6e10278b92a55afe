package host

import (
	"sync"
	"time"

	"github.com/roach88/mintgate/internal/chain"
)

// DefaultChainID is the chain id reported when none is configured.
const DefaultChainID = "mintgate-1"

// Clock is the block clock. Height starts at 1 and only moves forward
// through Advance.
//
// Thread-safety: Clock is safe for concurrent use, though the host only
// reads it while holding its call lock.
type Clock struct {
	mu      sync.Mutex
	chainID string
	height  uint64
	time    chain.Timestamp
}

// NewClock creates a clock at height 1 and the given block time.
func NewClock(chainID string, start chain.Timestamp) *Clock {
	if chainID == "" {
		chainID = DefaultChainID
	}
	return &Clock{chainID: chainID, height: 1, time: start}
}

// Block returns the current block.
func (c *Clock) Block() chain.BlockInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return chain.BlockInfo{Height: c.height, Time: c.time, ChainID: c.chainID}
}

// SetTime moves the block time without changing the height.
func (c *Clock) SetTime(t chain.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.time = t
}

// Advance produces the next block, d after the current one.
func (c *Clock) Advance(d time.Duration) chain.BlockInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height++
	c.time = c.time.Plus(d)
	return chain.BlockInfo{Height: c.height, Time: c.time, ChainID: c.chainID}
}
