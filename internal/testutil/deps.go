// Package testutil provides deterministic generators and mock component
// dependencies for tests.
package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/mintgate/internal/chain"
)

// MockChainID is the chain id of MockEnv.
const MockChainID = "mintgate-test"

// MockDeps returns in-memory storage, the default address API and q.
func MockDeps(q chain.Querier) chain.Deps {
	return chain.Deps{
		Storage: chain.NewMemStorage(),
		API:     chain.DefaultAPI{},
		Querier: q,
	}
}

// MockEnv returns an environment at the given block time.
func MockEnv(contract chain.Addr, now chain.Timestamp) chain.Env {
	return chain.Env{
		Block:    chain.BlockInfo{Height: 12345, Time: now, ChainID: MockChainID},
		Contract: chain.ContractInfo{Address: contract},
		TxID:     "tx-test",
	}
}

// MockInfo returns message info for sender.
func MockInfo(sender chain.Addr) chain.MessageInfo {
	return chain.MessageInfo{Sender: sender}
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
