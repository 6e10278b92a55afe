package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/chain"
)

// createTestStore creates a new on-disk store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// seedContract registers a code and a contract so kv rows satisfy the
// foreign key.
func seedContract(t *testing.T, tx *Tx, addr chain.Addr) {
	t.Helper()
	ctx := context.Background()
	codeID, err := tx.UpsertCode(ctx, "test-code")
	require.NoError(t, err)
	seq, err := tx.NextContractSeq(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertContract(ctx, ContractRecord{
		Address: addr,
		CodeID:  codeID,
		Label:   "test",
		Creator: "creator",
		Seq:     seq,
	}))
}
