package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/store"
)

// claimDB runs the claim scenario into a database file and returns its path.
func claimDB(t *testing.T) string {
	t.Helper()
	dbDir := t.TempDir()
	_, err := execute(t, NewScenarioCommand(testOptions("text")),
		filepath.Join(scenarioDir, "claim.yaml"), "--golden", t.TempDir(), "--db-dir", dbDir)
	require.NoError(t, err)
	return filepath.Join(dbDir, "claim.db")
}

type traceResponse struct {
	Status string      `json:"status"`
	Data   TraceResult `json:"data"`
}

func TestTraceNonExistentDatabase(t *testing.T) {
	_, err := execute(t, NewTraceCommand(testOptions("text")), "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestTraceInMemoryDatabase(t *testing.T) {
	// The default config points at :memory:, which has no log to show.
	_, err := execute(t, NewTraceCommand(testOptions("text")))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceInvalidStatus(t *testing.T) {
	_, err := execute(t, NewTraceCommand(testOptions("text")), "--db", "x.db", "--status", "pending")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")
}

func TestTraceEmptyDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewTraceCommand(testOptions("text")), "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No transactions found.")
}

func TestTraceText(t *testing.T) {
	path := claimDB(t)

	out, err := execute(t, NewTraceCommand(testOptions("text")), "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ #1 tx-0001 instantiate admin -> manager1 (height 1)")
	assert.Contains(t, out, "[WINDOW]")
	assert.Contains(t, out, "[QUOTA_EXCEEDED]")
	assert.Contains(t, out, "8 transactions: 4 committed, 4 failed")
	assert.NotContains(t, out, "_contract_address=")
}

func TestTraceTextWithEvents(t *testing.T) {
	path := claimDB(t)

	out, err := execute(t, NewTraceCommand(testOptions("text")), "--db", path, "--events")
	require.NoError(t, err)
	assert.Contains(t, out, "_contract_address=poap1")
	assert.Contains(t, out, "action=mint_to")
}

func TestTraceJSONFilters(t *testing.T) {
	path := claimDB(t)

	out, err := execute(t, NewTraceCommand(testOptions("json")),
		"--db", path, "--contract", "manager1", "--status", "committed")
	require.NoError(t, err)

	var resp traceResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, TraceStats{Total: 3, Committed: 3}, resp.Data.Stats)
	for _, rec := range resp.Data.Txs {
		assert.Equal(t, "manager1", string(rec.Contract))
		assert.Equal(t, store.StatusCommitted, rec.Status)
	}
	assert.Equal(t, "instantiate", resp.Data.Txs[0].Kind)
}
