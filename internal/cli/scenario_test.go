package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scenarioResponse struct {
	Status string          `json:"status"`
	Data   ScenarioSummary `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decodeSummary(t *testing.T, out string) scenarioResponse {
	t.Helper()
	var resp scenarioResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestScenarioCommand_Directory(t *testing.T) {
	out, err := execute(t, NewScenarioCommand(testOptions("text")),
		scenarioDir, "--golden", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "✓ admin_mint")
	assert.Contains(t, out, "✓ claim")
	assert.Contains(t, out, "Summary: 2 passed, 0 failed, 2 total")
}

func TestScenarioCommand_UpdateThenMatch(t *testing.T) {
	golden := t.TempDir()
	claim := filepath.Join(scenarioDir, "claim.yaml")

	out, err := execute(t, NewScenarioCommand(testOptions("text")), claim, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ claim (golden updated)")
	written, err := os.ReadFile(filepath.Join(golden, "claim.golden"))
	require.NoError(t, err)
	assert.Contains(t, string(written), `"scenario_name":"claim"`)

	out, err = execute(t, NewScenarioCommand(testOptions("json")), claim, "--golden", golden)
	require.NoError(t, err)
	resp := decodeSummary(t, out)
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "match", resp.Data.Scenarios[0].Golden)
	assert.True(t, resp.Data.Scenarios[0].Pass)
}

func TestScenarioCommand_GoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "claim.golden"), []byte("stale"), 0644))

	out, err := execute(t, NewScenarioCommand(testOptions("text")),
		filepath.Join(scenarioDir, "claim.yaml"), "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ claim")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestScenarioCommand_Filter(t *testing.T) {
	out, err := execute(t, NewScenarioCommand(testOptions("json")),
		scenarioDir, "--golden", t.TempDir(), "--filter", "admin*")
	require.NoError(t, err)
	resp := decodeSummary(t, out)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "admin_mint", resp.Data.Scenarios[0].Name)
}

func TestScenarioCommand_FilterMatchesNothing(t *testing.T) {
	out, err := execute(t, NewScenarioCommand(testOptions("text")),
		scenarioDir, "--filter", "nothing*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios matched.")
}

func TestScenarioCommand_InvalidFilter(t *testing.T) {
	_, err := execute(t, NewScenarioCommand(testOptions("text")), scenarioDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScenarioCommand_MissingPath(t *testing.T) {
	_, err := execute(t, NewScenarioCommand(testOptions("text")), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScenarioCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	body := `name: wrong_expectation
steps:
  - name: deploy
    instantiate:
      code: collection
      sender: admin
      msg: {name: Event, symbol: EVT, minter: admin}
    expect: {error: AUTHORIZATION}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(body), 0644))

	out, err := execute(t, NewScenarioCommand(testOptions("json")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeSummary(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeScenarioFailed, resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios[0].Errors, 1)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "expected AUTHORIZATION error, got success")
}

func TestScenarioCommand_DBDir(t *testing.T) {
	dbDir := filepath.Join(t.TempDir(), "runs")

	_, err := execute(t, NewScenarioCommand(testOptions("text")),
		filepath.Join(scenarioDir, "claim.yaml"), "--golden", t.TempDir(), "--db-dir", dbDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dbDir, "claim.db"))

	// A rerun starts from an empty database.
	_, err = execute(t, NewScenarioCommand(testOptions("text")),
		filepath.Join(scenarioDir, "claim.yaml"), "--golden", t.TempDir(), "--db-dir", dbDir)
	require.NoError(t, err)
}

func TestScenarioOptions_ConfigFlowsIntoHarness(t *testing.T) {
	opts := &ScenarioOptions{RootOptions: testOptions("text")}
	opts.Config.QueryShape = "sideways"
	_, err := opts.harnessOptions()
	require.Error(t, err)

	opts.Config.QueryShape = "wrapped"
	runOpts, err := opts.harnessOptions()
	require.NoError(t, err)
	assert.Len(t, runOpts, 7)
}
