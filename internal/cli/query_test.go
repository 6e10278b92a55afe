package cli

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/domain"
)

var fixturesFile = filepath.Join("..", "domain", "testdata", "fixtures.yaml")

func TestQueryEncode_NativeShape(t *testing.T) {
	out, err := execute(t, NewQueryCommand(testOptions("text")), "encode", "profiles", "profile", `{"user":"desmos1abc"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"route":"profiles","query_data":{"profiles":{"profile":{"user":"desmos1abc"}}}}`+"\n", out)

	out, err = execute(t, NewQueryCommand(testOptions("text")), "encode", "posts", "reports", `{"post_id":"p1"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"route":"posts","query_data":{"reports":{"post_id":"p1"}}}`+"\n", out)
}

func TestQueryEncode_ForcedShape(t *testing.T) {
	out, err := execute(t, NewQueryCommand(testOptions("text")),
		"encode", "profiles", "profile", `{"user":"desmos1abc"}`, "--shape", "adjacent")
	require.NoError(t, err)
	assert.Equal(t, `{"route":"profiles","query_data":{"profile":{"user":"desmos1abc"}}}`+"\n", out)
}

func TestQueryEncode_DefaultParams(t *testing.T) {
	out, err := execute(t, NewQueryCommand(testOptions("text")), "encode", "subspaces", "subspaces")
	require.NoError(t, err)
	assert.Equal(t, `{"route":"subspaces","query_data":{"subspaces":{}}}`+"\n", out)
}

func TestQueryEncode_UnknownOperation(t *testing.T) {
	out, err := execute(t, NewQueryCommand(testOptions("text")), "encode", "profiles", "karma")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [TRANSPORT]")
}

func TestQueryEncode_BadShape(t *testing.T) {
	_, err := execute(t, NewQueryCommand(testOptions("text")),
		"encode", "profiles", "profile", `{"user":"u1x"}`, "--shape", "sideways")
	require.Error(t, err)
}

func TestQueryDecode(t *testing.T) {
	cmd := NewQueryCommand(testOptions("json"))
	cmd.SetIn(strings.NewReader(`{"route":"profiles","query_data":{"profiles":{"profile":{"user":"desmos1abc"}}}}`))

	out, err := execute(t, cmd, "decode", "-")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   DecodedQuery `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "profiles", string(resp.Data.Route))
	assert.Equal(t, "profile", resp.Data.Op)
	assert.Equal(t, "wrapped", string(resp.Data.Shape))
	assert.JSONEq(t, `{"user":"desmos1abc"}`, string(resp.Data.Params))
}

func TestQueryDecode_Invalid(t *testing.T) {
	cmd := NewQueryCommand(testOptions("text"))
	cmd.SetIn(strings.NewReader(`{"route":"profiles","query_data":{"profile":{"user":"u","extra":1}}}`))

	out, err := execute(t, cmd, "decode", "-")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [TRANSPORT]")
}

func TestQuerySend_InProcess(t *testing.T) {
	out, err := execute(t, NewQueryCommand(testOptions("text")),
		"send", "profiles", "profile", `{"user":"user"}`, "--fixtures", fixturesFile)
	require.NoError(t, err)
	assert.Contains(t, out, `"dtag":"user"`)
}

func TestQuerySend_NotFound(t *testing.T) {
	out, err := execute(t, NewQueryCommand(testOptions("text")),
		"send", "profiles", "profile", `{"user":"nobody"}`, "--fixtures", fixturesFile)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [NOT_FOUND]")
}

func TestQuerySend_BadFixtures(t *testing.T) {
	_, err := execute(t, NewQueryCommand(testOptions("text")),
		"send", "profiles", "profile", `{"user":"user"}`, "--fixtures", filepath.Join(t.TempDir(), "none.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQuerySend_OverGRPC(t *testing.T) {
	fixtures, err := domain.LoadFixtures(fixturesFile)
	require.NoError(t, err)
	svc := domain.NewService(fixtures, domain.WithLogger(testOptions("text").logger()))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveDomain(ctx, lis, svc, testOptions("text").logger()) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("domain server did not stop")
		}
	})

	opts := testOptions("text")
	opts.Config.DomainTimeout = 5 * time.Second
	out, err := execute(t, NewQueryCommand(opts),
		"send", "profiles", "profile", `{"user":"alice"}`, "--addr", lis.Addr().String())
	require.NoError(t, err)
	assert.Contains(t, out, `"dtag":"alice"`)

	// Error codes survive the round trip.
	out, err = execute(t, NewQueryCommand(opts),
		"send", "profiles", "profile", `{"user":"nobody"}`, "--addr", lis.Addr().String())
	require.Error(t, err)
	assert.Contains(t, out, "Error [NOT_FOUND]")
}
