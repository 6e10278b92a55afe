package reply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/chain"
)

type initMsg struct {
	Name string `json:"name"`
}

func okReply(id uint64, addr chain.Addr) chain.Reply {
	return chain.Reply{ID: id, Result: chain.SubMsgResult{Ok: &chain.SubMsgResponse{
		Data: chain.EncodeInstantiateResponse(addr, nil),
	}}}
}

func TestBeginDeploy_ZeroCodeID(t *testing.T) {
	s := chain.NewMemStorage()
	_, _, err := BeginDeploy(context.Background(), s, 0, initMsg{}, "poap")
	require.Error(t, err)
	assert.True(t, chain.IsValidation(err))
	assert.Equal(t, 0, s.Len(), "nothing is written")
}

func TestBeginDeploy_AllocatesTokensFromOne(t *testing.T) {
	ctx := context.Background()
	s := chain.NewMemStorage()

	sub, token, err := BeginDeploy(ctx, s, 7, initMsg{Name: "P"}, "poap")
	require.NoError(t, err)
	assert.Equal(t, Token(1), token)
	assert.Equal(t, uint64(1), sub.ID)
	assert.Equal(t, chain.ReplySuccess, sub.ReplyOn)
	require.NotNil(t, sub.Msg.Instantiate)
	assert.Equal(t, chain.Uint64(7), sub.Msg.Instantiate.CodeID)
	assert.JSONEq(t, `{"name":"P"}`, string(sub.Msg.Instantiate.Msg))
	assert.Equal(t, "poap", sub.Msg.Instantiate.Label)

	_, second, err := BeginDeploy(ctx, s, 8, initMsg{}, "collection")
	require.NoError(t, err)
	assert.Equal(t, Token(2), second)

	entries, err := Pending(ctx, s)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "poap", entries[0].Op.Label)
	assert.Equal(t, KindInstantiate, entries[1].Op.Kind)
}

func TestResolve_ConsumesToken(t *testing.T) {
	ctx := context.Background()
	s := chain.NewMemStorage()
	_, token, err := BeginDeploy(ctx, s, 7, initMsg{}, "poap")
	require.NoError(t, err)

	op, err := Resolve(ctx, s, okReply(uint64(token), "dep1"))
	require.NoError(t, err)
	assert.Equal(t, "poap", op.Label)

	before, err := chain.StateDigest(ctx, s)
	require.NoError(t, err)

	_, err = Resolve(ctx, s, okReply(uint64(token), "dep1"))
	require.Error(t, err)
	assert.True(t, chain.IsCorrelation(err), "replayed token")

	_, err = Resolve(ctx, s, okReply(99, "dep1"))
	assert.True(t, chain.IsCorrelation(err), "unknown token")

	after, err := chain.StateDigest(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPending_NumericOrder(t *testing.T) {
	ctx := context.Background()
	s := chain.NewMemStorage()
	for i := 0; i < 11; i++ {
		_, _, err := BeginDeploy(ctx, s, 1, initMsg{}, "c")
		require.NoError(t, err)
	}
	entries, err := Pending(ctx, s)
	require.NoError(t, err)
	require.Len(t, entries, 11)
	assert.Equal(t, Token(2), entries[1].Token)
	assert.Equal(t, Token(11), entries[10].Token)
}

func TestInstantiatedAddress(t *testing.T) {
	addr, err := InstantiatedAddress(okReply(1, "dep1"))
	require.NoError(t, err)
	assert.Equal(t, chain.Addr("dep1"), addr)

	fromEvent := chain.Reply{ID: 1, Result: chain.SubMsgResult{Ok: &chain.SubMsgResponse{
		Events: []chain.Event{{Type: "instantiate", Attributes: []chain.Attribute{
			{Key: "_contract_address", Value: "dep2"},
		}}},
	}}}
	addr, err = InstantiatedAddress(fromEvent)
	require.NoError(t, err)
	assert.Equal(t, chain.Addr("dep2"), addr)

	empty := chain.Reply{ID: 1, Result: chain.SubMsgResult{Ok: &chain.SubMsgResponse{}}}
	_, err = InstantiatedAddress(empty)
	assert.True(t, chain.IsCorrelation(err))

	failed := chain.Reply{ID: 1, Result: chain.SubMsgResult{Err: "out of gas"}}
	_, err = InstantiatedAddress(failed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeployFailed))
	assert.Contains(t, err.Error(), "out of gas")
}

func TestAssign_Policies(t *testing.T) {
	got, err := Assign("", "dep1", PolicyReject)
	require.NoError(t, err)
	assert.Equal(t, chain.Addr("dep1"), got)

	got, err = Assign("dep1", "dep2", PolicyReject)
	require.Error(t, err)
	assert.True(t, chain.IsCorrelation(err))
	assert.Equal(t, chain.Addr("dep1"), got)

	got, err = Assign("dep1", "dep2", PolicyKeep)
	require.NoError(t, err)
	assert.Equal(t, chain.Addr("dep1"), got)

	_, err = Assign("", "", PolicyKeep)
	assert.True(t, chain.IsCorrelation(err))
}

func TestParseResolvedPolicy(t *testing.T) {
	p, err := ParseResolvedPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyReject, p)
	p, err = ParseResolvedPolicy("KEEP")
	require.NoError(t, err)
	assert.Equal(t, PolicyKeep, p)
	_, err = ParseResolvedPolicy("overwrite")
	assert.Error(t, err)
}
