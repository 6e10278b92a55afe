package manager

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts"
	"github.com/roach88/mintgate/internal/contracts/collection"
	"github.com/roach88/mintgate/internal/contracts/poap"
	"github.com/roach88/mintgate/internal/query"
	"github.com/roach88/mintgate/internal/reply"
	"github.com/roach88/mintgate/internal/testutil"
)

const (
	self     chain.Addr = "manager1"
	poapAddr chain.Addr = "dep1"
	admin    chain.Addr = "admin"
	user     chain.Addr = "user"
	stranger chain.Addr = "stranger"
)

func instantiateMsg(codeID uint64) InstantiateMsg {
	return InstantiateMsg{
		Admin:      string(admin),
		PoapCodeID: chain.Uint64(codeID),
		PoapInstantiateMsg: poap.InstantiateMsg{
			Admin:            string(admin),
			Minter:           "someone",
			CollectionCodeID: 1,
			CollectionInstantiateMsg: collection.InstantiateMsg{
				Name:   "Event",
				Symbol: "EVT",
			},
			EventInfo: poap.EventInfo{
				Creator:         "creator",
				StartTime:       chain.TimestampFromSeconds(10),
				EndTime:         chain.TimestampFromSeconds(20),
				PerAddressLimit: 2,
				PoapURI:         "ipfs://poap",
			},
		},
	}
}

type fixture struct {
	c    *Contract
	deps chain.Deps
	q    *testutil.MockQuerier
}

func newFixture(t *testing.T, opts ...Option) (fixture, *chain.Response) {
	t.Helper()
	opts = append([]Option{WithLogger(testutil.DiscardLogger())}, opts...)
	q := testutil.NewMockQuerier(user)
	f := fixture{c: New(opts...), deps: testutil.MockDeps(q), q: q}
	raw, err := json.Marshal(instantiateMsg(7))
	require.NoError(t, err)
	res, err := f.c.Instantiate(context.Background(), f.deps, testutil.MockEnv(self, 0), testutil.MockInfo(admin), raw)
	require.NoError(t, err)
	return f, res
}

func setup(t *testing.T, opts ...Option) fixture {
	t.Helper()
	f, res := newFixture(t, opts...)
	_, err := f.reply(okReply(res.Messages[0].ID, poapAddr))
	require.NoError(t, err)
	return f
}

func okReply(id uint64, addr chain.Addr) chain.Reply {
	return chain.Reply{ID: id, Result: chain.SubMsgResult{Ok: &chain.SubMsgResponse{
		Data: chain.EncodeInstantiateResponse(addr, nil),
	}}}
}

func (f fixture) reply(r chain.Reply) (*chain.Response, error) {
	return f.c.Reply(context.Background(), f.deps, testutil.MockEnv(self, 0), r)
}

func (f fixture) exec(t *testing.T, sender chain.Addr, msg ExecuteMsg) (*chain.Response, error) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	return f.c.Execute(context.Background(), f.deps, testutil.MockEnv(self, 0), testutil.MockInfo(sender), raw)
}

func (f fixture) config(t *testing.T) ConfigResponse {
	t.Helper()
	raw, err := f.c.Query(context.Background(), f.deps, testutil.MockEnv(self, 0), []byte(`{"config":{}}`))
	require.NoError(t, err)
	var res ConfigResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

func stateDigest(t *testing.T, s chain.Storage) string {
	t.Helper()
	d, err := chain.StateDigest(context.Background(), s)
	require.NoError(t, err)
	return d
}

func TestInstantiate(t *testing.T) {
	f, res := newFixture(t)

	assert.Contains(t, res.Attributes, chain.Attribute{Key: "action", Value: "instantiate"})
	assert.Contains(t, res.Attributes, chain.Attribute{Key: "poap_code_id", Value: "7"})
	require.Len(t, res.Messages, 1)

	sub := res.Messages[0]
	assert.Equal(t, uint64(1), sub.ID, "first token is 1")
	assert.Equal(t, chain.ReplySuccess, sub.ReplyOn)
	require.NotNil(t, sub.Msg.Instantiate)
	assert.Equal(t, chain.Uint64(7), sub.Msg.Instantiate.CodeID)
	assert.Equal(t, PoapLabel, sub.Msg.Instantiate.Label)

	var poapMsg poap.InstantiateMsg
	require.NoError(t, json.Unmarshal(sub.Msg.Instantiate.Msg, &poapMsg))
	assert.Equal(t, string(self), poapMsg.Minter, "the manager mints through the poap component")

	cfg := f.config(t)
	assert.Equal(t, admin, cfg.Admin)
	assert.Equal(t, chain.Uint64(7), cfg.PoapCodeID)
	assert.True(t, cfg.PoapContractAddress.IsEmpty())

	v, err := chain.GetContractVersion(context.Background(), f.deps.Storage)
	require.NoError(t, err)
	assert.Equal(t, ContractName, v.Contract)
}

func TestInstantiate_Invalid(t *testing.T) {
	for name, msg := range map[string]InstantiateMsg{
		"zero code id": instantiateMsg(0),
		"bad admin":    func() InstantiateMsg { m := instantiateMsg(7); m.Admin = "a"; return m }(),
	} {
		t.Run(name, func(t *testing.T) {
			deps := testutil.MockDeps(nil)
			raw, err := json.Marshal(msg)
			require.NoError(t, err)
			_, err = New(WithLogger(testutil.DiscardLogger())).
				Instantiate(context.Background(), deps, testutil.MockEnv(self, 0), testutil.MockInfo(admin), raw)
			assert.True(t, chain.IsValidation(err), "got %v", err)
			assert.Zero(t, deps.Storage.(*chain.MemStorage).Len())
		})
	}
}

func TestReply_ResolvesOnce(t *testing.T) {
	f, res := newFixture(t)
	assert.True(t, f.config(t).PoapContractAddress.IsEmpty())

	out, err := f.reply(okReply(res.Messages[0].ID, poapAddr))
	require.NoError(t, err)
	assert.Contains(t, out.Attributes, chain.Attribute{Key: "action", Value: "instantiate_poap_reply"})
	assert.Equal(t, poapAddr, f.config(t).PoapContractAddress)

	before := stateDigest(t, f.deps.Storage)
	_, err = f.reply(okReply(res.Messages[0].ID, "dep2"))
	assert.True(t, chain.IsCorrelation(err), "replayed token")
	assert.Equal(t, before, stateDigest(t, f.deps.Storage))
}

func TestReply_UnknownTokenLeavesStateUnchanged(t *testing.T) {
	f, _ := newFixture(t)
	before := stateDigest(t, f.deps.Storage)

	for _, id := range []uint64{0, 2, 99} {
		_, err := f.reply(okReply(id, poapAddr))
		assert.True(t, chain.IsCorrelation(err), "token %d", id)
	}
	assert.Equal(t, before, stateDigest(t, f.deps.Storage))
}

func TestReply_Failure(t *testing.T) {
	f, res := newFixture(t)
	_, err := f.reply(chain.Reply{ID: res.Messages[0].ID, Result: chain.SubMsgResult{Err: "instantiate failed"}})
	assert.ErrorIs(t, err, reply.ErrDeployFailed)
}

func TestReply_SecondResolution(t *testing.T) {
	for _, tc := range []struct {
		policy reply.ResolvedPolicy
		check  func(assert.TestingT, error, ...any) bool
	}{
		{reply.PolicyReject, assert.Error},
		{reply.PolicyKeep, assert.NoError},
	} {
		t.Run(string(tc.policy), func(t *testing.T) {
			f := setup(t, WithResolvedPolicy(tc.policy))
			_, token, err := reply.BeginDeploy(context.Background(), f.deps.Storage, 7, struct{}{}, PoapLabel)
			require.NoError(t, err)

			_, err = f.reply(okReply(uint64(token), "dep2"))
			tc.check(t, err)
			if err != nil {
				assert.True(t, chain.IsCorrelation(err))
			}
			assert.Equal(t, poapAddr, f.config(t).PoapContractAddress)
		})
	}
}

func TestClaim(t *testing.T) {
	f := setup(t)

	res, err := f.exec(t, user, ExecuteMsg{Claim: &contracts.Empty{}})
	require.NoError(t, err)
	assert.Contains(t, res.Attributes, chain.Attribute{Key: "action", Value: "claim"})
	require.Len(t, res.Messages, 1)

	exec := res.Messages[0].Msg.Execute
	require.NotNil(t, exec)
	assert.Equal(t, poapAddr, exec.ContractAddr)
	assert.JSONEq(t, `{"mint_to":{"recipient":"user"}}`, string(exec.Msg))

	require.Len(t, f.q.Received, 1)
	got, ok := f.q.Received[0].Request.(query.ProfileRequest)
	require.True(t, ok)
	assert.Equal(t, user, got.User)
	assert.Equal(t, query.ShapeWrapped, f.q.Received[0].Shape, "profiles use their native shape")
}

func TestClaim_QueryShape(t *testing.T) {
	f := setup(t, WithQueryShape(query.ShapeAdjacent))
	_, err := f.exec(t, user, ExecuteMsg{Claim: &contracts.Empty{}})
	require.NoError(t, err)
	assert.Equal(t, query.ShapeAdjacent, f.q.Received[0].Shape)
}

func TestClaim_NotEligible(t *testing.T) {
	t.Run("no profile", func(t *testing.T) {
		f := setup(t)
		_, err := f.exec(t, stranger, ExecuteMsg{Claim: &contracts.Empty{}})
		assert.True(t, chain.IsEligibility(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		f := setup(t)
		f.q.RawErr = errors.New("connection refused")
		_, err := f.exec(t, user, ExecuteMsg{Claim: &contracts.Empty{}})
		assert.True(t, chain.IsEligibility(err), "a failed query never counts as eligible")
	})

	t.Run("empty profile", func(t *testing.T) {
		f := setup(t)
		f.q.Profiles[user] = query.Profile{}
		_, err := f.exec(t, user, ExecuteMsg{Claim: &contracts.Empty{}})
		assert.True(t, chain.IsEligibility(err))
	})
}

func TestClaim_Unresolved(t *testing.T) {
	f, _ := newFixture(t)
	_, err := f.exec(t, user, ExecuteMsg{Claim: &contracts.Empty{}})
	assert.True(t, chain.IsValidation(err))
}

func TestMintTo(t *testing.T) {
	f := setup(t)

	_, err := f.exec(t, user, ExecuteMsg{MintTo: &MintToMsg{Recipient: string(user)}})
	assert.True(t, chain.IsAuthorization(err))

	_, err = f.exec(t, admin, ExecuteMsg{MintTo: &MintToMsg{Recipient: "NOT VALID"}})
	assert.True(t, chain.IsValidation(err))

	res, err := f.exec(t, admin, ExecuteMsg{MintTo: &MintToMsg{Recipient: string(stranger)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mint_to":{"recipient":"stranger"}}`, string(res.Messages[0].Msg.Execute.Msg))
}

func TestUpdateAdmin(t *testing.T) {
	f := setup(t)
	before := stateDigest(t, f.deps.Storage)

	_, err := f.exec(t, user, ExecuteMsg{UpdateAdmin: &UpdateAdminMsg{NewAdmin: string(user)}})
	assert.True(t, chain.IsAuthorization(err))
	assert.Equal(t, before, stateDigest(t, f.deps.Storage))

	// Authorization is checked before the new address.
	_, err = f.exec(t, user, ExecuteMsg{UpdateAdmin: &UpdateAdminMsg{NewAdmin: "NOT VALID"}})
	assert.True(t, chain.IsAuthorization(err), "got %v", err)
	_, err = f.exec(t, admin, ExecuteMsg{UpdateAdmin: &UpdateAdminMsg{NewAdmin: "NOT VALID"}})
	assert.True(t, chain.IsValidation(err), "got %v", err)
	assert.Equal(t, before, stateDigest(t, f.deps.Storage))
	assert.Equal(t, admin, f.config(t).Admin)

	res, err := f.exec(t, admin, ExecuteMsg{UpdateAdmin: &UpdateAdminMsg{NewAdmin: string(user)}})
	require.NoError(t, err)
	assert.Contains(t, res.Attributes, chain.Attribute{Key: "new_admin", Value: string(user)})
	assert.Equal(t, user, f.config(t).Admin)

	_, err = f.exec(t, user, ExecuteMsg{MintTo: &MintToMsg{Recipient: string(stranger)}})
	require.NoError(t, err, "new admin has admin rights")
	_, err = f.exec(t, admin, ExecuteMsg{MintTo: &MintToMsg{Recipient: string(stranger)}})
	assert.True(t, chain.IsAuthorization(err), "old admin lost them")
	_, err = f.exec(t, admin, ExecuteMsg{UpdateAdmin: &UpdateAdminMsg{NewAdmin: string(admin)}})
	assert.True(t, chain.IsAuthorization(err))
}

func TestExecute_RejectsMalformed(t *testing.T) {
	f := setup(t)
	for _, raw := range []string{`{}`, `{"claim":{},"mint_to":{"recipient":"x"}}`, `{"burn":{}}`, `not json`} {
		_, err := f.c.Execute(context.Background(), f.deps, testutil.MockEnv(self, 0), testutil.MockInfo(admin), []byte(raw))
		assert.True(t, chain.IsValidation(err), raw)
	}
}
