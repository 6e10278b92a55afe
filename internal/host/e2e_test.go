package host

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts/collection"
	"github.com/roach88/mintgate/internal/contracts/manager"
	"github.com/roach88/mintgate/internal/contracts/poap"
	"github.com/roach88/mintgate/internal/testutil"
)

const (
	e2eAdmin    chain.Addr = "admin"
	e2eUser     chain.Addr = "user"
	e2eStranger chain.Addr = "stranger"
	e2eManager  chain.Addr = "manager1"
	e2eDep      chain.Addr = "dep1"
	e2eColl     chain.Addr = "collection1"
)

var (
	e2eStart = chain.TimestampFromSeconds(100)
	e2eEnd   = chain.TimestampFromSeconds(200)
)

type e2e struct {
	h *Host
}

// setupE2E deploys manager -> poap (code 7) -> collection and enables
// minting. Block time is inside the event window on return.
func setupE2E(t *testing.T) e2e {
	t.Helper()
	ctx := context.Background()
	logger := testutil.DiscardLogger()

	h := newTestHost(t,
		WithAddresses(NewFixedAddresses(e2eManager, e2eDep, e2eColl)),
		WithDomain(testutil.NewMockQuerier(e2eUser)),
	)

	colID, err := h.StoreCode(ctx, "collection", collection.New(logger))
	require.NoError(t, err)
	// Pad the code table so the POAP code gets id 7.
	for i := 2; i < 7; i++ {
		_, err := h.StoreCode(ctx, fmt.Sprintf("unused-%d", i), probe{})
		require.NoError(t, err)
	}
	poapID, err := h.StoreCode(ctx, "poap", poap.New(poap.WithLogger(logger)))
	require.NoError(t, err)
	require.Equal(t, uint64(7), poapID)
	managerID, err := h.StoreCode(ctx, "manager", manager.New(manager.WithLogger(logger)))
	require.NoError(t, err)

	msg, err := json.Marshal(manager.InstantiateMsg{
		Admin:      string(e2eAdmin),
		PoapCodeID: chain.Uint64(poapID),
		PoapInstantiateMsg: poap.InstantiateMsg{
			Admin:                    string(e2eAdmin),
			CollectionCodeID:         chain.Uint64(colID),
			CollectionInstantiateMsg: collection.InstantiateMsg{Name: "Event", Symbol: "EVT"},
			EventInfo: poap.EventInfo{
				Creator:         string(e2eAdmin),
				StartTime:       e2eStart,
				EndTime:         e2eEnd,
				PerAddressLimit: 2,
				PoapURI:         "ipfs://poap",
			},
		},
	})
	require.NoError(t, err)
	addr, _, err := h.Instantiate(ctx, managerID, e2eAdmin, msg, "manager")
	require.NoError(t, err)
	require.Equal(t, e2eManager, addr)

	_, err = h.Execute(ctx, e2eAdmin, e2eDep, []byte(`{"enable_mint":{}}`))
	require.NoError(t, err)
	h.SetBlockTime(e2eStart)
	return e2e{h: h}
}

func (e e2e) query(t *testing.T, contract chain.Addr, msg string, out any) {
	t.Helper()
	raw, err := e.h.QuerySmart(context.Background(), contract, []byte(msg))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func (e e2e) digests(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, a := range []chain.Addr{e2eManager, e2eDep, e2eColl} {
		d, err := e.h.StateDigest(context.Background(), a)
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestE2E_DeployResolvesAddresses(t *testing.T) {
	e := setupE2E(t)

	var mcfg manager.ConfigResponse
	e.query(t, e2eManager, `{"config":{}}`, &mcfg)
	assert.Equal(t, e2eDep, mcfg.PoapContractAddress)
	assert.Equal(t, chain.Uint64(7), mcfg.PoapCodeID)

	var pcfg poap.ConfigResponse
	e.query(t, e2eDep, `{"config":{}}`, &pcfg)
	assert.Equal(t, e2eColl, pcfg.CollectionAddress)
	assert.Equal(t, e2eManager, pcfg.Minter, "the manager is the poap minter")
	assert.True(t, pcfg.MintEnabled)

	var minter collection.MinterResponse
	e.query(t, e2eColl, `{"minter":{}}`, &minter)
	assert.Equal(t, e2eDep, minter.Minter)
}

func TestE2E_Claim(t *testing.T) {
	e := setupE2E(t)

	res, err := e.h.Execute(context.Background(), e2eUser, e2eManager, []byte(`{"claim":{}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"execute:manager1", "wasm:manager1",
		"execute:dep1", "wasm:dep1",
		"execute:collection1", "wasm:collection1",
	}, eventTypes(res.Events))

	var owner collection.OwnerOfResponse
	e.query(t, e2eColl, `{"owner_of":{"token_id":"1"}}`, &owner)
	assert.Equal(t, e2eUser, owner.Owner)

	var info collection.NftInfoResponse
	e.query(t, e2eDep, `{"nft_info":{"token_id":"1"}}`, &info)
	assert.Equal(t, e2eUser, info.Extension.Claimer)
	assert.Equal(t, "ipfs://poap", info.TokenURI)

	var tokens collection.TokensResponse
	e.query(t, e2eDep, `{"tokens":{"owner":"user"}}`, &tokens)
	assert.Equal(t, []string{"1"}, tokens.Tokens)

	var minted poap.MintedAmountResponse
	e.query(t, e2eDep, `{"minted_amount":{"user":"user"}}`, &minted)
	assert.Equal(t, uint64(1), minted.Amount)
}

func TestE2E_ClaimNotEligibleRevertsAll(t *testing.T) {
	e := setupE2E(t)
	before := e.digests(t)

	_, err := e.h.Execute(context.Background(), e2eStranger, e2eManager, []byte(`{"claim":{}}`))
	assert.True(t, chain.IsEligibility(err))
	assert.Equal(t, before, e.digests(t))

	recs, err := e.h.Store().ReadTxs(context.Background(), e2eManager)
	require.NoError(t, err)
	last := recs[len(recs)-1]
	assert.Equal(t, "failed", last.Status)
	assert.Equal(t, string(chain.CodeEligibility), last.ErrorCode)
}

func TestE2E_QuotaExceededRevertsForwardedMint(t *testing.T) {
	e := setupE2E(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := e.h.Execute(ctx, e2eUser, e2eManager, []byte(`{"claim":{}}`))
		require.NoError(t, err)
	}
	before := e.digests(t)

	_, err := e.h.Execute(ctx, e2eUser, e2eManager, []byte(`{"claim":{}}`))
	assert.True(t, chain.IsQuotaExceeded(err))
	assert.Equal(t, before, e.digests(t))

	var n collection.NumTokensResponse
	e.query(t, e2eColl, `{"num_tokens":{}}`, &n)
	assert.Equal(t, uint64(2), n.Count)
}

func TestE2E_OutsideWindow(t *testing.T) {
	e := setupE2E(t)
	e.h.SetBlockTime(e2eEnd + 1)

	_, err := e.h.Execute(context.Background(), e2eUser, e2eManager, []byte(`{"claim":{}}`))
	assert.True(t, chain.IsWindow(err))
}

func TestE2E_ReplayedReplyIsRejected(t *testing.T) {
	e := setupE2E(t)
	before := e.digests(t)

	r := chain.Reply{ID: 1, Result: chain.SubMsgResult{Ok: &chain.SubMsgResponse{
		Data: chain.EncodeInstantiateResponse("dep2", nil),
	}}}
	_, err := e.h.DeliverReply(context.Background(), e2eManager, r)
	assert.True(t, chain.IsCorrelation(err))
	assert.Equal(t, before, e.digests(t))
}

func TestE2E_UpdateAdmin(t *testing.T) {
	e := setupE2E(t)
	ctx := context.Background()

	_, err := e.h.Execute(ctx, e2eUser, e2eManager, []byte(`{"update_admin":{"new_admin":"user"}}`))
	assert.True(t, chain.IsAuthorization(err))

	_, err = e.h.Execute(ctx, e2eAdmin, e2eManager, []byte(`{"update_admin":{"new_admin":"user"}}`))
	require.NoError(t, err)

	_, err = e.h.Execute(ctx, e2eUser, e2eManager, []byte(`{"mint_to":{"recipient":"stranger"}}`))
	require.NoError(t, err, "new admin mints to an ineligible recipient")
	_, err = e.h.Execute(ctx, e2eAdmin, e2eManager, []byte(`{"mint_to":{"recipient":"stranger"}}`))
	assert.True(t, chain.IsAuthorization(err))
}
