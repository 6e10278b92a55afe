// Package collection implements the component that owns minted units and
// assigns their sequential ids.
package collection

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts"
)

// Version info for migrations.
const (
	ContractName    = "crates.io:poap-collection"
	ContractVersion = chain.Version
)

// Tokens query page limits.
const (
	DefaultLimit = 10
	MaxLimit     = 30
)

type config struct {
	Name   string     `json:"name"`
	Symbol string     `json:"symbol"`
	Minter chain.Addr `json:"minter"`
}

type unit struct {
	Owner     chain.Addr `json:"owner"`
	TokenURI  string     `json:"token_uri"`
	Extension Metadata   `json:"extension"`
}

var (
	configItem = chain.NewItem[config]("config")
	tokenCount = chain.NewItem[uint64]("num_tokens")
	units      = chain.NewMap[unit]("tokens")
	byOwner    = chain.NewMap[struct{}]("owner_tokens")
)

// Contract is the collection component.
type Contract struct {
	logger *slog.Logger
}

// New creates the collection component.
func New(logger *slog.Logger) *Contract {
	if logger == nil {
		logger = slog.Default()
	}
	return &Contract{logger: logger}
}

var _ chain.Contract = (*Contract)(nil)

// Instantiate implements chain.Contract.
func (c *Contract) Instantiate(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, raw []byte) (*chain.Response, error) {
	var msg InstantiateMsg
	if err := contracts.DecodeStruct(raw, &msg); err != nil {
		return nil, err
	}
	if msg.Name == "" || msg.Symbol == "" {
		return nil, chain.ValidationError("name and symbol are required")
	}
	minter, err := deps.API.AddrValidate(msg.Minter)
	if err != nil {
		return nil, err
	}
	if err := chain.SetContractVersion(ctx, deps.Storage, ContractName, ContractVersion); err != nil {
		return nil, err
	}
	if err := configItem.Save(ctx, deps.Storage, config{Name: msg.Name, Symbol: msg.Symbol, Minter: minter}); err != nil {
		return nil, err
	}
	if err := tokenCount.Save(ctx, deps.Storage, 0); err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("minter", string(minter)), nil
}

// Execute implements chain.Contract.
func (c *Contract) Execute(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, raw []byte) (*chain.Response, error) {
	var msg ExecuteMsg
	if _, err := contracts.Decode(raw, &msg); err != nil {
		return nil, err
	}
	return c.mint(ctx, deps, env, info, *msg.Mint)
}

func (c *Contract) mint(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, msg MintMsg) (*chain.Response, error) {
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.Minter {
		return nil, chain.AuthorizationError("%s is not the minter", info.Sender)
	}
	owner, err := deps.API.AddrValidate(msg.Owner)
	if err != nil {
		return nil, err
	}

	next, err := tokenCount.Update(ctx, deps.Storage, func(n uint64) (uint64, error) { return n + 1, nil })
	if err != nil {
		return nil, err
	}
	tokenID := strconv.FormatUint(next, 10)

	if err := units.Save(ctx, deps.Storage, tokenID, unit{Owner: owner, TokenURI: msg.TokenURI, Extension: msg.Extension}); err != nil {
		return nil, err
	}
	if err := byOwner.Save(ctx, deps.Storage, chain.JoinKey(string(owner), tokenID), struct{}{}); err != nil {
		return nil, err
	}

	c.logger.Debug("unit minted", "tx_id", env.TxID, "contract", env.Contract.Address, "token_id", tokenID, "owner", owner)

	return chain.NewResponse().
		AddAttribute("action", "mint").
		AddAttribute("minter", string(info.Sender)).
		AddAttribute("owner", string(owner)).
		AddAttribute("token_id", tokenID).
		SetData([]byte(tokenID)), nil
}

// Query implements chain.Contract.
func (c *Contract) Query(ctx context.Context, deps chain.Deps, env chain.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if _, err := contracts.Decode(raw, &msg); err != nil {
		return nil, err
	}
	switch {
	case msg.Tokens != nil:
		return c.queryTokens(ctx, deps, *msg.Tokens)
	case msg.NftInfo != nil:
		u, err := loadUnit(ctx, deps.Storage, msg.NftInfo.TokenID)
		if err != nil {
			return nil, err
		}
		return contracts.ToBinary(NftInfoResponse{TokenURI: u.TokenURI, Extension: u.Extension})
	case msg.OwnerOf != nil:
		u, err := loadUnit(ctx, deps.Storage, msg.OwnerOf.TokenID)
		if err != nil {
			return nil, err
		}
		return contracts.ToBinary(OwnerOfResponse{Owner: u.Owner})
	case msg.NumTokens != nil:
		n, err := tokenCount.Load(ctx, deps.Storage)
		if err != nil {
			return nil, err
		}
		return contracts.ToBinary(NumTokensResponse{Count: n})
	default:
		cfg, err := configItem.Load(ctx, deps.Storage)
		if err != nil {
			return nil, err
		}
		return contracts.ToBinary(MinterResponse{Minter: cfg.Minter})
	}
}

func (c *Contract) queryTokens(ctx context.Context, deps chain.Deps, q TokensQuery) ([]byte, error) {
	owner, err := deps.API.AddrValidate(q.Owner)
	if err != nil {
		return nil, err
	}
	limit := int(q.Limit)
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	prefix := chain.JoinKey(string(owner), "")
	startAfter := ""
	if q.StartAfter != "" {
		startAfter = chain.JoinKey(string(owner), q.StartAfter)
	}
	entries, err := byOwner.Range(ctx, deps.Storage, prefix, startAfter, chain.Ascending, limit)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, len(entries))
	for i, e := range entries {
		tokens[i] = e.Key[len(prefix):]
	}
	return contracts.ToBinary(TokensResponse{Tokens: tokens})
}

func loadUnit(ctx context.Context, s chain.Storage, tokenID string) (unit, error) {
	u, ok, err := units.May(ctx, s, tokenID)
	if err != nil {
		return u, err
	}
	if !ok {
		return u, chain.NotFoundError("token %q not found", tokenID)
	}
	return u, nil
}

// Reply implements chain.Contract. The collection sends no sub-messages.
func (c *Contract) Reply(_ context.Context, _ chain.Deps, _ chain.Env, r chain.Reply) (*chain.Response, error) {
	return nil, chain.CorrelationError("unexpected reply %d", r.ID)
}
