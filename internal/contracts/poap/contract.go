// Package poap implements the event component: it deploys its collection,
// then gates minting through the admission controller and forwards every
// admitted mint to the collection.
package poap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/mintgate/internal/admission"
	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts"
	"github.com/roach88/mintgate/internal/contracts/collection"
	"github.com/roach88/mintgate/internal/reply"
)

// Version info for migrations.
const (
	ContractName    = "crates.io:poap"
	ContractVersion = chain.Version
)

// CollectionLabel labels the collection deployed at instantiate.
const CollectionLabel = "poap-collection"

type config struct {
	Admin             chain.Addr       `json:"admin"`
	Minter            chain.Addr       `json:"minter"`
	MintEnabled       bool             `json:"mint_enabled"`
	CollectionCodeID  chain.Uint64     `json:"collection_code_id"`
	CollectionAddress chain.Addr       `json:"collection_address"`
	Policy            admission.Policy `json:"policy"`
}

func (c config) state() admission.State {
	return admission.State{Admin: c.Admin, Minter: c.Minter, Enabled: c.MintEnabled, Policy: c.Policy}
}

var (
	configItem = chain.NewItem[config]("config")
	eventItem  = chain.NewItem[EventInfo]("event_info")
)

// Contract is the POAP component.
type Contract struct {
	logger   *slog.Logger
	resolved reply.ResolvedPolicy
	policy   admission.Policy
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Contract) { c.logger = l }
}

// WithResolvedPolicy selects what a second collection address resolution does.
func WithResolvedPolicy(p reply.ResolvedPolicy) Option {
	return func(c *Contract) { c.resolved = p }
}

// WithDefaultPolicy sets the admission policy used when an instantiate
// message carries none. Empty fields fall back to admission.DefaultPolicy.
func WithDefaultPolicy(p admission.Policy) Option {
	return func(c *Contract) { c.policy = p }
}

// New creates the POAP component.
func New(opts ...Option) *Contract {
	c := &Contract{logger: slog.Default(), resolved: reply.PolicyReject, policy: admission.DefaultPolicy()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ chain.Contract = (*Contract)(nil)

// Instantiate validates the event, stores the configuration with an
// unresolved collection address and deploys the collection.
func (c *Contract) Instantiate(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, raw []byte) (*chain.Response, error) {
	var msg InstantiateMsg
	if err := contracts.DecodeStruct(raw, &msg); err != nil {
		return nil, err
	}

	admin, err := deps.API.AddrValidate(msg.Admin)
	if err != nil {
		return nil, err
	}
	var minter chain.Addr
	if msg.Minter != "" {
		if minter, err = deps.API.AddrValidate(msg.Minter); err != nil {
			return nil, err
		}
	}
	if _, err := deps.API.AddrValidate(msg.EventInfo.Creator); err != nil {
		return nil, err
	}
	if err := validateEvent(msg.EventInfo, env.Block.Time); err != nil {
		return nil, err
	}
	policy := c.policy
	if msg.Policy != nil {
		policy = *msg.Policy
	}
	if policy, err = policy.Normalize(); err != nil {
		return nil, chain.ValidationError("%v", err)
	}

	colMsg := msg.CollectionInstantiateMsg
	colMsg.Minter = string(env.Contract.Address)
	sub, token, err := reply.BeginDeploy(ctx, deps.Storage, uint64(msg.CollectionCodeID), colMsg, CollectionLabel)
	if err != nil {
		return nil, err
	}

	if err := chain.SetContractVersion(ctx, deps.Storage, ContractName, ContractVersion); err != nil {
		return nil, err
	}
	cfg := config{
		Admin:            admin,
		Minter:           minter,
		CollectionCodeID: msg.CollectionCodeID,
		Policy:           policy,
	}
	if err := configItem.Save(ctx, deps.Storage, cfg); err != nil {
		return nil, err
	}
	if err := eventItem.Save(ctx, deps.Storage, msg.EventInfo); err != nil {
		return nil, err
	}

	c.logger.Info("poap instantiated",
		"tx_id", env.TxID,
		"contract", env.Contract.Address,
		"admin", admin,
		"token", token)

	return chain.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("admin", string(admin)).
		AddAttribute("creator", msg.EventInfo.Creator).
		AddAttribute("start_time", msg.EventInfo.StartTime.String()).
		AddAttribute("end_time", msg.EventInfo.EndTime.String()).
		AddSubMessage(sub), nil
}

func validateEvent(ev EventInfo, now chain.Timestamp) error {
	if err := ev.Window().Validate(); err != nil {
		return err
	}
	if ev.StartTime.Before(now) {
		return chain.ValidationError("start time %s is before block time %s", ev.StartTime, now)
	}
	if ev.PerAddressLimit == 0 {
		return chain.ValidationError("per_address_limit must be positive")
	}
	return nil
}

// Execute implements chain.Contract.
func (c *Contract) Execute(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, raw []byte) (*chain.Response, error) {
	var msg ExecuteMsg
	variant, err := contracts.Decode(raw, &msg)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("execute", "tx_id", env.TxID, "contract", env.Contract.Address, "msg", variant, "sender", info.Sender)

	switch {
	case msg.EnableMint != nil:
		return c.setEnabled(ctx, deps, info, true)
	case msg.DisableMint != nil:
		return c.setEnabled(ctx, deps, info, false)
	case msg.Mint != nil:
		return c.mint(ctx, deps, env, info.Sender, false)
	case msg.MintTo != nil:
		return c.mintTo(ctx, deps, env, info, *msg.MintTo)
	case msg.UpdateAdmin != nil:
		return c.updateAdmin(ctx, deps, info, *msg.UpdateAdmin)
	case msg.UpdateMinter != nil:
		return c.updateMinter(ctx, deps, info, *msg.UpdateMinter)
	default:
		return c.updateEventInfo(ctx, deps, env, info, *msg.UpdateEventInfo)
	}
}

func (c *Contract) setEnabled(ctx context.Context, deps chain.Deps, info chain.MessageInfo, enable bool) (*chain.Response, error) {
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	var (
		st      admission.State
		changed bool
		action  = "disable_mint"
	)
	if enable {
		action = "enable_mint"
		st, changed, err = admission.Enable(cfg.state(), info.Sender)
	} else {
		st, changed, err = admission.Disable(cfg.state(), info.Sender)
	}
	if err != nil {
		return nil, err
	}
	if changed {
		cfg.MintEnabled = st.Enabled
		if err := configItem.Save(ctx, deps.Storage, cfg); err != nil {
			return nil, err
		}
	}
	return chain.NewResponse().
		AddAttribute("action", action).
		AddAttribute("sender", string(info.Sender)).
		AddAttribute("changed", strconv.FormatBool(changed)), nil
}

func (c *Contract) mintTo(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, msg MintToMsg) (*chain.Response, error) {
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if err := admission.AuthorizeMintTo(cfg.state(), info.Sender); err != nil {
		return nil, err
	}
	recipient, err := deps.API.AddrValidate(msg.Recipient)
	if err != nil {
		return nil, err
	}
	res, err := c.mint(ctx, deps, env, recipient, true)
	if err != nil {
		return nil, err
	}
	return res.AddAttribute("minted_by", string(info.Sender)), nil
}

// mint admits one mint for recipient and forwards it to the collection.
// Self mints always count against the quota; directed mints follow the
// mint_to_quota policy.
func (c *Contract) mint(ctx context.Context, deps chain.Deps, env chain.Env, recipient chain.Addr, directed bool) (*chain.Response, error) {
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if cfg.CollectionAddress.IsEmpty() {
		return nil, chain.ValidationError("collection address is not resolved yet")
	}
	ev, err := eventItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}

	enforce := !directed || cfg.Policy.MintToQuota == admission.QuotaEnforce
	count, err := admission.Admit(ctx, deps.Storage, cfg.state(), ev.Window(), admission.Request{
		Recipient:    recipient,
		Limit:        uint64(ev.PerAddressLimit),
		EnforceQuota: enforce,
		Now:          env.Block.Time,
	})
	if err != nil {
		return nil, err
	}

	fwd, err := chain.NewExecuteMsg(cfg.CollectionAddress, collection.ExecuteMsg{Mint: &collection.MintMsg{
		Owner:     string(recipient),
		TokenURI:  ev.PoapURI,
		Extension: collection.Metadata{Claimer: recipient},
	}})
	if err != nil {
		return nil, fmt.Errorf("forward mint: %w", err)
	}

	c.logger.Info("mint admitted",
		"tx_id", env.TxID,
		"contract", env.Contract.Address,
		"recipient", recipient,
		"count", count)

	action := "mint"
	if directed {
		action = "mint_to"
	}
	return chain.NewResponse().
		AddAttribute("action", action).
		AddAttribute("recipient", string(recipient)).
		AddAttribute("minted_amount", strconv.FormatUint(count, 10)).
		AddMessage(fwd), nil
}

func (c *Contract) updateAdmin(ctx context.Context, deps chain.Deps, info chain.MessageInfo, msg UpdateAdminMsg) (*chain.Response, error) {
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if err := admission.RequireAdmin(cfg.Admin, info.Sender); err != nil {
		return nil, err
	}
	admin, err := deps.API.AddrValidate(msg.NewAdmin)
	if err != nil {
		return nil, err
	}
	cfg.Admin = admin
	if err := configItem.Save(ctx, deps.Storage, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddAttribute("action", "update_admin").
		AddAttribute("new_admin", string(admin)), nil
}

func (c *Contract) updateMinter(ctx context.Context, deps chain.Deps, info chain.MessageInfo, msg UpdateMinterMsg) (*chain.Response, error) {
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if err := admission.RequireAdmin(cfg.Admin, info.Sender); err != nil {
		return nil, err
	}
	minter, err := deps.API.AddrValidate(msg.NewMinter)
	if err != nil {
		return nil, err
	}
	cfg.Minter = minter
	if err := configItem.Save(ctx, deps.Storage, cfg); err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddAttribute("action", "update_minter").
		AddAttribute("new_minter", string(minter)), nil
}

func (c *Contract) updateEventInfo(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, msg UpdateEventInfoMsg) (*chain.Response, error) {
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if err := admission.RequireAdmin(cfg.Admin, info.Sender); err != nil {
		return nil, err
	}
	ev, err := eventItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if !env.Block.Time.Before(ev.StartTime) {
		return nil, chain.ValidationError("event started at %s and can no longer be changed", ev.StartTime)
	}
	ev.StartTime = msg.StartTime
	ev.EndTime = msg.EndTime
	if err := validateEvent(ev, env.Block.Time); err != nil {
		return nil, err
	}
	if err := eventItem.Save(ctx, deps.Storage, ev); err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddAttribute("action", "update_event_info").
		AddAttribute("start_time", ev.StartTime.String()).
		AddAttribute("end_time", ev.EndTime.String()), nil
}

// Query implements chain.Contract.
func (c *Contract) Query(ctx context.Context, deps chain.Deps, env chain.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if _, err := contracts.Decode(raw, &msg); err != nil {
		return nil, err
	}
	switch {
	case msg.Config != nil:
		cfg, err := configItem.Load(ctx, deps.Storage)
		if err != nil {
			return nil, err
		}
		return contracts.ToBinary(ConfigResponse(cfg))
	case msg.EventInfo != nil:
		ev, err := eventItem.Load(ctx, deps.Storage)
		if err != nil {
			return nil, err
		}
		return contracts.ToBinary(EventInfoResponse{EventInfo: ev})
	case msg.MintedAmount != nil:
		user, err := deps.API.AddrValidate(msg.MintedAmount.User)
		if err != nil {
			return nil, err
		}
		n, err := admission.Count(ctx, deps.Storage, user)
		if err != nil {
			return nil, err
		}
		return contracts.ToBinary(MintedAmountResponse{User: user, Amount: n})
	default:
		return c.proxy(ctx, deps, collection.QueryMsg{Tokens: msg.Tokens, NftInfo: msg.NftInfo})
	}
}

// proxy forwards a unit query to the collection.
func (c *Contract) proxy(ctx context.Context, deps chain.Deps, q collection.QueryMsg) ([]byte, error) {
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if cfg.CollectionAddress.IsEmpty() {
		return nil, chain.ValidationError("collection address is not resolved yet")
	}
	raw, err := contracts.ToBinary(q)
	if err != nil {
		return nil, err
	}
	return deps.Querier.QuerySmart(ctx, cfg.CollectionAddress, raw)
}

// Reply records the collection address delivered for a pending deployment.
func (c *Contract) Reply(ctx context.Context, deps chain.Deps, env chain.Env, r chain.Reply) (*chain.Response, error) {
	op, err := reply.Resolve(ctx, deps.Storage, r)
	if err != nil {
		return nil, err
	}
	addr, err := reply.InstantiatedAddress(r)
	if err != nil {
		if errors.Is(err, reply.ErrDeployFailed) {
			c.logger.Error("collection deployment failed", "tx_id", env.TxID, "contract", env.Contract.Address, "error", err)
		}
		return nil, err
	}

	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	assigned, err := reply.Assign(cfg.CollectionAddress, addr, c.resolved)
	if err != nil {
		return nil, err
	}
	if assigned != cfg.CollectionAddress {
		cfg.CollectionAddress = assigned
		if err := configItem.Save(ctx, deps.Storage, cfg); err != nil {
			return nil, err
		}
	}

	c.logger.Info("collection resolved",
		"tx_id", env.TxID,
		"contract", env.Contract.Address,
		"token", r.ID,
		"label", op.Label,
		"collection", assigned)

	return chain.NewResponse().
		AddAttribute("action", "instantiate_collection_reply").
		AddAttribute("collection_address", string(assigned)), nil
}
