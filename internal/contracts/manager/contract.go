// Package manager implements the orchestrating component. It deploys the
// POAP component, resolves its address from the deferred reply and turns
// eligible claims into directed mints.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/mintgate/internal/admission"
	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts"
	"github.com/roach88/mintgate/internal/contracts/poap"
	"github.com/roach88/mintgate/internal/query"
	"github.com/roach88/mintgate/internal/reply"
)

// Version info for migrations.
const (
	ContractName    = "crates.io:poap-manager"
	ContractVersion = chain.Version
)

// PoapLabel labels the POAP component deployed at instantiate.
const PoapLabel = "poap"

type config struct {
	Admin       chain.Addr   `json:"admin"`
	PoapCodeID  chain.Uint64 `json:"poap_code_id"`
	PoapAddress chain.Addr   `json:"poap_address"`
}

var configItem = chain.NewItem[config]("config")

// Contract is the manager component.
type Contract struct {
	logger   *slog.Logger
	shape    query.Shape
	resolved reply.ResolvedPolicy
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Contract) { c.logger = l }
}

// WithQueryShape selects the envelope shape of eligibility queries.
func WithQueryShape(s query.Shape) Option {
	return func(c *Contract) { c.shape = s }
}

// WithResolvedPolicy selects what a second POAP address resolution does.
func WithResolvedPolicy(p reply.ResolvedPolicy) Option {
	return func(c *Contract) { c.resolved = p }
}

// New creates the manager component.
func New(opts ...Option) *Contract {
	c := &Contract{
		logger:   slog.Default(),
		shape:    query.ShapeAuto,
		resolved: reply.PolicyReject,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ chain.Contract = (*Contract)(nil)

// Instantiate stores the configuration with an unresolved POAP address and
// deploys the POAP component with the manager as its minter.
func (c *Contract) Instantiate(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo, raw []byte) (*chain.Response, error) {
	var msg InstantiateMsg
	if err := contracts.DecodeStruct(raw, &msg); err != nil {
		return nil, err
	}
	admin, err := deps.API.AddrValidate(msg.Admin)
	if err != nil {
		return nil, err
	}

	poapMsg := msg.PoapInstantiateMsg
	poapMsg.Minter = string(env.Contract.Address)
	sub, token, err := reply.BeginDeploy(ctx, deps.Storage, uint64(msg.PoapCodeID), poapMsg, PoapLabel)
	if err != nil {
		return nil, err
	}

	if err := chain.SetContractVersion(ctx, deps.Storage, ContractName, ContractVersion); err != nil {
		return nil, err
	}
	if err := configItem.Save(ctx, deps.Storage, config{Admin: admin, PoapCodeID: msg.PoapCodeID}); err != nil {
		return nil, err
	}

	c.logger.Info("manager instantiated",
		"tx_id", env.TxID,
		"contract", env.Contract.Address,
		"admin", admin,
		"poap_code_id", uint64(msg.PoapCodeID),
		"token", token)

	return chain.NewResponse().
		AddAttribute("action", "instantiate").
		AddAttribute("admin", string(admin)).
		AddAttribute("poap_code_id", strconv.FormatUint(uint64(msg.PoapCodeID), 10)).
		AddSubMessage(sub), nil
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
	case msg.Claim != nil:
		return c.claim(ctx, deps, env, info)
	case msg.MintTo != nil:
		return c.mintTo(ctx, deps, info, *msg.MintTo)
	default:
		return c.updateAdmin(ctx, deps, info, *msg.UpdateAdmin)
	}
}

// claim mints to the sender once the profiles domain confirms the sender
// has a profile. Any query failure denies the claim.
func (c *Contract) claim(ctx context.Context, deps chain.Deps, env chain.Env, info chain.MessageInfo) (*chain.Response, error) {
	cfg, err := loadResolved(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}

	profiles := query.NewProfilesQuerier(query.NewRouter(deps.Querier,
		query.WithShape(c.shape),
		query.WithLogger(c.logger)))
	res, err := profiles.Profile(ctx, info.Sender)
	if err != nil {
		c.logger.Info("claim denied", "tx_id", env.TxID, "sender", info.Sender, "error", err)
		return nil, chain.EligibilityError(err, "%s is not eligible", info.Sender).With("sender", string(info.Sender))
	}
	if res.Profile.Account.Address.IsEmpty() {
		return nil, chain.EligibilityError(nil, "%s has no profile", info.Sender).With("sender", string(info.Sender))
	}

	fwd, err := forwardMintTo(cfg.PoapAddress, info.Sender)
	if err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddAttribute("action", "claim").
		AddAttribute("sender", string(info.Sender)).
		AddMessage(fwd), nil
}

func (c *Contract) mintTo(ctx context.Context, deps chain.Deps, info chain.MessageInfo, msg MintToMsg) (*chain.Response, error) {
	cfg, err := loadResolved(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	if err := admission.RequireAdmin(cfg.Admin, info.Sender); err != nil {
		return nil, err
	}
	recipient, err := deps.API.AddrValidate(msg.Recipient)
	if err != nil {
		return nil, err
	}
	fwd, err := forwardMintTo(cfg.PoapAddress, recipient)
	if err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddAttribute("action", "mint_to").
		AddAttribute("sender", string(info.Sender)).
		AddAttribute("recipient", string(recipient)).
		AddMessage(fwd), nil
}

func forwardMintTo(poapAddr, recipient chain.Addr) (chain.CosmosMsg, error) {
	msg, err := chain.NewExecuteMsg(poapAddr, poap.ExecuteMsg{MintTo: &poap.MintToMsg{Recipient: string(recipient)}})
	if err != nil {
		return chain.CosmosMsg{}, fmt.Errorf("forward mint_to: %w", err)
	}
	return msg, nil
}

func loadResolved(ctx context.Context, s chain.Storage) (config, error) {
	cfg, err := configItem.Load(ctx, s)
	if err != nil {
		return cfg, err
	}
	if cfg.PoapAddress.IsEmpty() {
		return cfg, chain.ValidationError("poap address is not resolved yet")
	}
	return cfg, nil
}

func (c *Contract) updateAdmin(ctx context.Context, deps chain.Deps, info chain.MessageInfo, msg UpdateAdminMsg) (*chain.Response, error) {
	var newAdmin chain.Addr
	_, err := configItem.Update(ctx, deps.Storage, func(cfg config) (config, error) {
		if err := admission.RequireAdmin(cfg.Admin, info.Sender); err != nil {
			return cfg, err
		}
		addr, err := deps.API.AddrValidate(msg.NewAdmin)
		if err != nil {
			return cfg, err
		}
		newAdmin = addr
		cfg.Admin = addr
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return chain.NewResponse().
		AddAttribute("action", "update_admin").
		AddAttribute("new_admin", string(newAdmin)).
		AddAttribute("sender", string(info.Sender)), nil
}

// Query implements chain.Contract.
func (c *Contract) Query(ctx context.Context, deps chain.Deps, env chain.Env, raw []byte) ([]byte, error) {
	var msg QueryMsg
	if _, err := contracts.Decode(raw, &msg); err != nil {
		return nil, err
	}
	cfg, err := configItem.Load(ctx, deps.Storage)
	if err != nil {
		return nil, err
	}
	return contracts.ToBinary(ConfigResponse{
		Admin:               cfg.Admin,
		PoapCodeID:          cfg.PoapCodeID,
		PoapContractAddress: cfg.PoapAddress,
	})
}

// Reply records the POAP address delivered for the pending deployment.
func (c *Contract) Reply(ctx context.Context, deps chain.Deps, env chain.Env, r chain.Reply) (*chain.Response, error) {
	op, err := reply.Resolve(ctx, deps.Storage, r)
	if err != nil {
		return nil, err
	}
	addr, err := reply.InstantiatedAddress(r)
	if err != nil {
		return nil, err
	}
	if _, err := deps.API.AddrValidate(string(addr)); err != nil {
		return nil, err
	}

	cfg, err := configItem.Update(ctx, deps.Storage, func(cfg config) (config, error) {
		assigned, err := reply.Assign(cfg.PoapAddress, addr, c.resolved)
		if err != nil {
			return cfg, err
		}
		cfg.PoapAddress = assigned
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("poap resolved",
		"tx_id", env.TxID,
		"contract", env.Contract.Address,
		"token", r.ID,
		"label", op.Label,
		"poap", cfg.PoapAddress)

	return chain.NewResponse().
		AddAttribute("action", "instantiate_poap_reply").
		AddAttribute("poap_address", string(cfg.PoapAddress)), nil
}
