package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/query"
	"github.com/roach88/mintgate/internal/store"
)

// Host runs components against a store.
//
// Thread-safety model:
//   - every exported method is safe from any goroutine
//   - top-level calls are serialised; a call never observes another
//     call's uncommitted writes
type Host struct {
	mu sync.Mutex

	store    *store.Store
	api      chain.API
	domain   query.Channel
	addrs    AddressGenerator
	txIDs    TxIDGenerator
	clock    *Clock
	logger   *slog.Logger
	maxDepth int

	codes map[uint64]chain.Contract
}

// Option configures a Host.
type Option func(*Host)

// WithAPI sets the address API handed to components.
func WithAPI(api chain.API) Option {
	return func(h *Host) { h.api = api }
}

// WithDomain sets the channel custom queries are sent through.
func WithDomain(ch query.Channel) Option {
	return func(h *Host) { h.domain = ch }
}

// WithAddresses sets the contract address generator.
func WithAddresses(g AddressGenerator) Option {
	return func(h *Host) { h.addrs = g }
}

// WithTxIDs sets the tx id generator.
func WithTxIDs(g TxIDGenerator) Option {
	return func(h *Host) { h.txIDs = g }
}

// WithClock sets the block clock.
func WithClock(c *Clock) Option {
	return func(h *Host) { h.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// WithMaxDepth bounds sub-message nesting.
//
// Default: 16 (DefaultMaxDepth).
func WithMaxDepth(n int) Option {
	return func(h *Host) { h.maxDepth = n }
}

// New creates a Host over s.
func New(s *store.Store, opts ...Option) *Host {
	h := &Host{
		store:    s,
		api:      chain.DefaultAPI{},
		addrs:    SequentialAddresses{},
		txIDs:    UUIDv7Generator{},
		clock:    NewClock(DefaultChainID, 0),
		logger:   slog.Default(),
		maxDepth: DefaultMaxDepth,
		codes:    make(map[uint64]chain.Contract),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Store returns the underlying store.
func (h *Host) Store() *store.Store { return h.store }

// Block returns the current block.
func (h *Host) Block() chain.BlockInfo { return h.clock.Block() }

// SetBlockTime moves block time without producing a block.
func (h *Host) SetBlockTime(t chain.Timestamp) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clock.SetTime(t)
}

// AdvanceBlock produces the next block, d later.
func (h *Host) AdvanceBlock(d time.Duration) chain.BlockInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clock.Advance(d)
}

// StoreCode registers a component implementation under name and returns
// its code id. Ids start at 1 and are stable per name across reopenings
// of the same database.
func (h *Host) StoreCode(ctx context.Context, name string, impl chain.Contract) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	id, err := tx.UpsertCode(ctx, name)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	h.codes[id] = impl
	h.logger.Debug("code stored", "name", name, "code_id", id)
	return id, nil
}

// Result is the outcome of a successful top-level call.
type Result struct {
	TxID   string        `json:"tx_id"`
	Events []chain.Event `json:"events"`
	Data   []byte        `json:"data,omitempty"`
}

// Instantiate deploys a new component from codeID.
func (h *Host) Instantiate(ctx context.Context, codeID uint64, sender chain.Addr, msg []byte, label string) (chain.Addr, *Result, error) {
	var addr chain.Addr
	res, err := h.run(ctx, "instantiate", sender, msg, func(c *call) (chain.Addr, *outcome, error) {
		a, out, err := h.instantiate(ctx, c, sender, codeID, msg, label, 0)
		addr = a
		return a, out, err
	})
	if err != nil {
		return "", nil, err
	}
	return addr, res, nil
}

// Execute runs an operation on contract.
func (h *Host) Execute(ctx context.Context, sender, contract chain.Addr, msg []byte) (*Result, error) {
	return h.run(ctx, "execute", sender, msg, func(c *call) (chain.Addr, *outcome, error) {
		out, err := h.execute(ctx, c, sender, contract, msg, 0)
		return contract, out, err
	})
}

// DeliverReply hands r straight to contract's Reply entry point, as if a
// sub-message had completed. Used to exercise correlation failures.
func (h *Host) DeliverReply(ctx context.Context, contract chain.Addr, r chain.Reply) (*Result, error) {
	msg, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode reply: %w", err)
	}
	return h.run(ctx, "reply", "", msg, func(c *call) (chain.Addr, *outcome, error) {
		impl, err := h.lookup(ctx, c, contract)
		if err != nil {
			return contract, nil, err
		}
		out, err := h.reply(ctx, c, contract, impl, r, 0)
		return contract, out, err
	})
}

// QuerySmart runs a read-only query against contract. Nothing the query
// writes is kept.
func (h *Host) QuerySmart(ctx context.Context, contract chain.Addr, msg []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := &call{tx: tx, block: h.clock.Block()}
	return h.querySmart(ctx, c, contract, msg)
}

// QueryRaw sends a custom query to the domain channel.
func (h *Host) QueryRaw(ctx context.Context, request []byte) ([]byte, error) {
	if h.domain == nil {
		return nil, chain.TransportError(nil, "no domain query channel configured")
	}
	return h.domain.QueryRaw(ctx, request)
}

// Contracts lists deployed contracts in deployment order.
func (h *Host) Contracts(ctx context.Context) ([]store.ContractRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Contracts(ctx)
}

// CodeName returns the name contract's code was stored under.
func (h *Host) CodeName(ctx context.Context, contract chain.Addr) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	rec, err := tx.Contract(ctx, contract)
	if errors.Is(err, store.ErrNotFound) {
		return "", chain.ValidationError("no contract at %s", contract)
	}
	if err != nil {
		return "", err
	}
	code, err := tx.Code(ctx, rec.CodeID)
	if err != nil {
		return "", err
	}
	return code.Name, nil
}

// StateDigest hashes contract's key space.
func (h *Host) StateDigest(ctx context.Context, contract chain.Addr) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()
	return chain.StateDigest(ctx, tx.ContractStorage(contract))
}

// run executes fn as one top-level call: one transaction, committed only
// if fn succeeds, then one tx log record.
func (h *Host) run(ctx context.Context, kind string, sender chain.Addr, msg []byte,
	fn func(c *call) (chain.Addr, *outcome, error),
) (*Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	tx, err := h.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	c := &call{tx: tx, txID: h.txIDs.Generate(), block: h.clock.Block()}
	log := h.logger.With("tx_id", c.txID, "kind", kind)
	log.Debug("call started", "sender", sender, "height", c.block.Height)

	contract, out, err := fn(c)
	if err == nil {
		err = tx.Commit()
	}

	rec := store.TxRecord{
		TxID:     c.txID,
		Kind:     kind,
		Sender:   sender,
		Contract: contract,
		Msg:      msg,
		Status:   store.StatusCommitted,
		Height:   c.block.Height,
		Time:     c.block.Time,
	}
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("rollback failed", "error", rbErr)
		}
		rec.Status = store.StatusFailed
		rec.ErrorCode = string(chain.CodeOf(err))
		rec.Error = err.Error()
		log.Info("call failed", "contract", contract, "code", rec.ErrorCode, "error", err)
	} else {
		rec.Events = out.events
		log.Info("call committed", "contract", contract, "events", len(out.events))
	}

	// The tx log shares the single connection, so it is written only once
	// the call's transaction has ended.
	if _, logErr := h.store.AppendTx(ctx, rec); logErr != nil {
		log.Error("append tx log failed", "error", logErr)
	}

	if err != nil {
		return nil, err
	}
	return &Result{TxID: c.txID, Events: out.events, Data: out.data}, nil
}
