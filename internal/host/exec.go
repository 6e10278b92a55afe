package host

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/store"
)

// call is the state of one top-level call.
type call struct {
	tx         *store.Tx
	txID       string
	block      chain.BlockInfo
	savepoints int
}

// outcome is what one dispatched message produced.
type outcome struct {
	events []chain.Event
	data   []byte
}

func (h *Host) env(c *call, contract chain.Addr) chain.Env {
	return chain.Env{Block: c.block, Contract: chain.ContractInfo{Address: contract}, TxID: c.txID}
}

func (h *Host) deps(c *call, contract chain.Addr) chain.Deps {
	return chain.Deps{
		Storage: c.tx.ContractStorage(contract),
		API:     h.api,
		Querier: &querier{h: h, c: c},
	}
}

// lookup resolves a deployed contract to its implementation.
func (h *Host) lookup(ctx context.Context, c *call, contract chain.Addr) (chain.Contract, error) {
	rec, err := c.tx.Contract(ctx, contract)
	if errors.Is(err, store.ErrNotFound) {
		return nil, chain.ValidationError("no contract at %s", contract)
	}
	if err != nil {
		return nil, err
	}
	impl, ok := h.codes[rec.CodeID]
	if !ok {
		return nil, fmt.Errorf("contract %s: code %d: %w", contract, rec.CodeID, ErrUnknownCode)
	}
	return impl, nil
}

func (h *Host) instantiate(ctx context.Context, c *call, sender chain.Addr, codeID uint64, msg []byte, label string, depth int) (chain.Addr, *outcome, error) {
	impl, ok := h.codes[codeID]
	if !ok {
		return "", nil, chain.ValidationError("code %d: %v", codeID, ErrUnknownCode)
	}
	if _, err := c.tx.Code(ctx, codeID); err != nil {
		return "", nil, err
	}
	seq, err := c.tx.NextContractSeq(ctx)
	if err != nil {
		return "", nil, err
	}
	addr := h.addrs.Address(seq, codeID, label)
	if _, err := h.api.AddrValidate(string(addr)); err != nil {
		return "", nil, fmt.Errorf("generated address: %w", err)
	}
	if err := c.tx.InsertContract(ctx, store.ContractRecord{
		Address: addr,
		CodeID:  codeID,
		Label:   label,
		Creator: sender,
		Seq:     seq,
	}); err != nil {
		return "", nil, err
	}

	h.logger.Debug("instantiate", "tx_id", c.txID, "code_id", codeID, "contract", addr, "label", label, "depth", depth)

	res, err := impl.Instantiate(ctx, h.deps(c, addr), h.env(c, addr), chain.MessageInfo{Sender: sender}, msg)
	if err != nil {
		return "", nil, err
	}
	out := &outcome{events: []chain.Event{{
		Type: "instantiate",
		Attributes: []chain.Attribute{
			{Key: "_contract_address", Value: string(addr)},
			{Key: "code_id", Value: strconv.FormatUint(codeID, 10)},
		},
	}}}
	if err := h.handleResponse(ctx, c, addr, impl, res, out, depth); err != nil {
		return "", nil, err
	}
	return addr, out, nil
}

func (h *Host) execute(ctx context.Context, c *call, sender, contract chain.Addr, msg []byte, depth int) (*outcome, error) {
	impl, err := h.lookup(ctx, c, contract)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("execute", "tx_id", c.txID, "contract", contract, "sender", sender, "depth", depth)

	res, err := impl.Execute(ctx, h.deps(c, contract), h.env(c, contract), chain.MessageInfo{Sender: sender}, msg)
	if err != nil {
		return nil, err
	}
	out := &outcome{events: []chain.Event{{
		Type:       "execute",
		Attributes: []chain.Attribute{{Key: "_contract_address", Value: string(contract)}},
	}}}
	if err := h.handleResponse(ctx, c, contract, impl, res, out, depth); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Host) reply(ctx context.Context, c *call, contract chain.Addr, impl chain.Contract, r chain.Reply, depth int) (*outcome, error) {
	mode := "handle_success"
	if !r.Result.IsOk() {
		mode = "handle_failure"
	}
	h.logger.Debug("reply", "tx_id", c.txID, "contract", contract, "token", r.ID, "mode", mode)

	res, err := impl.Reply(ctx, h.deps(c, contract), h.env(c, contract), r)
	if err != nil {
		return nil, err
	}
	out := &outcome{events: []chain.Event{{
		Type: "reply",
		Attributes: []chain.Attribute{
			{Key: "_contract_address", Value: string(contract)},
			{Key: "mode", Value: mode},
		},
	}}}
	if err := h.handleResponse(ctx, c, contract, impl, res, out, depth); err != nil {
		return nil, err
	}
	return out, nil
}

// handleResponse records res's events and data into out, then runs its
// sub-messages depth-first in attachment order.
func (h *Host) handleResponse(ctx context.Context, c *call, contract chain.Addr, impl chain.Contract, res *chain.Response, out *outcome, depth int) error {
	if res == nil {
		return nil
	}
	if len(res.Attributes) > 0 {
		attrs := append([]chain.Attribute{{Key: "_contract_address", Value: string(contract)}}, res.Attributes...)
		out.events = append(out.events, chain.Event{Type: "wasm", Attributes: attrs})
	}
	for _, ev := range res.Events {
		attrs := append([]chain.Attribute{{Key: "_contract_address", Value: string(contract)}}, ev.Attributes...)
		out.events = append(out.events, chain.Event{Type: "wasm-" + ev.Type, Attributes: attrs})
	}
	if res.Data != nil {
		out.data = res.Data
	}

	for _, sub := range res.Messages {
		if err := h.runSubMsg(ctx, c, contract, impl, sub, out, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// runSubMsg dispatches one sub-message on behalf of contract and, when
// reply_on asks for it, delivers the outcome to contract's Reply entry
// point. Failures the caller does not handle fail the whole call.
func (h *Host) runSubMsg(ctx context.Context, c *call, contract chain.Addr, impl chain.Contract, sub chain.SubMsg, out *outcome, depth int) error {
	if depth > h.maxDepth {
		return &DepthExceededError{TxID: c.txID, Depth: depth, Limit: h.maxDepth}
	}

	var savepoint string
	if sub.ReplyOn.OnError() {
		c.savepoints++
		savepoint = fmt.Sprintf("sub_%d", c.savepoints)
		if err := c.tx.Savepoint(ctx, savepoint); err != nil {
			return err
		}
	}

	subOut, err := h.dispatch(ctx, c, contract, sub.Msg, depth)

	var r chain.Reply
	switch {
	case err != nil && !sub.ReplyOn.OnError():
		return err
	case err != nil:
		if IsDepthExceeded(err) {
			return err
		}
		if rbErr := c.tx.RollbackTo(ctx, savepoint); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		h.logger.Debug("sub-message failed", "tx_id", c.txID, "contract", contract, "token", sub.ID, "error", err)
		r = chain.Reply{ID: sub.ID, Result: chain.SubMsgResult{Err: err.Error()}}
	default:
		if savepoint != "" {
			if err := c.tx.Release(ctx, savepoint); err != nil {
				return err
			}
		}
		out.events = append(out.events, subOut.events...)
		if !sub.ReplyOn.OnSuccess() {
			return nil
		}
		r = chain.Reply{ID: sub.ID, Result: chain.SubMsgResult{Ok: &chain.SubMsgResponse{
			Events: subOut.events,
			Data:   subOut.data,
		}}}
	}

	replyOut, err := h.reply(ctx, c, contract, impl, r, depth)
	if err != nil {
		return err
	}
	out.events = append(out.events, replyOut.events...)
	if replyOut.data != nil {
		out.data = replyOut.data
	}
	return nil
}

// dispatch runs msg with sender as the calling identity.
func (h *Host) dispatch(ctx context.Context, c *call, sender chain.Addr, msg chain.CosmosMsg, depth int) (*outcome, error) {
	switch {
	case msg.Instantiate != nil:
		m := msg.Instantiate
		addr, out, err := h.instantiate(ctx, c, sender, uint64(m.CodeID), m.Msg, m.Label, depth)
		if err != nil {
			return nil, err
		}
		// Instantiate outcomes carry the new address the way the ledger
		// does: a protobuf MsgInstantiateContractResponse.
		out.data = chain.EncodeInstantiateResponse(addr, out.data)
		return out, nil
	case msg.Execute != nil:
		return h.execute(ctx, c, sender, msg.Execute.ContractAddr, msg.Execute.Msg, depth)
	default:
		return nil, chain.ValidationError("unsupported message %s", msg.Kind())
	}
}

func (h *Host) querySmart(ctx context.Context, c *call, contract chain.Addr, msg []byte) ([]byte, error) {
	impl, err := h.lookup(ctx, c, contract)
	if err != nil {
		return nil, err
	}
	return impl.Query(ctx, h.deps(c, contract), h.env(c, contract), msg)
}

// querier is the chain.Querier of one call. Smart queries see the call's
// uncommitted writes.
type querier struct {
	h *Host
	c *call
}

func (q *querier) QueryRaw(ctx context.Context, request []byte) ([]byte, error) {
	return q.h.QueryRaw(ctx, request)
}

func (q *querier) QuerySmart(ctx context.Context, contract chain.Addr, msg []byte) ([]byte, error) {
	return q.h.querySmart(ctx, q.c, contract, msg)
}
