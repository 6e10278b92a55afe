// Package reply implements deferred-reply correlation for sub-messages.
//
// A component that deploys a dependent component cannot see the result
// synchronously. BeginDeploy records a pending operation under a fresh
// token and returns the instantiate sub-message carrying that token; the
// host later delivers the outcome to the component's Reply entry point,
// where Resolve consumes the token and InstantiatedAddress extracts the new
// address. Pending operations are plain stored data, so a continuation
// survives the transaction boundary the host resumes across.
package reply

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/mintgate/internal/chain"
)

// Token correlates a sub-message with its reply.
type Token uint64

// Kind identifies what a pending operation was waiting for.
type Kind string

const (
	// KindInstantiate is a pending deployment of a dependent component.
	KindInstantiate Kind = "instantiate"
)

// PendingOp is the continuation stored for a token.
type PendingOp struct {
	Kind   Kind         `json:"kind"`
	Label  string       `json:"label"`
	CodeID chain.Uint64 `json:"code_id"`
}

// Entry pairs a pending operation with its token.
type Entry struct {
	Token Token
	Op    PendingOp
}

// ErrDeployFailed marks a failed instantiate outcome.
var ErrDeployFailed = errors.New("dependent deployment failed")

var (
	lastToken = chain.NewItem[uint64]("reply_last_token")
	pending   = chain.NewMap[PendingOp]("reply_pending")
)

func tokenKey(t Token) string { return strconv.FormatUint(uint64(t), 10) }

// nextToken allocates the next token. Tokens start at 1 and are never reused.
func nextToken(ctx context.Context, s chain.Storage) (Token, error) {
	last, _, err := lastToken.May(ctx, s)
	if err != nil {
		return 0, err
	}
	next := last + 1
	if err := lastToken.Save(ctx, s, next); err != nil {
		return 0, err
	}
	return Token(next), nil
}

// BeginDeploy records a pending instantiate and returns the sub-message that
// performs it. The sub-message replies on success only: a failed deployment
// fails the whole call.
func BeginDeploy(ctx context.Context, s chain.Storage, codeID uint64, initMsg any, label string) (chain.SubMsg, Token, error) {
	if codeID == 0 {
		return chain.SubMsg{}, 0, chain.ValidationError("code id must be non-zero")
	}
	msg, err := chain.NewInstantiateMsg(codeID, initMsg, label)
	if err != nil {
		return chain.SubMsg{}, 0, chain.ValidationError("instantiate %s: %v", label, err)
	}

	token, err := nextToken(ctx, s)
	if err != nil {
		return chain.SubMsg{}, 0, fmt.Errorf("begin deploy: %w", err)
	}
	op := PendingOp{Kind: KindInstantiate, Label: label, CodeID: chain.Uint64(codeID)}
	if err := pending.Save(ctx, s, tokenKey(token), op); err != nil {
		return chain.SubMsg{}, 0, fmt.Errorf("begin deploy: %w", err)
	}

	sub := chain.SubMsg{ID: uint64(token), Msg: msg, ReplyOn: chain.ReplySuccess}
	return sub, token, nil
}

// Resolve consumes the pending operation of reply's token.
// An unknown or already consumed token is a CORRELATION error and nothing
// is written.
func Resolve(ctx context.Context, s chain.Storage, reply chain.Reply) (PendingOp, error) {
	key := tokenKey(Token(reply.ID))
	op, ok, err := pending.May(ctx, s, key)
	if err != nil {
		return PendingOp{}, fmt.Errorf("resolve reply %d: %w", reply.ID, err)
	}
	if !ok {
		return PendingOp{}, chain.CorrelationError("no pending operation for reply %d", reply.ID).
			With("token", key)
	}
	if err := pending.Remove(ctx, s, key); err != nil {
		return PendingOp{}, fmt.Errorf("resolve reply %d: %w", reply.ID, err)
	}
	return op, nil
}

// Pending lists outstanding operations in token order.
func Pending(ctx context.Context, s chain.Storage) ([]Entry, error) {
	entries, err := pending.Range(ctx, s, "", "", chain.Ascending, 0)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		t, err := strconv.ParseUint(e.Key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("list pending: bad token %q", e.Key)
		}
		out = append(out, Entry{Token: Token(t), Op: e.Value})
	}
	// Keys sort as strings; order numerically.
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, nil
}

// InstantiatedAddress extracts the new component's address from an
// instantiate reply. A failure outcome is returned as an error; the caller
// must fail the call rather than compensate.
//
// The address is read from the protobuf MsgInstantiateContractResponse in
// the reply data, falling back to the _contract_address attribute of the
// instantiate event when the host sent no data.
func InstantiatedAddress(reply chain.Reply) (chain.Addr, error) {
	if !reply.Result.IsOk() {
		return "", fmt.Errorf("%w: %s", ErrDeployFailed, reply.Result.Err)
	}
	ok := reply.Result.Ok
	if len(ok.Data) > 0 {
		res, err := chain.ParseInstantiateResponse(ok.Data)
		if err != nil {
			return "", chain.CorrelationError("reply %d: %v", reply.ID, err)
		}
		return res.Address, nil
	}
	for _, ev := range ok.Events {
		if ev.Type != "instantiate" {
			continue
		}
		if addr, found := ev.Attr("_contract_address"); found && addr != "" {
			return chain.Addr(addr), nil
		}
	}
	return "", chain.CorrelationError("reply %d carries no contract address", reply.ID)
}

// ResolvedPolicy decides what a second resolution of an address does.
type ResolvedPolicy string

const (
	// PolicyReject fails with a CORRELATION error.
	PolicyReject ResolvedPolicy = "reject"

	// PolicyKeep leaves the first address in place and succeeds.
	PolicyKeep ResolvedPolicy = "keep"
)

// ParseResolvedPolicy parses a policy name. The empty string is PolicyReject.
func ParseResolvedPolicy(s string) (ResolvedPolicy, error) {
	switch ResolvedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyReject:
		return PolicyReject, nil
	case PolicyKeep:
		return PolicyKeep, nil
	default:
		return "", fmt.Errorf("unknown resolved policy %q (want reject or keep)", s)
	}
}

// Assign returns the address to store given the current one. The address
// transitions from empty to resolved exactly once.
func Assign(current, resolved chain.Addr, policy ResolvedPolicy) (chain.Addr, error) {
	if resolved.IsEmpty() {
		return current, chain.CorrelationError("resolved address is empty")
	}
	if current.IsEmpty() {
		return resolved, nil
	}
	if policy == PolicyKeep {
		return current, nil
	}
	return current, chain.CorrelationError("address already resolved to %s", current).
		With("current", string(current)).
		With("resolved", string(resolved))
}
