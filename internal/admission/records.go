package admission

import (
	"context"
	"fmt"

	"github.com/roach88/mintgate/internal/chain"
)

// MintRecord counts an actor's admitted mints. Created lazily on the first
// admitted mint; the count never decreases.
type MintRecord struct {
	Actor chain.Addr `json:"actor"`
	Count uint64     `json:"count"`
}

var records = chain.NewMap[MintRecord]("mint_records")

// Count returns actor's admitted mints, zero if none.
func Count(ctx context.Context, s chain.Storage, actor chain.Addr) (uint64, error) {
	rec, _, err := records.May(ctx, s, string(actor))
	if err != nil {
		return 0, fmt.Errorf("mint record %s: %w", actor, err)
	}
	return rec.Count, nil
}

// Increment adds one to actor's record and returns the new count.
func Increment(ctx context.Context, s chain.Storage, actor chain.Addr) (uint64, error) {
	rec, _, err := records.May(ctx, s, string(actor))
	if err != nil {
		return 0, fmt.Errorf("mint record %s: %w", actor, err)
	}
	rec.Actor = actor
	rec.Count++
	if err := records.Save(ctx, s, string(actor), rec); err != nil {
		return 0, err
	}
	return rec.Count, nil
}

// Records lists mint records after startAfter in actor order.
func Records(ctx context.Context, s chain.Storage, startAfter chain.Addr, limit int) ([]MintRecord, error) {
	entries, err := records.Range(ctx, s, "", string(startAfter), chain.Ascending, limit)
	if err != nil {
		return nil, fmt.Errorf("mint records: %w", err)
	}
	out := make([]MintRecord, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out, nil
}
