// Package admission gates the privileged mint action.
//
// A mint is admitted only when the gate is enabled, block time lies inside
// the event window (bounds inclusive) and the actor's record is below the
// per-actor limit. Checks run before any write, so a rejected mint leaves
// state untouched.
package admission

import (
	"context"
	"fmt"

	"github.com/roach88/mintgate/internal/chain"
)

// State is the mutable part of the gate.
type State struct {
	Admin   chain.Addr
	Minter  chain.Addr
	Enabled bool
	Policy  Policy
}

// Window is the admission time interval.
type Window struct {
	Start chain.Timestamp
	End   chain.Timestamp
}

// Validate checks start < end.
func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return chain.ValidationError("window start %s must be before end %s", w.Start, w.End)
	}
	return nil
}

// Contains reports whether start <= now <= end.
func (w Window) Contains(now chain.Timestamp) bool {
	return !now.Before(w.Start) && !now.After(w.End)
}

// RequireAdmin fails with AUTHORIZATION unless sender is admin.
func RequireAdmin(admin, sender chain.Addr) error {
	if sender != admin {
		return chain.AuthorizationError("%s is not the admin", sender).With("sender", string(sender))
	}
	return nil
}

// Enable switches the gate on. It reports whether anything changed.
func Enable(st State, sender chain.Addr) (State, bool, error) {
	if err := RequireAdmin(st.Admin, sender); err != nil {
		return st, false, err
	}
	if st.Enabled {
		if st.Policy.OnAlreadyEnabled == EnableError {
			return st, false, chain.ValidationError("minting is already enabled")
		}
		return st, false, nil
	}
	st.Enabled = true
	return st, true, nil
}

// Disable switches the gate off. Only reversible policies allow it.
func Disable(st State, sender chain.Addr) (State, bool, error) {
	if err := RequireAdmin(st.Admin, sender); err != nil {
		return st, false, err
	}
	if !st.Policy.Reversible {
		return st, false, chain.ValidationError("minting cannot be disabled once enabled")
	}
	if !st.Enabled {
		return st, false, nil
	}
	st.Enabled = false
	return st, true, nil
}

// AuthorizeMintTo allows the admin and the minter.
func AuthorizeMintTo(st State, sender chain.Addr) error {
	if sender == st.Admin || (!st.Minter.IsEmpty() && sender == st.Minter) {
		return nil
	}
	return chain.AuthorizationError("%s may not mint to others", sender).With("sender", string(sender))
}

// CheckWindow fails with WINDOW when the gate is disabled or now is
// outside w.
func CheckWindow(enabled bool, w Window, now chain.Timestamp) error {
	if !enabled {
		return chain.WindowError("minting is disabled")
	}
	if now.Before(w.Start) {
		return chain.WindowError("event has not started (now %s, start %s)", now, w.Start)
	}
	if now.After(w.End) {
		return chain.WindowError("event has ended (now %s, end %s)", now, w.End)
	}
	return nil
}

// CheckQuota fails with QUOTA_EXCEEDED when count >= limit.
func CheckQuota(actor chain.Addr, count, limit uint64) error {
	if count >= limit {
		return chain.QuotaExceededError(actor, count, limit)
	}
	return nil
}

// Request is one mint to be admitted.
type Request struct {
	// Recipient is the actor whose record is charged.
	Recipient chain.Addr
	// Limit is the per-actor limit.
	Limit uint64
	// EnforceQuota is false only for bypassing mint_to.
	EnforceQuota bool
	Now          chain.Timestamp
}

// Admit runs the window and quota gates and, if both pass, charges the
// recipient. It returns the recipient's new count.
func Admit(ctx context.Context, s chain.Storage, st State, w Window, req Request) (uint64, error) {
	if err := CheckWindow(st.Enabled, w, req.Now); err != nil {
		return 0, err
	}
	count, err := Count(ctx, s, req.Recipient)
	if err != nil {
		return 0, err
	}
	if req.EnforceQuota {
		if err := CheckQuota(req.Recipient, count, req.Limit); err != nil {
			return count, err
		}
	}
	next, err := Increment(ctx, s, req.Recipient)
	if err != nil {
		return count, fmt.Errorf("admit %s: %w", req.Recipient, err)
	}
	return next, nil
}
