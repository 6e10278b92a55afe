package admission

import (
	"fmt"
	"strings"
)

// EnablePolicy decides what enabling an already enabled gate does.
type EnablePolicy string

const (
	// EnableNoop succeeds without changing anything.
	EnableNoop EnablePolicy = "noop"

	// EnableError fails with a VALIDATION error.
	EnableError EnablePolicy = "error"
)

// QuotaPolicy decides whether admin-directed mints count against the
// recipient's per-actor limit.
type QuotaPolicy string

const (
	// QuotaEnforce applies the limit to mint_to exactly as to mint.
	QuotaEnforce QuotaPolicy = "enforce"

	// QuotaBypass lets admins and minters mint past the limit. The
	// recipient's record is still incremented.
	QuotaBypass QuotaPolicy = "bypass"
)

// Policy holds the configurable points of the gate.
type Policy struct {
	OnAlreadyEnabled EnablePolicy `json:"on_already_enabled" yaml:"on_already_enabled"`
	Reversible       bool         `json:"reversible" yaml:"reversible"`
	MintToQuota      QuotaPolicy  `json:"mint_to_quota" yaml:"mint_to_quota"`
}

// DefaultPolicy is one-way enablement, idempotent enable, enforced quota.
func DefaultPolicy() Policy {
	return Policy{
		OnAlreadyEnabled: EnableNoop,
		Reversible:       false,
		MintToQuota:      QuotaEnforce,
	}
}

// Normalize fills empty fields with defaults and validates the rest.
func (p Policy) Normalize() (Policy, error) {
	def := DefaultPolicy()
	switch EnablePolicy(strings.ToLower(string(p.OnAlreadyEnabled))) {
	case "":
		p.OnAlreadyEnabled = def.OnAlreadyEnabled
	case EnableNoop:
		p.OnAlreadyEnabled = EnableNoop
	case EnableError:
		p.OnAlreadyEnabled = EnableError
	default:
		return p, fmt.Errorf("unknown on_already_enabled policy %q (want noop or error)", p.OnAlreadyEnabled)
	}
	switch QuotaPolicy(strings.ToLower(string(p.MintToQuota))) {
	case "":
		p.MintToQuota = def.MintToQuota
	case QuotaEnforce:
		p.MintToQuota = QuotaEnforce
	case QuotaBypass:
		p.MintToQuota = QuotaBypass
	default:
		return p, fmt.Errorf("unknown mint_to_quota policy %q (want enforce or bypass)", p.MintToQuota)
	}
	return p, nil
}
