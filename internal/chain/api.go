package chain

import (
	"context"
	"strings"
)

// API exposes host-provided helpers to components.
type API interface {
	// AddrValidate checks that s is a well-formed address and returns it.
	AddrValidate(s string) (Addr, error)
}

// Querier is the synchronous query channel a component may use during a call.
type Querier interface {
	// QueryRaw sends an encoded custom query to the domain query service.
	QueryRaw(ctx context.Context, request []byte) ([]byte, error)

	// QuerySmart runs a read-only query against another component.
	QuerySmart(ctx context.Context, contract Addr, msg []byte) ([]byte, error)
}

// Deps bundles the capabilities handed to a component entry point.
type Deps struct {
	Storage Storage
	API     API
	Querier Querier
}

// Address length bounds accepted by DefaultAPI.
const (
	MinAddrLen = 3
	MaxAddrLen = 90
)

// DefaultAPI validates addresses as lowercase alphanumeric strings,
// optionally requiring a prefix (e.g. "desmos").
type DefaultAPI struct {
	Prefix string
}

// AddrValidate implements API.
func (a DefaultAPI) AddrValidate(s string) (Addr, error) {
	if len(s) < MinAddrLen {
		return "", ValidationError("invalid address %q: too short", s)
	}
	if len(s) > MaxAddrLen {
		return "", ValidationError("invalid address %q: too long", s)
	}
	if strings.ToLower(s) != s {
		return "", ValidationError("invalid address %q: must be lowercase", s)
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return "", ValidationError("invalid address %q: unexpected character %q", s, r)
		}
	}
	if a.Prefix != "" && !strings.HasPrefix(s, a.Prefix) {
		return "", ValidationError("invalid address %q: expected prefix %q", s, a.Prefix)
	}
	return Addr(s), nil
}
