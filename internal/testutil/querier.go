package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/query"
)

// MockQuerier is a chain.Querier for component unit tests.
//
// Custom queries are decoded with query.Decode (so both envelope shapes
// are accepted) and answered from Profiles. Smart queries go to Smart.
type MockQuerier struct {
	mu sync.Mutex

	// Profiles answers the profiles/profile operation.
	Profiles map[chain.Addr]query.Profile

	// RawErr, when set, fails every custom query.
	RawErr error

	// Smart answers smart queries; nil fails them.
	Smart func(ctx context.Context, contract chain.Addr, msg []byte) ([]byte, error)

	// Received records every decoded custom query.
	Received []query.Envelope
}

// NewMockQuerier creates a MockQuerier that knows the given users.
func NewMockQuerier(users ...chain.Addr) *MockQuerier {
	q := &MockQuerier{Profiles: make(map[chain.Addr]query.Profile)}
	for _, u := range users {
		q.Profiles[u] = MockProfile(u)
	}
	return q
}

// QueryRaw implements chain.Querier.
func (m *MockQuerier) QueryRaw(_ context.Context, request []byte) ([]byte, error) {
	env, err := query.Decode(request)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.Received = append(m.Received, env)
	m.mu.Unlock()

	if m.RawErr != nil {
		return nil, m.RawErr
	}
	switch r := env.Request.(type) {
	case query.ProfileRequest:
		p, ok := m.Profiles[r.User]
		if !ok {
			return nil, chain.NotFoundError("profile of %s not found", r.User)
		}
		return json.Marshal(query.ProfileResponse{Profile: p})
	default:
		return nil, chain.NotFoundError("mock querier does not serve %s/%s", r.Route(), r.Op())
	}
}

// QuerySmart implements chain.Querier.
func (m *MockQuerier) QuerySmart(ctx context.Context, contract chain.Addr, msg []byte) ([]byte, error) {
	if m.Smart == nil {
		return nil, chain.NotFoundError("no contract %s", contract)
	}
	return m.Smart(ctx, contract, msg)
}

// MockProfile returns a complete profile owned by user.
func MockProfile(user chain.Addr) query.Profile {
	return query.Profile{
		Account: query.Account{
			Type:    "/cosmos.auth.v1beta1.BaseAccount",
			Address: user,
			PubKey: query.PubKey{
				Type: "/cosmos.crypto.secp256k1.PubKey",
				Key:  "ArlRm0a5fFTHFfKha1LpDd+g3kZlyRBBF4R8PSM8Zo4Y",
			},
			AccountNumber: "0",
			Sequence:      "15",
		},
		DTag:         "goldrake",
		Nickname:     "Goldrake",
		Bio:          "This is Goldrake",
		CreationDate: "2022-02-21T13:18:27.257641Z",
	}
}
