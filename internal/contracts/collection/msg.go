package collection

import "github.com/roach88/mintgate/internal/chain"

// InstantiateMsg configures a new collection.
type InstantiateMsg struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	// Minter is the only sender allowed to mint. The deploying POAP
	// component overwrites it with its own address.
	Minter string `json:"minter"`
}

// Metadata is the extension stored with every unit.
type Metadata struct {
	Claimer chain.Addr `json:"claimer"`
}

// MintMsg creates a new unit.
type MintMsg struct {
	Owner     string   `json:"owner"`
	TokenURI  string   `json:"token_uri,omitempty"`
	Extension Metadata `json:"extension"`
}

// ExecuteMsg is the tagged union of collection operations.
type ExecuteMsg struct {
	Mint *MintMsg `json:"mint,omitempty"`
}

// TokensQuery lists the ids owned by Owner.
type TokensQuery struct {
	Owner      string `json:"owner"`
	StartAfter string `json:"start_after,omitempty"`
	Limit      uint32 `json:"limit,omitempty"`
}

// TokenQuery selects one unit.
type TokenQuery struct {
	TokenID string `json:"token_id"`
}

// QueryMsg is the tagged union of collection queries.
type QueryMsg struct {
	Tokens    *TokensQuery `json:"tokens,omitempty"`
	NftInfo   *TokenQuery  `json:"nft_info,omitempty"`
	OwnerOf   *TokenQuery  `json:"owner_of,omitempty"`
	NumTokens *struct{}    `json:"num_tokens,omitempty"`
	Minter    *struct{}    `json:"minter,omitempty"`
}

// TokensResponse lists token ids in key order.
type TokensResponse struct {
	Tokens []string `json:"tokens"`
}

// NftInfoResponse describes one unit.
type NftInfoResponse struct {
	TokenURI  string   `json:"token_uri"`
	Extension Metadata `json:"extension"`
}

// OwnerOfResponse names a unit's owner.
type OwnerOfResponse struct {
	Owner chain.Addr `json:"owner"`
}

// NumTokensResponse counts all units.
type NumTokensResponse struct {
	Count uint64 `json:"count"`
}

// MinterResponse names the minter.
type MinterResponse struct {
	Minter chain.Addr `json:"minter"`
}
