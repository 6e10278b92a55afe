package poap

import (
	"github.com/roach88/mintgate/internal/admission"
	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts"
	"github.com/roach88/mintgate/internal/contracts/collection"
)

// EventInfo describes the event whose attendance tokens are minted.
type EventInfo struct {
	Creator         string          `json:"creator"`
	StartTime       chain.Timestamp `json:"start_time"`
	EndTime         chain.Timestamp `json:"end_time"`
	PerAddressLimit uint32          `json:"per_address_limit"`
	PoapURI         string          `json:"poap_uri"`
}

// Window returns the admission window of the event.
func (e EventInfo) Window() admission.Window {
	return admission.Window{Start: e.StartTime, End: e.EndTime}
}

// InstantiateMsg deploys a POAP component and its collection.
type InstantiateMsg struct {
	Admin                    string                    `json:"admin"`
	Minter                   string                    `json:"minter"`
	CollectionCodeID         chain.Uint64              `json:"collection_code_id"`
	CollectionInstantiateMsg collection.InstantiateMsg `json:"collection_instantiate_msg"`
	EventInfo                EventInfo                 `json:"event_info"`
	Policy                   *admission.Policy         `json:"policy,omitempty"`
}

type MintToMsg struct {
	Recipient string `json:"recipient"`
}

type UpdateAdminMsg struct {
	NewAdmin string `json:"new_admin"`
}

type UpdateMinterMsg struct {
	NewMinter string `json:"new_minter"`
}

type UpdateEventInfoMsg struct {
	StartTime chain.Timestamp `json:"start_time"`
	EndTime   chain.Timestamp `json:"end_time"`
}

// ExecuteMsg is the tagged union of POAP operations.
type ExecuteMsg struct {
	EnableMint      *contracts.Empty    `json:"enable_mint,omitempty"`
	DisableMint     *contracts.Empty    `json:"disable_mint,omitempty"`
	Mint            *contracts.Empty    `json:"mint,omitempty"`
	MintTo          *MintToMsg          `json:"mint_to,omitempty"`
	UpdateAdmin     *UpdateAdminMsg     `json:"update_admin,omitempty"`
	UpdateMinter    *UpdateMinterMsg    `json:"update_minter,omitempty"`
	UpdateEventInfo *UpdateEventInfoMsg `json:"update_event_info,omitempty"`
}

type MintedAmountQuery struct {
	User string `json:"user"`
}

// QueryMsg is the tagged union of POAP queries. Tokens and NftInfo are
// answered by the collection.
type QueryMsg struct {
	Config       *contracts.Empty        `json:"config,omitempty"`
	EventInfo    *contracts.Empty        `json:"event_info,omitempty"`
	MintedAmount *MintedAmountQuery      `json:"minted_amount,omitempty"`
	Tokens       *collection.TokensQuery `json:"tokens,omitempty"`
	NftInfo      *collection.TokenQuery  `json:"nft_info,omitempty"`
}

// ConfigResponse is the answer to QueryMsg.Config.
type ConfigResponse struct {
	Admin             chain.Addr       `json:"admin"`
	Minter            chain.Addr       `json:"minter"`
	MintEnabled       bool             `json:"mint_enabled"`
	CollectionCodeID  chain.Uint64     `json:"collection_code_id"`
	CollectionAddress chain.Addr       `json:"collection_address"`
	Policy            admission.Policy `json:"policy"`
}

// EventInfoResponse is the answer to QueryMsg.EventInfo.
type EventInfoResponse struct {
	EventInfo EventInfo `json:"event_info"`
}

// MintedAmountResponse is the answer to QueryMsg.MintedAmount.
type MintedAmountResponse struct {
	User   chain.Addr `json:"user"`
	Amount uint64     `json:"amount"`
}
