package manager

import (
	"github.com/roach88/mintgate/internal/chain"
	"github.com/roach88/mintgate/internal/contracts"
	"github.com/roach88/mintgate/internal/contracts/poap"
)

// InstantiateMsg deploys the manager and, through it, the POAP component.
type InstantiateMsg struct {
	Admin              string              `json:"admin"`
	PoapCodeID         chain.Uint64        `json:"poap_code_id"`
	PoapInstantiateMsg poap.InstantiateMsg `json:"poap_instantiate_msg"`
}

type MintToMsg struct {
	Recipient string `json:"recipient"`
}

type UpdateAdminMsg struct {
	NewAdmin string `json:"new_admin"`
}

// ExecuteMsg is the tagged union of manager operations.
type ExecuteMsg struct {
	Claim       *contracts.Empty `json:"claim,omitempty"`
	MintTo      *MintToMsg       `json:"mint_to,omitempty"`
	UpdateAdmin *UpdateAdminMsg  `json:"update_admin,omitempty"`
}

type QueryMsg struct {
	Config *contracts.Empty `json:"config,omitempty"`
}

// ConfigResponse is the answer to QueryMsg.Config.
type ConfigResponse struct {
	Admin               chain.Addr   `json:"admin"`
	PoapCodeID          chain.Uint64 `json:"poap_code_id"`
	PoapContractAddress chain.Addr   `json:"poap_contract_address"`
}
