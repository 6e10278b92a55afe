package chain

import (
	"context"
	"fmt"
)

// Module version information.
const (
	// WireVersion is the JSON message format version.
	WireVersion = "1"

	// Version is the mintgate release.
	Version = "0.1.0"
)

// ContractVersion records which component code and release initialised a
// component's storage. Written once at instantiate; read by migrations.
type ContractVersion struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

var contractVersion = NewItem[ContractVersion]("contract_info")

// SetContractVersion stores the component name and version.
func SetContractVersion(ctx context.Context, s Storage, name, version string) error {
	if name == "" || version == "" {
		return ValidationError("contract name and version are required")
	}
	return contractVersion.Save(ctx, s, ContractVersion{Contract: name, Version: version})
}

// GetContractVersion loads the stored component name and version.
func GetContractVersion(ctx context.Context, s Storage) (ContractVersion, error) {
	v, err := contractVersion.Load(ctx, s)
	if err != nil {
		return v, fmt.Errorf("contract version: %w", err)
	}
	return v, nil
}
