package model

import "time"

// RegistryVariant identifies which flavour of registry a contract serves.
type RegistryVariant string

const (
	VariantContribution           RegistryVariant = "CONTRIBUTION"             // contribute(to, uri)
	VariantContributionWithTarget RegistryVariant = "CONTRIBUTION_WITH_TARGET" // contribute(to, uri, target)
	VariantDataset                RegistryVariant = "DATASET"                  // contribute(uri) / contributeFor(to, uri)
)

// Target is an external cross-chain reference attached to a contribution.
type Target struct {
	ChainID         uint64 `json:"chainId"`         // EIP-155 chain id of the referenced contract
	ContractAddress string `json:"contractAddress"` // Checksummed address of the referenced contract
	TargetID        uint64 `json:"targetId"`        // Item id inside the referenced contract
}

// Contribution is one minted registry item.
type Contribution struct {
	ObjectType          string    `json:"objectType"`          // "Contribution"
	ID                  uint64    `json:"id"`                  // Sequential token id, starting at 1
	Owner               string    `json:"owner"`               // Current holder
	OriginalContributor string    `json:"originalContributor"` // Submitter, fixed at mint
	MetadataURI         string    `json:"metadataUri"`
	Approved            string    `json:"approved,omitempty"` // Single-token approval, cleared on transfer
	Target              *Target   `json:"target,omitempty"`   // Only set by the target-bearing variant
	CreatedAt           time.Time `json:"createdAt"`
	LastUpdatedAt       time.Time `json:"lastUpdatedAt"`
}

// RegistryInfo is the per-namespace header record of a registry.
type RegistryInfo struct {
	ObjectType    string          `json:"objectType"` // "RegistryInfo"
	Name          string          `json:"name"`
	Symbol        string          `json:"symbol"`
	Variant       RegistryVariant `json:"variant"`
	Version       string          `json:"version"` // Implementation label recorded by UpgradeTo
	Initialized   bool            `json:"initialized"`
	InitializedBy string          `json:"initializedBy"`
	InitializedAt time.Time       `json:"initializedAt"`
	Paused        bool            `json:"paused"`
	NextTokenID   uint64          `json:"nextTokenId"`
	TotalSupply   uint64          `json:"totalSupply"`
}

// PaginatedContributionResponse is one page of contributions.
type PaginatedContributionResponse struct {
	Contributions []*Contribution `json:"contributions"`
	NextBookmark  string          `json:"nextBookmark"` // Empty on the last page
	FetchedCount  int32           `json:"fetchedCount"`
}
