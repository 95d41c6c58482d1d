package contract

import (
	"fmt"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// Contract names double as the registry namespace in world state.
const (
	ContributionRegistryName           = "ContributionRegistry"
	ContributionRegistryWithTargetName = "ContributionRegistryWithTarget"
	DatasetRegistryName                = "DatasetRegistry"
)

// standardDeployerRoles are granted to whoever initializes a contribution registry.
var standardDeployerRoles = []common.Hash{
	DefaultAdminRole,
	ContractPauserRole,
	ContractUpgraderRole,
	ContributorRoleManager,
	ExpertContributorRoleManager,
}

// ContributionRegistry records contributions as non-fungible tokens.
// @contract:ContributionRegistry
type ContributionRegistry struct {
	contractapi.Contract
	registry
}

func NewContributionRegistry() *ContributionRegistry {
	c := &ContributionRegistry{
		registry: registry{
			namespace:     ContributionRegistryName,
			name:          "Contribution registry",
			symbol:        "CORE",
			variant:       model.VariantContribution,
			deployerRoles: standardDeployerRoles,
		},
	}
	c.Name = ContributionRegistryName
	return c
}

// Contribute mints a contribution to `to`. Contributors may only contribute
// to themselves; expert contributors may contribute for anyone.
func (c *ContributionRegistry) Contribute(ctx contractapi.TransactionContextInterface, to, uri string) (uint64, error) {
	logger.Infof("Chaincode Call: Contribute to '%s' in '%s'", to, c.namespace)
	id, err := c.contribute(ctx, to, uri, nil)
	if err != nil {
		return 0, fmt.Errorf("Contribute: %w", err)
	}
	return id, nil
}

// SetMetadata replaces the metadata URI. Allowed for the original contributor,
// or for the current owner while holding a contributor role.
func (c *ContributionRegistry) SetMetadata(ctx contractapi.TransactionContextInterface, tokenID uint64, uri string) error {
	logger.Infof("Chaincode Call: SetMetadata for token %d in '%s'", tokenID, c.namespace)
	if err := c.updateMetadata(ctx, opUpdateMetadata, tokenID, uri); err != nil {
		return fmt.Errorf("SetMetadata: %w", err)
	}
	return nil
}
