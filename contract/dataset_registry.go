package contract

import (
	"fmt"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// DatasetRegistry records dataset contributions. Plain contributors mint to
// themselves; expert contributors can mint on behalf of others.
// @contract:DatasetRegistry
type DatasetRegistry struct {
	contractapi.Contract
	registry
}

func NewDatasetRegistry() *DatasetRegistry {
	c := &DatasetRegistry{
		registry: registry{
			namespace:     DatasetRegistryName,
			name:          "Dataset registry",
			symbol:        "DATA",
			variant:       model.VariantDataset,
			deployerRoles: append(append([]common.Hash{}, standardDeployerRoles...), ExpertContributorRole),
		},
	}
	c.Name = DatasetRegistryName
	return c
}

// Contribute mints a dataset contribution to the caller. Requires CONTRIBUTOR_ROLE.
func (c *DatasetRegistry) Contribute(ctx contractapi.TransactionContextInterface, uri string) (uint64, error) {
	logger.Infof("Chaincode Call: Contribute in '%s'", c.namespace)
	id, err := c.mintGated(ctx, ContributorRole, func(t *txn) (common.Address, error) { return t.caller, nil }, uri)
	if err != nil {
		return 0, fmt.Errorf("Contribute: %w", err)
	}
	return id, nil
}

// ContributeFor mints a dataset contribution to `to`. Requires EXPERT_CONTRIBUTOR_ROLE.
func (c *DatasetRegistry) ContributeFor(ctx contractapi.TransactionContextInterface, to, uri string) (uint64, error) {
	logger.Infof("Chaincode Call: ContributeFor '%s' in '%s'", to, c.namespace)
	id, err := c.mintGated(ctx, ExpertContributorRole, func(*txn) (common.Address, error) { return parseReceiver(to) }, uri)
	if err != nil {
		return 0, fmt.Errorf("ContributeFor: %w", err)
	}
	return id, nil
}

// mintGated mints to the account picked by recipient after a plain role check.
func (c *DatasetRegistry) mintGated(ctx contractapi.TransactionContextInterface, role common.Hash, recipient func(*txn) (common.Address, error), uri string) (uint64, error) {
	t, err := c.begin(ctx)
	if err != nil {
		return 0, err
	}
	if err := t.requireNotPaused(); err != nil {
		return 0, err
	}
	if err := t.roles.checkRole(role, t.caller); err != nil {
		return 0, err
	}
	to, err := recipient(t)
	if err != nil {
		return 0, err
	}
	contribution, err := t.mint(to, uri, nil)
	if err != nil {
		return 0, err
	}
	if err := t.commit(); err != nil {
		return 0, err
	}
	return contribution.ID, nil
}

func (c *DatasetRegistry) ContributionURI(ctx contractapi.TransactionContextInterface, tokenID uint64) (string, error) {
	return c.Metadata(ctx, tokenID)
}

// SetContributionURI replaces the dataset URI. Allowed for the owner while
// holding CONTRIBUTOR_ROLE, or for any expert contributor.
func (c *DatasetRegistry) SetContributionURI(ctx contractapi.TransactionContextInterface, tokenID uint64, uri string) error {
	logger.Infof("Chaincode Call: SetContributionURI for token %d in '%s'", tokenID, c.namespace)
	if err := c.updateMetadata(ctx, opUpdateDatasetURI, tokenID, uri); err != nil {
		return fmt.Errorf("SetContributionURI: %w", err)
	}
	return nil
}
