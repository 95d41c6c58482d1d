package contract

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-contract-api-go/metadata"
)

// ChaincodeVersion is reported in the chaincode metadata.
const ChaincodeVersion = "1.0.0"

// NewChaincode bundles the three registries into one chaincode. Plain
// invocations without a contract prefix go to ContributionRegistry.
func NewChaincode() (*contractapi.ContractChaincode, error) {
	cc, err := contractapi.NewChaincode(
		NewContributionRegistry(),
		NewContributionRegistryWithTarget(),
		NewDatasetRegistry(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry chaincode: %w", err)
	}
	cc.DefaultContract = ContributionRegistryName
	cc.Info = metadata.InfoMetadata{
		Title:       "counter-resistance registries",
		Description: "Contribution and dataset registries with role-based access control",
		Version:     ChaincodeVersion,
	}
	return cc, nil
}
