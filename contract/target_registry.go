package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const maxTargetJSONLength = 1024

// ContributionRegistryWithTarget is a contribution registry whose items each
// reference an item of an external contract.
// @contract:ContributionRegistryWithTarget
type ContributionRegistryWithTarget struct {
	contractapi.Contract
	registry
}

func NewContributionRegistryWithTarget() *ContributionRegistryWithTarget {
	c := &ContributionRegistryWithTarget{
		registry: registry{
			namespace:     ContributionRegistryWithTargetName,
			name:          "Contribution registry",
			symbol:        "CORE",
			variant:       model.VariantContributionWithTarget,
			deployerRoles: standardDeployerRoles,
		},
	}
	c.Name = ContributionRegistryWithTargetName
	return c
}

// Contribute always fails with TargetRequired; use ContributeWithTarget.
func (c *ContributionRegistryWithTarget) Contribute(ctx contractapi.TransactionContextInterface, to, uri string) (uint64, error) {
	logger.Infof("Chaincode Call: Contribute to '%s' in '%s' (no target)", to, c.namespace)
	_, err := c.contribute(ctx, to, uri, func() (*model.Target, error) {
		return nil, fmt.Errorf("%w()", ErrTargetRequired)
	})
	return 0, fmt.Errorf("Contribute: %w", err)
}

// ContributeWithTarget mints a contribution carrying the target described by
// targetJSON, e.g. {"chainId":1,"contractAddress":"0x…","targetId":7}.
func (c *ContributionRegistryWithTarget) ContributeWithTarget(ctx contractapi.TransactionContextInterface, to, uri, targetJSON string) (uint64, error) {
	logger.Infof("Chaincode Call: ContributeWithTarget to '%s' in '%s'", to, c.namespace)
	id, err := c.contribute(ctx, to, uri, func() (*model.Target, error) {
		return parseTarget(targetJSON)
	})
	if err != nil {
		return 0, fmt.Errorf("ContributeWithTarget: %w", err)
	}
	return id, nil
}

func (c *ContributionRegistryWithTarget) SetMetadata(ctx contractapi.TransactionContextInterface, tokenID uint64, uri string) error {
	logger.Infof("Chaincode Call: SetMetadata for token %d in '%s'", tokenID, c.namespace)
	if err := c.updateMetadata(ctx, opUpdateMetadata, tokenID, uri); err != nil {
		return fmt.Errorf("SetMetadata: %w", err)
	}
	return nil
}

// SetTarget replaces the target of a contribution. Requires DEFAULT_ADMIN_ROLE.
func (c *ContributionRegistryWithTarget) SetTarget(ctx contractapi.TransactionContextInterface, tokenID uint64, targetJSON string) error {
	logger.Infof("Chaincode Call: SetTarget for token %d in '%s'", tokenID, c.namespace)
	t, err := c.begin(ctx)
	if err != nil {
		return fmt.Errorf("SetTarget: %w", err)
	}
	if err := t.requireNotPaused(); err != nil {
		return err
	}
	if err := t.roles.checkRole(DefaultAdminRole, t.caller); err != nil {
		return err
	}
	contribution, err := t.ledger.token(tokenID)
	if err != nil {
		return err
	}
	target, err := parseTarget(targetJSON)
	if err != nil {
		return err
	}
	now, err := t.timestamp()
	if err != nil {
		return fmt.Errorf("SetTarget: %w", err)
	}
	contribution.Target = target
	contribution.LastUpdatedAt = now
	if err := t.ledger.putToken(contribution); err != nil {
		return fmt.Errorf("SetTarget: %w", err)
	}
	t.events.add(targetSetEvent(tokenID))
	return t.commit()
}

// GetTarget returns the target of a contribution. It is readable while paused.
func (c *ContributionRegistryWithTarget) GetTarget(ctx contractapi.TransactionContextInterface, tokenID uint64) (*model.Target, error) {
	contribution, err := newTokenLedger(ctx.GetStub(), c.namespace).token(tokenID)
	if err != nil {
		return nil, err
	}
	if contribution.Target == nil {
		return &model.Target{ContractAddress: common.Address{}.Hex()}, nil
	}
	return contribution.Target, nil
}

// parseTarget decodes and validates a target argument. An empty argument
// means no target was given.
func parseTarget(targetJSON string) (*model.Target, error) {
	trimmed := strings.TrimSpace(targetJSON)
	if trimmed == "" || trimmed == "null" {
		return nil, fmt.Errorf("%w()", ErrTargetRequired)
	}
	if len(trimmed) > maxTargetJSONLength {
		return nil, invalidArgument("target exceeds max length %d", maxTargetJSONLength)
	}
	var target model.Target
	decoder := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&target); err != nil {
		return nil, invalidArgument("invalid target JSON: %v", err)
	}
	if target.ChainID == 0 {
		return nil, invalidArgument("target chainId must be positive")
	}
	if !common.IsHexAddress(target.ContractAddress) {
		return nil, invalidArgument("target contractAddress '%s' is not a valid address", target.ContractAddress)
	}
	target.ContractAddress = common.HexToAddress(target.ContractAddress).Hex()
	return &target, nil
}
