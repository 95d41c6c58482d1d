package contract

import (
	"fmt"
	"strings"

	"counterresistance/model"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const initialVersion = "1"

// --- Lifecycle ---

// Initialize sets up the registry and hands the caller its administrative
// roles. It can run only once per registry.
func (r *registry) Initialize(ctx contractapi.TransactionContextInterface) error {
	logger.Infof("Chaincode Call: Initialize for '%s'", r.namespace)
	t, err := r.begin(ctx)
	if err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}
	if t.info.Initialized {
		return fmt.Errorf("%w()", ErrInvalidInitialization)
	}
	now, err := t.timestamp()
	if err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}

	for _, role := range r.deployerRoles {
		ev, err := t.roles.grant(role, t.caller, t.caller)
		if err != nil {
			return fmt.Errorf("Initialize: failed to grant initial role: %w", err)
		}
		t.events.addIf(ev)
	}
	// Ordered so every endorser produces the same event payload.
	for _, pair := range [][2]string{
		{ContributorRoleName, ContributorRoleManagerName},
		{ExpertContributorRoleName, ExpertContributorRoleManagerName},
	} {
		ev, err := t.roles.setRoleAdmin(RoleID(pair[0]), RoleID(pair[1]))
		if err != nil {
			return fmt.Errorf("Initialize: failed to set admin of %s: %w", pair[0], err)
		}
		t.events.add(ev)
	}

	t.info.Name = r.name
	t.info.Symbol = r.symbol
	t.info.Variant = r.variant
	t.info.Version = initialVersion
	t.info.Initialized = true
	t.info.InitializedBy = t.caller.Hex()
	t.info.InitializedAt = now
	t.info.NextTokenID = 1
	t.dirty = true
	t.events.add(initializedEvent(initializerVersion))

	if err := t.commit(); err != nil {
		return fmt.Errorf("Initialize: %w", err)
	}
	logger.Infof("Registry '%s' initialized by '%s'", r.namespace, t.caller.Hex())
	return nil
}

// UpgradeTo records a new implementation version. Requires CONTRACT_UPGRADER_ROLE.
func (r *registry) UpgradeTo(ctx contractapi.TransactionContextInterface, version string) error {
	logger.Infof("Chaincode Call: UpgradeTo '%s' for '%s'", version, r.namespace)
	t, err := r.begin(ctx)
	if err != nil {
		return fmt.Errorf("UpgradeTo: %w", err)
	}
	if err := t.roles.checkRole(ContractUpgraderRole, t.caller); err != nil {
		return err
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return invalidArgument("version cannot be empty")
	}
	if len(version) > maxVersionLength {
		return invalidArgument("version exceeds max length %d", maxVersionLength)
	}
	t.info.Version = version
	t.dirty = true
	t.events.add(upgradedEvent(version))
	return t.commit()
}

// GetRegistryInfo returns the header record of the registry.
func (r *registry) GetRegistryInfo(ctx contractapi.TransactionContextInterface) (*model.RegistryInfo, error) {
	info, err := r.loadInfo(ctx.GetStub())
	if err != nil {
		return nil, err
	}
	info.Name = r.name
	info.Symbol = r.symbol
	return info, nil
}

func (r *registry) RegistryName(ctx contractapi.TransactionContextInterface) (string, error) {
	return r.name, nil
}

func (r *registry) RegistrySymbol(ctx contractapi.TransactionContextInterface) (string, error) {
	return r.symbol, nil
}

// ClientAccountID returns the account the invoking identity acts as.
func (r *registry) ClientAccountID(ctx contractapi.TransactionContextInterface) (string, error) {
	account, err := callerAccount(ctx)
	if err != nil {
		return "", err
	}
	return account.Hex(), nil
}
