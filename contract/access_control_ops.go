package contract

import (
	"fmt"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Access control ---

func (r *registry) HasRole(ctx contractapi.TransactionContextInterface, role, account string) (bool, error) {
	roleID, err := parseRole(role)
	if err != nil {
		return false, err
	}
	acct, err := parseAccount(account, "account")
	if err != nil {
		return false, err
	}
	return newAccessControl(ctx.GetStub(), r.namespace).hasRole(roleID, acct)
}

func (r *registry) GetRoleAdmin(ctx contractapi.TransactionContextInterface, role string) (string, error) {
	roleID, err := parseRole(role)
	if err != nil {
		return "", err
	}
	admin, err := newAccessControl(ctx.GetStub(), r.namespace).getRoleAdmin(roleID)
	if err != nil {
		return "", err
	}
	return admin.Hex(), nil
}

// GrantRole gives account the role. The caller must hold the role's admin
// role or DEFAULT_ADMIN_ROLE.
func (r *registry) GrantRole(ctx contractapi.TransactionContextInterface, role, account string) error {
	logger.Infof("Chaincode Call: GrantRole '%s' to '%s' in '%s'", role, account, r.namespace)
	t, roleID, acct, err := r.beginRoleChange(ctx, role, account)
	if err != nil {
		return fmt.Errorf("GrantRole: %w", err)
	}
	if err := t.roles.checkCanAdminister(roleID, t.caller); err != nil {
		return err
	}
	ev, err := t.roles.grant(roleID, acct, t.caller)
	if err != nil {
		return fmt.Errorf("GrantRole: %w", err)
	}
	t.events.addIf(ev)
	return t.commit()
}

func (r *registry) RevokeRole(ctx contractapi.TransactionContextInterface, role, account string) error {
	logger.Infof("Chaincode Call: RevokeRole '%s' from '%s' in '%s'", role, account, r.namespace)
	t, roleID, acct, err := r.beginRoleChange(ctx, role, account)
	if err != nil {
		return fmt.Errorf("RevokeRole: %w", err)
	}
	if err := t.roles.checkCanAdminister(roleID, t.caller); err != nil {
		return err
	}
	ev, err := t.roles.revoke(roleID, acct, t.caller)
	if err != nil {
		return fmt.Errorf("RevokeRole: %w", err)
	}
	t.events.addIf(ev)
	return t.commit()
}

// RenounceRole drops a role held by the caller. callerConfirmation must be
// the caller's own account.
func (r *registry) RenounceRole(ctx contractapi.TransactionContextInterface, role, callerConfirmation string) error {
	logger.Infof("Chaincode Call: RenounceRole '%s' in '%s'", role, r.namespace)
	t, roleID, confirmation, err := r.beginRoleChange(ctx, role, callerConfirmation)
	if err != nil {
		return fmt.Errorf("RenounceRole: %w", err)
	}
	if confirmation != t.caller {
		return fmt.Errorf("%w()", ErrAccessControlBadConfirmation)
	}
	ev, err := t.roles.revoke(roleID, t.caller, t.caller)
	if err != nil {
		return fmt.Errorf("RenounceRole: %w", err)
	}
	t.events.addIf(ev)
	return t.commit()
}

func (r *registry) beginRoleChange(ctx contractapi.TransactionContextInterface, role, account string) (*txn, common.Hash, common.Address, error) {
	t, err := r.begin(ctx)
	if err != nil {
		return nil, common.Hash{}, common.Address{}, err
	}
	roleID, err := parseRole(role)
	if err != nil {
		return nil, common.Hash{}, common.Address{}, err
	}
	acct, err := parseAccount(account, "account")
	if err != nil {
		return nil, common.Hash{}, common.Address{}, err
	}
	return t, roleID, acct, nil
}

// GetRoleID resolves a role name (or 0x id) to its bytes32 id.
func (r *registry) GetRoleID(ctx contractapi.TransactionContextInterface, name string) (string, error) {
	roleID, err := parseRole(name)
	if err != nil {
		return "", err
	}
	return roleID.Hex(), nil
}

func (r *registry) ListRoles(ctx contractapi.TransactionContextInterface) ([]*model.RoleInfo, error) {
	ac := newAccessControl(ctx.GetStub(), r.namespace)
	roles := []*model.RoleInfo{}
	for _, name := range knownRoles {
		id := RoleID(name)
		admin, err := ac.getRoleAdmin(id)
		if err != nil {
			return nil, err
		}
		roles = append(roles, &model.RoleInfo{Name: name, ID: id.Hex(), AdminRole: admin.Hex()})
	}
	return roles, nil
}

func (r *registry) GetRoleMembers(ctx contractapi.TransactionContextInterface, role string) ([]*model.RoleMember, error) {
	roleID, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	accounts, err := newAccessControl(ctx.GetStub(), r.namespace).members(roleID)
	if err != nil {
		return nil, err
	}
	members := []*model.RoleMember{}
	for _, account := range accounts {
		members = append(members, &model.RoleMember{Role: roleID.Hex(), Account: account})
	}
	return members, nil
}

// --- Manager delegation ---

func (r *registry) GrantContributorRole(ctx contractapi.TransactionContextInterface, account string) error {
	logger.Infof("Chaincode Call: GrantContributorRole to '%s' in '%s'", account, r.namespace)
	return r.managedRoleChange(ctx, ContributorRoleManager, ContributorRole, account, true, sigContributorRoleGrantedByManager)
}

func (r *registry) RevokeContributorRole(ctx contractapi.TransactionContextInterface, account string) error {
	logger.Infof("Chaincode Call: RevokeContributorRole from '%s' in '%s'", account, r.namespace)
	return r.managedRoleChange(ctx, ContributorRoleManager, ContributorRole, account, false, sigContributorRoleRevokedByManager)
}

func (r *registry) GrantExpertContributorRole(ctx contractapi.TransactionContextInterface, account string) error {
	logger.Infof("Chaincode Call: GrantExpertContributorRole to '%s' in '%s'", account, r.namespace)
	return r.managedRoleChange(ctx, ExpertContributorRoleManager, ExpertContributorRole, account, true, sigExpertContributorRoleGrantedByManager)
}

func (r *registry) RevokeExpertContributorRole(ctx contractapi.TransactionContextInterface, account string) error {
	logger.Infof("Chaincode Call: RevokeExpertContributorRole from '%s' in '%s'", account, r.namespace)
	return r.managedRoleChange(ctx, ExpertContributorRoleManager, ExpertContributorRole, account, false, sigExpertContributorRoleRevokedByManager)
}

// managedRoleChange grants or revokes role on behalf of a holder of manager.
// Unlike GrantRole, DEFAULT_ADMIN_ROLE alone is not enough here.
func (r *registry) managedRoleChange(ctx contractapi.TransactionContextInterface, manager, role common.Hash, account string, grant bool, signature string) error {
	t, err := r.begin(ctx)
	if err != nil {
		return err
	}
	if err := t.roles.checkRole(manager, t.caller); err != nil {
		return err
	}
	acct, err := parseAccount(account, "account")
	if err != nil {
		return err
	}
	change := t.roles.revoke
	if grant {
		change = t.roles.grant
	}
	ev, err := change(role, acct, t.caller)
	if err != nil {
		return err
	}
	if ev != nil {
		t.events.add(*ev)
	}
	// The manager event marks every successful call, no-ops included.
	t.events.add(managerEvent(signature, t.caller, acct))
	return t.commit()
}
