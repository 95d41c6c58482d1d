package contract

import (
	"fmt"
	"strings"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric/common/flogging"
)

var acLogger = flogging.MustGetLogger("counterresistance.accesscontrol")

// Role names as exposed by the Solidity registries.
const (
	DefaultAdminRoleName             = "DEFAULT_ADMIN_ROLE"
	ContributorRoleName              = "CONTRIBUTOR_ROLE"
	ExpertContributorRoleName        = "EXPERT_CONTRIBUTOR_ROLE"
	ContractPauserRoleName           = "CONTRACT_PAUSER_ROLE"
	ContractUpgraderRoleName         = "CONTRACT_UPGRADER_ROLE"
	ContributorRoleManagerName       = "CONTRIBUTOR_ROLE_MANAGER"
	ExpertContributorRoleManagerName = "EXPERT_CONTRIBUTOR_ROLE_MANAGER"
)

const (
	roleMemberObjectType = "RoleMember"
	roleAdminObjectType  = "RoleAdmin"
	roleMemberFlag       = "true"
	maxRoleInputLength   = 128
)

// Role ids: DEFAULT_ADMIN_ROLE is the zero hash, every other role is keccak256(name).
var (
	DefaultAdminRole             = common.Hash{}
	ContributorRole              = RoleID(ContributorRoleName)
	ExpertContributorRole        = RoleID(ExpertContributorRoleName)
	ContractPauserRole           = RoleID(ContractPauserRoleName)
	ContractUpgraderRole         = RoleID(ContractUpgraderRoleName)
	ContributorRoleManager       = RoleID(ContributorRoleManagerName)
	ExpertContributorRoleManager = RoleID(ExpertContributorRoleManagerName)
)

// knownRoles lists the roles of a registry in display order.
var knownRoles = []string{
	DefaultAdminRoleName,
	ContributorRoleName,
	ExpertContributorRoleName,
	ContractPauserRoleName,
	ContractUpgraderRoleName,
	ContributorRoleManagerName,
	ExpertContributorRoleManagerName,
}

// RoleID returns the bytes32 id of a role name.
func RoleID(name string) common.Hash {
	if name == DefaultAdminRoleName {
		return DefaultAdminRole
	}
	return crypto.Keccak256Hash([]byte(name))
}

// parseRole accepts a 0x-prefixed 32-byte id or a role name.
func parseRole(input string) (common.Hash, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return common.Hash{}, invalidArgument("role cannot be empty")
	}
	if len(trimmed) > maxRoleInputLength {
		return common.Hash{}, invalidArgument("role exceeds max length %d", maxRoleInputLength)
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		raw, err := hexutil.Decode(trimmed)
		if err != nil || len(raw) != common.HashLength {
			return common.Hash{}, invalidArgument("role '%s' is not a 32-byte hex id", input)
		}
		return common.BytesToHash(raw), nil
	}
	return RoleID(trimmed), nil
}

// accessControl manages role membership and role administration for one
// registry namespace.
type accessControl struct {
	stub shim.ChaincodeStubInterface
	ns   string
}

func newAccessControl(stub shim.ChaincodeStubInterface, ns string) *accessControl {
	return &accessControl{stub: stub, ns: ns}
}

func (ac *accessControl) memberKey(role common.Hash, account common.Address) (string, error) {
	return ac.stub.CreateCompositeKey(roleMemberObjectType, []string{ac.ns, role.Hex(), account.Hex()})
}

func (ac *accessControl) adminKey(role common.Hash) (string, error) {
	return ac.stub.CreateCompositeKey(roleAdminObjectType, []string{ac.ns, role.Hex()})
}

func (ac *accessControl) hasRole(role common.Hash, account common.Address) (bool, error) {
	key, err := ac.memberKey(role, account)
	if err != nil {
		return false, fmt.Errorf("failed to create role member key: %w", err)
	}
	flag, err := ac.stub.GetState(key)
	if err != nil {
		return false, fmt.Errorf("ledger error checking role %s for %s: %w", role.Hex(), account.Hex(), err)
	}
	return string(flag) == roleMemberFlag, nil
}

// checkRole fails with AccessControlUnauthorizedAccount unless account holds role.
func (ac *accessControl) checkRole(role common.Hash, account common.Address) error {
	has, err := ac.hasRole(role, account)
	if err != nil {
		return err
	}
	if !has {
		acLogger.Debugf("Account '%s' is missing role '%s' in '%s'", account.Hex(), role.Hex(), ac.ns)
		return unauthorizedAccount(account, role)
	}
	return nil
}

func (ac *accessControl) getRoleAdmin(role common.Hash) (common.Hash, error) {
	key, err := ac.adminKey(role)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to create role admin key: %w", err)
	}
	raw, err := ac.stub.GetState(key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("ledger error reading admin of role %s: %w", role.Hex(), err)
	}
	if raw == nil {
		return DefaultAdminRole, nil
	}
	return common.HexToHash(string(raw)), nil
}

// setRoleAdmin records adminRole as the administering role of role and
// returns the RoleAdminChanged event.
func (ac *accessControl) setRoleAdmin(role, adminRole common.Hash) (model.Event, error) {
	previous, err := ac.getRoleAdmin(role)
	if err != nil {
		return model.Event{}, err
	}
	key, err := ac.adminKey(role)
	if err != nil {
		return model.Event{}, fmt.Errorf("failed to create role admin key: %w", err)
	}
	if err := ac.stub.PutState(key, []byte(adminRole.Hex())); err != nil {
		return model.Event{}, fmt.Errorf("failed to save admin of role %s: %w", role.Hex(), err)
	}
	return roleAdminChangedEvent(role, previous, adminRole), nil
}

// checkCanAdminister passes if sender holds the administering role of role.
// DEFAULT_ADMIN_ROLE holders administer every role.
func (ac *accessControl) checkCanAdminister(role common.Hash, sender common.Address) error {
	adminRole, err := ac.getRoleAdmin(role)
	if err != nil {
		return err
	}
	has, err := ac.hasRole(adminRole, sender)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	if adminRole != DefaultAdminRole {
		isAdmin, err := ac.hasRole(DefaultAdminRole, sender)
		if err != nil {
			return err
		}
		if isAdmin {
			return nil
		}
	}
	acLogger.Debugf("Account '%s' cannot administer role '%s' in '%s'", sender.Hex(), role.Hex(), ac.ns)
	return unauthorizedAccount(sender, adminRole)
}

// grant adds account to role. It returns the RoleGranted event, or nil if
// account already held the role.
func (ac *accessControl) grant(role common.Hash, account, sender common.Address) (*model.Event, error) {
	has, err := ac.hasRole(role, account)
	if err != nil {
		return nil, err
	}
	if has {
		acLogger.Infof("Role '%s' already assigned to '%s' in '%s'. No action needed.", role.Hex(), account.Hex(), ac.ns)
		return nil, nil
	}
	key, err := ac.memberKey(role, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create role member key: %w", err)
	}
	if err := ac.stub.PutState(key, []byte(roleMemberFlag)); err != nil {
		return nil, fmt.Errorf("failed to save role %s for %s: %w", role.Hex(), account.Hex(), err)
	}
	acLogger.Infof("Role '%s' granted to '%s' by '%s' in '%s'.", role.Hex(), account.Hex(), sender.Hex(), ac.ns)
	ev := roleGrantedEvent(role, account, sender)
	return &ev, nil
}

// revoke removes account from role. It returns the RoleRevoked event, or nil
// if account did not hold the role.
func (ac *accessControl) revoke(role common.Hash, account, sender common.Address) (*model.Event, error) {
	has, err := ac.hasRole(role, account)
	if err != nil {
		return nil, err
	}
	if !has {
		acLogger.Infof("Role '%s' not held by '%s' in '%s'. No action taken.", role.Hex(), account.Hex(), ac.ns)
		return nil, nil
	}
	key, err := ac.memberKey(role, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create role member key: %w", err)
	}
	if err := ac.stub.DelState(key); err != nil {
		return nil, fmt.Errorf("failed to delete role %s for %s: %w", role.Hex(), account.Hex(), err)
	}
	acLogger.Infof("Role '%s' revoked from '%s' by '%s' in '%s'.", role.Hex(), account.Hex(), sender.Hex(), ac.ns)
	ev := roleRevokedEvent(role, account, sender)
	return &ev, nil
}

// members lists the accounts holding role, in key order.
func (ac *accessControl) members(role common.Hash) ([]string, error) {
	iterator, err := ac.stub.GetStateByPartialCompositeKey(roleMemberObjectType, []string{ac.ns, role.Hex()})
	if err != nil {
		return nil, fmt.Errorf("failed to query members of role %s: %w", role.Hex(), err)
	}
	defer iterator.Close()

	accounts := []string{}
	for iterator.HasNext() {
		entry, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate members of role %s: %w", role.Hex(), err)
		}
		_, attrs, err := ac.stub.SplitCompositeKey(entry.Key)
		if err != nil || len(attrs) != 3 {
			acLogger.Warningf("Skipping malformed role member key '%s': %v", entry.Key, err)
			continue
		}
		accounts = append(accounts, attrs[2])
	}
	return accounts, nil
}
