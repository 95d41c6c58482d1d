package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// RegistryEventName is the chaincode event name carrying a model.EventBatch.
const RegistryEventName = "RegistryEvents"

// Solidity-style event signatures; the topic of an event is keccak256(signature).
const (
	sigTransfer                              = "Transfer(address,address,uint256)"
	sigApproval                              = "Approval(address,address,uint256)"
	sigApprovalForAll                        = "ApprovalForAll(address,address,bool)"
	sigContribution                          = "Contribution(address,address,uint256,string)"
	sigContributionMetadataUpdated           = "ContributionMetadataUpdated(address,uint256,string)"
	sigMetadataUpdate                        = "MetadataUpdate(uint256)"
	sigTargetSet                             = "TargetSet(uint256)"
	sigRoleGranted                           = "RoleGranted(bytes32,address,address)"
	sigRoleRevoked                           = "RoleRevoked(bytes32,address,address)"
	sigRoleAdminChanged                      = "RoleAdminChanged(bytes32,bytes32,bytes32)"
	sigPaused                                = "Paused(address)"
	sigUnpaused                              = "Unpaused(address)"
	sigInitialized                           = "Initialized(uint64)"
	sigUpgraded                              = "Upgraded(string)"
	sigContributorRoleGrantedByManager       = "ContributorRoleGrantedByManager(address,address)"
	sigContributorRoleRevokedByManager       = "ContributorRoleRevokedByManager(address,address)"
	sigExpertContributorRoleGrantedByManager = "ExpertContributorRoleGrantedByManager(address,address)"
	sigExpertContributorRoleRevokedByManager = "ExpertContributorRoleRevokedByManager(address,address)"
)

// newEvent builds an event from its signature and alternating key/value args.
func newEvent(signature string, kv ...string) model.Event {
	name := signature
	if idx := strings.IndexByte(signature, '('); idx > 0 {
		name = signature[:idx]
	}
	args := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		args[kv[i]] = kv[i+1]
	}
	return model.Event{
		Name:      name,
		Signature: signature,
		Topic:     crypto.Keccak256Hash([]byte(signature)).Hex(),
		Args:      args,
	}
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func transferEvent(from, to common.Address, id uint64) model.Event {
	return newEvent(sigTransfer, "from", from.Hex(), "to", to.Hex(), "tokenId", formatID(id))
}

func approvalEvent(owner, approved common.Address, id uint64) model.Event {
	return newEvent(sigApproval, "owner", owner.Hex(), "approved", approved.Hex(), "tokenId", formatID(id))
}

func approvalForAllEvent(owner, operator common.Address, approved bool) model.Event {
	return newEvent(sigApprovalForAll, "owner", owner.Hex(), "operator", operator.Hex(), "approved", strconv.FormatBool(approved))
}

func contributionEvent(by, to common.Address, id uint64, uri string) model.Event {
	return newEvent(sigContribution, "by", by.Hex(), "to", to.Hex(), "tokenId", formatID(id), "uri", uri)
}

func contributionMetadataUpdatedEvent(by common.Address, id uint64, uri string) model.Event {
	return newEvent(sigContributionMetadataUpdated, "by", by.Hex(), "tokenId", formatID(id), "uri", uri)
}

func metadataUpdateEvent(id uint64) model.Event {
	return newEvent(sigMetadataUpdate, "tokenId", formatID(id))
}

func targetSetEvent(id uint64) model.Event {
	return newEvent(sigTargetSet, "tokenId", formatID(id))
}

func roleGrantedEvent(role common.Hash, account, sender common.Address) model.Event {
	return newEvent(sigRoleGranted, "role", role.Hex(), "account", account.Hex(), "sender", sender.Hex())
}

func roleRevokedEvent(role common.Hash, account, sender common.Address) model.Event {
	return newEvent(sigRoleRevoked, "role", role.Hex(), "account", account.Hex(), "sender", sender.Hex())
}

func roleAdminChangedEvent(role, previousAdmin, newAdmin common.Hash) model.Event {
	return newEvent(sigRoleAdminChanged, "role", role.Hex(), "previousAdminRole", previousAdmin.Hex(), "newAdminRole", newAdmin.Hex())
}

func pausedEvent(account common.Address) model.Event {
	return newEvent(sigPaused, "account", account.Hex())
}

func unpausedEvent(account common.Address) model.Event {
	return newEvent(sigUnpaused, "account", account.Hex())
}

func initializedEvent(version uint64) model.Event {
	return newEvent(sigInitialized, "version", formatID(version))
}

func upgradedEvent(version string) model.Event {
	return newEvent(sigUpgraded, "version", version)
}

func managerEvent(signature string, manager, account common.Address) model.Event {
	return newEvent(signature, "manager", manager.Hex(), "account", account.Hex())
}

// eventLog buffers the events of one transaction. Fabric keeps a single
// chaincode event per transaction, so they are published together on flush.
type eventLog struct {
	registry string
	events   []model.Event
}

func (l *eventLog) add(events ...model.Event) {
	l.events = append(l.events, events...)
}

// addIf appends ev when it is non-nil (grant/revoke return nil for no-ops).
func (l *eventLog) addIf(ev *model.Event) {
	if ev != nil {
		l.events = append(l.events, *ev)
	}
}

func (l *eventLog) flush(stub shim.ChaincodeStubInterface) error {
	if len(l.events) == 0 {
		return nil
	}
	batch := model.EventBatch{Registry: l.registry, TxID: stub.GetTxID(), Events: l.events}
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal event batch for '%s': %w", l.registry, err)
	}
	if err := stub.SetEvent(RegistryEventName, payload); err != nil {
		return fmt.Errorf("failed to set event batch for '%s': %w", l.registry, err)
	}
	l.events = nil
	return nil
}
