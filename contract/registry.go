package contract

import (
	"encoding/json"
	"fmt"
	"time"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric/common/flogging"
)

var logger = flogging.MustGetLogger("counterresistance.registry")

const (
	registryInfoObjectType = "RegistryInfo"
	initializerVersion     = 1
	maxMetadataURILength   = 2048
	maxVersionLength       = 64
)

// registry holds the fixed description of one registry contract. Its
// exported methods are the transactions shared by every variant and are
// promoted onto the contract types that embed it.
type registry struct {
	namespace     string
	name          string
	symbol        string
	variant       model.RegistryVariant
	deployerRoles []common.Hash // granted to the caller of Initialize
}

// txn is the state aggregate of a single transaction: the registry header,
// the caller, the role table, the ownership ledger and the pending events.
// Every operation begins one, runs its checks, mutates, then commits.
type txn struct {
	reg    *registry
	stub   shim.ChaincodeStubInterface
	info   *model.RegistryInfo
	caller common.Address
	roles  *accessControl
	ledger *tokenLedger
	events *eventLog
	dirty  bool
}

func (r *registry) infoKey(stub shim.ChaincodeStubInterface) (string, error) {
	return stub.CreateCompositeKey(registryInfoObjectType, []string{r.namespace})
}

func (r *registry) loadInfo(stub shim.ChaincodeStubInterface) (*model.RegistryInfo, error) {
	key, err := r.infoKey(stub)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry info key for '%s': %w", r.namespace, err)
	}
	raw, err := stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("ledger error retrieving registry info for '%s': %w", r.namespace, err)
	}
	if raw == nil {
		return &model.RegistryInfo{ObjectType: registryInfoObjectType, Variant: r.variant}, nil
	}
	var info model.RegistryInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal registry info for '%s': %w", r.namespace, err)
	}
	return &info, nil
}

// begin opens the transaction aggregate for the current invocation.
func (r *registry) begin(ctx contractapi.TransactionContextInterface) (*txn, error) {
	stub := ctx.GetStub()
	info, err := r.loadInfo(stub)
	if err != nil {
		return nil, err
	}
	caller, err := callerAccount(ctx)
	if err != nil {
		return nil, err
	}
	return &txn{
		reg:    r,
		stub:   stub,
		info:   info,
		caller: caller,
		roles:  newAccessControl(stub, r.namespace),
		ledger: newTokenLedger(stub, r.namespace),
		events: &eventLog{registry: r.namespace},
	}, nil
}

// commit persists the header if it changed and publishes the buffered events.
func (t *txn) commit() error {
	if t.dirty {
		key, err := t.reg.infoKey(t.stub)
		if err != nil {
			return fmt.Errorf("failed to create registry info key: %w", err)
		}
		raw, err := json.Marshal(t.info)
		if err != nil {
			return fmt.Errorf("failed to marshal registry info: %w", err)
		}
		if err := t.stub.PutState(key, raw); err != nil {
			return fmt.Errorf("failed to save registry info for '%s': %w", t.reg.namespace, err)
		}
	}
	return t.events.flush(t.stub)
}

func (t *txn) requireNotPaused() error {
	if t.info.Paused {
		return enforcedPause()
	}
	return nil
}

// actor snapshots the caller's domain roles for the policy check.
func (t *txn) actor() (actor, error) {
	contributor, err := t.roles.hasRole(ContributorRole, t.caller)
	if err != nil {
		return actor{}, err
	}
	expert, err := t.roles.hasRole(ExpertContributorRole, t.caller)
	if err != nil {
		return actor{}, err
	}
	return actor{account: t.caller, contributor: contributor, expert: expert}, nil
}

func (t *txn) timestamp() (time.Time, error) {
	ts, err := t.stub.GetTxTimestamp()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get transaction timestamp: %w", err)
	}
	return ts.AsTime(), nil
}

func validateMetadataURI(uri string) error {
	if len(uri) > maxMetadataURILength {
		return invalidArgument("metadata URI exceeds max length %d", maxMetadataURILength)
	}
	return nil
}
