package contract

import (
	"encoding/json"
	"fmt"
	"strconv"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric/common/flogging"
)

var ledgerLogger = flogging.MustGetLogger("counterresistance.ledger")

// Object types of the ownership ledger.
const (
	contributionObjectType     = "Contribution"
	operatorApprovalObjectType = "OperatorApproval"
	ownerBalanceObjectType     = "OwnerBalance"
	ownedTokenObjectType       = "OwnedToken"
	ownedTokenIndexObjectType  = "OwnedTokenIndex"
	allTokensObjectType        = "AllTokens"
)

// indexKey renders ids and positions fixed-width so composite keys sort numerically.
func indexKey(n uint64) string {
	return fmt.Sprintf("%020d", n)
}

// tokenLedger is the non-fungible ownership ledger of one registry namespace:
// owners, balances, approvals, and the global and per-owner enumeration
// indexes. It does no authorization; callers check policy first.
type tokenLedger struct {
	stub shim.ChaincodeStubInterface
	ns   string
}

func newTokenLedger(stub shim.ChaincodeStubInterface, ns string) *tokenLedger {
	return &tokenLedger{stub: stub, ns: ns}
}

func (l *tokenLedger) key(objectType string, attrs ...string) (string, error) {
	key, err := l.stub.CreateCompositeKey(objectType, append([]string{l.ns}, attrs...))
	if err != nil {
		return "", fmt.Errorf("failed to create %s key: %w", objectType, err)
	}
	return key, nil
}

func (l *tokenLedger) getUint(key string) (uint64, bool, error) {
	raw, err := l.stub.GetState(key)
	if err != nil {
		return 0, false, fmt.Errorf("ledger error reading '%s': %w", key, err)
	}
	if raw == nil {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt counter at '%s': %w", key, err)
	}
	return n, true, nil
}

func (l *tokenLedger) putUint(key string, n uint64) error {
	if err := l.stub.PutState(key, []byte(strconv.FormatUint(n, 10))); err != nil {
		return fmt.Errorf("failed to save '%s': %w", key, err)
	}
	return nil
}

// token loads a contribution, failing with ERC721NonexistentToken if absent.
func (l *tokenLedger) token(id uint64) (*model.Contribution, error) {
	key, err := l.key(contributionObjectType, indexKey(id))
	if err != nil {
		return nil, err
	}
	raw, err := l.stub.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("ledger error retrieving contribution %d: %w", id, err)
	}
	if raw == nil {
		return nil, nonexistentToken(id)
	}
	var c model.Contribution
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contribution %d: %w", id, err)
	}
	return &c, nil
}

func (l *tokenLedger) putToken(c *model.Contribution) error {
	key, err := l.key(contributionObjectType, indexKey(c.ID))
	if err != nil {
		return err
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal contribution %d: %w", c.ID, err)
	}
	if err := l.stub.PutState(key, raw); err != nil {
		return fmt.Errorf("failed to save contribution %d: %w", c.ID, err)
	}
	return nil
}

func (l *tokenLedger) ownerOf(id uint64) (common.Address, error) {
	c, err := l.token(id)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(c.Owner), nil
}

func (l *tokenLedger) balanceOf(owner common.Address) (uint64, error) {
	key, err := l.key(ownerBalanceObjectType, owner.Hex())
	if err != nil {
		return 0, err
	}
	n, _, err := l.getUint(key)
	return n, err
}

func (l *tokenLedger) setBalance(owner common.Address, n uint64) error {
	key, err := l.key(ownerBalanceObjectType, owner.Hex())
	if err != nil {
		return err
	}
	if n == 0 {
		return l.stub.DelState(key)
	}
	return l.putUint(key, n)
}

// mint stores c as a new token owned by c.Owner at global position index.
func (l *tokenLedger) mint(c *model.Contribution, index uint64) error {
	owner := common.HexToAddress(c.Owner)
	if err := l.putToken(c); err != nil {
		return err
	}
	allKey, err := l.key(allTokensObjectType, indexKey(index))
	if err != nil {
		return err
	}
	if err := l.putUint(allKey, c.ID); err != nil {
		return err
	}
	if err := l.addToOwner(owner, c.ID); err != nil {
		return err
	}
	ledgerLogger.Debugf("Minted token %d to '%s' in '%s'", c.ID, c.Owner, l.ns)
	return nil
}

// transfer moves c to newOwner, clearing its single-token approval.
func (l *tokenLedger) transfer(c *model.Contribution, newOwner common.Address) error {
	previous := common.HexToAddress(c.Owner)
	// Fabric reads do not observe this transaction's own writes, so a
	// self-transfer must not touch the enumeration twice.
	if previous != newOwner {
		if err := l.removeFromOwner(previous, c.ID); err != nil {
			return err
		}
		if err := l.addToOwner(newOwner, c.ID); err != nil {
			return err
		}
	}
	c.Owner = newOwner.Hex()
	c.Approved = ""
	if err := l.putToken(c); err != nil {
		return err
	}
	ledgerLogger.Debugf("Transferred token %d from '%s' to '%s' in '%s'", c.ID, previous.Hex(), c.Owner, l.ns)
	return nil
}

func (l *tokenLedger) addToOwner(owner common.Address, id uint64) error {
	balance, err := l.balanceOf(owner)
	if err != nil {
		return err
	}
	slotKey, err := l.key(ownedTokenObjectType, owner.Hex(), indexKey(balance))
	if err != nil {
		return err
	}
	if err := l.putUint(slotKey, id); err != nil {
		return err
	}
	posKey, err := l.key(ownedTokenIndexObjectType, indexKey(id))
	if err != nil {
		return err
	}
	if err := l.putUint(posKey, balance); err != nil {
		return err
	}
	return l.setBalance(owner, balance+1)
}

// removeFromOwner drops id from owner's enumeration by moving the owner's
// last token into the vacated slot.
func (l *tokenLedger) removeFromOwner(owner common.Address, id uint64) error {
	balance, err := l.balanceOf(owner)
	if err != nil {
		return err
	}
	if balance == 0 {
		return fmt.Errorf("inconsistent ledger: '%s' owns token %d but has zero balance", owner.Hex(), id)
	}
	posKey, err := l.key(ownedTokenIndexObjectType, indexKey(id))
	if err != nil {
		return err
	}
	pos, found, err := l.getUint(posKey)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("inconsistent ledger: no owner index for token %d", id)
	}
	last := balance - 1
	lastKey, err := l.key(ownedTokenObjectType, owner.Hex(), indexKey(last))
	if err != nil {
		return err
	}
	if pos != last {
		lastID, _, err := l.getUint(lastKey)
		if err != nil {
			return err
		}
		slotKey, err := l.key(ownedTokenObjectType, owner.Hex(), indexKey(pos))
		if err != nil {
			return err
		}
		if err := l.putUint(slotKey, lastID); err != nil {
			return err
		}
		lastPosKey, err := l.key(ownedTokenIndexObjectType, indexKey(lastID))
		if err != nil {
			return err
		}
		if err := l.putUint(lastPosKey, pos); err != nil {
			return err
		}
	}
	if err := l.stub.DelState(lastKey); err != nil {
		return fmt.Errorf("failed to delete owner slot: %w", err)
	}
	if err := l.stub.DelState(posKey); err != nil {
		return fmt.Errorf("failed to delete owner index of token %d: %w", id, err)
	}
	return l.setBalance(owner, last)
}

// tokenByIndex returns the id at global position index; total is the supply.
func (l *tokenLedger) tokenByIndex(index, total uint64) (uint64, error) {
	if index >= total {
		return 0, fmt.Errorf("%w(%s, %d)", ErrERC721OutOfBoundsIndex, common.Address{}.Hex(), index)
	}
	key, err := l.key(allTokensObjectType, indexKey(index))
	if err != nil {
		return 0, err
	}
	id, found, err := l.getUint(key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("inconsistent ledger: no token at global index %d", index)
	}
	return id, nil
}

func (l *tokenLedger) tokenOfOwnerByIndex(owner common.Address, index uint64) (uint64, error) {
	balance, err := l.balanceOf(owner)
	if err != nil {
		return 0, err
	}
	if index >= balance {
		return 0, fmt.Errorf("%w(%s, %d)", ErrERC721OutOfBoundsIndex, owner.Hex(), index)
	}
	key, err := l.key(ownedTokenObjectType, owner.Hex(), indexKey(index))
	if err != nil {
		return 0, err
	}
	id, found, err := l.getUint(key)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("inconsistent ledger: no token at index %d of '%s'", index, owner.Hex())
	}
	return id, nil
}

func (l *tokenLedger) isApprovedForAll(owner, operator common.Address) (bool, error) {
	key, err := l.key(operatorApprovalObjectType, owner.Hex(), operator.Hex())
	if err != nil {
		return false, err
	}
	raw, err := l.stub.GetState(key)
	if err != nil {
		return false, fmt.Errorf("ledger error reading operator approval: %w", err)
	}
	return string(raw) == "true", nil
}

func (l *tokenLedger) setApprovalForAll(owner, operator common.Address, approved bool) error {
	key, err := l.key(operatorApprovalObjectType, owner.Hex(), operator.Hex())
	if err != nil {
		return err
	}
	if !approved {
		return l.stub.DelState(key)
	}
	return l.stub.PutState(key, []byte("true"))
}

// page returns up to pageSize contributions after bookmark, in id order, and
// the bookmark of the next page ("" when exhausted).
func (l *tokenLedger) page(pageSize int32, bookmark string) ([]*model.Contribution, string, error) {
	iterator, metadata, err := l.stub.GetStateByPartialCompositeKeyWithPagination(contributionObjectType, []string{l.ns}, pageSize, bookmark)
	if err != nil || iterator == nil {
		ledgerLogger.Warningf("Paginated query unavailable for '%s' (%v). Falling back to full scan (SLOW).", l.ns, err)
		return l.pageByScan(pageSize, bookmark)
	}
	defer iterator.Close()

	contributions := []*model.Contribution{}
	for iterator.HasNext() {
		entry, err := iterator.Next()
		if err != nil {
			return nil, "", fmt.Errorf("failed to iterate contributions: %w", err)
		}
		var c model.Contribution
		if err := json.Unmarshal(entry.Value, &c); err != nil {
			ledgerLogger.Warningf("Failed to unmarshal contribution at key '%s': %v. Skipping.", entry.Key, err)
			continue
		}
		contributions = append(contributions, &c)
	}
	next := ""
	if metadata != nil && int32(len(contributions)) == pageSize {
		next = metadata.GetBookmark()
	}
	return contributions, next, nil
}

func (l *tokenLedger) pageByScan(pageSize int32, bookmark string) ([]*model.Contribution, string, error) {
	iterator, err := l.stub.GetStateByPartialCompositeKey(contributionObjectType, []string{l.ns})
	if err != nil {
		return nil, "", fmt.Errorf("failed to get contributions iterator: %w", err)
	}
	defer iterator.Close()

	contributions := []*model.Contribution{}
	lastKey := ""
	for iterator.HasNext() {
		entry, err := iterator.Next()
		if err != nil {
			return nil, "", fmt.Errorf("failed to iterate contributions: %w", err)
		}
		if bookmark != "" && entry.Key <= bookmark {
			continue
		}
		if int32(len(contributions)) == pageSize {
			return contributions, lastKey, nil
		}
		var c model.Contribution
		if err := json.Unmarshal(entry.Value, &c); err != nil {
			ledgerLogger.Warningf("Failed to unmarshal contribution at key '%s': %v. Skipping.", entry.Key, err)
			continue
		}
		contributions = append(contributions, &c)
		lastKey = entry.Key
	}
	return contributions, "", nil
}

// scan returns every contribution of the namespace accepted by keep, in id order.
func (l *tokenLedger) scan(keep func(*model.Contribution) bool) ([]*model.Contribution, error) {
	iterator, err := l.stub.GetStateByPartialCompositeKey(contributionObjectType, []string{l.ns})
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions iterator: %w", err)
	}
	defer iterator.Close()

	contributions := []*model.Contribution{}
	for iterator.HasNext() {
		entry, err := iterator.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate contributions: %w", err)
		}
		var c model.Contribution
		if err := json.Unmarshal(entry.Value, &c); err != nil {
			ledgerLogger.Warningf("Failed to unmarshal contribution at key '%s': %v. Skipping.", entry.Key, err)
			continue
		}
		if keep(&c) {
			contributions = append(contributions, &c)
		}
	}
	return contributions, nil
}
