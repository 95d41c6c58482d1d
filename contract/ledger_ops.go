package contract

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Ownership ledger ---

func (r *registry) OwnerOf(ctx contractapi.TransactionContextInterface, tokenID uint64) (string, error) {
	owner, err := newTokenLedger(ctx.GetStub(), r.namespace).ownerOf(tokenID)
	if err != nil {
		return "", err
	}
	return owner.Hex(), nil
}

func (r *registry) BalanceOf(ctx contractapi.TransactionContextInterface, owner string) (uint64, error) {
	acct, err := parseAccount(owner, "owner")
	if err != nil {
		return 0, err
	}
	if acct == (common.Address{}) {
		return 0, fmt.Errorf("%w(%s)", ErrERC721InvalidOwner, acct.Hex())
	}
	return newTokenLedger(ctx.GetStub(), r.namespace).balanceOf(acct)
}

func (r *registry) TotalSupply(ctx contractapi.TransactionContextInterface) (uint64, error) {
	info, err := r.loadInfo(ctx.GetStub())
	if err != nil {
		return 0, err
	}
	return info.TotalSupply, nil
}

func (r *registry) TokenByIndex(ctx contractapi.TransactionContextInterface, index uint64) (uint64, error) {
	info, err := r.loadInfo(ctx.GetStub())
	if err != nil {
		return 0, err
	}
	return newTokenLedger(ctx.GetStub(), r.namespace).tokenByIndex(index, info.TotalSupply)
}

func (r *registry) TokenOfOwnerByIndex(ctx contractapi.TransactionContextInterface, owner string, index uint64) (uint64, error) {
	acct, err := parseAccount(owner, "owner")
	if err != nil {
		return 0, err
	}
	return newTokenLedger(ctx.GetStub(), r.namespace).tokenOfOwnerByIndex(acct, index)
}

// Approve records a single-token approval. The caller must own the token or
// be an approved operator of its owner. Approvals never authorize transfers
// on their own; see TransferFrom.
func (r *registry) Approve(ctx contractapi.TransactionContextInterface, to string, tokenID uint64) error {
	logger.Infof("Chaincode Call: Approve '%s' for token %d in '%s'", to, tokenID, r.namespace)
	t, err := r.begin(ctx)
	if err != nil {
		return fmt.Errorf("Approve: %w", err)
	}
	approved, err := parseAccount(to, "to")
	if err != nil {
		return err
	}
	c, err := t.ledger.token(tokenID)
	if err != nil {
		return err
	}
	owner := common.HexToAddress(c.Owner)
	if t.caller != owner {
		operator, err := t.ledger.isApprovedForAll(owner, t.caller)
		if err != nil {
			return fmt.Errorf("Approve: %w", err)
		}
		if !operator {
			return fmt.Errorf("%w(%s)", ErrERC721InvalidApprover, t.caller.Hex())
		}
	}
	c.Approved = ""
	if approved != (common.Address{}) {
		c.Approved = approved.Hex()
	}
	if err := t.ledger.putToken(c); err != nil {
		return fmt.Errorf("Approve: %w", err)
	}
	t.events.add(approvalEvent(owner, approved, tokenID))
	return t.commit()
}

func (r *registry) GetApproved(ctx contractapi.TransactionContextInterface, tokenID uint64) (string, error) {
	c, err := newTokenLedger(ctx.GetStub(), r.namespace).token(tokenID)
	if err != nil {
		return "", err
	}
	if c.Approved == "" {
		return common.Address{}.Hex(), nil
	}
	return c.Approved, nil
}

func (r *registry) SetApprovalForAll(ctx contractapi.TransactionContextInterface, operator string, approved bool) error {
	logger.Infof("Chaincode Call: SetApprovalForAll '%s'=%t in '%s'", operator, approved, r.namespace)
	t, err := r.begin(ctx)
	if err != nil {
		return fmt.Errorf("SetApprovalForAll: %w", err)
	}
	op, err := parseAccount(operator, "operator")
	if err != nil {
		return err
	}
	if op == (common.Address{}) {
		return fmt.Errorf("%w(%s)", ErrERC721InvalidOperator, op.Hex())
	}
	if err := t.ledger.setApprovalForAll(t.caller, op, approved); err != nil {
		return fmt.Errorf("SetApprovalForAll: %w", err)
	}
	t.events.add(approvalForAllEvent(t.caller, op, approved))
	return t.commit()
}

func (r *registry) IsApprovedForAll(ctx contractapi.TransactionContextInterface, owner, operator string) (bool, error) {
	ownerAcct, err := parseAccount(owner, "owner")
	if err != nil {
		return false, err
	}
	op, err := parseAccount(operator, "operator")
	if err != nil {
		return false, err
	}
	return newTokenLedger(ctx.GetStub(), r.namespace).isApprovedForAll(ownerAcct, op)
}

// TransferFrom moves a contribution between accounts. Only an expert
// contributor holding the token may move it; the original contributor is
// unaffected.
func (r *registry) TransferFrom(ctx contractapi.TransactionContextInterface, from, to string, tokenID uint64) error {
	logger.Infof("Chaincode Call: TransferFrom '%s' to '%s' for token %d in '%s'", from, to, tokenID, r.namespace)
	return r.transfer(ctx, from, to, tokenID)
}

// SafeTransferFrom behaves as TransferFrom; there are no receiver hooks on Fabric.
func (r *registry) SafeTransferFrom(ctx contractapi.TransactionContextInterface, from, to string, tokenID uint64) error {
	logger.Infof("Chaincode Call: SafeTransferFrom '%s' to '%s' for token %d in '%s'", from, to, tokenID, r.namespace)
	return r.transfer(ctx, from, to, tokenID)
}

func (r *registry) transfer(ctx contractapi.TransactionContextInterface, from, to string, tokenID uint64) error {
	t, err := r.begin(ctx)
	if err != nil {
		return fmt.Errorf("TransferFrom: %w", err)
	}
	if err := t.requireNotPaused(); err != nil {
		return err
	}
	fromAcct, err := parseAccount(from, "from")
	if err != nil {
		return err
	}
	toAcct, err := parseAccount(to, "to")
	if err != nil {
		return err
	}
	c, err := t.ledger.token(tokenID)
	if err != nil {
		return err
	}
	a, err := t.actor()
	if err != nil {
		return fmt.Errorf("TransferFrom: %w", err)
	}
	if err := authorize(opTransfer, a, toAcct, c); err != nil {
		return err
	}
	if fromAcct.Hex() != c.Owner {
		return fmt.Errorf("%w(%s, %d, %s)", ErrERC721IncorrectOwner, fromAcct.Hex(), tokenID, c.Owner)
	}
	if toAcct == (common.Address{}) {
		return fmt.Errorf("%w(%s)", ErrERC721InvalidReceiver, toAcct.Hex())
	}
	now, err := t.timestamp()
	if err != nil {
		return fmt.Errorf("TransferFrom: %w", err)
	}
	c.LastUpdatedAt = now
	if err := t.ledger.transfer(c, toAcct); err != nil {
		return fmt.Errorf("TransferFrom: %w", err)
	}
	t.events.add(transferEvent(fromAcct, toAcct, tokenID))
	return t.commit()
}
