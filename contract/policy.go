package contract

import (
	"fmt"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
)

// operation names a role-gated domain action.
type operation int

const (
	opContribute operation = iota
	opUpdateMetadata
	opUpdateDatasetURI
	opTransfer
)

// actor is the caller as seen by the policy: its account and the domain
// roles it held when the transaction started.
type actor struct {
	account     common.Address
	contributor bool
	expert      bool
}

// authorize is the single authorization predicate of the contribution logic.
// It is a pure function of the caller, the operation, and the state it
// targets: the recipient for opContribute, the stored contribution otherwise.
func authorize(op operation, a actor, recipient common.Address, c *model.Contribution) error {
	switch op {
	case opContribute:
		if !a.contributor && !a.expert {
			return fmt.Errorf("%w(%s)", ErrNotContributor, a.account.Hex())
		}
		if !a.expert && recipient != a.account {
			return fmt.Errorf("%w(%s, %s)", ErrCannotContributeForOthers, a.account.Hex(), recipient.Hex())
		}
		return nil

	case opUpdateMetadata:
		// The original contributor keeps editing rights after transfers; an
		// owner needs a contributor role. Experts get nothing extra here.
		if c.OriginalContributor == a.account.Hex() {
			return nil
		}
		if c.Owner == a.account.Hex() && (a.contributor || a.expert) {
			return nil
		}
		return fmt.Errorf("%w(%s, %d)", ErrNotAuthorizedToUpdateMetadata, a.account.Hex(), c.ID)

	case opUpdateDatasetURI:
		if a.expert {
			return nil
		}
		if c.Owner == a.account.Hex() && a.contributor {
			return nil
		}
		return fmt.Errorf("%w(%s, %d)", ErrNotAuthorizedToUpdateMetadata, a.account.Hex(), c.ID)

	case opTransfer:
		// Approvals are recorded but never move tokens: only an expert
		// contributor holding the token may transfer it.
		if a.expert && c.Owner == a.account.Hex() {
			return nil
		}
		return insufficientApproval(a.account, c.ID)
	}
	return fmt.Errorf("unknown operation %d", op)
}
