package contract

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Errors are named after the custom errors of the Solidity registries so
// clients can match on the prefix of the returned message. Call sites wrap
// them with their arguments; use errors.Is to test.
var (
	// Authorization
	ErrAccessControlUnauthorizedAccount = errors.New("AccessControlUnauthorizedAccount")
	ErrAccessControlBadConfirmation     = errors.New("AccessControlBadConfirmation")
	ErrNotContributor                   = errors.New("NotContributor")
	ErrCannotContributeForOthers        = errors.New("CannotContributeForOthers")
	ErrNotAuthorizedToUpdateMetadata    = errors.New("NotAuthorizedToUpdateMetadata")
	ErrNotCompanion                     = errors.New("NotCompanion")
	ErrERC721InsufficientApproval       = errors.New("ERC721InsufficientApproval")
	ErrERC721InvalidApprover            = errors.New("ERC721InvalidApprover")

	// State
	ErrEnforcedPause          = errors.New("EnforcedPause")
	ErrExpectedPause          = errors.New("ExpectedPause")
	ErrERC721NonexistentToken = errors.New("ERC721NonexistentToken")
	ErrERC721IncorrectOwner   = errors.New("ERC721IncorrectOwner")
	ErrERC721InvalidOwner     = errors.New("ERC721InvalidOwner")
	ErrERC721InvalidReceiver  = errors.New("ERC721InvalidReceiver")
	ErrERC721InvalidOperator  = errors.New("ERC721InvalidOperator")
	ErrERC721OutOfBoundsIndex = errors.New("ERC721OutOfBoundsIndex")
	ErrTargetRequired         = errors.New("TargetRequired")
	ErrInvalidInitialization  = errors.New("InvalidInitialization")

	// Input
	ErrInvalidArgument = errors.New("InvalidArgument")
)

func unauthorizedAccount(account common.Address, role common.Hash) error {
	return fmt.Errorf("%w(%s, %s)", ErrAccessControlUnauthorizedAccount, account.Hex(), role.Hex())
}

func nonexistentToken(id uint64) error {
	return fmt.Errorf("%w(%d)", ErrERC721NonexistentToken, id)
}

func insufficientApproval(operator common.Address, id uint64) error {
	return fmt.Errorf("%w(%s, %d)", ErrERC721InsufficientApproval, operator.Hex(), id)
}

func enforcedPause() error {
	return fmt.Errorf("%w()", ErrEnforcedPause)
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
