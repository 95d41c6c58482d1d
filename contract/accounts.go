package contract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// AccountOf maps a Fabric identity onto the 20-byte account used by the
// registries: the last 20 bytes of keccak256(mspID "::" clientID).
func AccountOf(mspID, clientID string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(mspID), []byte("::"), []byte(clientID)))
}

// callerAccount resolves the account of the transaction invoker.
func callerAccount(ctx contractapi.TransactionContextInterface) (common.Address, error) {
	clientIdentity := ctx.GetClientIdentity()
	if clientIdentity == nil {
		return common.Address{}, errors.New("client identity is nil from context")
	}
	id, err := clientIdentity.GetID()
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get client identity ID from context: %w", err)
	}
	if id == "" {
		return common.Address{}, errors.New("client identity ID from context is empty")
	}
	mspID, err := clientIdentity.GetMSPID()
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get client MSPID from context: %w", err)
	}
	return AccountOf(mspID, id), nil
}

// parseAccount accepts a 0x-prefixed (or bare) 40 hex digit address.
func parseAccount(input, field string) (common.Address, error) {
	trimmed := strings.TrimSpace(input)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, invalidArgument("%s '%s' is not a valid account address", field, input)
	}
	return common.HexToAddress(trimmed), nil
}
