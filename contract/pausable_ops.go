package contract

import (
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

// --- Pausability ---

// Pause halts contributions, metadata updates and transfers. Requires
// CONTRACT_PAUSER_ROLE.
func (r *registry) Pause(ctx contractapi.TransactionContextInterface) error {
	logger.Infof("Chaincode Call: Pause '%s'", r.namespace)
	return r.setPaused(ctx, true)
}

func (r *registry) Unpause(ctx contractapi.TransactionContextInterface) error {
	logger.Infof("Chaincode Call: Unpause '%s'", r.namespace)
	return r.setPaused(ctx, false)
}

func (r *registry) Paused(ctx contractapi.TransactionContextInterface) (bool, error) {
	info, err := r.loadInfo(ctx.GetStub())
	if err != nil {
		return false, err
	}
	return info.Paused, nil
}

func (r *registry) setPaused(ctx contractapi.TransactionContextInterface, paused bool) error {
	t, err := r.begin(ctx)
	if err != nil {
		return err
	}
	if err := t.roles.checkRole(ContractPauserRole, t.caller); err != nil {
		return err
	}
	switch {
	case paused && t.info.Paused:
		return enforcedPause()
	case !paused && !t.info.Paused:
		return fmt.Errorf("%w()", ErrExpectedPause)
	}
	t.info.Paused = paused
	t.dirty = true
	if paused {
		t.events.add(pausedEvent(t.caller))
	} else {
		t.events.add(unpausedEvent(t.caller))
	}
	if err := t.commit(); err != nil {
		return err
	}
	logger.Infof("Registry '%s' paused=%t by '%s'", r.namespace, paused, t.caller.Hex())
	return nil
}
