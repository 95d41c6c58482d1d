package contract

import (
	"crypto/x509"
	"encoding/json"
	"fmt"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/require"
)

// fakeIdentity is a client identity with a fixed MSP and subject.
type fakeIdentity struct {
	mspID string
	id    string
}

func (f *fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f *fakeIdentity) GetMSPID() (string, error) { return f.mspID, nil }
func (f *fakeIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeIdentity) AssertAttributeValue(name, value string) error {
	return fmt.Errorf("attribute %s not present", name)
}
func (f *fakeIdentity) GetX509Certificate() (*x509.Certificate, error) { return nil, nil }

type signer struct {
	name     string
	identity *fakeIdentity
	account  common.Address
}

func newSigner(name string) signer {
	identity := &fakeIdentity{mspID: "Org1MSP", id: "x509::CN=" + name + ",OU=client::CN=ca.org1.example.com"}
	return signer{name: name, identity: identity, account: AccountOf(identity.mspID, identity.id)}
}

func (s signer) hex() string { return s.account.Hex() }

// signers mirrors the accounts of the registry test fixture.
type signers struct {
	deployer, admin, pauser, upgrader, contributor, expert, user, other signer
}

func newSigners() signers {
	return signers{
		deployer:    newSigner("deployer"),
		admin:       newSigner("admin"),
		pauser:      newSigner("pauser"),
		upgrader:    newSigner("upgrader"),
		contributor: newSigner("contributor"),
		expert:      newSigner("expertContributor"),
		user:        newSigner("user"),
		other:       newSigner("other"),
	}
}

type harness struct {
	t    require.TestingT
	stub *shimtest.MockStub
	tx   int
	signers
}

func newHarness(t require.TestingT) *harness {
	return &harness{t: t, stub: shimtest.NewMockStub("registry", nil), signers: newSigners()}
}

// as starts a new mock transaction invoked by s. Pending chaincode events
// of the previous transaction are discarded so SetEvent never blocks.
func (h *harness) as(s signer) contractapi.TransactionContextInterface {
	h.drain()
	h.tx++
	h.stub.MockTransactionStart(fmt.Sprintf("tx-%d", h.tx))
	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(h.stub)
	ctx.SetClientIdentity(s.identity)
	return ctx
}

func (h *harness) drain() {
	for {
		select {
		case <-h.stub.ChaincodeEventsChannel:
		default:
			return
		}
	}
}

// events returns the events published by the last transaction.
func (h *harness) events() []model.Event {
	select {
	case ev := <-h.stub.ChaincodeEventsChannel:
		require.Equal(h.t, RegistryEventName, ev.EventName)
		var batch model.EventBatch
		require.NoError(h.t, json.Unmarshal(ev.Payload, &batch))
		return batch.Events
	default:
		return nil
	}
}

// deploy initializes r as the deployer and assigns the fixture roles.
func (h *harness) deploy(r *registry) {
	require.NoError(h.t, r.Initialize(h.as(h.deployer)))
	h.grant(r, DefaultAdminRole, h.admin)
	h.grant(r, ContractPauserRole, h.pauser)
	h.grant(r, ContractUpgraderRole, h.upgrader)
	h.grant(r, ContributorRole, h.contributor)
	h.grant(r, ExpertContributorRole, h.expert)
}

func (h *harness) grant(r *registry, role common.Hash, s signer) {
	require.NoError(h.t, r.GrantRole(h.as(h.deployer), role.Hex(), s.hex()))
}

func findEvent(events []model.Event, name string) (model.Event, bool) {
	for _, ev := range events {
		if ev.Name == name {
			return ev, true
		}
	}
	return model.Event{}, false
}

func requireEvent(t require.TestingT, events []model.Event, name string, args map[string]string) model.Event {
	ev, ok := findEvent(events, name)
	require.True(t, ok, "missing %s event in %v", name, events)
	for k, v := range args {
		require.Equal(t, v, ev.Args[k], "%s.%s", name, k)
	}
	return ev
}

func newContributionFixture(t require.TestingT) (*harness, *ContributionRegistry) {
	h := newHarness(t)
	c := NewContributionRegistry()
	h.deploy(&c.registry)
	return h, c
}
