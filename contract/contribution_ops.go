package contract

import (
	"fmt"
	"strconv"

	"counterresistance/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// parseReceiver parses a mint or transfer recipient, rejecting the zero address.
func parseReceiver(input string) (common.Address, error) {
	to, err := parseAccount(input, "to")
	if err != nil {
		return common.Address{}, err
	}
	if to == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w(%s)", ErrERC721InvalidReceiver, to.Hex())
	}
	return to, nil
}

// mint stores a new contribution owned by to and credits the caller as its
// original contributor. Authorization is the caller's job.
func (t *txn) mint(to common.Address, uri string, target *model.Target) (*model.Contribution, error) {
	if err := validateMetadataURI(uri); err != nil {
		return nil, err
	}
	now, err := t.timestamp()
	if err != nil {
		return nil, err
	}
	id := t.info.NextTokenID
	if id == 0 {
		id = 1
	}
	c := &model.Contribution{
		ObjectType:          contributionObjectType,
		ID:                  id,
		Owner:               to.Hex(),
		OriginalContributor: t.caller.Hex(),
		MetadataURI:         uri,
		Target:              target,
		CreatedAt:           now,
		LastUpdatedAt:       now,
	}
	if err := t.ledger.mint(c, t.info.TotalSupply); err != nil {
		return nil, err
	}
	t.info.NextTokenID = id + 1
	t.info.TotalSupply++
	t.dirty = true
	t.events.add(
		transferEvent(common.Address{}, to, id),
		contributionEvent(t.caller, to, id, uri),
	)
	logger.Infof("Contribution %d minted to '%s' by '%s' in '%s'", id, c.Owner, c.OriginalContributor, t.reg.namespace)
	return c, nil
}

// contribute runs the contributor-gated mint shared by the contribution
// registries. resolveTarget, if set, runs once the caller is authorized.
func (r *registry) contribute(ctx contractapi.TransactionContextInterface, to, uri string, resolveTarget func() (*model.Target, error)) (uint64, error) {
	t, err := r.begin(ctx)
	if err != nil {
		return 0, err
	}
	if err := t.requireNotPaused(); err != nil {
		return 0, err
	}
	recipient, err := parseReceiver(to)
	if err != nil {
		return 0, err
	}
	a, err := t.actor()
	if err != nil {
		return 0, err
	}
	if err := authorize(opContribute, a, recipient, nil); err != nil {
		return 0, err
	}
	var target *model.Target
	if resolveTarget != nil {
		if target, err = resolveTarget(); err != nil {
			return 0, err
		}
	}
	c, err := t.mint(recipient, uri, target)
	if err != nil {
		return 0, err
	}
	if err := t.commit(); err != nil {
		return 0, err
	}
	return c.ID, nil
}

// updateMetadata replaces the metadata URI of tokenID after checking op.
func (r *registry) updateMetadata(ctx contractapi.TransactionContextInterface, op operation, tokenID uint64, uri string) error {
	t, err := r.begin(ctx)
	if err != nil {
		return err
	}
	if err := t.requireNotPaused(); err != nil {
		return err
	}
	c, err := t.ledger.token(tokenID)
	if err != nil {
		return err
	}
	a, err := t.actor()
	if err != nil {
		return err
	}
	if err := authorize(op, a, common.Address{}, c); err != nil {
		return err
	}
	if err := validateMetadataURI(uri); err != nil {
		return err
	}
	now, err := t.timestamp()
	if err != nil {
		return err
	}
	c.MetadataURI = uri
	c.LastUpdatedAt = now
	if err := t.ledger.putToken(c); err != nil {
		return err
	}
	if op == opUpdateDatasetURI {
		t.events.add(metadataUpdateEvent(tokenID))
	} else {
		t.events.add(contributionMetadataUpdatedEvent(t.caller, tokenID, uri))
	}
	return t.commit()
}

// --- Contribution reads ---

func (r *registry) Metadata(ctx contractapi.TransactionContextInterface, tokenID uint64) (string, error) {
	c, err := newTokenLedger(ctx.GetStub(), r.namespace).token(tokenID)
	if err != nil {
		return "", err
	}
	return c.MetadataURI, nil
}

func (r *registry) GetOriginalContributor(ctx contractapi.TransactionContextInterface, tokenID uint64) (string, error) {
	c, err := newTokenLedger(ctx.GetStub(), r.namespace).token(tokenID)
	if err != nil {
		return "", err
	}
	return c.OriginalContributor, nil
}

func (r *registry) GetContribution(ctx contractapi.TransactionContextInterface, tokenID uint64) (*model.Contribution, error) {
	return newTokenLedger(ctx.GetStub(), r.namespace).token(tokenID)
}

// GetAllContributions pages through every contribution of the registry.
// pageSize defaults to 10 and is capped at 100.
func (r *registry) GetAllContributions(ctx contractapi.TransactionContextInterface, pageSizeStr string, bookmark string) (*model.PaginatedContributionResponse, error) {
	pageSize, err := strconv.ParseInt(pageSizeStr, 10, 32)
	if err != nil || pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	logger.Infof("GetAllContributions: '%s' (pageSize: %d, bookmark: '%s')", r.namespace, pageSize, bookmark)

	contributions, next, err := newTokenLedger(ctx.GetStub(), r.namespace).page(int32(pageSize), bookmark)
	if err != nil {
		return nil, fmt.Errorf("GetAllContributions: %w", err)
	}
	return &model.PaginatedContributionResponse{
		Contributions: contributions,
		NextBookmark:  next,
		FetchedCount:  int32(len(contributions)),
	}, nil
}

// GetContributionsByOwner lists the contributions currently held by owner.
func (r *registry) GetContributionsByOwner(ctx contractapi.TransactionContextInterface, owner string) ([]*model.Contribution, error) {
	acct, err := parseAccount(owner, "owner")
	if err != nil {
		return nil, err
	}
	return newTokenLedger(ctx.GetStub(), r.namespace).scan(func(c *model.Contribution) bool {
		return c.Owner == acct.Hex()
	})
}

// GetContributionsByContributor lists the contributions originally submitted
// by contributor, wherever they are now.
func (r *registry) GetContributionsByContributor(ctx contractapi.TransactionContextInterface, contributor string) ([]*model.Contribution, error) {
	acct, err := parseAccount(contributor, "contributor")
	if err != nil {
		return nil, err
	}
	return newTokenLedger(ctx.GetStub(), r.namespace).scan(func(c *model.Contribution) bool {
		return c.OriginalContributor == acct.Hex()
	})
}
