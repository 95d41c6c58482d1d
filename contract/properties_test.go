package contract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Ids are issued sequentially from 1 and total supply tracks every mint,
// whoever contributes.
func TestProperty_SequentialIDs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h, c := newContributionFixture(rt)
		n := rapid.IntRange(1, 12).Draw(rt, "contributions")
		for i := 1; i <= n; i++ {
			by := rapid.SampledFrom([]signer{h.contributor, h.expert}).Draw(rt, "by")
			id, err := c.Contribute(h.as(by), by.hex(), fmt.Sprintf("ipfs://%d", i))
			require.NoError(rt, err)
			require.Equal(rt, uint64(i), id)
		}
		supply, err := c.TotalSupply(h.as(h.user))
		require.NoError(rt, err)
		require.Equal(rt, uint64(n), supply)
	})
}

// The original contributor of a token never changes, whatever the chain of owners.
func TestProperty_OriginalContributorIsImmutable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h, c := newContributionFixture(rt)
		holders := []signer{h.expert, h.user, h.other, h.admin}
		for _, s := range holders[1:] {
			h.grant(&c.registry, ExpertContributorRole, s)
		}
		id, err := c.Contribute(h.as(h.expert), h.expert.hex(), testURI)
		require.NoError(rt, err)

		current := h.expert
		hops := rapid.IntRange(0, 8).Draw(rt, "hops")
		for i := 0; i < hops; i++ {
			next := rapid.SampledFrom(holders).Draw(rt, "next")
			require.NoError(rt, c.TransferFrom(h.as(current), current.hex(), next.hex(), id))
			current = next

			original, err := c.GetOriginalContributor(h.as(h.pauser), id)
			require.NoError(rt, err)
			require.Equal(rt, h.expert.hex(), original)
		}

		owner, err := c.OwnerOf(h.as(h.pauser), id)
		require.NoError(rt, err)
		require.Equal(rt, current.hex(), owner)
		balance, err := c.BalanceOf(h.as(h.pauser), current.hex())
		require.NoError(rt, err)
		require.Equal(rt, uint64(1), balance)
	})
}

// Accounts without a contributor role can never mint, for any recipient.
func TestProperty_NonContributorsCannotContribute(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h, c := newContributionFixture(rt)
		caller := rapid.SampledFrom([]signer{h.deployer, h.admin, h.pauser, h.upgrader, h.user}).Draw(rt, "caller")
		to := rapid.SampledFrom([]signer{caller, h.contributor, h.other}).Draw(rt, "to")
		uri := rapid.StringN(0, 64, -1).Draw(rt, "uri")

		_, err := c.Contribute(h.as(caller), to.hex(), uri)
		require.ErrorIs(rt, err, ErrNotContributor)

		supply, err := c.TotalSupply(h.as(h.user))
		require.NoError(rt, err)
		require.Zero(rt, supply)
	})
}

// Balances of all holders always add up to the total supply.
func TestProperty_BalancesMatchSupply(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h, c := newContributionFixture(rt)
		holders := []signer{h.expert, h.user, h.other}
		for _, s := range holders[1:] {
			h.grant(&c.registry, ExpertContributorRole, s)
		}

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		minted := uint64(0)
		for i := 0; i < steps; i++ {
			actor := rapid.SampledFrom(holders).Draw(rt, "actor")
			if minted == 0 || rapid.Bool().Draw(rt, "mint") {
				to := rapid.SampledFrom(holders).Draw(rt, "to")
				_, err := c.Contribute(h.as(actor), to.hex(), testURI)
				require.NoError(rt, err)
				minted++
				continue
			}
			id := rapid.Uint64Range(1, minted).Draw(rt, "token")
			owner, err := c.OwnerOf(h.as(h.pauser), id)
			require.NoError(rt, err)
			to := rapid.SampledFrom(holders).Draw(rt, "to")
			err = c.TransferFrom(h.as(actor), owner, to.hex(), id)
			if actor.hex() == owner {
				require.NoError(rt, err)
			} else {
				require.ErrorIs(rt, err, ErrERC721InsufficientApproval)
			}
		}

		total := uint64(0)
		for _, s := range holders {
			balance, err := c.BalanceOf(h.as(h.pauser), s.hex())
			require.NoError(rt, err)
			for index := uint64(0); index < balance; index++ {
				id, err := c.TokenOfOwnerByIndex(h.as(h.pauser), s.hex(), index)
				require.NoError(rt, err)
				owner, err := c.OwnerOf(h.as(h.pauser), id)
				require.NoError(rt, err)
				require.Equal(rt, s.hex(), owner)
			}
			total += balance
		}
		require.Equal(rt, minted, total)
	})
}
