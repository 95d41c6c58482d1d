package contract

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestTransfer_OnlyExpertOwner(t *testing.T) {
	h, c := newContributionFixture(t)
	_, err := c.Contribute(h.as(h.contributor), h.contributor.hex(), testURI)
	require.NoError(t, err)

	// A plain contributor cannot move its own token.
	err = c.TransferFrom(h.as(h.contributor), h.contributor.hex(), h.user.hex(), 1)
	require.ErrorIs(t, err, ErrERC721InsufficientApproval)

	// Nor can an expert that does not own it.
	err = c.TransferFrom(h.as(h.expert), h.contributor.hex(), h.expert.hex(), 1)
	require.ErrorIs(t, err, ErrERC721InsufficientApproval)

	h.grant(&c.registry, ExpertContributorRole, h.contributor)
	require.NoError(t, c.SafeTransferFrom(h.as(h.contributor), h.contributor.hex(), h.user.hex(), 1))
	requireEvent(t, h.events(), "Transfer", map[string]string{
		"from":    h.contributor.hex(),
		"to":      h.user.hex(),
		"tokenId": "1",
	})

	owner, err := c.OwnerOf(h.as(h.user), 1)
	require.NoError(t, err)
	require.Equal(t, h.user.hex(), owner)
}

func TestTransfer_ApprovalsDoNotDelegate(t *testing.T) {
	h, c := newContributionFixture(t)
	id, err := c.Contribute(h.as(h.expert), h.expert.hex(), testURI)
	require.NoError(t, err)

	require.NoError(t, c.Approve(h.as(h.expert), h.user.hex(), id))
	requireEvent(t, h.events(), "Approval", map[string]string{
		"owner":    h.expert.hex(),
		"approved": h.user.hex(),
	})
	approved, err := c.GetApproved(h.as(h.user), id)
	require.NoError(t, err)
	require.Equal(t, h.user.hex(), approved)

	require.NoError(t, c.SetApprovalForAll(h.as(h.expert), h.other.hex(), true))
	requireEvent(t, h.events(), "ApprovalForAll", map[string]string{"approved": "true"})
	isOperator, err := c.IsApprovedForAll(h.as(h.user), h.expert.hex(), h.other.hex())
	require.NoError(t, err)
	require.True(t, isOperator)

	// Neither the approved account nor the operator may transfer, even as experts.
	h.grant(&c.registry, ExpertContributorRole, h.user)
	h.grant(&c.registry, ExpertContributorRole, h.other)
	err = c.TransferFrom(h.as(h.user), h.expert.hex(), h.user.hex(), id)
	require.ErrorIs(t, err, ErrERC721InsufficientApproval)
	err = c.TransferFrom(h.as(h.other), h.expert.hex(), h.other.hex(), id)
	require.ErrorIs(t, err, ErrERC721InsufficientApproval)

	// A transfer by the owner clears the single-token approval.
	require.NoError(t, c.TransferFrom(h.as(h.expert), h.expert.hex(), h.contributor.hex(), id))
	approved, err = c.GetApproved(h.as(h.user), id)
	require.NoError(t, err)
	require.Equal(t, common.Address{}.Hex(), approved)
}

func TestTransfer_Errors(t *testing.T) {
	h, c := newContributionFixture(t)
	id, err := c.Contribute(h.as(h.expert), h.expert.hex(), testURI)
	require.NoError(t, err)

	err = c.TransferFrom(h.as(h.expert), h.expert.hex(), h.user.hex(), 99)
	require.ErrorIs(t, err, ErrERC721NonexistentToken)

	err = c.TransferFrom(h.as(h.expert), h.user.hex(), h.other.hex(), id)
	require.ErrorIs(t, err, ErrERC721IncorrectOwner)

	err = c.TransferFrom(h.as(h.expert), h.expert.hex(), common.Address{}.Hex(), id)
	require.ErrorIs(t, err, ErrERC721InvalidReceiver)
}

func TestApprove_Errors(t *testing.T) {
	h, c := newContributionFixture(t)
	id, err := c.Contribute(h.as(h.contributor), h.contributor.hex(), testURI)
	require.NoError(t, err)

	err = c.Approve(h.as(h.user), h.user.hex(), id)
	require.ErrorIs(t, err, ErrERC721InvalidApprover)

	// An operator may approve on the owner's behalf.
	require.NoError(t, c.SetApprovalForAll(h.as(h.contributor), h.user.hex(), true))
	require.NoError(t, c.Approve(h.as(h.user), h.other.hex(), id))

	err = c.SetApprovalForAll(h.as(h.contributor), common.Address{}.Hex(), true)
	require.ErrorIs(t, err, ErrERC721InvalidOperator)

	require.NoError(t, c.SetApprovalForAll(h.as(h.contributor), h.user.hex(), false))
	isOperator, err := c.IsApprovedForAll(h.as(h.user), h.contributor.hex(), h.user.hex())
	require.NoError(t, err)
	require.False(t, isOperator)
}

func TestEnumeration(t *testing.T) {
	h, c := newContributionFixture(t)
	for i := 0; i < 3; i++ {
		_, err := c.Contribute(h.as(h.expert), h.expert.hex(), testURI)
		require.NoError(t, err)
	}
	_, err := c.Contribute(h.as(h.contributor), h.contributor.hex(), testURI)
	require.NoError(t, err)

	balance, err := c.BalanceOf(h.as(h.user), h.expert.hex())
	require.NoError(t, err)
	require.Equal(t, uint64(3), balance)

	for index, want := range []uint64{1, 2, 3, 4} {
		id, err := c.TokenByIndex(h.as(h.user), uint64(index))
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
	_, err = c.TokenByIndex(h.as(h.user), 4)
	require.ErrorIs(t, err, ErrERC721OutOfBoundsIndex)

	// Moving the first token swaps the owner's last token into its slot.
	require.NoError(t, c.TransferFrom(h.as(h.expert), h.expert.hex(), h.user.hex(), 1))
	owned := []uint64{}
	for index := uint64(0); index < 2; index++ {
		id, err := c.TokenOfOwnerByIndex(h.as(h.user), h.expert.hex(), index)
		require.NoError(t, err)
		owned = append(owned, id)
	}
	require.Equal(t, []uint64{3, 2}, owned)
	_, err = c.TokenOfOwnerByIndex(h.as(h.user), h.expert.hex(), 2)
	require.ErrorIs(t, err, ErrERC721OutOfBoundsIndex)

	id, err := c.TokenOfOwnerByIndex(h.as(h.user), h.user.hex(), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	balance, err = c.BalanceOf(h.as(h.user), h.user.hex())
	require.NoError(t, err)
	require.Equal(t, uint64(1), balance)
}

func TestTransfer_ToSelfKeepsEnumeration(t *testing.T) {
	h, c := newContributionFixture(t)
	id, err := c.Contribute(h.as(h.expert), h.expert.hex(), testURI)
	require.NoError(t, err)

	require.NoError(t, c.TransferFrom(h.as(h.expert), h.expert.hex(), h.expert.hex(), id))

	balance, err := c.BalanceOf(h.as(h.user), h.expert.hex())
	require.NoError(t, err)
	require.Equal(t, uint64(1), balance)
	got, err := c.TokenOfOwnerByIndex(h.as(h.user), h.expert.hex(), 0)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestBalanceOf_ZeroAddress(t *testing.T) {
	h, c := newContributionFixture(t)
	_, err := c.BalanceOf(h.as(h.user), common.Address{}.Hex())
	require.ErrorIs(t, err, ErrERC721InvalidOwner)
}
