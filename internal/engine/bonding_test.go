package engine

import (
	"testing"

	"communityprojects/pkg/chain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBondToken(t *testing.T) {
	t.Run("counts towards the target and locks capital", func(t *testing.T) {
		h := newHarness(t)
		owner, bonder := h.account("owner"), h.account("bonder")
		id := h.list(owner, 100, 10, 1, 1000)
		h.events()

		require.NoError(t, h.eng.BondToken(bonder, id, 100))

		p, _ := h.eng.Project(id)
		assert.Equal(t, StableBalance(100), p.ProjectBalance)
		assert.Equal(t, NativeBalance(100), p.BondingBalance)
		assert.Equal(t, NativeBalance(100), h.eng.Bond(id, bonder))
		assert.Equal(t, NativeBalance(100), h.eng.AccountLocked(bonder))
		assert.Equal(t, NativeBalance(100), h.eng.ProjectBonding(id))
		assert.Equal(t, NativeBalance(100), h.eng.TotalBonded())
		assert.Equal(t, uint64(100), h.mem.Currency.Lock(BondLockID, bonder))
		assert.Equal(t, uint64(startingNative), h.native(bonder))

		err := h.mem.Currency.Transfer(bonder, owner, startingNative-50, false)
		assert.ErrorIs(t, err, chain.ErrLiquidityRestricted)

		assert.Equal(t, []Event{TokenBonded{
			ProjectID: id, Bonder: bonder, Amount: 100, BondingBalance: 100, ProjectBalance: 100,
		}}, h.events())
	})

	t.Run("bonding is capped at a tenth of the target", func(t *testing.T) {
		h := newHarness(t)
		owner, a, b := h.account("owner"), h.account("a"), h.account("b")
		id := h.list(owner, 100, 10, 1, 1000)

		assert.ErrorIs(t, h.eng.BondToken(a, id, 101), ErrProjectCanOnlyHave10PercentBonding)
		require.NoError(t, h.eng.BondToken(a, id, 60))
		assert.ErrorIs(t, h.eng.BondToken(b, id, 41), ErrProjectCanOnlyHave10PercentBonding)
		require.NoError(t, h.eng.BondToken(b, id, 40))

		p, _ := h.eng.Project(id)
		assert.Equal(t, NativeBalance(100), p.BondingBalance)
		assert.Zero(t, h.eng.Bond(id, h.account("c")))
	})

	t.Run("keeps the minimum remaining amount liquid", func(t *testing.T) {
		h := newHarness(t)
		owner := h.account("owner")
		bonder := chain.AccountID("bonder")
		h.mem.Whitelist.Add(bonder)
		require.NoError(t, h.mem.Currency.Deposit(bonder, 150))
		id := h.list(owner, 100, 10, 1, 1000)

		require.NoError(t, h.eng.BondToken(bonder, id, 80))
		assert.Equal(t, NativeBalance(50), h.eng.Bond(id, bonder))

		require.NoError(t, h.eng.BondToken(bonder, id, 10))
		assert.Equal(t, NativeBalance(60), h.eng.Bond(id, bonder))
		assert.Equal(t, NativeBalance(60), h.eng.AccountLocked(bonder))

		poor := chain.AccountID("poor")
		h.mem.Whitelist.Add(poor)
		require.NoError(t, h.mem.Currency.Deposit(poor, 100))
		assert.ErrorIs(t, h.eng.BondToken(poor, id, 10), ErrNotEnoughFunds)
		assert.Zero(t, h.eng.Bond(id, poor))
	})

	t.Run("earlier bonds do not shrink the bondable balance", func(t *testing.T) {
		h := newHarness(t)
		owner := h.account("owner")
		bonder := chain.AccountID("bonder")
		h.mem.Whitelist.Add(bonder)
		require.NoError(t, h.mem.Currency.Deposit(bonder, 1000))
		first := h.list(owner, 1000, 10, 1, 9000)
		second := h.list(owner, 1000, 10, 1, 9000)

		require.NoError(t, h.eng.BondToken(bonder, first, 900))
		require.NoError(t, h.eng.BondToken(bonder, second, 100))

		assert.Equal(t, NativeBalance(900), h.eng.Bond(first, bonder))
		assert.Equal(t, NativeBalance(100), h.eng.Bond(second, bonder))
		assert.Equal(t, NativeBalance(1000), h.eng.AccountLocked(bonder))
		assert.Equal(t, uint64(1000), h.mem.Currency.Lock(BondLockID, bonder))
	})

	t.Run("custody must cover every bond", func(t *testing.T) {
		h := newHarness(t)
		owner, bonder := h.account("owner"), h.account("bonder")
		require.NoError(t, h.mem.Currency.Transfer(h.cfg.CustodyAccount, "sink", custodyNative-150, false))
		id := h.list(owner, 100, 10, 1, 1000)

		assert.ErrorIs(t, h.eng.BondToken(bonder, id, 60), ErrNotEnoughBondingFundsAvailable)
		assert.Zero(t, h.mem.Currency.Lock(BondLockID, bonder))
		require.NoError(t, h.eng.BondToken(bonder, id, 50))
	})

	t.Run("locks add up across projects", func(t *testing.T) {
		h := newHarness(t)
		owner, bonder := h.account("owner"), h.account("bonder")
		first := h.list(owner, 100, 10, 1, 1000)
		second := h.list(owner, 100, 10, 1, 1000)

		require.NoError(t, h.eng.BondToken(bonder, first, 100))
		require.NoError(t, h.eng.BondToken(bonder, second, 70))
		assert.Equal(t, NativeBalance(170), h.eng.AccountLocked(bonder))
		assert.Equal(t, uint64(170), h.mem.Currency.Lock(BondLockID, bonder))
		assert.Equal(t, NativeBalance(170), h.eng.TotalBonded())
	})

	t.Run("bonding can launch the project", func(t *testing.T) {
		h := newHarness(t)
		owner, buyer, bonder := h.account("owner"), h.account("buyer"), h.account("bonder")
		id := h.list(owner, 100, 10, 1, 1000)
		require.NoError(t, h.eng.BuyNft(buyer, id, 1, 9))

		require.NoError(t, h.eng.BondToken(bonder, id, 100))
		p, _ := h.eng.Project(id)
		assert.True(t, p.Ongoing)
		_, ok := h.mem.Nfts.Owner(id, 9)
		assert.False(t, ok, "unsold certificate should be burned")

		assert.ErrorIs(t, h.eng.BondToken(bonder, id, 1), ErrProjectOngoing)
	})

	t.Run("rejects unknown projects and strangers", func(t *testing.T) {
		h := newHarness(t)
		bonder := h.account("bonder")
		assert.ErrorIs(t, h.eng.BondToken(bonder, 7, 10), ErrInvalidIndex)
		assert.ErrorIs(t, h.eng.BondToken("stranger", 7, 10), ErrUserNotWhitelisted)
	})
}

func TestClaimBonding(t *testing.T) {
	t.Run("after a successful project", func(t *testing.T) {
		h := newHarness(t)
		owner, buyer, bonder := h.account("owner"), h.account("buyer"), h.account("bonder")
		id := h.list(owner, 100, 10, 1, 1000)
		require.NoError(t, h.eng.BuyNft(buyer, id, 1, 9))
		require.NoError(t, h.eng.BondToken(bonder, id, 100))

		assert.ErrorIs(t, h.eng.ClaimBonding(bonder, id), ErrNoBondingYet)

		h.cycle(id, func() { h.vote(buyer, id, VoteYes) })

		assert.Equal(t, uint64(startingStable+900), h.stable(owner))
		assert.Equal(t, uint64(startingNative+100), h.native(owner))
		assert.Zero(t, h.stable(h.cfg.CustodyAccount))

		ended, ok := h.eng.EndedProject(id)
		require.True(t, ok)
		assert.True(t, ended.Success)
		assert.Equal(t, NativeBalance(100), ended.BondingBalance)

		assert.ErrorIs(t, h.eng.ClaimBonding(buyer, id), ErrInvalidIndex)
		h.events()
		require.NoError(t, h.eng.ClaimBonding(bonder, id))
		assert.Equal(t, []Event{TokenUnbonded{ProjectID: id, Bonder: bonder, Amount: 100}}, h.events())

		assert.Zero(t, h.eng.AccountLocked(bonder))
		assert.Zero(t, h.eng.TotalBonded())
		assert.Zero(t, h.eng.ProjectBonding(id))
		assert.Zero(t, h.mem.Currency.Lock(BondLockID, bonder))
		_, ok = h.eng.EndedProject(id)
		assert.False(t, ok, "settled project should be removed")

		require.NoError(t, h.mem.Currency.Transfer(bonder, owner, startingNative, false))
	})

	t.Run("keeps the lock of other projects", func(t *testing.T) {
		h := newHarness(t)
		owner, buyer, bonder := h.account("owner"), h.account("buyer"), h.account("bonder")
		first := h.list(owner, 100, 10, 1, 1000)
		second := h.list(owner, 100, 10, 1, 1000)
		require.NoError(t, h.eng.BondToken(bonder, second, 30))
		require.NoError(t, h.eng.BondToken(bonder, first, 100))
		require.NoError(t, h.eng.BuyNft(buyer, first, 1, 9))

		h.cycle(first, func() { h.vote(buyer, first, VoteYes) })
		require.NoError(t, h.eng.ClaimBonding(bonder, first))

		assert.Equal(t, NativeBalance(30), h.eng.AccountLocked(bonder))
		assert.Equal(t, uint64(30), h.mem.Currency.Lock(BondLockID, bonder))
		assert.Equal(t, NativeBalance(30), h.eng.TotalBonded())
	})

	t.Run("after a failed project", func(t *testing.T) {
		h := newHarness(t)
		owner, buyer, bonder := h.account("owner"), h.account("buyer"), h.account("bonder")
		id := h.list(owner, 100, 10, 1, 1000)
		require.NoError(t, h.eng.BuyNft(buyer, id, 1, 9))
		require.NoError(t, h.eng.BondToken(bonder, id, 100))

		for i := 0; i < int(h.cfg.StrikeLimit); i++ {
			h.cycle(id, func() { h.vote(buyer, id, VoteNo) })
		}

		ended, ok := h.eng.EndedProject(id)
		require.True(t, ok)
		assert.False(t, ended.Success)
		assert.Equal(t, StableBalance(900), ended.ProjectBalance)
		assert.Equal(t, NativeBalance(100), ended.BondingBalance)
		assert.Equal(t, BasisPoints(FullPercentage), ended.RemainingPercentage)

		require.NoError(t, h.eng.ClaimRefundedToken(buyer, id))
		assert.Equal(t, uint64(startingStable), h.stable(buyer))
		_, ok = h.eng.EndedProject(id)
		assert.True(t, ok, "bonding pool still open")

		require.NoError(t, h.eng.ClaimBonding(bonder, id))
		_, ok = h.eng.EndedProject(id)
		assert.False(t, ok)
		assert.Equal(t, uint64(startingNative), h.native(owner))
	})
}
