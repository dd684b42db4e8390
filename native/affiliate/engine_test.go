package affiliate_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/affiliate"
	"stardust/storage"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)
	return mgr
}

type stubPricing struct{ rate *big.Int }

func (s *stubPricing) GetDustToUsdRate() (*big.Int, error) { return s.rate, nil }

var poolAccount = types.AccountID{200}

func newFixture(t *testing.T) (*state.Manager, *affiliate.Engine) {
	t.Helper()
	mgr := newManager(t)
	eng := affiliate.NewEngine()
	eng.SetState(mgr)
	eng.SetPool(poolAccount)
	eng.SetPricing(&stubPricing{rate: big.NewInt(1_000_000)}) // 1 DUST == 1 USDT
	require.NoError(t, mgr.Credit(poolAccount, big.NewInt(1_000_000_000_000)))
	return mgr, eng
}

func bindChain(t *testing.T, eng *affiliate.Engine, chain []types.AccountID) {
	t.Helper()
	for i := 0; i < len(chain)-1; i++ {
		require.NoError(t, eng.BindSponsor(chain[i], chain[i+1]))
	}
}

func TestBindSponsorRejectsRebinding(t *testing.T) {
	_, eng := newFixture(t)
	a := types.AccountID{1}
	b := types.AccountID{2}
	c := types.AccountID{3}
	require.NoError(t, eng.BindSponsor(a, b))
	err := eng.BindSponsor(a, c)
	require.ErrorIs(t, err, affiliate.ErrSponsorAlreadyBound)
}

func TestBindSponsorRejectsSelfSponsor(t *testing.T) {
	_, eng := newFixture(t)
	a := types.AccountID{1}
	require.ErrorIs(t, eng.BindSponsor(a, a), affiliate.ErrSelfSponsor)
}

func TestValidatePercentsAcceptsWorkedExample(t *testing.T) {
	percents := []uint32{2000, 1500, 1000, 800, 600, 500, 400, 300, 200, 200, 200, 200, 100, 100, 100}
	require.NoError(t, affiliate.ValidatePercents(percents))
}

func TestValidatePercentsRejectsNonMonotonic(t *testing.T) {
	percents := []uint32{1000, 2000, 1000, 800, 600, 500, 400, 300, 200, 200, 200, 200, 100, 100, 100}
	require.ErrorIs(t, affiliate.ValidatePercents(percents), affiliate.ErrInvalidPercents)
}

func TestValidatePercentsRejectsLowSum(t *testing.T) {
	percents := make([]uint32, 15)
	percents[0] = 10
	percents[1] = 10
	require.ErrorIs(t, affiliate.ValidatePercents(percents), affiliate.ErrInvalidPercents)
}

// TestHybridDistributionMatchesWorkedExample exercises the spec's literal
// example: hybrid(k=3) percents [20,15,10,8,6,5,4,3,2,2,2,2,1,1,1], a buyer
// with a 5-ancestor chain all holding valid memberships, purchasing an
// amount of 400 DUST. A1..A3 receive instant transfers of 80/60/40; A4/A5
// accrue 32/24 into weekly pending.
func TestHybridDistributionMatchesWorkedExample(t *testing.T) {
	mgr, eng := newFixture(t)
	percents := []uint32{2000, 1500, 1000, 800, 600, 500, 400, 300, 200, 200, 200, 200, 100, 100, 100}
	params := affiliate.DefaultParams()
	params.Percents = percents
	params.Mode = affiliate.SettlementHybrid
	params.HybridSplitLayer = 3
	require.NoError(t, eng.SetParams(params))

	buyer := types.AccountID{1}
	a1, a2, a3, a4, a5 := types.AccountID{2}, types.AccountID{3}, types.AccountID{4}, types.AccountID{5}, types.AccountID{6}
	chain := []types.AccountID{buyer, a1, a2, a3, a4, a5}
	bindChain(t, eng, chain)

	before := make(map[types.AccountID]*big.Int)
	for _, ancestor := range []types.AccountID{a1, a2, a3, a4, a5} {
		giveMembership(t, mgr, eng, ancestor)
		acct, err := mgr.GetAccount(ancestor)
		require.NoError(t, err)
		before[ancestor] = new(big.Int).Set(acct.Balance)
	}

	amount := big.NewInt(400)
	require.NoError(t, eng.Distribute(buyer, amount))

	for ancestor, expect := range map[types.AccountID]int64{a1: 80, a2: 60, a3: 40} {
		acct, err := mgr.GetAccount(ancestor)
		require.NoError(t, err)
		want := new(big.Int).Add(before[ancestor], big.NewInt(expect))
		require.Equal(t, 0, acct.Balance.Cmp(want))
	}

	p4, err := eng.PendingOf(a4)
	require.NoError(t, err)
	require.Equal(t, 0, p4.Total().Cmp(big.NewInt(32)))

	p5, err := eng.PendingOf(a5)
	require.NoError(t, err)
	require.Equal(t, 0, p5.Total().Cmp(big.NewInt(24)))
}

// giveMembership funds account with 10,000 DUST (at the fixture's 1
// DUST == 1 USDT stub rate this comfortably covers a Y1 purchase plus the
// $100 holding-value floor membership validity requires) and purchases Y1.
func giveMembership(t *testing.T, mgr *state.Manager, eng *affiliate.Engine, account types.AccountID) {
	t.Helper()
	require.NoError(t, mgr.Credit(account, new(big.Int).Mul(big.NewInt(10_000), types.UNIT)))
	_, err := eng.PurchaseMembership(account, affiliate.LevelY1)
	require.NoError(t, err)
}

func TestSettleWeeklyPaysOutOnlyAtBoundary(t *testing.T) {
	mgr, eng := newFixture(t)
	params := affiliate.DefaultParams()
	params.Mode = affiliate.SettlementWeekly
	params.WeeklyPeriodBlocks = 100
	require.NoError(t, eng.SetParams(params))

	buyer := types.AccountID{1}
	ancestor := types.AccountID{2}
	require.NoError(t, eng.BindSponsor(buyer, ancestor))
	giveMembership(t, mgr, eng, ancestor)

	require.NoError(t, eng.Distribute(buyer, big.NewInt(1000)))

	err := eng.SettleWeekly(ancestor, 50)
	require.ErrorIs(t, err, affiliate.ErrNotDueYet)

	before, err := mgr.GetAccount(ancestor)
	require.NoError(t, err)

	require.NoError(t, eng.SettleWeekly(ancestor, 100))

	after, err := mgr.GetAccount(ancestor)
	require.NoError(t, err)
	require.True(t, after.Balance.Cmp(before.Balance) > 0)

	p, err := eng.PendingOf(ancestor)
	require.NoError(t, err)
	require.Equal(t, 0, p.Total().Sign())
}

func TestPurchaseMembershipDebitsBuyerAndSetsValidity(t *testing.T) {
	mgr, eng := newFixture(t)
	buyer := types.AccountID{1}
	require.NoError(t, mgr.Credit(buyer, new(big.Int).Mul(big.NewInt(1_000), types.UNIT)))

	m, err := eng.PurchaseMembership(buyer, affiliate.LevelY1)
	require.NoError(t, err)
	require.Equal(t, affiliate.LevelY1, m.Level)
	require.Equal(t, types.BlockNumber(affiliate.YearBlocks), m.ValidUntil)

	// Y1 is $30, which at the stub's 1 DUST == 1 USDT rate is 30 DUST.
	buyerAcct, err := mgr.GetAccount(buyer)
	require.NoError(t, err)
	require.Equal(t, 0, buyerAcct.Balance.Cmp(new(big.Int).Mul(big.NewInt(970), types.UNIT)))
}

func TestUpgradeToY10RejectsAlreadyY10(t *testing.T) {
	mgr, eng := newFixture(t)
	buyer := types.AccountID{1}
	require.NoError(t, mgr.Credit(buyer, big.NewInt(1_000_000_000_000_000)))
	_, err := eng.PurchaseMembership(buyer, affiliate.LevelY10)
	require.NoError(t, err)

	_, err = eng.UpgradeToY10(buyer)
	require.ErrorIs(t, err, affiliate.ErrAlreadyY10)
}

func TestBonusGenerationsCappedAtMaxChainDepth(t *testing.T) {
	mgr, eng := newFixture(t)
	sponsor := types.AccountID{1}
	require.NoError(t, mgr.Credit(sponsor, new(big.Int).Mul(big.NewInt(1_000), types.UNIT)))
	_, err := eng.PurchaseMembership(sponsor, affiliate.LevelY5) // base generations 12
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		buyer := types.AccountID{byte(10 + i)}
		require.NoError(t, eng.BindSponsor(buyer, sponsor))
		require.NoError(t, mgr.Credit(buyer, new(big.Int).Mul(big.NewInt(1_000), types.UNIT)))
		_, err := eng.PurchaseMembership(buyer, affiliate.LevelY1)
		require.NoError(t, err)
	}

	m, err := eng.Get(sponsor)
	require.NoError(t, err)
	require.LessOrEqual(t, int(m.EffectiveGenerations()), affiliate.MaxChainDepth)
	require.Equal(t, uint8(3), m.BonusGenerations) // capped: 12 base + 3 bonus == 15
}
