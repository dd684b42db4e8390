package otcorder_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/escrow"
	"stardust/native/maker"
	"stardust/native/otcorder"
	"stardust/storage"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)
	return mgr
}

type fixture struct {
	mgr       *state.Manager
	escrowEng *escrow.Engine
	makerEng  *maker.Engine
	order     *otcorder.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mgr := newManager(t)

	escrowEng := escrow.NewEngine()
	escrowEng.SetState(mgr)

	makerEng := maker.NewEngine()
	makerEng.SetState(mgr)

	orderEng := otcorder.NewEngine()
	orderEng.SetState(mgr)
	orderEng.SetEscrow(escrowEng)
	orderEng.SetMaker(makerEng)

	return &fixture{mgr: mgr, escrowEng: escrowEng, makerEng: makerEng, order: orderEng}
}

func onboardMaker(t *testing.T, f *fixture, owner types.AccountID, poolAmount *big.Int) *maker.Application {
	t.Helper()
	app, err := f.makerEng.LockDeposit(owner, big.NewInt(1000), 100)
	require.NoError(t, err)
	app, err = f.makerEng.SubmitInfo(owner, app.ID, "cid-pub", "cid-priv", 100, big.NewInt(100), "epay://x", "P1", "K1", poolAmount, 200)
	require.NoError(t, err)
	app, err = f.makerEng.Approve(app.ID)
	require.NoError(t, err)
	return app
}

type stubPricing struct {
	rate *big.Int
}

func (s *stubPricing) GetDustToUsdRate() (*big.Int, error) { return s.rate, nil }

func TestCreateOrderPayReleaseRoundTrip(t *testing.T) {
	f := newFixture(t)
	owner := types.AccountID{1}
	require.NoError(t, f.mgr.Credit(owner, big.NewInt(5000)))
	app := onboardMaker(t, f, owner, big.NewInt(2000))

	buyer := types.AccountID{9}
	order, err := f.order.CreateOrder(buyer, app.ID, big.NewInt(500), big.NewInt(50), 1000)
	require.NoError(t, err)
	require.Equal(t, otcorder.StatusPending, order.Status)

	_, err = f.order.Pay(buyer, order.ID)
	require.NoError(t, err)

	released, err := f.order.Release(order.ID)
	require.NoError(t, err)
	require.Equal(t, otcorder.StatusReleased, released.Status)

	buyerAcct, err := f.mgr.GetAccount(buyer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), buyerAcct.Balance)
}

func TestCreateOrderRejectsBelowMinimum(t *testing.T) {
	f := newFixture(t)
	owner := types.AccountID{1}
	require.NoError(t, f.mgr.Credit(owner, big.NewInt(5000)))
	app := onboardMaker(t, f, owner, big.NewInt(2000))

	_, err := f.order.CreateOrder(types.AccountID{9}, app.ID, big.NewInt(0), big.NewInt(0), 1000)
	require.ErrorIs(t, err, otcorder.ErrBelowMinOrderSize)
}

func TestFirstPurchaseClampsToMaxAtLowRate(t *testing.T) {
	f := newFixture(t)
	owner := types.AccountID{1}
	pool := new(big.Int).Mul(big.NewInt(20000), types.UNIT)
	require.NoError(t, f.mgr.Credit(owner, new(big.Int).Mul(big.NewInt(50000), types.UNIT)))
	app := onboardMaker(t, f, owner, pool)

	// rate = 0.0001 USDT/DUST scaled by RatePrecision (1e6) -> rate = 100
	f.order.SetPricing(&stubPricing{rate: big.NewInt(100)})

	buyer := types.AccountID{9}
	order, err := f.order.CreateFirstPurchaseOrder(buyer, 1000)
	require.NoError(t, err)
	require.True(t, order.IsFirstPurchase)
	require.Equal(t, app.ID, order.MakerID)
	require.Equal(t, 0, order.DustAmount.Cmp(new(big.Int).Mul(big.NewInt(10000), types.UNIT)))
}

func TestFirstPurchaseRejectsSecondUseByBuyer(t *testing.T) {
	f := newFixture(t)
	owner := types.AccountID{1}
	pool := new(big.Int).Mul(big.NewInt(20000), types.UNIT)
	require.NoError(t, f.mgr.Credit(owner, new(big.Int).Mul(big.NewInt(50000), types.UNIT)))
	_ = onboardMaker(t, f, owner, pool)
	f.order.SetPricing(&stubPricing{rate: big.NewInt(1_000_000)})

	buyer := types.AccountID{9}
	_, err := f.order.CreateFirstPurchaseOrder(buyer, 1000)
	require.NoError(t, err)

	_, err = f.order.CreateFirstPurchaseOrder(buyer, 1000)
	require.ErrorIs(t, err, otcorder.ErrAlreadyUsedFirstPurchase)
}

func TestExpireSweepBoundedByBudget(t *testing.T) {
	f := newFixture(t)
	owner := types.AccountID{1}
	require.NoError(t, f.mgr.Credit(owner, big.NewInt(10_000)))
	app := onboardMaker(t, f, owner, big.NewInt(5000))

	f.order.SetParams(func() otcorder.Params {
		p := otcorder.DefaultParams()
		p.MinOrderSize = big.NewInt(1)
		p.ExpireSweepBudget = 2
		return p
	}())

	o1, err := f.order.CreateOrder(types.AccountID{2}, app.ID, big.NewInt(10), big.NewInt(1), 100)
	require.NoError(t, err)
	o2, err := f.order.CreateOrder(types.AccountID{3}, app.ID, big.NewInt(10), big.NewInt(1), 100)
	require.NoError(t, err)
	o3, err := f.order.CreateOrder(types.AccountID{4}, app.ID, big.NewInt(10), big.NewInt(1), 101)
	require.NoError(t, err)

	expired, err := f.order.ExpireSweep(100)
	require.NoError(t, err)
	require.Equal(t, 2, expired)

	got1, err := f.order.Get(o1.ID)
	require.NoError(t, err)
	got2, err := f.order.Get(o2.ID)
	require.NoError(t, err)
	got3, err := f.order.Get(o3.ID)
	require.NoError(t, err)

	require.Equal(t, otcorder.StatusExpired, got1.Status)
	require.Equal(t, otcorder.StatusExpired, got2.Status)
	require.Equal(t, otcorder.StatusPending, got3.Status)
}
