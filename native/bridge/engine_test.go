package bridge_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/bridge"
	nativecommon "stardust/native/common"
	"stardust/native/escrow"
	"stardust/native/maker"
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

type fixture struct {
	mgr       *state.Manager
	escrowEng *escrow.Engine
	makerEng  *maker.Engine
	bridgeEng *bridge.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mgr := newManager(t)

	escrowEng := escrow.NewEngine()
	escrowEng.SetState(mgr)

	makerEng := maker.NewEngine()
	makerEng.SetState(mgr)

	bridgeEng := bridge.NewEngine()
	bridgeEng.SetState(mgr)
	bridgeEng.SetEscrow(escrowEng)
	bridgeEng.SetMaker(makerEng)
	// rate = 1.0 USD/DUST scaled by the oracle's 10^6 precision.
	bridgeEng.SetPricing(&stubPricing{rate: big.NewInt(1_000_000)})

	return &fixture{mgr: mgr, escrowEng: escrowEng, makerEng: makerEng, bridgeEng: bridgeEng}
}

func dust(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), types.UNIT)
}

func onboardMaker(t *testing.T, f *fixture, owner types.AccountID) *maker.Application {
	t.Helper()
	app, err := f.makerEng.LockDeposit(owner, dust(1000), 100)
	require.NoError(t, err)
	app, err = f.makerEng.SubmitInfo(owner, app.ID, "cid-pub", "cid-priv", 100, dust(100), "epay://x", "P1", "K1", dust(100), 200)
	require.NoError(t, err)
	app, err = f.makerEng.Approve(app.ID)
	require.NoError(t, err)
	return app
}

func TestOfficialSwapLockAndComplete(t *testing.T) {
	f := newFixture(t)
	user := types.AccountID{1}
	require.NoError(t, f.mgr.Credit(user, dust(2000)))

	swap, err := f.bridgeEng.Swap(user, dust(500), "T-address")
	require.NoError(t, err)
	require.Equal(t, bridge.StatusPending, swap.Status)

	completed, err := f.bridgeEng.CompleteSwap(swap.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusCompleted, completed.Status)
	require.True(t, completed.Completed)

	bridgeAcct, err := f.mgr.GetAccount(bridge.BridgeAccount())
	require.NoError(t, err)
	require.Equal(t, 0, bridgeAcct.Balance.Cmp(dust(500)))
}

func TestMakerSwapReplayRejectsReusedTronHash(t *testing.T) {
	f := newFixture(t)
	owner := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(owner, dust(3000)))
	app := onboardMaker(t, f, owner)

	buyerA := types.AccountID{10}
	buyerB := types.AccountID{11}
	require.NoError(t, f.mgr.Credit(buyerA, dust(1000)))
	require.NoError(t, f.mgr.Credit(buyerB, dust(1000)))

	swapA, err := f.bridgeEng.MakerSwap(buyerA, app.ID, dust(100), "trc-a")
	require.NoError(t, err)
	swapB, err := f.bridgeEng.MakerSwap(buyerB, app.ID, dust(100), "trc-b")
	require.NoError(t, err)

	_, err = f.bridgeEng.MarkSwapComplete(owner, swapA.ID, "0xABC")
	require.NoError(t, err)

	_, err = f.bridgeEng.MarkSwapComplete(owner, swapB.ID, "0xABC")
	require.ErrorIs(t, err, bridge.ErrTronTxHashAlreadyUsed)

	stillPending, err := f.bridgeEng.Get(swapB.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusPending, stillPending.Status)
}

func TestMakerSwapRejectsBelowMinUSDT(t *testing.T) {
	f := newFixture(t)
	owner := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(owner, dust(3000)))
	app := onboardMaker(t, f, owner)

	buyer := types.AccountID{10}
	require.NoError(t, f.mgr.Credit(buyer, dust(1000)))

	_, err := f.bridgeEng.MakerSwap(buyer, app.ID, big.NewInt(0), "trc-z")
	require.ErrorIs(t, err, bridge.ErrBelowMinUSDTAmount)
}

func TestReconcileTimeoutsRefundsPastDeadline(t *testing.T) {
	f := newFixture(t)
	owner := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(owner, dust(3000)))
	app := onboardMaker(t, f, owner)

	buyer := types.AccountID{10}
	require.NoError(t, f.mgr.Credit(buyer, dust(1000)))

	var now types.BlockNumber
	f.bridgeEng.SetNowFunc(func() types.BlockNumber { return now })

	swap, err := f.bridgeEng.MakerSwap(buyer, app.ID, dust(100), "trc-timeout")
	require.NoError(t, err)

	now = swap.TimeoutAt
	refunded, err := f.bridgeEng.ReconcileTimeouts(now)
	require.NoError(t, err)
	require.Equal(t, 1, refunded)

	got, err := f.bridgeEng.Get(swap.ID)
	require.NoError(t, err)
	require.Equal(t, bridge.StatusRefunded, got.Status)

	buyerAcct, err := f.mgr.GetAccount(buyer)
	require.NoError(t, err)
	require.Equal(t, 0, buyerAcct.Balance.Cmp(dust(1000)))
}

func TestSwapRejectsOverQuotaUserInSameWindow(t *testing.T) {
	f := newFixture(t)
	user := types.AccountID{1}
	require.NoError(t, f.mgr.Credit(user, dust(100_000)))

	params := bridge.DefaultParams()
	params.SwapQuota.MaxRequestsPerMin = 2
	f.bridgeEng.SetParams(params)

	for i := 0; i < 2; i++ {
		_, err := f.bridgeEng.Swap(user, dust(1), "T-address")
		require.NoError(t, err)
	}
	_, err := f.bridgeEng.Swap(user, dust(1), "T-address")
	require.ErrorIs(t, err, nativecommon.ErrQuotaRequestsExceeded)
}

func TestSwapQuotaResetsInNewWindow(t *testing.T) {
	f := newFixture(t)
	user := types.AccountID{1}
	require.NoError(t, f.mgr.Credit(user, dust(100_000)))

	params := bridge.DefaultParams()
	params.SwapQuota.MaxRequestsPerMin = 1
	params.SwapQuotaWindowBlocks = 10
	f.bridgeEng.SetParams(params)

	var now types.BlockNumber
	f.bridgeEng.SetNowFunc(func() types.BlockNumber { return now })

	_, err := f.bridgeEng.Swap(user, dust(1), "T-address")
	require.NoError(t, err)
	_, err = f.bridgeEng.Swap(user, dust(1), "T-address")
	require.ErrorIs(t, err, nativecommon.ErrQuotaRequestsExceeded)

	now = 11
	_, err = f.bridgeEng.Swap(user, dust(1), "T-address")
	require.NoError(t, err)
}
