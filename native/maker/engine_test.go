package maker_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/maker"
	"stardust/storage"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)
	return mgr
}

func TestMakerOnboardingApproveFundsPool(t *testing.T) {
	mgr := newManager(t)
	owner := types.AccountID{1}
	require.NoError(t, mgr.Credit(owner, big.NewInt(2000)))

	eng := maker.NewEngine()
	eng.SetState(mgr)

	app, err := eng.LockDeposit(owner, big.NewInt(1000), 100)
	require.NoError(t, err)
	require.Equal(t, maker.StatusDepositLocked, app.Status)

	app, err = eng.SubmitInfo(owner, app.ID, "cid-pub", "cid-priv", 100, big.NewInt(100), "epay://x", "P1", "K1", big.NewInt(500), 200)
	require.NoError(t, err)
	require.Equal(t, maker.StatusPendingReview, app.Status)

	app, err = eng.Approve(app.ID)
	require.NoError(t, err)
	require.Equal(t, maker.StatusActive, app.Status)

	poolAcct, err := mgr.GetAccount(app.PoolAccount)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), poolAcct.Balance)

	ownerAcct, err := mgr.GetAccount(owner)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500), ownerAcct.Balance)

	selected, err := eng.SelectAvailableMarketMaker(big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, app.ID, selected.ID)
}

func TestRejectSlashesDepositWithinCap(t *testing.T) {
	mgr := newManager(t)
	owner := types.AccountID{2}
	require.NoError(t, mgr.Credit(owner, big.NewInt(2000)))

	eng := maker.NewEngine()
	eng.SetState(mgr)

	app, err := eng.LockDeposit(owner, big.NewInt(1000), 100)
	require.NoError(t, err)
	_, err = eng.SubmitInfo(owner, app.ID, "a", "b", 50, big.NewInt(10), "g", "p", "k", big.NewInt(200), 200)
	require.NoError(t, err)

	require.NoError(t, eng.Reject(app.ID, 1000))

	ownerAcct, err := mgr.GetAccount(owner)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1900), ownerAcct.Balance)

	_, err = eng.Get(app.ID)
	require.ErrorIs(t, err, maker.ErrNotFound)
}
