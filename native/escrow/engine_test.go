package escrow_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/escrow"
	"stardust/storage"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)
	return mgr
}

func TestLockReleaseRoundTrip(t *testing.T) {
	mgr := newManager(t)
	payer := types.AccountID{1}
	beneficiary := types.AccountID{2}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1_000_000)))

	eng := escrow.NewEngine()
	eng.SetState(mgr)

	escrowID := []byte("order-1")
	require.NoError(t, eng.LockFrom(payer, escrowID, big.NewInt(500_000)))

	payerAcct, err := mgr.GetAccount(payer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500_000), payerAcct.Balance)

	require.NoError(t, eng.ReleaseAll(escrowID, beneficiary))

	beneficiaryAcct, err := mgr.GetAccount(beneficiary)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(500_000), beneficiaryAcct.Balance)

	_, err = eng.Get(escrowID)
	require.ErrorIs(t, err, escrow.ErrNotFound)
}

func TestRefundRestoresPayerBalanceExactly(t *testing.T) {
	mgr := newManager(t)
	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1_000_000)))

	eng := escrow.NewEngine()
	eng.SetState(mgr)

	escrowID := []byte("order-2")
	require.NoError(t, eng.LockFrom(payer, escrowID, big.NewInt(300_000)))
	require.NoError(t, eng.RefundAll(escrowID, payer))

	acct, err := mgr.GetAccount(payer)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000), acct.Balance)
}

func TestLockRejectsDuplicateID(t *testing.T) {
	mgr := newManager(t)
	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1_000_000)))

	eng := escrow.NewEngine()
	eng.SetState(mgr)

	escrowID := []byte("order-3")
	require.NoError(t, eng.LockFrom(payer, escrowID, big.NewInt(100_000)))
	err := eng.LockFrom(payer, escrowID, big.NewInt(100_000))
	require.ErrorIs(t, err, escrow.ErrExists)
}

func TestRefundRejectsWrongBeneficiary(t *testing.T) {
	mgr := newManager(t)
	payer := types.AccountID{1}
	other := types.AccountID{9}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1_000_000)))

	eng := escrow.NewEngine()
	eng.SetState(mgr)

	escrowID := []byte("order-4")
	require.NoError(t, eng.LockFrom(payer, escrowID, big.NewInt(100_000)))
	err := eng.RefundAll(escrowID, other)
	require.ErrorIs(t, err, escrow.ErrBeneficiaryMismatch)
}
