package arbitration_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/arbitration"
	"stardust/native/escrow"
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
	arbEng    *arbitration.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mgr := newManager(t)

	escrowEng := escrow.NewEngine()
	escrowEng.SetState(mgr)

	arbEng := arbitration.NewEngine()
	arbEng.SetState(mgr)
	arbEng.SetEscrow(escrowEng)
	arbEng.SetFeeRecipient(types.AccountID{99})

	return &fixture{mgr: mgr, escrowEng: escrowEng, arbEng: arbEng}
}

func TestOpenCaseLocksFee(t *testing.T) {
	f := newFixture(t)
	plaintiff := types.AccountID{1}
	defendant := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(plaintiff, big.NewInt(1000)))

	c, err := f.arbEng.OpenCase(plaintiff, defendant, arbitration.ModuleTagOTCOrder, 7, []string{"cid-1"}, big.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, arbitration.StatusOpen, c.Status)

	plaintiffAcct, err := f.mgr.GetAccount(plaintiff)
	require.NoError(t, err)
	require.Equal(t, 0, plaintiffAcct.Balance.Cmp(big.NewInt(950)))
}

func TestOpenCaseRejectsFeeBelowMinimum(t *testing.T) {
	f := newFixture(t)
	plaintiff := types.AccountID{1}
	defendant := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(plaintiff, big.NewInt(1000)))

	_, err := f.arbEng.OpenCase(plaintiff, defendant, arbitration.ModuleTagOTCOrder, 7, nil, big.NewInt(0))
	require.ErrorIs(t, err, arbitration.ErrFeeTooLow)
}

func TestResolveDispatchesToRegisteredApplier(t *testing.T) {
	f := newFixture(t)
	plaintiff := types.AccountID{1}
	defendant := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(plaintiff, big.NewInt(1000)))

	var gotLinkedID uint64
	var gotDecision arbitration.Decision
	f.arbEng.RegisterApplier(arbitration.ModuleTagOTCOrder, func(linkedID uint64, decision arbitration.Decision) error {
		gotLinkedID = linkedID
		gotDecision = decision
		return nil
	})

	c, err := f.arbEng.OpenCase(plaintiff, defendant, arbitration.ModuleTagOTCOrder, 42, nil, big.NewInt(50))
	require.NoError(t, err)

	resolved, err := f.arbEng.Resolve(c.ID, arbitration.Decision{Outcome: arbitration.DecisionRelease})
	require.NoError(t, err)
	require.Equal(t, arbitration.StatusClosed, resolved.Status)
	require.Equal(t, uint64(42), gotLinkedID)
	require.Equal(t, arbitration.DecisionRelease, gotDecision.Outcome)

	recipientAcct, err := f.mgr.GetAccount(types.AccountID{99})
	require.NoError(t, err)
	require.Equal(t, 0, recipientAcct.Balance.Cmp(big.NewInt(50)))
}

func TestResolveRejectsUnknownModuleTag(t *testing.T) {
	f := newFixture(t)
	plaintiff := types.AccountID{1}
	defendant := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(plaintiff, big.NewInt(1000)))

	c, err := f.arbEng.OpenCase(plaintiff, defendant, arbitration.ModuleTagBridge, 1, nil, big.NewInt(50))
	require.NoError(t, err)

	_, err = f.arbEng.Resolve(c.ID, arbitration.Decision{Outcome: arbitration.DecisionRefund})
	require.ErrorIs(t, err, arbitration.ErrUnknownModuleTag)
}

func TestResolveTwiceRejected(t *testing.T) {
	f := newFixture(t)
	plaintiff := types.AccountID{1}
	defendant := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(plaintiff, big.NewInt(1000)))

	f.arbEng.RegisterApplier(arbitration.ModuleTagOTCOrder, func(uint64, arbitration.Decision) error { return nil })

	c, err := f.arbEng.OpenCase(plaintiff, defendant, arbitration.ModuleTagOTCOrder, 1, nil, big.NewInt(50))
	require.NoError(t, err)

	_, err = f.arbEng.Resolve(c.ID, arbitration.Decision{Outcome: arbitration.DecisionRelease})
	require.NoError(t, err)

	_, err = f.arbEng.Resolve(c.ID, arbitration.Decision{Outcome: arbitration.DecisionRelease})
	require.ErrorIs(t, err, arbitration.ErrWrongStatus)
}

func TestResolveRejectsInvalidPartialBps(t *testing.T) {
	f := newFixture(t)
	plaintiff := types.AccountID{1}
	defendant := types.AccountID{2}
	require.NoError(t, f.mgr.Credit(plaintiff, big.NewInt(1000)))

	f.arbEng.RegisterApplier(arbitration.ModuleTagOTCOrder, func(uint64, arbitration.Decision) error { return nil })

	c, err := f.arbEng.OpenCase(plaintiff, defendant, arbitration.ModuleTagOTCOrder, 1, nil, big.NewInt(50))
	require.NoError(t, err)

	_, err = f.arbEng.Resolve(c.ID, arbitration.Decision{Outcome: arbitration.DecisionPartial, PartialBps: 10_001})
	require.ErrorIs(t, err, arbitration.ErrInvalidPartialBps)
}
