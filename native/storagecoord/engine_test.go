package storagecoord_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/storagecoord"
	"stardust/storage"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)
	return mgr
}

// stubCluster is a deterministic in-memory stand-in for the external pin
// cluster's HTTP surface.
type stubCluster struct {
	lastCID  string
	lastPeer []string
	present  map[string]bool
}

func newStubCluster() *stubCluster {
	return &stubCluster{present: make(map[string]bool)}
}

func (s *stubCluster) RequestPin(cid string, operatorPeerIDs []string) error {
	s.lastCID = cid
	s.lastPeer = operatorPeerIDs
	return nil
}

func (s *stubCluster) PinStatus(cid string) (map[string]bool, error) {
	return s.present, nil
}

type stubResolver struct{ cid string }

func (r *stubResolver) Resolve(cidHash [32]byte) (string, bool) { return r.cid, true }

type stubSubjectOwner struct{ owner types.AccountID }

func (s *stubSubjectOwner) OwnerOf(subjectID uint64) (types.AccountID, error) {
	return s.owner, nil
}

func newFixture(t *testing.T) (*state.Manager, *storagecoord.Engine, *stubCluster) {
	t.Helper()
	mgr := newManager(t)
	eng := storagecoord.NewEngine()
	eng.SetState(mgr)
	eng.SetTreasury(types.AccountID{250})
	cluster := newStubCluster()
	eng.SetCluster(cluster)
	eng.SetCIDResolver(&stubResolver{cid: "bafy-test"})
	return mgr, eng, cluster
}

func hashOf(b byte) [32]byte {
	var h [32]byte
	h[0] = b
	return h
}

func joinOperator(t *testing.T, mgr *state.Manager, eng *storagecoord.Engine, id types.AccountID, peerID string) {
	t.Helper()
	require.NoError(t, mgr.Credit(id, new(big.Int).Mul(big.NewInt(1000), types.UNIT)))
	_, err := eng.JoinOperator(id, peerID, 100, hashOf(1), nil, new(big.Int).Mul(big.NewInt(100), types.UNIT))
	require.NoError(t, err)
}

func TestRequestPinDebitsPayerAndEnqueues(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1000)))

	rec, err := eng.RequestPin(payer, hashOf(9), 1<<20, 3, big.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, storagecoord.PinStateRequested, rec.State)

	payerAcct, err := mgr.GetAccount(payer)
	require.NoError(t, err)
	require.Equal(t, 0, payerAcct.Balance.Cmp(big.NewInt(900)))
}

func TestRequestPinRejectsZeroReplicas(t *testing.T) {
	_, eng, _ := newFixture(t)
	_, err := eng.RequestPin(types.AccountID{1}, hashOf(9), 100, 0, big.NewInt(1))
	require.ErrorIs(t, err, storagecoord.ErrZeroReplicas)
}

func TestAssignAndPinSelectsOperatorsAndSubmits(t *testing.T) {
	mgr, eng, cluster := newFixture(t)
	opA := types.AccountID{10}
	opB := types.AccountID{11}
	joinOperator(t, mgr, eng, opA, "peer-a")
	joinOperator(t, mgr, eng, opB, "peer-b")

	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1000)))
	cidHash := hashOf(9)
	_, err := eng.RequestPin(payer, cidHash, 1<<20, 2, big.NewInt(100))
	require.NoError(t, err)

	require.NoError(t, eng.AssignAndPin())

	rec, err := eng.Get(cidHash)
	require.NoError(t, err)
	require.Equal(t, storagecoord.PinStatePinning, rec.State)
	require.ElementsMatch(t, []string{"peer-a", "peer-b"}, cluster.lastPeer)
}

func TestAssignAndPinFailsWithNoActiveOperators(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1000)))
	require.NoError(t, mustRequestPin(eng, payer))
	err := eng.AssignAndPin()
	require.ErrorIs(t, err, storagecoord.ErrNoActiveOperators)
}

func mustRequestPin(eng *storagecoord.Engine, payer types.AccountID) error {
	_, err := eng.RequestPin(payer, hashOf(9), 1<<20, 1, big.NewInt(100))
	return err
}

func TestReconcileMarksPinnedWhenAllReplicasPresent(t *testing.T) {
	mgr, eng, cluster := newFixture(t)
	opA := types.AccountID{10}
	joinOperator(t, mgr, eng, opA, "peer-a")

	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1000)))
	cidHash := hashOf(9)
	_, err := eng.RequestPin(payer, cidHash, 1<<20, 1, big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, eng.AssignAndPin())

	cluster.present["peer-a"] = true
	require.NoError(t, eng.Reconcile(cidHash))

	rec, err := eng.Get(cidHash)
	require.NoError(t, err)
	require.Equal(t, storagecoord.PinStatePinned, rec.State)
}

func TestMarkPinnedByAssignedOperatorCompletesPin(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	opA := types.AccountID{10}
	joinOperator(t, mgr, eng, opA, "peer-a")

	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1000)))
	cidHash := hashOf(9)
	_, err := eng.RequestPin(payer, cidHash, 1<<20, 1, big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, eng.AssignAndPin())

	rec, err := eng.MarkPinned(opA, cidHash)
	require.NoError(t, err)
	require.Equal(t, storagecoord.PinStatePinned, rec.State)
}

func TestMarkPinnedRejectsUnassignedOperator(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	opA := types.AccountID{10}
	opB := types.AccountID{11}
	joinOperator(t, mgr, eng, opA, "peer-a")
	joinOperator(t, mgr, eng, opB, "peer-b")

	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1000)))
	cidHash := hashOf(9)
	_, err := eng.RequestPin(payer, cidHash, 1<<20, 1, big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, eng.AssignAndPin())

	_, err = eng.MarkPinned(opB, cidHash)
	require.ErrorIs(t, err, storagecoord.ErrOperatorNotAssigned)
}

func TestRequestPinForDeceasedRequiresOwnership(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	owner := types.AccountID{1}
	stranger := types.AccountID{2}
	eng.SetSubjectOwner(&stubSubjectOwner{owner: owner})

	_, err := eng.RequestPinForDeceased(stranger, 42, hashOf(9), 1<<20, 1, big.NewInt(10), 1000)
	require.ErrorIs(t, err, storagecoord.ErrNotSubjectOwner)

	_, err = mgr.GetAccount(owner)
	require.NoError(t, err)
}

func TestChargeDueAdvancesActiveOnSufficientBalance(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	eng.SetTreasury(types.AccountID{}) // isolate the balance check from the one-time request fee
	owner := types.AccountID{1}
	eng.SetSubjectOwner(&stubSubjectOwner{owner: owner})

	subjectID := uint64(42)
	rec, err := eng.RequestPinForDeceased(owner, subjectID, hashOf(9), 1<<30, 1, big.NewInt(1), 100)
	require.NoError(t, err)
	require.Equal(t, storagecoord.BillingStateActive, rec.BillingState)

	subjectAccount := rec.Payer
	require.NoError(t, mgr.Credit(subjectAccount, new(big.Int).Mul(big.NewInt(100), types.UNIT)))

	charged, err := eng.ChargeDue(rec.NextCharge, 10)
	require.NoError(t, err)
	require.Equal(t, 1, charged)

	updated, err := eng.Get(hashOf(9))
	require.NoError(t, err)
	require.Equal(t, storagecoord.BillingStateActive, updated.BillingState)
	require.True(t, updated.NextCharge > rec.NextCharge)
}

func TestChargeDueMovesActiveToGraceOnInsufficientBalance(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	eng.SetTreasury(types.AccountID{}) // isolate the balance check from the one-time request fee
	owner := types.AccountID{1}
	eng.SetSubjectOwner(&stubSubjectOwner{owner: owner})

	subjectID := uint64(42)
	params := storagecoord.DefaultParams()
	require.NoError(t, eng.SetParams(params))
	rec, err := eng.RequestPinForDeceased(owner, subjectID, hashOf(9), 1<<30, 1, big.NewInt(1), 100)
	require.NoError(t, err)

	_ = mgr // subject account left with zero balance: insufficient after min reserve

	charged, err := eng.ChargeDue(rec.NextCharge, 10)
	require.NoError(t, err)
	require.Equal(t, 1, charged)

	updated, err := eng.Get(hashOf(9))
	require.NoError(t, err)
	require.Equal(t, storagecoord.BillingStateGrace, updated.BillingState)
}

func TestLeaveOperatorRefusedWhileAssigned(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	opA := types.AccountID{10}
	joinOperator(t, mgr, eng, opA, "peer-a")

	payer := types.AccountID{1}
	require.NoError(t, mgr.Credit(payer, big.NewInt(1000)))
	cidHash := hashOf(9)
	_, err := eng.RequestPin(payer, cidHash, 1<<20, 1, big.NewInt(100))
	require.NoError(t, err)
	require.NoError(t, eng.AssignAndPin())

	err = eng.LeaveOperator(opA)
	require.ErrorIs(t, err, storagecoord.ErrOperatorStillAssigned)
}

func TestLeaveOperatorSucceedsWhenUnassigned(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	opA := types.AccountID{10}
	joinOperator(t, mgr, eng, opA, "peer-a")

	require.NoError(t, eng.LeaveOperator(opA))

	opAcct, err := mgr.GetAccount(opA)
	require.NoError(t, err)
	require.Equal(t, 0, opAcct.Balance.Cmp(new(big.Int).Mul(big.NewInt(1000), types.UNIT)))
}

func TestJoinOperatorRejectsBondBelowMinimum(t *testing.T) {
	mgr, eng, _ := newFixture(t)
	id := types.AccountID{10}
	require.NoError(t, mgr.Credit(id, big.NewInt(1000)))
	_, err := eng.JoinOperator(id, "peer-a", 100, hashOf(1), nil, big.NewInt(1))
	require.ErrorIs(t, err, storagecoord.ErrBondTooLow)
}
