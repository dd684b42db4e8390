package evidence_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/evidence"
	"stardust/native/govorigin"
	"stardust/storage"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)
	return mgr
}

func newEngine(t *testing.T) (*evidence.Engine, *state.Manager) {
	t.Helper()
	mgr := newManager(t)
	eng := evidence.NewEngine()
	eng.SetState(mgr)
	return eng, mgr
}

func TestCommitPersistsCanonicalCID(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}

	record, err := eng.Commit(creator, "memorial", 7, []string{"cid-bundle", "cid-img-1"}, "in memory")
	require.NoError(t, err)
	require.Equal(t, "cid-bundle", record.ContentCID)
	require.Equal(t, uint64(7), record.TargetID)

	got, err := eng.Get(record.ID)
	require.NoError(t, err)
	require.Equal(t, record.ContentCID, got.ContentCID)
}

func TestCommitRejectsDuplicateCIDWithinInput(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}

	_, err := eng.Commit(creator, "memorial", 7, []string{"cid-a", "cid-a"}, "")
	require.ErrorIs(t, err, evidence.ErrDuplicateCID)
}

func TestCommitEnforcesSlidingWindowRateLimit(t *testing.T) {
	eng, _ := newEngine(t)
	eng.SetParams(evidence.Params{WindowBlocks: 100, MaxPerWindow: 2, MaxCIDLen: 256, MaxPerTarget: 1000})
	creator := types.AccountID{1}

	_, err := eng.Commit(creator, "memorial", 1, []string{"cid-1"}, "")
	require.NoError(t, err)
	_, err = eng.Commit(creator, "memorial", 1, []string{"cid-2"}, "")
	require.NoError(t, err)
	_, err = eng.Commit(creator, "memorial", 1, []string{"cid-3"}, "")
	require.ErrorIs(t, err, evidence.ErrRateLimited)
}

func TestCommitWindowResetsAfterBlocksElapse(t *testing.T) {
	eng, _ := newEngine(t)
	eng.SetParams(evidence.Params{WindowBlocks: 10, MaxPerWindow: 1, MaxCIDLen: 256, MaxPerTarget: 1000})
	var now types.BlockNumber
	eng.SetNowFunc(func() types.BlockNumber { return now })
	creator := types.AccountID{1}

	_, err := eng.Commit(creator, "memorial", 1, []string{"cid-1"}, "")
	require.NoError(t, err)
	_, err = eng.Commit(creator, "memorial", 1, []string{"cid-2"}, "")
	require.ErrorIs(t, err, evidence.ErrRateLimited)

	now = 11
	_, err = eng.Commit(creator, "memorial", 1, []string{"cid-3"}, "")
	require.NoError(t, err)
}

func TestCommitHashReplayProtection(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}
	var commit [32]byte
	commit[0] = 0xAB

	_, err := eng.CommitHash(creator, "memorial", 9, commit, "")
	require.NoError(t, err)

	_, err = eng.CommitHash(creator, "other-ns", 1, commit, "")
	require.ErrorIs(t, err, evidence.ErrCommitExists)
}

func TestLinkAndUnlinkRoundTrip(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}

	record, err := eng.Commit(creator, "memorial", 1, []string{"cid-1"}, "")
	require.NoError(t, err)

	require.NoError(t, eng.Link(creator, "memorial", 42, record.ID))
	got, err := eng.Get(record.ID)
	require.NoError(t, err)
	require.Contains(t, got.LinkedTo, uint64(42))

	require.NoError(t, eng.Unlink(creator, "memorial", 42, record.ID))
	got, err = eng.Get(record.ID)
	require.NoError(t, err)
	require.NotContains(t, got.LinkedTo, uint64(42))
}

func TestLinkRejectsNamespaceMismatch(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}

	record, err := eng.Commit(creator, "memorial", 1, []string{"cid-1"}, "")
	require.NoError(t, err)

	err = eng.Link(creator, "divination", 42, record.ID)
	require.ErrorIs(t, err, evidence.ErrNamespaceMismatch)
}

func TestRotateContentKeysBumpsRoundAndHash(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}

	content, err := eng.StoreContent(creator, "memorial", 1, "cid-v1", "aes-256-gcm",
		evidence.AccessPolicy{Kind: evidence.AccessOwnerOnly}, nil)
	require.NoError(t, err)
	firstHash := content.ContentHash

	rotated, err := eng.RotateContentKeys(creator, content.ContentID, "cid-v2",
		[]evidence.EncryptedKeyEntry{{Account: types.AccountID{2}, Bundle: []byte("wrapped")}})
	require.NoError(t, err)
	require.NotEqual(t, firstHash, rotated.ContentHash)
	require.Equal(t, "cid-v2", rotated.CID)

	other := types.AccountID{5}
	_, err = eng.RotateContentKeys(other, content.ContentID, "cid-v3", nil)
	require.ErrorIs(t, err, evidence.ErrNotCreator)
}

func TestCanAccessSharedWithPolicy(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}
	shared := types.AccountID{2}
	stranger := types.AccountID{3}

	content, err := eng.StoreContent(creator, "memorial", 1, "cid-1", "aes-256-gcm",
		evidence.AccessPolicy{Kind: evidence.AccessSharedWith, SharedWith: []types.AccountID{shared}}, nil)
	require.NoError(t, err)

	require.True(t, eng.CanAccess(shared, govorigin.KindSigned, content))
	require.False(t, eng.CanAccess(stranger, govorigin.KindSigned, content))
}

func TestCanAccessTimeboxedExpiresAfterDeadline(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}
	invitee := types.AccountID{2}
	var now types.BlockNumber
	eng.SetNowFunc(func() types.BlockNumber { return now })

	content, err := eng.StoreContent(creator, "memorial", 1, "cid-1", "aes-256-gcm", evidence.AccessPolicy{
		Kind:              evidence.AccessTimeboxed,
		TimeboxedUsers:    []types.AccountID{invitee},
		TimeboxedExpireAt: 100,
	}, nil)
	require.NoError(t, err)

	require.True(t, eng.CanAccess(invitee, govorigin.KindSigned, content))
	now = 101
	require.False(t, eng.CanAccess(invitee, govorigin.KindSigned, content))
}

func TestCanAccessGovernanceControlledRequiresCouncilOrigin(t *testing.T) {
	eng, _ := newEngine(t)
	creator := types.AccountID{1}
	caller := types.AccountID{2}

	content, err := eng.StoreContent(creator, "memorial", 1, "cid-1", "aes-256-gcm",
		evidence.AccessPolicy{Kind: evidence.AccessGovernanceControlled}, nil)
	require.NoError(t, err)

	require.False(t, eng.CanAccess(caller, govorigin.KindSigned, content))
	require.True(t, eng.CanAccess(caller, govorigin.KindCouncil, content))
	require.True(t, eng.CanAccess(caller, govorigin.KindRoot, content))
}
