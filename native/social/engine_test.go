package social_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/social"
	"stardust/storage"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)
	return mgr
}

type stubValidator struct {
	missing map[social.Target]bool
	admins  map[types.AccountID]bool
	selves  map[types.AccountID]social.Target
}

func newStubValidator() *stubValidator {
	return &stubValidator{
		missing: make(map[social.Target]bool),
		admins:  make(map[types.AccountID]bool),
		selves:  make(map[types.AccountID]social.Target),
	}
}

func (v *stubValidator) TargetExists(target social.Target) (bool, error) {
	return !v.missing[target], nil
}

func (v *stubValidator) IsTargetAdmin(caller types.AccountID, target social.Target) (bool, error) {
	return v.admins[caller], nil
}

func (v *stubValidator) IsSelfTarget(caller types.AccountID, target social.Target) (bool, error) {
	self, ok := v.selves[caller]
	return ok && self == target, nil
}

func newFixture(t *testing.T) (*social.Engine, *stubValidator) {
	t.Helper()
	mgr := newManager(t)
	eng := social.NewEngine()
	eng.SetState(mgr)
	validator := newStubValidator()
	eng.SetTargetValidator(validator)
	return eng, validator
}

func TestFollowAndUnfollowRoundTrip(t *testing.T) {
	eng, _ := newFixture(t)
	follower := types.AccountID{1}
	target := social.Target{Type: social.TargetDeceased, ID: 42}

	require.NoError(t, eng.Follow(follower, target))

	following, err := eng.Following(follower)
	require.NoError(t, err)
	require.Equal(t, []social.Target{target}, following)

	followers, err := eng.Followers(target)
	require.NoError(t, err)
	require.Equal(t, []types.AccountID{follower}, followers)

	count, err := eng.FollowingCount(follower)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	require.NoError(t, eng.Unfollow(follower, target))

	following, err = eng.Following(follower)
	require.NoError(t, err)
	require.Empty(t, following)

	count, err = eng.FollowingCount(follower)
	require.NoError(t, err)
	require.Equal(t, uint32(0), count)
}

func TestFollowRejectsDuplicate(t *testing.T) {
	eng, _ := newFixture(t)
	follower := types.AccountID{1}
	target := social.Target{Type: social.TargetUser, ID: 7}
	require.NoError(t, eng.Follow(follower, target))
	err := eng.Follow(follower, target)
	require.ErrorIs(t, err, social.ErrAlreadyFollowing)
}

func TestFollowRejectsSelf(t *testing.T) {
	eng, validator := newFixture(t)
	follower := types.AccountID{1}
	own := social.Target{Type: social.TargetUser, ID: 1}
	validator.selves[follower] = own

	err := eng.Follow(follower, own)
	require.ErrorIs(t, err, social.ErrCannotFollowSelf)
}

func TestFollowRejectsMissingTarget(t *testing.T) {
	eng, validator := newFixture(t)
	target := social.Target{Type: social.TargetGrave, ID: 3}
	validator.missing[target] = true

	err := eng.Follow(types.AccountID{1}, target)
	require.ErrorIs(t, err, social.ErrTargetNotFound)
}

func TestFollowEnforcesFollowingCap(t *testing.T) {
	eng, _ := newFixture(t)
	eng.SetParams(social.Params{MaxFollowingPerUser: 1, MaxFollowersPerTarget: 1000})
	follower := types.AccountID{1}
	require.NoError(t, eng.Follow(follower, social.Target{Type: social.TargetPet, ID: 1}))
	err := eng.Follow(follower, social.Target{Type: social.TargetPet, ID: 2})
	require.ErrorIs(t, err, social.ErrFollowingCapReached)
}

func TestFollowEnforcesFollowersCap(t *testing.T) {
	eng, _ := newFixture(t)
	eng.SetParams(social.Params{MaxFollowingPerUser: 1000, MaxFollowersPerTarget: 1})
	target := social.Target{Type: social.TargetMemorial, ID: 9}
	require.NoError(t, eng.Follow(types.AccountID{1}, target))
	err := eng.Follow(types.AccountID{2}, target)
	require.ErrorIs(t, err, social.ErrFollowersCapReached)
}

func TestRemoveFollowerRequiresAdmin(t *testing.T) {
	eng, validator := newFixture(t)
	admin := types.AccountID{9}
	follower := types.AccountID{1}
	target := social.Target{Type: social.TargetDeceased, ID: 5}
	require.NoError(t, eng.Follow(follower, target))

	err := eng.RemoveFollower(admin, target, follower)
	require.ErrorIs(t, err, social.ErrNotTargetAdmin)

	validator.admins[admin] = true
	require.NoError(t, eng.RemoveFollower(admin, target, follower))

	followers, err := eng.Followers(target)
	require.NoError(t, err)
	require.Empty(t, followers)
}

func TestBatchFollowStopsAtFirstError(t *testing.T) {
	eng, validator := newFixture(t)
	follower := types.AccountID{1}
	missing := social.Target{Type: social.TargetGrave, ID: 2}
	validator.missing[missing] = true
	targets := []social.Target{
		{Type: social.TargetPet, ID: 1},
		missing,
		{Type: social.TargetPet, ID: 3},
	}
	err := eng.BatchFollow(follower, targets)
	require.ErrorIs(t, err, social.ErrTargetNotFound)

	following, err := eng.Following(follower)
	require.NoError(t, err)
	require.Len(t, following, 1)
}

func TestUpdateNotificationSettingDefaultsEnabled(t *testing.T) {
	eng, _ := newFixture(t)
	follower := types.AccountID{1}
	target := social.Target{Type: social.TargetUser, ID: 2}

	enabled, err := eng.NotificationSettingOf(follower, target)
	require.NoError(t, err)
	require.True(t, enabled)

	require.NoError(t, eng.UpdateNotificationSetting(follower, target, false))
	enabled, err = eng.NotificationSettingOf(follower, target)
	require.NoError(t, err)
	require.False(t, enabled)
}
