package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stardust/core/state"
	"stardust/core/types"
	"stardust/native/registry"
	"stardust/storage"
)

func newFixture(t *testing.T) *registry.Engine {
	t.Helper()
	mgr, err := state.New(storage.NewMemDB(), nil)
	require.NoError(t, err)
	eng := registry.NewEngine()
	eng.SetState(mgr)
	return eng
}

func TestRegisterAndOwnerOf(t *testing.T) {
	eng := newFixture(t)
	owner := types.AccountID{1}
	require.NoError(t, eng.Register(registry.SubjectDeceased, 1, owner))

	got, err := eng.OwnerOf(registry.SubjectDeceased, 1)
	require.NoError(t, err)
	require.Equal(t, owner, got)

	err = eng.Register(registry.SubjectDeceased, 1, owner)
	require.ErrorIs(t, err, registry.ErrAlreadyExists)
}

func TestAdminDefaultsToOwner(t *testing.T) {
	eng := newFixture(t)
	owner := types.AccountID{1}
	admin := types.AccountID{2}
	require.NoError(t, eng.Register(registry.SubjectGrave, 5, owner))

	isAdmin, err := eng.IsAdmin(registry.SubjectGrave, 5, owner)
	require.NoError(t, err)
	require.True(t, isAdmin)

	isAdmin, err = eng.IsAdmin(registry.SubjectGrave, 5, admin)
	require.NoError(t, err)
	require.False(t, isAdmin)

	require.NoError(t, eng.SetAdmin(registry.SubjectGrave, 5, admin))
	isAdmin, err = eng.IsAdmin(registry.SubjectGrave, 5, admin)
	require.NoError(t, err)
	require.True(t, isAdmin)
}

func TestFamilyMembership(t *testing.T) {
	eng := newFixture(t)
	member := types.AccountID{3}
	isFamily, err := eng.IsFamilyMember(registry.SubjectDeceased, 9, member)
	require.NoError(t, err)
	require.False(t, isFamily)

	require.NoError(t, eng.AddFamilyMember(registry.SubjectDeceased, 9, member))
	isFamily, err = eng.IsFamilyMember(registry.SubjectDeceased, 9, member)
	require.NoError(t, err)
	require.True(t, isFamily)
}

func TestRolesAndSelfBinding(t *testing.T) {
	eng := newFixture(t)
	account := types.AccountID{4}

	has, err := eng.HasRole(account, "ROLE_FAMILY_ADMIN")
	require.NoError(t, err)
	require.False(t, has)
	require.NoError(t, eng.GrantRole(account, "ROLE_FAMILY_ADMIN"))
	has, err = eng.HasRole(account, "ROLE_FAMILY_ADMIN")
	require.NoError(t, err)
	require.True(t, has)

	_, ok, err := eng.SelfUserID(account)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, eng.BindUserAccount(account, 77))
	id, ok, err := eng.SelfUserID(account)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(77), id)
}

func TestCIDAliasRoundTrip(t *testing.T) {
	eng := newFixture(t)
	hash := [32]byte{9, 9, 9}
	_, ok := eng.ResolveCIDAlias(hash)
	require.False(t, ok)

	require.NoError(t, eng.PutCIDAlias(hash, "bafy-test"))
	cid, ok := eng.ResolveCIDAlias(hash)
	require.True(t, ok)
	require.Equal(t, "bafy-test", cid)
}
