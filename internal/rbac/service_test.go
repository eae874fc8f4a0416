package rbac

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryPermissions, *MemoryRoles, *MemoryAssignments) {
	t.Helper()
	perms := NewMemoryPermissions()
	roles := NewMemoryRoles(perms)
	assignments := NewMemoryAssignments(roles)
	return NewService(perms, roles, assignments, nil), perms, roles, assignments
}

func TestCreatePermission(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	perm, err := svc.CreatePermission(ctx, "vehicles.view", "View the fleet")
	require.NoError(t, err)
	assert.Equal(t, "vehicles.view", perm.Code)
	assert.NotZero(t, perm.ID)
}

func TestCreatePermissionDuplicate(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "X", "")
	require.NoError(t, err)

	_, err = svc.CreatePermission(ctx, "X", "")
	assert.ErrorIs(t, err, ErrConflict)

	perms, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "X", perms[0].Code)
}

func TestCreatePermissionCaseSensitiveCodes(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "vehicles.view", "")
	require.NoError(t, err)
	_, err = svc.CreatePermission(ctx, "Vehicles.View", "")
	assert.NoError(t, err)
}

func TestCreatePermissionEmptyCode(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	for _, code := range []string{"", "   ", "\t"} {
		_, err := svc.CreatePermission(context.Background(), code, "")
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestListPermissionsInsertionOrder(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for _, code := range []string{"c", "a", "b"} {
		_, err := svc.CreatePermission(ctx, code, "")
		require.NoError(t, err)
	}
	perms, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = p.Code
	}
	assert.Equal(t, []string{"c", "a", "b"}, codes)
}

func TestCreateRole(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "ADMIN", "Full access")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", role.Name)

	codes, err := svc.EffectivePermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)

	_, err = svc.CreateRole(ctx, "ADMIN", "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.CreateRole(ctx, "  ", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGrantPermissionIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "X", "")
	require.NoError(t, err)
	role, err := svc.CreateRole(ctx, "ADMIN", "")
	require.NoError(t, err)

	require.NoError(t, svc.GrantPermission(ctx, role.ID, "X"))
	require.NoError(t, svc.GrantPermission(ctx, role.ID, "X"))

	codes, err := svc.EffectivePermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, codes)
}

func TestGrantPermissionUnknownReferences(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "ADMIN", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.GrantPermission(ctx, role.ID, "nope"), ErrNotFound)
	assert.ErrorIs(t, svc.GrantPermission(ctx, 999, "nope"), ErrNotFound)
}

func TestRevokePermissionIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "X", "")
	require.NoError(t, err)
	role, err := svc.CreateRole(ctx, "ADMIN", "")
	require.NoError(t, err)
	require.NoError(t, svc.GrantPermission(ctx, role.ID, "X"))

	require.NoError(t, svc.RevokePermission(ctx, role.ID, "X"))
	require.NoError(t, svc.RevokePermission(ctx, role.ID, "X"))

	codes, err := svc.EffectivePermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestEffectivePermissionsUnknownRole(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.EffectivePermissions(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignRole(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "ADMIN", "")
	require.NoError(t, err)

	require.NoError(t, svc.AssignRole(ctx, "user-1", role.ID))
	require.NoError(t, svc.AssignRole(ctx, "user-1", role.ID))

	roleIDs, err := svc.RolesOf(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{role.ID}, roleIDs)

	assert.ErrorIs(t, svc.AssignRole(ctx, "user-1", 999), ErrNotFound)
	assert.ErrorIs(t, svc.AssignRole(ctx, "", role.ID), ErrValidation)
}

func TestUnassignRoleIdempotent(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, "ADMIN", "")
	require.NoError(t, err)

	require.NoError(t, svc.UnassignRole(ctx, "user-1", role.ID))
	require.NoError(t, svc.AssignRole(ctx, "user-1", role.ID))
	require.NoError(t, svc.UnassignRole(ctx, "user-1", role.ID))

	roleIDs, err := svc.RolesOf(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, roleIDs)
}

func TestEffectivePermissionsOfUnionsRoles(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	for _, code := range []string{"A", "B"} {
		_, err := svc.CreatePermission(ctx, code, "")
		require.NoError(t, err)
	}
	r1, err := svc.CreateRole(ctx, "R1", "")
	require.NoError(t, err)
	r2, err := svc.CreateRole(ctx, "R2", "")
	require.NoError(t, err)
	require.NoError(t, svc.GrantPermission(ctx, r1.ID, "A"))
	require.NoError(t, svc.GrantPermission(ctx, r2.ID, "B"))

	require.NoError(t, svc.AssignRole(ctx, "user-1", r1.ID))
	require.NoError(t, svc.AssignRole(ctx, "user-1", r2.ID))

	codes, err := svc.EffectivePermissionsOf(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, codes)

	require.NoError(t, svc.UnassignRole(ctx, "user-1", r1.ID))
	codes, err = svc.EffectivePermissionsOf(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, codes)
}

func TestEffectivePermissionsOfDeduplicates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePermission(ctx, "A", "")
	require.NoError(t, err)
	r1, err := svc.CreateRole(ctx, "R1", "")
	require.NoError(t, err)
	r2, err := svc.CreateRole(ctx, "R2", "")
	require.NoError(t, err)
	require.NoError(t, svc.GrantPermission(ctx, r1.ID, "A"))
	require.NoError(t, svc.GrantPermission(ctx, r2.ID, "A"))
	require.NoError(t, svc.AssignRole(ctx, "user-1", r1.ID))
	require.NoError(t, svc.AssignRole(ctx, "user-1", r2.ID))

	codes, err := svc.EffectivePermissionsOf(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, codes)
}

func TestEffectivePermissionsOfUserWithoutRoles(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	codes, err := svc.EffectivePermissionsOf(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestConcurrentGrantsDoNotLoseUpdates(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	codes := []string{"A", "B", "C", "D", "E"}
	for _, code := range codes {
		_, err := svc.CreatePermission(ctx, code, "")
		require.NoError(t, err)
	}
	role, err := svc.CreateRole(ctx, "ADMIN", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, code := range codes {
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				assert.NoError(t, svc.GrantPermission(ctx, role.ID, code))
			}(code)
		}
	}
	wg.Wait()

	granted, err := svc.EffectivePermissions(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, codes, granted)
}

// flakyRoles injects grant failures to exercise the partial transfer path.
type flakyRoles struct {
	RoleRepository
	grantsBeforeFailure int
	grants              int
}

func (f *flakyRoles) Grant(ctx context.Context, roleID int64, code string) error {
	if f.grants >= f.grantsBeforeFailure {
		return errors.New("store unavailable")
	}
	f.grants++
	return f.RoleRepository.Grant(ctx, roleID, code)
}
