package rbac

import "context"

// PermissionRepository owns the canonical permission registry.
type PermissionRepository interface {
	// List returns all permissions in insertion order.
	List(ctx context.Context) ([]Permission, error)
	// Create persists a new permission. Returns ErrConflict when the code is
	// already registered (case-sensitive exact match).
	Create(ctx context.Context, code, description string) (Permission, error)
}

// PermissionLookup is the accessor other stores use to validate codes without
// reaching into the permission registry's internals.
type PermissionLookup interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// RoleRepository owns roles and the current snapshot of each role's
// permission set.
type RoleRepository interface {
	// List returns all roles in insertion order.
	List(ctx context.Context) ([]Role, error)
	// Create persists a new role with an empty permission set. Returns
	// ErrConflict on a duplicate name.
	Create(ctx context.Context, name, description string) (Role, error)
	// Get returns a role by ID or ErrNotFound.
	Get(ctx context.Context, id int64) (Role, error)
	// Grant adds a permission code to the role's set. Idempotent. Returns
	// ErrNotFound when the role is unknown or the code is not registered.
	Grant(ctx context.Context, roleID int64, code string) error
	// Revoke removes a permission code from the role's set. Revoking an
	// ungranted code is a no-op. Returns ErrNotFound for an unknown role.
	Revoke(ctx context.Context, roleID int64, code string) error
	// Permissions returns the role's granted codes, sorted. Returns
	// ErrNotFound for an unknown role.
	Permissions(ctx context.Context, roleID int64) ([]string, error)
}

// RoleLookup is the accessor the assignment store uses to validate role IDs.
type RoleLookup interface {
	RoleExists(ctx context.Context, id int64) (bool, error)
}

// AssignmentRepository owns the user-to-role relation.
type AssignmentRepository interface {
	// Assign adds (userID, roleID) to the relation. Idempotent. Returns
	// ErrNotFound when the role is unknown.
	Assign(ctx context.Context, userID string, roleID int64) error
	// Unassign removes the pair. Removing a missing pair is a no-op.
	Unassign(ctx context.Context, userID string, roleID int64) error
	// RolesOf returns the IDs of roles held by the user, sorted. A user with
	// no assignments yields an empty slice, not an error.
	RolesOf(ctx context.Context, userID string) ([]int64, error)
}
