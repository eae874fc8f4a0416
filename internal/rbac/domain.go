// Package rbac implements the role-based access control domain: the canonical
// permission registry, roles with granted permission sets, user-to-role
// assignments, and the permission transfer workflow between roles.
package rbac

import "time"

// Permission is an atomic, named capability identified by a unique code.
type Permission struct {
	ID          int64
	Code        string
	Description string
	CreatedAt   time.Time
}

// Role is a named, reusable bundle of permissions. The permission set is
// owned by the role store and mutated only through grant/revoke operations.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assignment grants a role to a user. A (user, role) pair is a set member at
// most once; users may hold any number of roles.
type Assignment struct {
	UserID    string
	RoleID    int64
	CreatedAt time.Time
}
