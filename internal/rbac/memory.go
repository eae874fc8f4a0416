package rbac

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryPermissions is a mutex-guarded, in-memory PermissionRepository. Each
// operation is atomic with respect to the registry.
type MemoryPermissions struct {
	mu     sync.Mutex
	nextID int64
	byCode map[string]struct{}
	perms  []Permission
}

// NewMemoryPermissions constructs an empty in-memory permission registry.
func NewMemoryPermissions() *MemoryPermissions {
	return &MemoryPermissions{nextID: 1, byCode: make(map[string]struct{})}
}

// List implements PermissionRepository.
func (m *MemoryPermissions) List(ctx context.Context) ([]Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Permission, len(m.perms))
	copy(out, m.perms)
	return out, nil
}

// Create implements PermissionRepository.
func (m *MemoryPermissions) Create(ctx context.Context, code, description string) (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[code]; ok {
		return Permission{}, fmt.Errorf("%w: permission code %q already exists", ErrConflict, code)
	}
	perm := Permission{
		ID:          m.nextID,
		Code:        code,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	m.nextID++
	m.byCode[code] = struct{}{}
	m.perms = append(m.perms, perm)
	return perm, nil
}

// Exists implements PermissionLookup.
func (m *MemoryPermissions) Exists(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byCode[code]
	return ok, nil
}

// MemoryRoles is a mutex-guarded, in-memory RoleRepository. Permission codes
// are validated through the PermissionLookup accessor, never by reading the
// registry's internal collections.
type MemoryRoles struct {
	mu     sync.Mutex
	perms  PermissionLookup
	nextID int64
	byName map[string]struct{}
	roles  []Role
	grants map[int64]map[string]struct{}
}

// NewMemoryRoles constructs an empty in-memory role store.
func NewMemoryRoles(perms PermissionLookup) *MemoryRoles {
	return &MemoryRoles{
		perms:  perms,
		nextID: 1,
		byName: make(map[string]struct{}),
		grants: make(map[int64]map[string]struct{}),
	}
}

// List implements RoleRepository.
func (m *MemoryRoles) List(ctx context.Context) ([]Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Role, len(m.roles))
	copy(out, m.roles)
	return out, nil
}

// Create implements RoleRepository.
func (m *MemoryRoles) Create(ctx context.Context, name, description string) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[name]; ok {
		return Role{}, fmt.Errorf("%w: role name %q already exists", ErrConflict, name)
	}
	now := time.Now().UTC()
	role := Role{
		ID:          m.nextID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.nextID++
	m.byName[name] = struct{}{}
	m.roles = append(m.roles, role)
	m.grants[role.ID] = make(map[string]struct{})
	return role, nil
}

// Get implements RoleRepository.
func (m *MemoryRoles) Get(ctx context.Context, id int64) (Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, role := range m.roles {
		if role.ID == id {
			return role, nil
		}
	}
	return Role{}, fmt.Errorf("%w: role %d", ErrNotFound, id)
}

// Grant implements RoleRepository.
func (m *MemoryRoles) Grant(ctx context.Context, roleID int64, code string) error {
	ok, err := m.perms.Exists(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: permission code %q", ErrNotFound, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.grants[roleID]
	if !ok {
		return fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	set[code] = struct{}{}
	return nil
}

// Revoke implements RoleRepository.
func (m *MemoryRoles) Revoke(ctx context.Context, roleID int64, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.grants[roleID]
	if !ok {
		return fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	delete(set, code)
	return nil
}

// Permissions implements RoleRepository.
func (m *MemoryRoles) Permissions(ctx context.Context, roleID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.grants[roleID]
	if !ok {
		return nil, fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes, nil
}

// RoleExists implements RoleLookup.
func (m *MemoryRoles) RoleExists(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.grants[id]
	return ok, nil
}

// MemoryAssignments is a mutex-guarded, in-memory AssignmentRepository. Role
// existence is validated through the RoleLookup accessor.
type MemoryAssignments struct {
	mu     sync.Mutex
	roles  RoleLookup
	byUser map[string]map[int64]struct{}
}

// NewMemoryAssignments constructs an empty in-memory assignment store.
func NewMemoryAssignments(roles RoleLookup) *MemoryAssignments {
	return &MemoryAssignments{roles: roles, byUser: make(map[string]map[int64]struct{})}
}

// Assign implements AssignmentRepository.
func (m *MemoryAssignments) Assign(ctx context.Context, userID string, roleID int64) error {
	ok, err := m.roles.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.byUser[userID]
	if !ok {
		set = make(map[int64]struct{})
		m.byUser[userID] = set
	}
	set[roleID] = struct{}{}
	return nil
}

// Unassign implements AssignmentRepository.
func (m *MemoryAssignments) Unassign(ctx context.Context, userID string, roleID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.byUser[userID]; ok {
		delete(set, roleID)
	}
	return nil
}

// RolesOf implements AssignmentRepository.
func (m *MemoryAssignments) RolesOf(ctx context.Context, userID string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.byUser[userID]
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
