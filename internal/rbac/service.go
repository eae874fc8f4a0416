package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Service orchestrates the permission registry, role store, and assignment
// store. Input validation and the transfer workflow live here; each
// repository only guarantees atomicity for its own collection.
type Service struct {
	permissions PermissionRepository
	roles       RoleRepository
	assignments AssignmentRepository
	logger      *slog.Logger
}

// NewService constructs a Service over the three stores.
func NewService(permissions PermissionRepository, roles RoleRepository, assignments AssignmentRepository, logger *slog.Logger) *Service {
	return &Service{
		permissions: permissions,
		roles:       roles,
		assignments: assignments,
		logger:      logger,
	}
}

// ListPermissions returns all registered permissions in insertion order.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.permissions.List(ctx)
}

// CreatePermission registers a new permission code.
func (s *Service) CreatePermission(ctx context.Context, code, description string) (Permission, error) {
	if strings.TrimSpace(code) == "" {
		return Permission{}, fmt.Errorf("%w: permission code required", ErrValidation)
	}
	return s.permissions.Create(ctx, code, strings.TrimSpace(description))
}

// ListRoles returns all roles in insertion order.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.roles.List(ctx)
}

// CreateRole creates a role with an empty permission set.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name required", ErrValidation)
	}
	return s.roles.Create(ctx, name, strings.TrimSpace(description))
}

// GetRole returns a role by ID.
func (s *Service) GetRole(ctx context.Context, roleID int64) (Role, error) {
	return s.roles.Get(ctx, roleID)
}

// GrantPermission adds a registered permission code to a role. Granting an
// already-granted code is a no-op.
func (s *Service) GrantPermission(ctx context.Context, roleID int64, code string) error {
	return s.roles.Grant(ctx, roleID, code)
}

// RevokePermission removes a permission code from a role. Revoking an
// ungranted code is a no-op.
func (s *Service) RevokePermission(ctx context.Context, roleID int64, code string) error {
	return s.roles.Revoke(ctx, roleID, code)
}

// EffectivePermissions returns the role's granted codes.
func (s *Service) EffectivePermissions(ctx context.Context, roleID int64) ([]string, error) {
	return s.roles.Permissions(ctx, roleID)
}

// AssignRole grants a role to a user. Assigning twice is a no-op.
func (s *Service) AssignRole(ctx context.Context, userID string, roleID int64) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id required", ErrValidation)
	}
	return s.assignments.Assign(ctx, userID, roleID)
}

// UnassignRole removes a role from a user. Removing an absent pair is a no-op.
func (s *Service) UnassignRole(ctx context.Context, userID string, roleID int64) error {
	return s.assignments.Unassign(ctx, userID, roleID)
}

// RolesOf returns the role IDs currently held by the user.
func (s *Service) RolesOf(ctx context.Context, userID string) ([]int64, error) {
	return s.assignments.RolesOf(ctx, userID)
}

// EffectivePermissionsOf returns the set union of permissions across every
// role held by the user, sorted and deduplicated. A user with no roles gets
// an empty set, not an error.
func (s *Service) EffectivePermissionsOf(ctx context.Context, userID string) ([]string, error) {
	roleIDs, err := s.assignments.RolesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	union := make(map[string]struct{})
	for _, roleID := range roleIDs {
		codes, err := s.roles.Permissions(ctx, roleID)
		if err != nil {
			return nil, err
		}
		for _, code := range codes {
			union[code] = struct{}{}
		}
	}
	out := make([]string, 0, len(union))
	for code := range union {
		out = append(out, code)
	}
	sort.Strings(out)
	return out, nil
}

// TransferPermissions moves permission codes from the source role to the
// destination role as one logical operation. The whole batch is validated up
// front: both roles must exist and every code must currently be granted to
// the source, otherwise nothing is mutated. Execution revokes all codes from
// the source and then grants them to the destination, in the caller-supplied
// order. The two stores share no transaction: a failure after the first
// revoke surfaces as *PartialTransferError naming the codes left revoked but
// not granted, so the caller can repair with explicit grant/revoke calls.
func (s *Service) TransferPermissions(ctx context.Context, sourceRoleID, destRoleID int64, codes []string) error {
	codes = dedupeInOrder(codes)
	if len(codes) == 0 {
		return fmt.Errorf("%w: permission codes required", ErrValidation)
	}

	if _, err := s.roles.Get(ctx, sourceRoleID); err != nil {
		return err
	}
	if _, err := s.roles.Get(ctx, destRoleID); err != nil {
		return err
	}

	granted, err := s.roles.Permissions(ctx, sourceRoleID)
	if err != nil {
		return err
	}
	grantedSet := make(map[string]struct{}, len(granted))
	for _, code := range granted {
		grantedSet[code] = struct{}{}
	}
	var missing []string
	for _, code := range codes {
		if _, ok := grantedSet[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: codes not granted to source role: %s", ErrValidation, strings.Join(missing, ", "))
	}

	var revoked []string
	for _, code := range codes {
		if err := s.roles.Revoke(ctx, sourceRoleID, code); err != nil {
			if len(revoked) == 0 {
				return fmt.Errorf("rbac: transfer revoke %q: %w", code, err)
			}
			return s.partialFailure(sourceRoleID, destRoleID, revoked, err)
		}
		revoked = append(revoked, code)
	}

	for i, code := range codes {
		if err := s.roles.Grant(ctx, destRoleID, code); err != nil {
			return s.partialFailure(sourceRoleID, destRoleID, codes[i:], err)
		}
	}
	return nil
}

func (s *Service) partialFailure(sourceRoleID, destRoleID int64, ungranted []string, err error) error {
	pte := &PartialTransferError{
		SourceRoleID: sourceRoleID,
		DestRoleID:   destRoleID,
		Ungranted:    append([]string(nil), ungranted...),
		Err:          err,
	}
	if s.logger != nil {
		s.logger.Error("permission transfer incomplete",
			slog.Int64("source_role", sourceRoleID),
			slog.Int64("dest_role", destRoleID),
			slog.Any("ungranted", pte.Ungranted),
			slog.Any("error", err),
		)
	}
	return pte
}

func dedupeInOrder(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
