package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetgate/fleetgate/internal/platform/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// PostgresPermissions is the PostgreSQL-backed PermissionRepository.
type PostgresPermissions struct {
	pool *pgxpool.Pool
}

// NewPostgresPermissions constructs a permission repository over the pool.
func NewPostgresPermissions(pool *pgxpool.Pool) *PostgresPermissions {
	return &PostgresPermissions{pool: pool}
}

// List implements PermissionRepository.
func (r *PostgresPermissions) List(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, description, created_at FROM permissions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Code, &perm.Description, &perm.CreatedAt); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		perms = append(perms, perm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: list permissions: %w", err)
	}
	return perms, nil
}

// Create implements PermissionRepository.
func (r *PostgresPermissions) Create(ctx context.Context, code, description string) (Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (code, description) VALUES ($1, $2) RETURNING id, code, description, created_at`,
		code, description,
	).Scan(&perm.ID, &perm.Code, &perm.Description, &perm.CreatedAt)
	if err != nil {
		if pgErrorCode(err, pgUniqueViolation) {
			return Permission{}, fmt.Errorf("%w: permission code %q already exists", ErrConflict, code)
		}
		return Permission{}, fmt.Errorf("rbac: create permission: %w", err)
	}
	return perm, nil
}

// Exists implements PermissionLookup.
func (r *PostgresPermissions) Exists(ctx context.Context, code string) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM permissions WHERE code = $1`, code).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("rbac: permission exists: %w", err)
	}
	return true, nil
}

// PostgresRoles is the PostgreSQL-backed RoleRepository.
type PostgresRoles struct {
	pool *pgxpool.Pool
}

// NewPostgresRoles constructs a role repository over the pool.
func NewPostgresRoles(pool *pgxpool.Pool) *PostgresRoles {
	return &PostgresRoles{pool: pool}
}

// List implements RoleRepository.
func (r *PostgresRoles) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, fmt.Errorf("rbac: scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: list roles: %w", err)
	}
	return roles, nil
}

// Create implements RoleRepository.
func (r *PostgresRoles) Create(ctx context.Context, name, description string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2) RETURNING id, name, description, created_at, updated_at`,
		name, description,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if pgErrorCode(err, pgUniqueViolation) {
			return Role{}, fmt.Errorf("%w: role name %q already exists", ErrConflict, name)
		}
		return Role{}, fmt.Errorf("rbac: create role: %w", err)
	}
	return role, nil
}

// Get implements RoleRepository.
func (r *PostgresRoles) Get(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`, id,
	).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("%w: role %d", ErrNotFound, id)
		}
		return Role{}, fmt.Errorf("rbac: get role: %w", err)
	}
	return role, nil
}

// Grant implements RoleRepository. The lookup and insert run in one
// transaction so a concurrent permission delete cannot slip between them.
func (r *PostgresRoles) Grant(ctx context.Context, roleID int64, code string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := roleExistsTx(ctx, tx, roleID); err != nil {
			return err
		}
		var permissionID int64
		err := tx.QueryRow(ctx, `SELECT id FROM permissions WHERE code = $1`, code).Scan(&permissionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: permission code %q", ErrNotFound, code)
			}
			return fmt.Errorf("rbac: lookup permission: %w", err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, permissionID,
		)
		if err != nil {
			return fmt.Errorf("rbac: grant permission: %w", err)
		}
		return nil
	})
}

// Revoke implements RoleRepository.
func (r *PostgresRoles) Revoke(ctx context.Context, roleID int64, code string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := roleExistsTx(ctx, tx, roleID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`DELETE FROM role_permissions rp USING permissions p
			 WHERE rp.role_id = $1 AND rp.permission_id = p.id AND p.code = $2`,
			roleID, code,
		)
		if err != nil {
			return fmt.Errorf("rbac: revoke permission: %w", err)
		}
		return nil
	})
}

// Permissions implements RoleRepository.
func (r *PostgresRoles) Permissions(ctx context.Context, roleID int64) ([]string, error) {
	if _, err := r.Get(ctx, roleID); err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT p.code FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 ORDER BY p.code`,
		roleID,
	)
	if err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("rbac: scan code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: role permissions: %w", err)
	}
	return codes, nil
}

// RoleExists implements RoleLookup.
func (r *PostgresRoles) RoleExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM roles WHERE id = $1`, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("rbac: role exists: %w", err)
	}
	return true, nil
}

func roleExistsTx(ctx context.Context, tx pgx.Tx, roleID int64) error {
	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM roles WHERE id = $1`, roleID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: role %d", ErrNotFound, roleID)
		}
		return fmt.Errorf("rbac: lookup role: %w", err)
	}
	return nil
}

// PostgresAssignments is the PostgreSQL-backed AssignmentRepository.
type PostgresAssignments struct {
	pool *pgxpool.Pool
}

// NewPostgresAssignments constructs an assignment repository over the pool.
func NewPostgresAssignments(pool *pgxpool.Pool) *PostgresAssignments {
	return &PostgresAssignments{pool: pool}
}

// Assign implements AssignmentRepository. The composite primary key plus
// ON CONFLICT DO NOTHING gives set semantics and idempotence; a foreign key
// violation means the role does not exist.
func (r *PostgresAssignments) Assign(ctx context.Context, userID string, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID,
	)
	if err != nil {
		if pgErrorCode(err, pgForeignKeyViolation) {
			return fmt.Errorf("%w: role %d", ErrNotFound, roleID)
		}
		return fmt.Errorf("rbac: assign role: %w", err)
	}
	return nil
}

// Unassign implements AssignmentRepository.
func (r *PostgresAssignments) Unassign(ctx context.Context, userID string, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID, roleID,
	)
	if err != nil {
		return fmt.Errorf("rbac: unassign role: %w", err)
	}
	return nil
}

// RolesOf implements AssignmentRepository.
func (r *PostgresAssignments) RolesOf(ctx context.Context, userID string) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: roles of user: %w", err)
	}
	defer rows.Close()
	ids := make([]int64, 0, 4)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("rbac: scan role id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: roles of user: %w", err)
	}
	return ids, nil
}
