package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

type permissionsRepo struct {
	db dbtx
}

// ResolveRolePermissions filters on the permission's active flag, not the
// grant, so deactivating a permission hides it from every role at once.
func (r *permissionsRepo) ResolveRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.name FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = ? AND p.active = 1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *permissionsRepo) CreateRole(ctx context.Context, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (name, created_at) VALUES (?, ?)`, name, toMillis(time.Now()))
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *permissionsRepo) FindRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var (
		role      domain.Role
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM roles WHERE name = ?`, name,
	).Scan(&role.ID, &role.Name, &createdAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	role.CreatedAt = fromMillis(createdAt)
	return role, nil
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, name string, active bool) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO permissions (name, active, created_at) VALUES (?, ?, ?)`,
		name, active, toMillis(time.Now()))
	if err != nil {
		return 0, mapConstraint(err)
	}
	return res.LastInsertId()
}

func (r *permissionsRepo) FindPermissionByName(ctx context.Context, name string) (domain.Permission, error) {
	var (
		p         domain.Permission
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, active, created_at FROM permissions WHERE name = ?`, name,
	).Scan(&p.ID, &p.Name, &p.Active, &createdAt)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	p.CreatedAt = fromMillis(createdAt)
	return p, nil
}

func (r *permissionsRepo) SetPermissionActive(ctx context.Context, permissionID int64, active bool) error {
	return requireAffected(r.db.ExecContext(ctx,
		`UPDATE permissions SET active = ? WHERE id = ?`, active, permissionID))
}

func (r *permissionsRepo) GrantPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)`,
		roleID, permissionID)
	return err
}

func (r *permissionsRepo) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?`,
		roleID, permissionID)
	return err
}
