package postgres

import (
	"context"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
)

type permissionsRepo struct {
	q querier
}

func (r *permissionsRepo) ResolveRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	names := []string{}
	err := r.q.SelectContext(ctx, &names, `
		SELECT p.name FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND p.active
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *permissionsRepo) CreateRole(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.q.QueryRowxContext(ctx,
		`INSERT INTO roles (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *permissionsRepo) FindRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	err := r.q.QueryRowxContext(ctx,
		`SELECT id, name, created_at FROM roles WHERE name = $1`, name,
	).Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, name string, active bool) (int64, error) {
	var id int64
	err := r.q.QueryRowxContext(ctx,
		`INSERT INTO permissions (name, active) VALUES ($1, $2) RETURNING id`, name, active,
	).Scan(&id)
	if err != nil {
		return 0, mapConstraint(err)
	}
	return id, nil
}

func (r *permissionsRepo) FindPermissionByName(ctx context.Context, name string) (domain.Permission, error) {
	var p domain.Permission
	err := r.q.QueryRowxContext(ctx,
		`SELECT id, name, active, created_at FROM permissions WHERE name = $1`, name,
	).Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) SetPermissionActive(ctx context.Context, permissionID int64, active bool) error {
	return requireAffected(r.q.ExecContext(ctx,
		`UPDATE permissions SET active = $1 WHERE id = $2`, active, permissionID))
}

func (r *permissionsRepo) GrantPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, roleID, permissionID)
	return mapConstraint(err)
}

func (r *permissionsRepo) RevokePermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}
