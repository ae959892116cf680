package service

import (
	"context"
	"slices"

	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/tracex"
)

// PermissionResolver turns a role into the permission snapshot embedded in
// session tokens. It is only consulted at login and refresh.
type PermissionResolver struct {
	Store store.Store
}

// Resolve returns the sorted, de-duplicated names of the role's active
// permissions. A role with none resolves to an empty, non-nil slice.
func (r *PermissionResolver) Resolve(ctx context.Context, roleID int64) ([]string, error) {
	ctx, span := tracex.StartStoreSpan(ctx, "resolve_role_permissions")
	names, err := r.Store.Permissions().ResolveRolePermissions(ctx, roleID)
	tracex.EndSpan(span, err)
	if err != nil {
		return nil, unavailable("resolve role permissions", err)
	}

	out := slices.Clone(names)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
