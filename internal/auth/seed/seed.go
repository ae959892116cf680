// Package seed provisions permissions, roles and users from a YAML file.
//
// The file is applied at every start, so each entry is created only when its
// name is not taken yet. Existing users are never modified.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/gatehouse/internal/auth/domain"
	"github.com/aussiebroadwan/gatehouse/internal/auth/store"
	"github.com/aussiebroadwan/gatehouse/pkg/cryptox"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

type File struct {
	Permissions []Permission `yaml:"permissions"`
	Roles       []Role       `yaml:"roles"`
	Users       []User       `yaml:"users"`
}

type Permission struct {
	Name string `yaml:"name"`

	// Active defaults to true. The flag is re-applied on every run.
	Active *bool `yaml:"active,omitempty"`
}

type Role struct {
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type User struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`

	// Exactly one of Password and PasswordHash. PasswordHash accepts an
	// argon2id PHC string or a legacy bcrypt hash.
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`

	Active          *bool  `yaml:"active,omitempty"`
	TwoFactorSecret string `yaml:"two_factor_secret,omitempty"`
}

// Load reads and validates a seed file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks the file for missing names and credentials. Role and
// permission references may point at entries that already exist in the
// store, so they are resolved in Apply.
func (f File) Validate() error {
	var errs []error
	for i, p := range f.Permissions {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("permissions[%d]: name is required", i))
		}
	}
	for i, r := range f.Roles {
		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, fmt.Errorf("roles[%d]: name is required", i))
		}
	}
	for i, u := range f.Users {
		switch {
		case strings.TrimSpace(u.Username) == "":
			errs = append(errs, fmt.Errorf("users[%d]: username is required", i))
		case strings.Contains(u.Username, "@"):
			errs = append(errs, fmt.Errorf("users[%d] %s: username must not contain @", i, u.Username))
		case u.Role == "":
			errs = append(errs, fmt.Errorf("users[%d] %s: role is required", i, u.Username))
		case (u.Password == "") == (u.PasswordHash == ""):
			errs = append(errs, fmt.Errorf("users[%d] %s: set exactly one of password and password_hash", i, u.Username))
		}
	}
	return errors.Join(errs...)
}

// Result counts the entries Apply created. Grants counts every grant
// applied, since granting is idempotent.
type Result struct {
	Permissions int
	Roles       int
	Grants      int
	Users       int
}

// Apply provisions f. Permissions, roles and grants are written in one
// transaction. Users are created afterwards one by one, since a duplicate
// insert aborts a Postgres transaction.
func Apply(ctx context.Context, st store.Store, f File) (Result, error) {
	var (
		res     Result
		roleIDs map[string]int64
	)
	err := st.WithTx(ctx, func(tx store.Tx) error {
		var err error
		roleIDs, err = applyRoles(ctx, tx.Permissions(), f, &res)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	for _, u := range f.Users {
		roleID, ok := roleIDs[u.Role]
		if !ok {
			r, err := st.Permissions().FindRoleByName(ctx, u.Role)
			if err != nil {
				return res, fmt.Errorf("user %s: role %s: %w", u.Username, u.Role, err)
			}
			roleID = r.ID
			roleIDs[u.Role] = roleID
		}

		created, err := ensureUser(ctx, st.Users(), u, roleID)
		if err != nil {
			return res, err
		}
		if created {
			res.Users++
		}
	}

	slogx.FromContext(ctx).Info("seed applied",
		"permissions", res.Permissions,
		"roles", res.Roles,
		"grants", res.Grants,
		"users", res.Users,
	)
	return res, nil
}

func applyRoles(ctx context.Context, perms store.Permissions, f File, res *Result) (map[string]int64, error) {
	permIDs := make(map[string]int64)
	for _, p := range f.Permissions {
		active := p.Active == nil || *p.Active
		id, created, err := ensurePermission(ctx, perms, p.Name, active)
		if err != nil {
			return nil, err
		}
		if created {
			res.Permissions++
		}
		permIDs[p.Name] = id
	}

	roleIDs := make(map[string]int64)
	for _, r := range f.Roles {
		id, created, err := ensureRole(ctx, perms, r.Name)
		if err != nil {
			return nil, err
		}
		if created {
			res.Roles++
		}
		roleIDs[r.Name] = id

		for _, name := range r.Permissions {
			permID, ok := permIDs[name]
			if !ok {
				p, err := perms.FindPermissionByName(ctx, name)
				if err != nil {
					return nil, fmt.Errorf("role %s: permission %s: %w", r.Name, name, err)
				}
				permID = p.ID
				permIDs[name] = permID
			}
			if err := perms.GrantPermission(ctx, id, permID); err != nil {
				return nil, fmt.Errorf("grant %s to %s: %w", name, r.Name, err)
			}
			res.Grants++
		}
	}
	return roleIDs, nil
}

func ensurePermission(ctx context.Context, perms store.Permissions, name string, active bool) (int64, bool, error) {
	p, err := perms.FindPermissionByName(ctx, name)
	switch {
	case err == nil:
		if p.Active != active {
			if err := perms.SetPermissionActive(ctx, p.ID, active); err != nil {
				return 0, false, fmt.Errorf("permission %s: %w", name, err)
			}
		}
		return p.ID, false, nil
	case errors.Is(err, store.ErrNotFound):
		id, err := perms.CreatePermission(ctx, name, active)
		if err != nil {
			return 0, false, fmt.Errorf("create permission %s: %w", name, err)
		}
		return id, true, nil
	default:
		return 0, false, fmt.Errorf("permission %s: %w", name, err)
	}
}

func ensureRole(ctx context.Context, perms store.Permissions, name string) (int64, bool, error) {
	r, err := perms.FindRoleByName(ctx, name)
	switch {
	case err == nil:
		return r.ID, false, nil
	case errors.Is(err, store.ErrNotFound):
		id, err := perms.CreateRole(ctx, name)
		if err != nil {
			return 0, false, fmt.Errorf("create role %s: %w", name, err)
		}
		return id, true, nil
	default:
		return 0, false, fmt.Errorf("role %s: %w", name, err)
	}
}

func ensureUser(ctx context.Context, users store.Users, u User, roleID int64) (bool, error) {
	hash := u.PasswordHash
	if hash == "" {
		var err error
		if hash, err = cryptox.HashPassword(u.Password); err != nil {
			return false, fmt.Errorf("user %s: hash password: %w", u.Username, err)
		}
	}

	_, err := users.CreateUser(ctx, domain.User{
		Username:         strings.TrimSpace(u.Username),
		Email:            strings.TrimSpace(u.Email),
		PasswordHash:     hash,
		RoleID:           roleID,
		Active:           u.Active == nil || *u.Active,
		TwoFactorSecret:  u.TwoFactorSecret,
		TwoFactorEnabled: u.TwoFactorSecret != "",
		CreatedAt:        time.Now().UTC(),
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("create user %s: %w", u.Username, err)
	}
}
