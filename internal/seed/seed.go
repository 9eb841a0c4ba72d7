// Package seed bootstraps roles, module permissions and the default admin.
//
// Every step is idempotent: roles and grants are upserted and the admin user
// is created only when the username is free, so seeding may run on every start.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"rollworks.io/erp/internal/domain"
	"rollworks.io/erp/internal/pkg/logger"
	"rollworks.io/erp/internal/repository"
)

// AdminRole is the role granted to the default admin.
const AdminRole = "admin"

// Actions a grant may contain.
var Actions = []string{"view", "create", "edit", "delete"}

//go:embed permissions.yaml
var defaultPermissions []byte

// RoleSpec is one role with its module grants.
type RoleSpec struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Permissions map[string][]string `yaml:"permissions"`
}

// File is the permissions.yaml document.
type File struct {
	Roles []RoleSpec `yaml:"roles"`
}

// Result counts what a seeding run wrote.
type Result struct {
	Roles        int  `json:"roles"`
	Permissions  int  `json:"permissions"`
	AdminCreated bool `json:"admin_created"`
}

// Default parses the embedded role set.
func Default() (*File, error) {
	return Parse(defaultPermissions)
}

// Parse decodes and validates a permissions document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse permissions: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate rejects empty or duplicate role names and unknown actions.
func (f *File) Validate() error {
	if len(f.Roles) == 0 {
		return fmt.Errorf("permissions: no roles defined")
	}
	seen := make(map[string]bool, len(f.Roles))
	for _, r := range f.Roles {
		if r.Name == "" {
			return fmt.Errorf("permissions: role without name")
		}
		if seen[r.Name] {
			return fmt.Errorf("permissions: duplicate role %q", r.Name)
		}
		seen[r.Name] = true
		for module, actions := range r.Permissions {
			for _, a := range actions {
				if !slices.Contains(Actions, a) {
					return fmt.Errorf("permissions: role %q module %q: unknown action %q", r.Name, module, a)
				}
			}
		}
	}
	return nil
}

// Grants expands a role spec into permission rows for roleID, sorted by module.
func (r RoleSpec) Grants(roleID int64) []domain.Permission {
	modules := make([]string, 0, len(r.Permissions))
	for m := range r.Permissions {
		modules = append(modules, m)
	}
	slices.Sort(modules)

	out := make([]domain.Permission, 0, len(modules))
	for _, m := range modules {
		actions := r.Permissions[m]
		out = append(out, domain.Permission{
			RoleID:    roleID,
			Module:    m,
			CanView:   slices.Contains(actions, "view"),
			CanCreate: slices.Contains(actions, "create"),
			CanEdit:   slices.Contains(actions, "edit"),
			CanDelete: slices.Contains(actions, "delete"),
		})
	}
	return out
}

// Permissions upserts every role and grant of f in one transaction.
func Permissions(ctx context.Context, store *repository.Store, f *File) (Result, error) {
	var res Result
	err := store.InTx(ctx, func(tx *repository.Store) error {
		res = Result{}
		for _, spec := range f.Roles {
			var desc *string
			if spec.Description != "" {
				desc = &spec.Description
			}
			role, err := tx.Roles.Upsert(ctx, spec.Name, desc)
			if err != nil {
				return err
			}
			res.Roles++
			for _, p := range spec.Grants(role.ID) {
				if _, err := tx.Permissions.Upsert(ctx, p); err != nil {
					return err
				}
				res.Permissions++
			}
			logger.Info("Seeded role",
				zap.String("role", spec.Name),
				zap.Int("modules", len(spec.Permissions)),
			)
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("seed permissions: %w", err)
	}
	return res, nil
}

// Admin creates the default admin with a bcrypt hash of password unless
// username is taken. It reports whether a user was created.
func Admin(ctx context.Context, store *repository.Store, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, fmt.Errorf("seed admin: username and password are required")
	}

	existing, err := store.Users.GetByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("look up admin %q: %w", username, err)
	}
	if existing != nil {
		logger.Info("Default admin already exists, skipping", zap.String("username", username))
		return false, nil
	}

	role, err := store.Roles.GetByName(ctx, AdminRole)
	if err != nil {
		return false, fmt.Errorf("look up role %q: %w", AdminRole, err)
	}
	if role == nil {
		return false, fmt.Errorf("seed admin: role %q missing, seed permissions first", AdminRole)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := store.Users.Create(ctx, domain.Fields{
		"username":      username,
		"password_hash": string(hash),
		"display_name":  "Administrator",
		"role_id":       role.ID,
		"is_active":     true,
	}); err != nil {
		return false, fmt.Errorf("create admin %q: %w", username, err)
	}

	logger.Info("Seeded default admin", zap.String("username", username))
	return true, nil
}

// Run seeds the embedded role set and then the default admin.
func Run(ctx context.Context, store *repository.Store, username, password string) (Result, error) {
	f, err := Default()
	if err != nil {
		return Result{}, err
	}
	res, err := Permissions(ctx, store, f)
	if err != nil {
		return Result{}, err
	}
	res.AdminCreated, err = Admin(ctx, store, username, password)
	if err != nil {
		return res, err
	}
	return res, nil
}
