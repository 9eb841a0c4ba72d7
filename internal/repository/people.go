package repository

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"rollworks.io/erp/internal/domain"
)

type RoleRepo struct{ *Repo[domain.Role] }

// GetByName returns the role, or nil.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	query, args := r.t.selector().Where(entsql.EQ("name", name)).Query()
	return r.t.one(ctx, r.db, query, args)
}

// Upsert creates the role or refreshes its description.
func (r *RoleRepo) Upsert(ctx context.Context, name string, description *string) (*domain.Role, error) {
	query, args := build().Insert(domain.TableRoles).
		Columns("name", "description").
		Values(name, description).
		OnConflict(entsql.ConflictColumns("name"), entsql.ResolveWithNewValues()).
		Returning(r.t.columns...).
		Query()
	role, err := r.t.one(ctx, r.db, query, args)
	if err != nil {
		return nil, fmt.Errorf("upsert role %q: %w", name, err)
	}
	return role, nil
}

type PermissionRepo struct{ *Repo[domain.Permission] }

func (r *PermissionRepo) ListByRole(ctx context.Context, roleID int64) ([]*domain.Permission, error) {
	return r.listBy(ctx, "role_id", roleID)
}

// Upsert sets the module flags of a role, creating the grant when missing.
func (r *PermissionRepo) Upsert(ctx context.Context, p domain.Permission) (*domain.Permission, error) {
	query, args := build().Insert(domain.TablePermissions).
		Columns("role_id", "module", "can_view", "can_create", "can_edit", "can_delete").
		Values(p.RoleID, p.Module, p.CanView, p.CanCreate, p.CanEdit, p.CanDelete).
		OnConflict(entsql.ConflictColumns("role_id", "module"), entsql.ResolveWithNewValues()).
		Returning(r.t.columns...).
		Query()
	out, err := r.t.one(ctx, r.db, query, args)
	if err != nil {
		return nil, fmt.Errorf("upsert permission %d/%s: %w", p.RoleID, p.Module, err)
	}
	return out, nil
}

// Allowed reports whether the role may perform action ("view", "create",
// "edit" or "delete") on module.
func (r *PermissionRepo) Allowed(ctx context.Context, roleID int64, module, action string) (bool, error) {
	perms, err := r.find(ctx, entsql.And(entsql.EQ("role_id", roleID), entsql.EQ("module", module)))
	if err != nil || len(perms) == 0 {
		return false, err
	}
	p := perms[0]
	switch action {
	case "view":
		return p.CanView, nil
	case "create":
		return p.CanCreate, nil
	case "edit":
		return p.CanEdit, nil
	case "delete":
		return p.CanDelete, nil
	}
	return false, nil
}

type UserRepo struct{ *Repo[domain.User] }

// GetByUsername returns the user, or nil.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query, args := r.t.selector().Where(entsql.EQ("username", username)).Query()
	return r.t.one(ctx, r.db, query, args)
}

func (r *UserRepo) ListByRole(ctx context.Context, roleID int64) ([]*domain.User, error) {
	return r.listBy(ctx, "role_id", roleID)
}

// ListActive returns users that may sign in.
func (r *UserRepo) ListActive(ctx context.Context) ([]*domain.User, error) {
	return r.listBy(ctx, "is_active", true)
}
