//go:build integration

package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rollworks.io/erp/internal/repository"
	"rollworks.io/erp/internal/testutil"
)

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.New(testutil.OpenMigratedPool(t, t.Name()))

	first, err := Run(ctx, store, "admin", "s3cret")
	require.NoError(t, err)
	assert.True(t, first.AdminCreated)

	second, err := Run(ctx, store, "admin", "other")
	require.NoError(t, err)
	assert.False(t, second.AdminCreated)
	assert.Equal(t, first.Roles, second.Roles)
	assert.Equal(t, first.Permissions, second.Permissions)

	n, err := store.Permissions.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(first.Permissions), n)

	admin, err := store.Users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("s3cret")))

	role, err := store.Roles.GetByName(ctx, AdminRole)
	require.NoError(t, err)
	require.NotNil(t, admin.RoleID)
	assert.Equal(t, role.ID, *admin.RoleID)

	ok, err := store.Permissions.Allowed(ctx, role.ID, "orders", "delete")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAdmin_RequiresRole(t *testing.T) {
	store := repository.New(testutil.OpenMigratedPool(t, t.Name()))
	_, err := Admin(context.Background(), store, "admin", "pw")
	require.Error(t, err)
}
