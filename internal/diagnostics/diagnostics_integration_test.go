//go:build integration

package diagnostics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollworks.io/erp/internal/domain"
	"rollworks.io/erp/internal/repository"
	"rollworks.io/erp/internal/testutil"
)

func TestRun_Postgres(t *testing.T) {
	ctx := context.Background()
	pool := testutil.OpenMigratedPool(t, t.Name())
	store := repository.New(pool)

	order, err := store.Orders.Create(ctx, domain.Fields{"order_number": "D-1"})
	require.NoError(t, err)
	_, err = store.JobOrders.Create(ctx, domain.Fields{domain.ColOrderID: order.ID, "quantity": 10.0})
	require.NoError(t, err)

	r := New(pool, store, newPool(t), repository.AllTables).Run(ctx)

	assert.Equal(t, StatusOK, r.Status, r.Errors)
	assert.Equal(t, int64(1), r.Tables[domain.TableOrders])
	assert.Equal(t, int64(1), r.Tables[domain.TableJobOrders])
	assert.Len(t, r.Tables, len(repository.AllTables))
	assert.Len(t, r.Orphans, len(Edges))
}
