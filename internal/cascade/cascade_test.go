package cascade_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollworks.io/erp/internal/cascade"
	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
	"rollworks.io/erp/internal/testutil"
)

var errInjected = errors.New("injected failure")

// seedOrders builds two orders:
//
//	1001 -> job order 1 -> roll R-A -> check 50 -> corrective action 9
//	                    -> check 51 (job-order level)
//	                    -> final product 7, sms 3
//	     -> job order 2 -> roll R-B
//	     -> sms 4
//	2002 -> job order 3 -> roll R-Z -> check 52 -> corrective action 10
//	                    -> final product 8
//	     -> sms 5
func seedOrders(t *testing.T) *testutil.MemStore {
	t.Helper()
	m := testutil.NewMemStore()

	m.Insert(domain.TableOrders, testutil.Row{"id": int64(1001), "order_number": "ORD-1001"})
	m.Insert(domain.TableOrders, testutil.Row{"id": int64(2002), "order_number": "ORD-2002"})

	m.Insert(domain.TableJobOrders, testutil.Row{"id": int64(1), "order_id": int64(1001)})
	m.Insert(domain.TableJobOrders, testutil.Row{"id": int64(2), "order_id": int64(1001)})
	m.Insert(domain.TableJobOrders, testutil.Row{"id": int64(3), "order_id": int64(2002)})

	m.Insert(domain.TableRolls, testutil.Row{"id": "R-A", "job_order_id": int64(1)})
	m.Insert(domain.TableRolls, testutil.Row{"id": "R-B", "job_order_id": int64(2)})
	m.Insert(domain.TableRolls, testutil.Row{"id": "R-Z", "job_order_id": int64(3)})

	m.Insert(domain.TableQualityChecks, testutil.Row{"id": int64(50), "roll_id": "R-A", "job_order_id": nil})
	m.Insert(domain.TableQualityChecks, testutil.Row{"id": int64(51), "roll_id": nil, "job_order_id": int64(1)})
	m.Insert(domain.TableQualityChecks, testutil.Row{"id": int64(52), "roll_id": "R-Z", "job_order_id": nil})

	m.Insert(domain.TableCorrectiveActions, testutil.Row{"id": int64(9), "quality_check_id": int64(50)})
	m.Insert(domain.TableCorrectiveActions, testutil.Row{"id": int64(10), "quality_check_id": int64(52)})

	m.Insert(domain.TableFinalProducts, testutil.Row{"id": int64(7), "job_order_id": int64(1)})
	m.Insert(domain.TableFinalProducts, testutil.Row{"id": int64(8), "job_order_id": int64(3)})

	m.Insert(domain.TableSMSMessages, testutil.Row{"id": int64(3), "order_id": nil, "job_order_id": int64(1)})
	m.Insert(domain.TableSMSMessages, testutil.Row{"id": int64(4), "order_id": int64(1001), "job_order_id": nil})
	m.Insert(domain.TableSMSMessages, testutil.Row{"id": int64(5), "order_id": int64(2002), "job_order_id": nil})
	return m
}

var subtreeTables = []string{
	domain.TableOrders,
	domain.TableJobOrders,
	domain.TableRolls,
	domain.TableQualityChecks,
	domain.TableCorrectiveActions,
	domain.TableFinalProducts,
	domain.TableSMSMessages,
}

func snapshotCounts(m *testutil.MemStore) map[string]int {
	out := map[string]int{}
	for _, table := range subtreeTables {
		out[table] = m.Count(table, "", nil)
	}
	return out
}

func TestDeleteOrder_RemovesWholeSubtree(t *testing.T) {
	m := seedOrders(t)
	o := cascade.New(m, cascade.Options{})

	report, err := o.DeleteOrder(context.Background(), 1001)
	require.NoError(t, err)

	assert.True(t, report.Found())
	assert.Equal(t, cascade.ModeTransactional, report.Mode)
	assert.Equal(t, map[string]int64{
		domain.TableOrders:            1,
		domain.TableJobOrders:         2,
		domain.TableRolls:             2,
		domain.TableQualityChecks:     2,
		domain.TableCorrectiveActions: 1,
		domain.TableFinalProducts:     1,
		domain.TableSMSMessages:       2,
	}, report.Rows)
	assert.Equal(t, int64(11), report.Total())

	for _, c := range []struct {
		table, column string
		value         any
	}{
		{domain.TableOrders, "id", 1001},
		{domain.TableJobOrders, "order_id", 1001},
		{domain.TableRolls, "id", "R-A"},
		{domain.TableRolls, "id", "R-B"},
		{domain.TableQualityChecks, "id", 50},
		{domain.TableQualityChecks, "id", 51},
		{domain.TableCorrectiveActions, "id", 9},
		{domain.TableFinalProducts, "id", 7},
		{domain.TableSMSMessages, "id", 3},
		{domain.TableSMSMessages, "order_id", 1001},
	} {
		assert.Zero(t, m.Count(c.table, c.column, c.value), "%s.%s=%v", c.table, c.column, c.value)
	}

	// the other order is untouched
	assert.Equal(t, 1, m.Count(domain.TableOrders, "", nil))
	assert.Equal(t, 1, m.Count(domain.TableJobOrders, "order_id", 2002))
	assert.Equal(t, 1, m.Count(domain.TableRolls, "id", "R-Z"))
	assert.Equal(t, 1, m.Count(domain.TableQualityChecks, "id", 52))
	assert.Equal(t, 1, m.Count(domain.TableCorrectiveActions, "id", 10))
	assert.Equal(t, 1, m.Count(domain.TableFinalProducts, "id", 8))
	assert.Equal(t, 1, m.Count(domain.TableSMSMessages, "id", 5))
}

func TestDeleteOrder_ChildrenBeforeParents(t *testing.T) {
	m := seedOrders(t)
	_, err := cascade.New(m, cascade.Options{}).DeleteOrder(context.Background(), 1001)
	require.NoError(t, err)

	first := map[string]int{}
	for i, s := range m.Statements() {
		if _, seen := first[s]; !seen {
			first[s] = i
		}
	}
	before := func(child, parent string) {
		t.Helper()
		c, okc := first["DELETE "+child]
		p, okp := first["DELETE "+parent]
		require.True(t, okc && okp, "missing delete of %s or %s", child, parent)
		assert.Less(t, c, p, "%s must be deleted before %s", child, parent)
	}
	before(domain.TableCorrectiveActions, domain.TableQualityChecks)
	before(domain.TableQualityChecks, domain.TableRolls)
	before(domain.TableRolls, domain.TableJobOrders)
	before(domain.TableFinalProducts, domain.TableJobOrders)
	before(domain.TableJobOrders, domain.TableOrders)
	before(domain.TableSMSMessages, domain.TableOrders)

	stmts := m.Statements()
	assert.Equal(t, "DELETE "+domain.TableOrders, stmts[len(stmts)-1])
}

func TestDeleteOrder_RollsBackOnAnyFailure(t *testing.T) {
	faults := []struct {
		op    testutil.Op
		table string
	}{
		{testutil.OpSelect, domain.TableJobOrders},
		{testutil.OpSelect, domain.TableRolls},
		{testutil.OpSelect, domain.TableQualityChecks},
		{testutil.OpDelete, domain.TableCorrectiveActions},
		{testutil.OpDelete, domain.TableQualityChecks},
		{testutil.OpDelete, domain.TableRolls},
		{testutil.OpDelete, domain.TableFinalProducts},
		{testutil.OpDelete, domain.TableSMSMessages},
		{testutil.OpDelete, domain.TableJobOrders},
		{testutil.OpDelete, domain.TableOrders},
	}

	for _, f := range faults {
		t.Run(string(f.op)+" "+f.table, func(t *testing.T) {
			m := seedOrders(t)
			before := snapshotCounts(m)
			m.FailOn(f.op, f.table, errInjected)

			report, err := cascade.New(m, cascade.Options{}).DeleteOrder(context.Background(), 1001)
			require.Error(t, err)
			assert.ErrorIs(t, err, errInjected)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeCascadeFailed))
			assert.Zero(t, report.Total())

			assert.Equal(t, before, snapshotCounts(m))
			assert.NotNil(t, m.Get(domain.TableOrders, 1001))
			assert.NotNil(t, m.Get(domain.TableCorrectiveActions, 9))
		})
	}
}

func TestDeleteOrder_AbsentIsNoop(t *testing.T) {
	m := seedOrders(t)
	before := snapshotCounts(m)

	report, err := cascade.New(m, cascade.Options{}).DeleteOrder(context.Background(), 9999)
	require.NoError(t, err)
	assert.False(t, report.Found())
	assert.Zero(t, report.Total())
	assert.Equal(t, before, snapshotCounts(m))
}

func TestDeleteOrder_BestEffortKeepsParentsOfFailedRows(t *testing.T) {
	m := seedOrders(t)
	m.FailOn(testutil.OpDelete, domain.TableCorrectiveActions, errInjected)

	o := cascade.New(m, cascade.Options{Mode: cascade.ModeBestEffort})
	report, err := o.DeleteOrder(context.Background(), 1001)

	require.Error(t, err)
	assert.ErrorIs(t, err, errInjected)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeCascadeIncomplete))
	assert.Equal(t, cascade.ModeBestEffort, report.Mode)

	// checks whose corrective actions failed, and their ancestors, remain
	assert.NotNil(t, m.Get(domain.TableQualityChecks, 50))
	assert.NotNil(t, m.Get(domain.TableQualityChecks, 51))
	assert.NotNil(t, m.Get(domain.TableRolls, "R-A"))
	assert.NotNil(t, m.Get(domain.TableJobOrders, 1))
	assert.NotNil(t, m.Get(domain.TableOrders, 1001))

	// unrelated siblings were still cleaned up
	assert.Nil(t, m.Get(domain.TableJobOrders, 2))
	assert.Nil(t, m.Get(domain.TableRolls, "R-B"))
	assert.Nil(t, m.Get(domain.TableFinalProducts, 7))
	assert.Nil(t, m.Get(domain.TableSMSMessages, 3))
	assert.Nil(t, m.Get(domain.TableSMSMessages, 4))

	assert.Equal(t, map[string]int64{
		domain.TableJobOrders:     1,
		domain.TableRolls:         1,
		domain.TableFinalProducts: 1,
		domain.TableSMSMessages:   2,
	}, report.Rows)
}

func TestDeleteOrder_FallsBackWithoutTransactions(t *testing.T) {
	m := seedOrders(t)
	m.DisableTx()

	report, err := cascade.New(m, cascade.Options{}).DeleteOrder(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, cascade.ModeBestEffort, report.Mode)
	assert.Nil(t, m.Get(domain.TableOrders, 1001))
	assert.Zero(t, m.Count(domain.TableJobOrders, "order_id", 1001))
}

func TestDeleteOrder_CancellationRollsBack(t *testing.T) {
	m := seedOrders(t)
	before := snapshotCounts(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.BeforeStatement = func(op testutil.Op, table string) {
		if op == testutil.OpDelete && table == domain.TableRolls {
			cancel()
		}
	}

	_, err := cascade.New(m, cascade.Options{}).DeleteOrder(ctx, 1001)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, snapshotCounts(m))
}

func TestDeleteOrder_Timeout(t *testing.T) {
	m := seedOrders(t)
	m.BeforeStatement = func(op testutil.Op, table string) {
		if table == domain.TableFinalProducts {
			time.Sleep(20 * time.Millisecond)
		}
	}

	o := cascade.New(m, cascade.Options{Timeout: 5 * time.Millisecond})
	_, err := o.DeleteOrder(context.Background(), 1001)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotNil(t, m.Get(domain.TableOrders, 1001))
}

func TestPreview_CountsWithoutDeleting(t *testing.T) {
	m := seedOrders(t)
	before := snapshotCounts(m)

	report, err := cascade.New(m, cascade.Options{}).Preview(context.Background(), 1001)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, int64(11), report.Total())
	assert.Equal(t, before, snapshotCounts(m))
}

func TestPreview_RequiresTransactions(t *testing.T) {
	m := seedOrders(t)
	m.DisableTx()

	_, err := cascade.New(m, cascade.Options{}).Preview(context.Background(), 1001)
	require.ErrorIs(t, err, cascade.ErrTxUnsupported)
}

func TestDeleteOrder_PublishesEvent(t *testing.T) {
	m := seedOrders(t)
	events := domain.NewEventDispatcher()

	var got []*domain.DomainEvent
	events.Register(domain.EventOrderDeleted, func(_ context.Context, e *domain.DomainEvent) error {
		got = append(got, e)
		return nil
	})

	o := cascade.New(m, cascade.Options{Events: events})
	_, err := o.DeleteOrder(context.Background(), 1001)
	require.NoError(t, err)
	_, err = o.DeleteOrder(context.Background(), 1001) // already gone: no event
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "1001", got[0].AggregateID)
}

func seedMix(m *testutil.MemStore) {
	m.Insert(domain.TableRawMaterials, testutil.Row{"id": int64(1), "name": "LDPE", "quantity": 500.0})
	m.Insert(domain.TableMixMaterials, testutil.Row{"id": int64(10), "total_quantity": 30.0})
	m.Insert(domain.TableMixItems, testutil.Row{"id": int64(100), "mix_id": int64(10), "raw_material_id": int64(1), "quantity": 20.0, "percentage": 66.6})
	m.Insert(domain.TableMixItems, testutil.Row{"id": int64(101), "mix_id": int64(10), "raw_material_id": int64(1), "quantity": 10.0, "percentage": 33.3})
	m.Insert(domain.TableMixMachines, testutil.Row{"id": int64(200), "mix_id": int64(10), "machine_id": "EXT-1"})
}

func TestDeleteMixMaterial_HardRemoval(t *testing.T) {
	m := testutil.NewMemStore()
	seedMix(m)

	report, err := cascade.New(m, cascade.Options{}).DeleteMixMaterial(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{
		domain.TableMixItems:     2,
		domain.TableMixMachines:  1,
		domain.TableMixMaterials: 1,
	}, report.Rows)

	// stock is not reconciled by the hard path
	assert.Equal(t, 500.0, m.Get(domain.TableRawMaterials, 1)["quantity"])
}

func TestDeleteMixMaterial_AtomicOnFault(t *testing.T) {
	for _, table := range []string{domain.TableMixItems, domain.TableMixMachines, domain.TableMixMaterials} {
		t.Run(table, func(t *testing.T) {
			m := testutil.NewMemStore()
			seedMix(m)
			m.FailOn(testutil.OpDelete, table, errInjected)

			_, err := cascade.New(m, cascade.Options{}).DeleteMixMaterial(context.Background(), 10)
			require.ErrorIs(t, err, errInjected)
			assert.Equal(t, 2, m.Count(domain.TableMixItems, "mix_id", 10))
			assert.Equal(t, 1, m.Count(domain.TableMixMachines, "mix_id", 10))
			assert.NotNil(t, m.Get(domain.TableMixMaterials, 10))
		})
	}
}

func TestReport_String(t *testing.T) {
	r := cascade.Report{Rows: map[string]int64{"rolls": 2, "orders": 1}}
	assert.Equal(t, "orders=1 rolls=2", r.String())
}
