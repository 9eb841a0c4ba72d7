package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"rollworks.io/erp/internal/cascade"
	"rollworks.io/erp/internal/domain"
	"rollworks.io/erp/internal/mixing"
)

// Row is one in-memory table row keyed by column name.
type Row map[string]any

// Op identifies a statement kind for fault injection.
type Op string

const (
	OpSelect Op = "SELECT"
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

type foreignKey struct {
	child, column, parent string
}

// Foreign keys of the cascade subtree; deletes that would orphan a child fail
// like they do in Postgres.
var foreignKeys = []foreignKey{
	{domain.TableJobOrders, domain.ColOrderID, domain.TableOrders},
	{domain.TableRolls, domain.ColJobOrderID, domain.TableJobOrders},
	{domain.TableQualityChecks, domain.ColRollID, domain.TableRolls},
	{domain.TableQualityChecks, domain.ColJobOrderID, domain.TableJobOrders},
	{domain.TableCorrectiveActions, domain.ColQualityCheckID, domain.TableQualityChecks},
	{domain.TableFinalProducts, domain.ColJobOrderID, domain.TableJobOrders},
	{domain.TableSMSMessages, domain.ColOrderID, domain.TableOrders},
	{domain.TableSMSMessages, domain.ColJobOrderID, domain.TableJobOrders},
	{domain.TableMixItems, domain.ColMixID, domain.TableMixMaterials},
	{domain.TableMixItems, domain.ColRawMaterialID, domain.TableRawMaterials},
	{domain.TableMixMachines, domain.ColMixID, domain.TableMixMaterials},
}

type faultKey struct {
	op    Op
	table string
}

// MemStore is an in-memory cascade.Backend and mixing.Ledger for unit tests.
//
// A transaction holds the store lock for its whole duration and works on a
// copy of all tables that replaces the live tables on commit.
type MemStore struct {
	mu     sync.Mutex
	tables map[string][]Row
	nextID int64
	noTx   bool
	faults map[faultKey]error
	log    []string

	// BeforeStatement, when set, runs before every statement with the store
	// locked. It must not call back into the store.
	BeforeStatement func(op Op, table string)
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		tables: map[string][]Row{},
		faults: map[faultKey]error{},
	}
}

// DisableTx makes WithinTx return cascade.ErrTxUnsupported.
func (m *MemStore) DisableTx() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noTx = true
}

// FailOn makes every op on table fail with err. A nil err clears the fault.
func (m *MemStore) FailOn(op Op, table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.faults, faultKey{op, table})
		return
	}
	m.faults[faultKey{op, table}] = err
}

// Insert seeds a row and returns its id. An int64 id is assigned when the
// row has none; created_at defaults to now.
func (m *MemStore) Insert(table string, row Row) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(m.tables, table, row)
}

func (m *MemStore) insertLocked(tables map[string][]Row, table string, row Row) any {
	r := Row{}
	for k, v := range row {
		r[k] = normalize(v)
	}
	if _, ok := r[domain.ColID]; !ok {
		m.nextID++
		r[domain.ColID] = m.nextID
	}
	if _, ok := r[domain.ColCreatedAt]; !ok {
		r[domain.ColCreatedAt] = time.Now().UTC()
	}
	tables[table] = append(tables[table], r)
	return r[domain.ColID]
}

// Get returns a copy of the row with the given id, or nil.
func (m *MemStore) Get(table string, id any) Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := find(m.tables, table, id); r != nil {
		return cloneRow(r)
	}
	return nil
}

// Count returns the number of rows of table whose column equals value.
// An empty column counts every row.
func (m *MemStore) Count(table, column string, value any) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if column == "" {
		return len(m.tables[table])
	}
	n := 0
	for _, r := range m.tables[table] {
		if normalize(r[column]) == normalize(value) {
			n++
		}
	}
	return n
}

// Statements returns the executed statements ("DELETE rolls", ...) in order.
// Statements of rolled back transactions are included.
func (m *MemStore) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.log...)
}

// SelectKeys implements cascade.Executor outside a transaction.
func (m *MemStore) SelectKeys(ctx context.Context, table, keyColumn, column string, values []any) ([]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectKeys(ctx, m.tables, table, keyColumn, column, values)
}

// DeleteWhere implements cascade.Executor outside a transaction.
func (m *MemStore) DeleteWhere(ctx context.Context, table, column string, values []any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteWhere(ctx, m.tables, table, column, values)
}

// WithinTx implements cascade.Backend.
func (m *MemStore) WithinTx(ctx context.Context, fn func(tx cascade.Executor) error) error {
	return m.withinTx(ctx, func(tx *memTx) error { return fn(tx) })
}

// Ledger returns the store as a mixing.Ledger.
func (m *MemStore) Ledger() mixing.Ledger {
	return memLedger{m}
}

type memLedger struct{ m *MemStore }

func (l memLedger) WithinTx(ctx context.Context, fn func(tx mixing.LedgerTx) error) error {
	return l.m.withinTx(ctx, func(tx *memTx) error { return fn(tx) })
}

func (m *MemStore) withinTx(ctx context.Context, fn func(tx *memTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noTx {
		return cascade.ErrTxUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := make(map[string][]Row, len(m.tables))
	for t, rows := range m.tables {
		cp := make([]Row, len(rows))
		for i, r := range rows {
			cp[i] = cloneRow(r)
		}
		snapshot[t] = cp
	}
	nextID := m.nextID

	if err := fn(&memTx{m: m, tables: snapshot}); err != nil {
		m.nextID = nextID
		return err
	}
	m.tables = snapshot
	return nil
}

func (m *MemStore) statement(ctx context.Context, op Op, table string) error {
	m.log = append(m.log, string(op)+" "+table)
	if m.BeforeStatement != nil {
		m.BeforeStatement(op, table)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.faults[faultKey{op, table}]; err != nil {
		return err
	}
	return nil
}

func (m *MemStore) selectKeys(ctx context.Context, tables map[string][]Row, table, keyColumn, column string, values []any) ([]any, error) {
	if err := m.statement(ctx, OpSelect, table); err != nil {
		return nil, err
	}
	set := valueSet(values)
	var out []any
	for _, r := range tables[table] {
		if _, ok := set[normalize(r[column])]; ok {
			out = append(out, r[keyColumn])
		}
	}
	return out, nil
}

func (m *MemStore) deleteWhere(ctx context.Context, tables map[string][]Row, table, column string, values []any) (int64, error) {
	if err := m.statement(ctx, OpDelete, table); err != nil {
		return 0, err
	}
	set := valueSet(values)
	var keep, gone []Row
	for _, r := range tables[table] {
		if _, ok := set[normalize(r[column])]; ok {
			gone = append(gone, r)
		} else {
			keep = append(keep, r)
		}
	}
	for _, fk := range foreignKeys {
		if fk.parent != table {
			continue
		}
		for _, g := range gone {
			for _, c := range tables[fk.child] {
				if c[fk.column] != nil && normalize(c[fk.column]) == normalize(g[domain.ColID]) {
					return 0, fmt.Errorf("delete from %s violates foreign key %s.%s", table, fk.child, fk.column)
				}
			}
		}
	}
	tables[table] = keep
	return int64(len(gone)), nil
}

func (m *MemStore) update(ctx context.Context, tables map[string][]Row, table string, id any, col string, val any) error {
	if err := m.statement(ctx, OpUpdate, table); err != nil {
		return err
	}
	r := find(tables, table, id)
	if r == nil {
		return fmt.Errorf("update %s: row %v not found", table, id)
	}
	r[col] = normalize(val)
	return nil
}

// memTx is a transaction-bound view over a snapshot of the tables.
type memTx struct {
	m      *MemStore
	tables map[string][]Row
}

func (tx *memTx) SelectKeys(ctx context.Context, table, keyColumn, column string, values []any) ([]any, error) {
	return tx.m.selectKeys(ctx, tx.tables, table, keyColumn, column, values)
}

func (tx *memTx) DeleteWhere(ctx context.Context, table, column string, values []any) (int64, error) {
	return tx.m.deleteWhere(ctx, tx.tables, table, column, values)
}

func (tx *memTx) RawMaterialForUpdate(ctx context.Context, id int64) (*domain.RawMaterial, error) {
	if err := tx.m.statement(ctx, OpSelect, domain.TableRawMaterials); err != nil {
		return nil, err
	}
	r := find(tx.tables, domain.TableRawMaterials, id)
	if r == nil {
		return nil, nil
	}
	return &domain.RawMaterial{
		ID:       r[domain.ColID].(int64),
		Name:     str(r["name"]),
		Unit:     str(r["unit"]),
		Quantity: f64(r[domain.ColQuantity]),
	}, nil
}

func (tx *memTx) SetRawMaterialQuantity(ctx context.Context, id int64, quantity float64) error {
	return tx.m.update(ctx, tx.tables, domain.TableRawMaterials, id, domain.ColQuantity, quantity)
}

func (tx *memTx) MixMaterialForUpdate(ctx context.Context, id int64) (*domain.MixMaterial, error) {
	if err := tx.m.statement(ctx, OpSelect, domain.TableMixMaterials); err != nil {
		return nil, err
	}
	r := find(tx.tables, domain.TableMixMaterials, id)
	if r == nil {
		return nil, nil
	}
	return &domain.MixMaterial{
		ID:            r[domain.ColID].(int64),
		TotalQuantity: f64(r[domain.ColTotalQuantity]),
	}, nil
}

func (tx *memTx) SetMixTotal(ctx context.Context, id int64, total float64) error {
	return tx.m.update(ctx, tx.tables, domain.TableMixMaterials, id, domain.ColTotalQuantity, total)
}

func (tx *memTx) MixItem(ctx context.Context, id int64) (*domain.MixItem, error) {
	if err := tx.m.statement(ctx, OpSelect, domain.TableMixItems); err != nil {
		return nil, err
	}
	r := find(tx.tables, domain.TableMixItems, id)
	if r == nil {
		return nil, nil
	}
	return toMixItem(r), nil
}

func (tx *memTx) MixItems(ctx context.Context, mixID int64) ([]*domain.MixItem, error) {
	if err := tx.m.statement(ctx, OpSelect, domain.TableMixItems); err != nil {
		return nil, err
	}
	var out []*domain.MixItem
	for _, r := range tx.tables[domain.TableMixItems] {
		if normalize(r[domain.ColMixID]) == mixID {
			out = append(out, toMixItem(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (tx *memTx) InsertMixItem(ctx context.Context, mixID, rawMaterialID int64, quantity float64) (*domain.MixItem, error) {
	if err := tx.m.statement(ctx, OpInsert, domain.TableMixItems); err != nil {
		return nil, err
	}
	id := tx.m.insertLocked(tx.tables, domain.TableMixItems, Row{
		domain.ColMixID:         mixID,
		domain.ColRawMaterialID: rawMaterialID,
		domain.ColQuantity:      quantity,
		domain.ColPercentage:    0.0,
	})
	return toMixItem(find(tx.tables, domain.TableMixItems, id)), nil
}

func (tx *memTx) SetMixItemQuantity(ctx context.Context, id int64, quantity float64) error {
	return tx.m.update(ctx, tx.tables, domain.TableMixItems, id, domain.ColQuantity, quantity)
}

func (tx *memTx) SetMixItemPercentage(ctx context.Context, id int64, percentage float64) error {
	return tx.m.update(ctx, tx.tables, domain.TableMixItems, id, domain.ColPercentage, percentage)
}

func toMixItem(r Row) *domain.MixItem {
	item := &domain.MixItem{
		ID:            r[domain.ColID].(int64),
		MixID:         i64(r[domain.ColMixID]),
		RawMaterialID: i64(r[domain.ColRawMaterialID]),
		Quantity:      f64(r[domain.ColQuantity]),
		Percentage:    f64(r[domain.ColPercentage]),
	}
	if ts, ok := r[domain.ColCreatedAt].(time.Time); ok {
		item.CreatedAt = ts
	}
	return item
}

func find(tables map[string][]Row, table string, id any) Row {
	key := normalize(id)
	for _, r := range tables[table] {
		if normalize(r[domain.ColID]) == key {
			return r
		}
	}
	return nil
}

func valueSet(values []any) map[any]struct{} {
	set := make(map[any]struct{}, len(values))
	for _, v := range values {
		set[normalize(v)] = struct{}{}
	}
	return set
}

// normalize maps integer kinds to int64 and float32 to float64 so that
// values compare equal regardless of how a test spelled them.
func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	case *int64:
		if n == nil {
			return nil
		}
		return *n
	case *string:
		if n == nil {
			return nil
		}
		return *n
	default:
		return v
	}
}

func cloneRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func f64(v any) float64 {
	switch n := normalize(v).(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func i64(v any) int64 {
	n, _ := normalize(v).(int64)
	return n
}
