package repository

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"

	"rollworks.io/erp/internal/domain"
	apperrors "rollworks.io/erp/internal/pkg/errors"
)

func build() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.Postgres)
}

// table describes one relation scanned into T by its db tags.
type table[T any] struct {
	name     string
	columns  []string
	writable map[string]bool
	// clientKey tables take their text id from the caller on insert.
	clientKey bool
}

func newTable[T any](name string, clientKey bool) table[T] {
	cols := columnsOf[T]()
	writable := make(map[string]bool, len(cols))
	for _, c := range cols {
		if c != domain.ColID && c != domain.ColCreatedAt {
			writable[c] = true
		}
	}
	return table[T]{name: name, columns: cols, writable: writable, clientKey: clientKey}
}

func columnsOf[T any]() []string {
	rt := reflect.TypeFor[T]()
	cols := make([]string, 0, rt.NumField())
	for i := range rt.NumField() {
		tag := rt.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// checkFields rejects columns that cannot be written. The id is accepted on
// insert for client-keyed tables only; created_at is always assigned by the database.
func (t table[T]) checkFields(f domain.Fields, insert bool) error {
	for c := range f {
		if t.writable[c] || (insert && t.clientKey && c == domain.ColID) {
			continue
		}
		return apperrors.ErrInvalidUpdateFieldf(t.name, c)
	}
	return nil
}

func (t table[T]) selector() *entsql.Selector {
	return build().Select(t.columns...).From(entsql.Table(t.name))
}

func (t table[T]) all(ctx context.Context, db DBTX, s *entsql.Selector) ([]*T, error) {
	query, args := s.Query()
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	return items, nil
}

// one returns (nil, nil) when the query matches no row.
func (t table[T]) one(ctx context.Context, db DBTX, query string, args []any) (*T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	return item, nil
}

func (t table[T]) list(ctx context.Context, db DBTX) ([]*T, error) {
	return t.all(ctx, db, t.selector().OrderBy(domain.ColID))
}

func (t table[T]) listBy(ctx context.Context, db DBTX, column string, value any) ([]*T, error) {
	return t.all(ctx, db, t.selector().Where(entsql.EQ(column, value)).OrderBy(domain.ColID))
}

func (t table[T]) get(ctx context.Context, db DBTX, id any) (*T, error) {
	query, args := t.selector().Where(entsql.EQ(domain.ColID, id)).Query()
	return t.one(ctx, db, query, args)
}

// getForUpdate locks the row until the surrounding transaction ends.
func (t table[T]) getForUpdate(ctx context.Context, db DBTX, id any) (*T, error) {
	query, args := t.selector().Where(entsql.EQ(domain.ColID, id)).ForUpdate().Query()
	return t.one(ctx, db, query, args)
}

func (t table[T]) create(ctx context.Context, db DBTX, f domain.Fields) (*T, error) {
	if err := t.checkFields(f, true); err != nil {
		return nil, err
	}
	ins := build().Insert(t.name).Returning(t.columns...)
	if len(f) == 0 {
		ins.Default()
	} else {
		cols := slices.Sorted(maps.Keys(f))
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = f[c]
		}
		ins.Columns(cols...).Values(vals...)
	}
	query, args := ins.Query()
	item, err := t.one(ctx, db, query, args)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", t.name, err)
	}
	return item, nil
}

// update merges f into the row. An empty f returns the row unchanged.
// Returns (nil, nil) when the row does not exist.
func (t table[T]) update(ctx context.Context, db DBTX, id any, f domain.Fields) (*T, error) {
	if err := t.checkFields(f, false); err != nil {
		return nil, err
	}
	if len(f) == 0 {
		return t.get(ctx, db, id)
	}
	upd := build().Update(t.name).Where(entsql.EQ(domain.ColID, id))
	for _, c := range slices.Sorted(maps.Keys(f)) {
		upd.Set(c, f[c])
	}
	query, args := upd.Query()
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s %v: %w", t.name, id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return t.get(ctx, db, id)
}

func (t table[T]) delete(ctx context.Context, db DBTX, id any) (bool, error) {
	n, err := deleteWhere(ctx, db, t.name, domain.ColID, []any{id})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t table[T]) count(ctx context.Context, db DBTX) (int64, error) {
	return countRows(ctx, db, t.name)
}

func countRows(ctx context.Context, db DBTX, name string) (int64, error) {
	query, args := build().Select(entsql.Count("*")).From(entsql.Table(name)).Query()
	var n int64
	if err := db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", name, err)
	}
	return n, nil
}

func selectKeys(ctx context.Context, db DBTX, name, keyColumn, column string, values []any) ([]any, error) {
	if len(values) == 0 {
		return nil, nil
	}
	query, args := build().Select(keyColumn).From(entsql.Table(name)).
		Where(entsql.In(column, values...)).
		OrderBy(keyColumn).
		Query()
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s.%s: %w", name, keyColumn, err)
	}
	keys, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (any, error) {
		var v any
		err := row.Scan(&v)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s.%s: %w", name, keyColumn, err)
	}
	return keys, nil
}

func deleteWhere(ctx context.Context, db DBTX, name, column string, values []any) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	query, args := build().Delete(name).Where(entsql.In(column, values...)).Query()
	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s by %s: %w", name, column, err)
	}
	return tag.RowsAffected(), nil
}

// Repo is the CRUD surface shared by every bounded-context repository.
type Repo[T any] struct {
	db DBTX
	t  table[T]
}

func newRepo[T any](db DBTX, t table[T]) *Repo[T] {
	return &Repo[T]{db: db, t: t}
}

// Table returns the relation name.
func (r *Repo[T]) Table() string { return r.t.name }

// List returns every row ordered by id.
func (r *Repo[T]) List(ctx context.Context) ([]*T, error) {
	return r.t.list(ctx, r.db)
}

// Get returns the row, or nil when it does not exist.
func (r *Repo[T]) Get(ctx context.Context, id any) (*T, error) {
	return r.t.get(ctx, r.db, id)
}

// Create inserts a row; the database assigns id (unless client keyed) and created_at.
func (r *Repo[T]) Create(ctx context.Context, f domain.Fields) (*T, error) {
	return r.t.create(ctx, r.db, f)
}

// Update merges f into the row and returns it, or nil when it does not exist.
// Unknown columns, id and created_at are rejected with INVALID_UPDATE_FIELD.
func (r *Repo[T]) Update(ctx context.Context, id any, f domain.Fields) (*T, error) {
	return r.t.update(ctx, r.db, id, f)
}

// Delete removes one row and reports whether it existed.
func (r *Repo[T]) Delete(ctx context.Context, id any) (bool, error) {
	return r.t.delete(ctx, r.db, id)
}

// Count returns the number of rows.
func (r *Repo[T]) Count(ctx context.Context) (int64, error) {
	return r.t.count(ctx, r.db)
}

func (r *Repo[T]) listBy(ctx context.Context, column string, value any) ([]*T, error) {
	return r.t.listBy(ctx, r.db, column, value)
}

func (r *Repo[T]) find(ctx context.Context, p *entsql.Predicate, order ...string) ([]*T, error) {
	if len(order) == 0 {
		order = []string{domain.ColID}
	}
	return r.t.all(ctx, r.db, r.t.selector().Where(p).OrderBy(order...))
}

func eqID(id any) *entsql.Predicate {
	return entsql.EQ(domain.ColID, id)
}

// countOrphans counts child rows whose non-null column names no parent id.
func countOrphans(ctx context.Context, db DBTX, child, column, parent string) (int64, error) {
	c := entsql.Table(child).As("c")
	p := entsql.Table(parent).As("p")
	exists := build().Select(p.C(domain.ColID)).From(p).
		Where(entsql.ColumnsEQ(p.C(domain.ColID), c.C(column)))
	query, args := build().Select(entsql.Count("*")).From(c).
		Where(entsql.And(entsql.NotNull(c.C(column)), entsql.NotExists(exists))).
		Query()
	var n int64
	if err := db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orphans %s.%s: %w", child, column, err)
	}
	return n, nil
}
