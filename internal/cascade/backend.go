// Package cascade deletes an Order or a MixMaterial together with every
// dependent row, children strictly before parents.
//
// The algorithm is defined once and runs against any Backend: the Postgres
// store in internal/repository or the in-memory store used by unit tests.
package cascade

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ErrTxUnsupported is returned by Backend.WithinTx when the backend cannot
// open a (nested) transaction. The callback must not have been invoked.
var ErrTxUnsupported = errors.New("cascade: transactions not supported by backend")

// Executor is the statement surface a cascade needs.
type Executor interface {
	// SelectKeys returns keyColumn of every row of table whose column is in values.
	SelectKeys(ctx context.Context, table, keyColumn, column string, values []any) ([]any, error)

	// DeleteWhere deletes every row of table whose column is in values.
	DeleteWhere(ctx context.Context, table, column string, values []any) (int64, error)
}

// Backend is an Executor that can also run a function in one transaction.
// fn's Executor is bound to the transaction; a non-nil return rolls it back.
type Backend interface {
	Executor
	WithinTx(ctx context.Context, fn func(tx Executor) error) error
}

// Report counts deleted rows per table.
type Report struct {
	Root   string           `json:"root"`
	ID     any              `json:"id"`
	Mode   string           `json:"mode"`
	Rows   map[string]int64 `json:"rows"`
	DryRun bool             `json:"dry_run,omitempty"`
}

func newReport(root string, id any) Report {
	return Report{Root: root, ID: id, Rows: map[string]int64{}}
}

func (r *Report) add(table string, n int64) {
	if n > 0 {
		r.Rows[table] += n
	}
}

// Found reports whether the root row existed.
func (r Report) Found() bool {
	return r.Rows[r.Root] > 0
}

// Total is the number of rows deleted across all tables.
func (r Report) Total() int64 {
	var n int64
	for _, v := range r.Rows {
		n += v
	}
	return n
}

// String renders rows as "table=n" pairs, sorted by table.
func (r Report) String() string {
	tables := make([]string, 0, len(r.Rows))
	for t := range r.Rows {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	parts := make([]string, 0, len(tables))
	for _, t := range tables {
		parts = append(parts, t+"="+strconv.FormatInt(r.Rows[t], 10))
	}
	return strings.Join(parts, " ")
}
