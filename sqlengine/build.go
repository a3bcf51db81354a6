package sqlengine

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/davidtedmanjones/prequelize/core"
	"github.com/davidtedmanjones/prequelize/dialect"
)

// writer assembles a SQL statement with dialect-aware placeholders. The
// placeholder index is tracked across clauses so indexed dialects
// (postgres) bind correctly.
type writer struct {
	d    dialect.Dialect
	sb   strings.Builder
	args []any
	n    int
}

func newWriter(d dialect.Dialect) *writer {
	return &writer{d: d}
}

func (w *writer) bind(v any) string {
	w.n++
	w.args = append(w.args, v)
	return w.d.Placeholder(w.n)
}

func (w *writer) write(s string) {
	w.sb.WriteString(s)
}

// Filter operators accepted inside a nested value map, e.g.
// {"age": {"gte": 18, "lt": 65}}.
var operators = map[string]string{
	"eq":   "=",
	"ne":   "<>",
	"gt":   ">",
	"gte":  ">=",
	"lt":   "<",
	"lte":  "<=",
	"like": "LIKE",
}

// writeWhere renders a filter tree as a WHERE clause. Keys are emitted in
// sorted order so generated SQL is deterministic. A plain value compares
// with =, nil with IS NULL, a slice with IN, and a nested map applies
// operators.
func (w *writer) writeWhere(filter map[string]any) error {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.write(" WHERE ")
	for i, k := range keys {
		if i > 0 {
			w.write(" AND ")
		}
		if err := w.writeCondition(k, filter[k]); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) writeCondition(column string, value any) error {
	col := w.d.Quote(column)
	switch v := value.(type) {
	case nil:
		w.write(col + " IS NULL")
		return nil
	case map[string]any:
		return w.writeOperators(col, v)
	case core.Where:
		return w.writeOperators(col, map[string]any(v))
	}

	if vs, ok := asSlice(value); ok {
		return w.writeIn(col, vs)
	}

	w.write(col + " = " + w.bind(value))
	return nil
}

func (w *writer) writeOperators(col string, ops map[string]any) error {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, op := range keys {
		if i > 0 {
			w.write(" AND ")
		}
		v := ops[op]
		if op == "in" {
			vs, ok := asSlice(v)
			if !ok {
				return fmt.Errorf("operator %q on %s requires a slice, got %T", op, col, v)
			}
			if err := w.writeIn(col, vs); err != nil {
				return err
			}
			continue
		}
		sym, ok := operators[op]
		if !ok {
			return fmt.Errorf("unknown filter operator %q on %s", op, col)
		}
		w.write(col + " " + sym + " " + w.bind(v))
	}
	return nil
}

// writeIn renders an IN condition. An empty value set matches nothing.
func (w *writer) writeIn(col string, values []any) error {
	if len(values) == 0 {
		w.write("1 = 0")
		return nil
	}
	phs := make([]string, len(values))
	for i, v := range values {
		phs[i] = w.bind(v)
	}
	w.write(col + " IN (" + strings.Join(phs, ", ") + ")")
	return nil
}

func (w *writer) writeOrder(order []core.Order) {
	if len(order) == 0 {
		return
	}
	parts := make([]string, len(order))
	for i, o := range order {
		parts[i] = w.d.Quote(o.Field)
		if o.Desc {
			parts[i] += " DESC"
		}
	}
	w.write(" ORDER BY " + strings.Join(parts, ", "))
}

func (w *writer) writeLimitOffset(limit, offset *int) {
	if limit != nil {
		w.write(" LIMIT " + w.bind(*limit))
	} else if offset != nil {
		// sqlite and mysql cannot express OFFSET without a LIMIT clause.
		if nl := w.d.NoLimit(); nl != "" {
			w.write(" LIMIT " + nl)
		}
	}
	if offset != nil {
		w.write(" OFFSET " + w.bind(*offset))
	}
}

func (w *writer) writeColumns(fields []string) {
	if len(fields) == 0 {
		w.write("*")
		return
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = w.d.Quote(f)
	}
	w.write(strings.Join(quoted, ", "))
}

// buildSelect renders the SELECT for a native query. In count mode the
// projection is COUNT(*) and limit/offset/order are dropped.
func buildSelect(d dialect.Dialect, table string, q *core.NativeQuery, count bool) (string, []any, error) {
	w := newWriter(d)
	w.write("SELECT ")
	if count {
		w.write("COUNT(*)")
	} else {
		w.writeColumns(q.Fields)
	}
	w.write(" FROM " + d.Quote(table))
	if err := w.writeWhere(q.Filter); err != nil {
		return "", nil, err
	}
	if !count {
		w.writeOrder(q.Order)
		w.writeLimitOffset(q.Limit, q.Offset)
	}
	return w.sb.String(), w.args, nil
}

// buildInsert renders the INSERT for a record. Columns are emitted in
// sorted order.
func buildInsert(d dialect.Dialect, table string, data core.Record, returning bool) (string, []any) {
	cols := make([]string, 0, len(data))
	for c := range data {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	w := newWriter(d)
	quoted := make([]string, len(cols))
	phs := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.Quote(c)
		phs[i] = w.bind(data[c])
	}
	w.write("INSERT INTO " + d.Quote(table) + " (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(phs, ", ") + ")")
	if returning && d.SupportsReturning() {
		w.write(" RETURNING *")
	}
	return w.sb.String(), w.args
}

// buildUpdate renders the UPDATE for a record against a filter.
func buildUpdate(d dialect.Dialect, table string, data core.Record, q *core.NativeQuery, returning bool) (string, []any, error) {
	cols := make([]string, 0, len(data))
	for c := range data {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	w := newWriter(d)
	w.write("UPDATE " + d.Quote(table) + " SET ")
	for i, c := range cols {
		if i > 0 {
			w.write(", ")
		}
		w.write(d.Quote(c) + " = " + w.bind(data[c]))
	}
	if err := w.writeWhere(q.Filter); err != nil {
		return "", nil, err
	}
	if returning && d.SupportsReturning() {
		w.write(" RETURNING *")
	}
	return w.sb.String(), w.args, nil
}

// buildDelete renders the DELETE for a filter.
func buildDelete(d dialect.Dialect, table string, q *core.NativeQuery) (string, []any, error) {
	w := newWriter(d)
	w.write("DELETE FROM " + d.Quote(table))
	if err := w.writeWhere(q.Filter); err != nil {
		return "", nil, err
	}
	return w.sb.String(), w.args, nil
}

// asSlice normalizes any slice value (except []byte) to []any.
func asSlice(v any) ([]any, bool) {
	if vs, ok := v.([]any); ok {
		return vs, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
