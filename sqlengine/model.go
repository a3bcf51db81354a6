package sqlengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davidtedmanjones/prequelize/core"
)

// engineModel implements core.EngineModel for one defined entity.
type engineModel struct {
	engine *Engine
	name   string
	def    ModelDef
}

// executor picks the pool or, when the query carries one, the transaction.
func (m *engineModel) executor(q *core.NativeQuery) (executor, error) {
	if q == nil || q.Tx == nil {
		return m.engine.pool, nil
	}
	tx, ok := q.Tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrForeignTransaction, q.Tx)
	}
	return tx, nil
}

func (m *engineModel) Find(ctx context.Context, q *core.NativeQuery) (core.Record, error) {
	if q == nil {
		q = &core.NativeQuery{}
	}
	one := 1
	limited := *q
	limited.Limit = &one
	rows, err := m.FindAll(ctx, &limited)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (m *engineModel) FindAll(ctx context.Context, q *core.NativeQuery) ([]core.Record, error) {
	if q == nil {
		q = &core.NativeQuery{}
	}
	ex, err := m.executor(q)
	if err != nil {
		return nil, err
	}
	rows, err := m.findAll(ctx, ex, q)
	if err != nil {
		return nil, err
	}
	if err := m.preload(ctx, ex, rows, q.Include); err != nil {
		return nil, err
	}
	return rows, nil
}

// findAll runs the bare SELECT without resolving includes.
func (m *engineModel) findAll(ctx context.Context, ex executor, q *core.NativeQuery) ([]core.Record, error) {
	sqlStr, args, err := buildSelect(m.engine.dialect, m.def.Table, q, false)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rs, err := ex.QueryContext(ctx, sqlStr, args...)
	m.engine.log.SQL(sqlStr, time.Since(start), args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	return scanRecords(rs)
}

func (m *engineModel) FindAndCountAll(ctx context.Context, q *core.NativeQuery) ([]core.Record, int64, error) {
	if q == nil {
		q = &core.NativeQuery{}
	}
	ex, err := m.executor(q)
	if err != nil {
		return nil, 0, err
	}

	sqlStr, args, err := buildSelect(m.engine.dialect, m.def.Table, q, true)
	if err != nil {
		return nil, 0, err
	}
	var count int64
	start := time.Now()
	err = ex.QueryRowContext(ctx, sqlStr, args...).Scan(&count)
	m.engine.log.SQL(sqlStr, time.Since(start), args...)
	if err != nil {
		return nil, 0, err
	}

	rows, err := m.FindAll(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func (m *engineModel) Create(ctx context.Context, data core.Record, q *core.NativeQuery) (core.Record, error) {
	if q == nil {
		q = &core.NativeQuery{}
	}
	ex, err := m.executor(q)
	if err != nil {
		return nil, err
	}

	rec := make(core.Record, len(data)+1)
	for k, v := range data {
		rec[k] = v
	}
	if m.def.GenerateID {
		if _, ok := rec[m.def.IDColumn]; !ok {
			rec[m.def.IDColumn] = uuid.NewString()
		}
	}

	sqlStr, args := buildInsert(m.engine.dialect, m.def.Table, rec, true)
	start := time.Now()
	if m.engine.dialect.SupportsReturning() {
		rs, err := ex.QueryContext(ctx, sqlStr, args...)
		m.engine.log.SQL(sqlStr, time.Since(start), args...)
		if err != nil {
			return nil, err
		}
		defer rs.Close()
		created, err := scanRecords(rs)
		if err != nil {
			return nil, err
		}
		if len(created) == 1 {
			return created[0], nil
		}
		return rec, nil
	}

	res, err := ex.ExecContext(ctx, sqlStr, args...)
	m.engine.log.SQL(sqlStr, time.Since(start), args...)
	if err != nil {
		return nil, err
	}
	// Best effort: when the driver cannot report the inserted id, the
	// returned record simply has no id column.
	if _, ok := rec[m.def.IDColumn]; !ok {
		if id, err := res.LastInsertId(); err == nil {
			rec[m.def.IDColumn] = id
		}
	}
	return rec, nil
}

func (m *engineModel) Update(ctx context.Context, data core.Record, q *core.NativeQuery) ([]core.Record, int64, error) {
	if q == nil {
		q = &core.NativeQuery{}
	}
	ex, err := m.executor(q)
	if err != nil {
		return nil, 0, err
	}
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("update on %q with no columns", m.name)
	}

	returning := m.engine.dialect.SupportsReturning()
	sqlStr, args, err := buildUpdate(m.engine.dialect, m.def.Table, data, q, returning)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	if returning {
		rs, err := ex.QueryContext(ctx, sqlStr, args...)
		m.engine.log.SQL(sqlStr, time.Since(start), args...)
		if err != nil {
			return nil, 0, err
		}
		defer rs.Close()
		rows, err := scanRecords(rs)
		if err != nil {
			return nil, 0, err
		}
		return rows, int64(len(rows)), nil
	}

	res, err := ex.ExecContext(ctx, sqlStr, args...)
	m.engine.log.SQL(sqlStr, time.Since(start), args...)
	if err != nil {
		return nil, 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, 0, err
	}
	return nil, affected, nil
}

func (m *engineModel) Remove(ctx context.Context, q *core.NativeQuery) (int64, error) {
	if q == nil {
		q = &core.NativeQuery{}
	}
	ex, err := m.executor(q)
	if err != nil {
		return 0, err
	}
	sqlStr, args, err := buildDelete(m.engine.dialect, m.def.Table, q)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	res, err := ex.ExecContext(ctx, sqlStr, args...)
	m.engine.log.SQL(sqlStr, time.Since(start), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanRecords reads every row into a column-keyed record. Byte slices are
// normalized to strings so records compare and serialize predictably.
func scanRecords(rs *sql.Rows) ([]core.Record, error) {
	cols, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	var out []core.Record
	for rs.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(core.Record, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = vals[i]
		}
		out = append(out, rec)
	}
	return out, rs.Err()
}
