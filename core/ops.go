package core

import (
	"context"

	"github.com/davidtedmanjones/prequelize/task"
)

// UpdateResult is the outcome of a mutating operation: the affected rows as
// reported by the engine (nil when it cannot report them) and the affected
// count.
type UpdateResult struct {
	Rows  []Record
	Count int64
}

// CountResult is the outcome of FindAndCountAll: one page of rows plus the
// total count matching the filter.
type CountResult struct {
	Rows  []Record
	Count int64
}

// Model is the bound operation set for one entity. Every operation returns
// a deferred task; no engine call happens until the task is driven with
// Run or Done.
type Model struct {
	handle     *Handle
	engine     Engine
	translator Translator
}

// Name returns the bound entity name.
func (m *Model) Name() string { return m.handle.Name }

func (m *Model) op(name string) string {
	return m.handle.Name + "." + name
}

func (m *Model) translate(s *Settings) (*NativeQuery, error) {
	return m.translator.Translate(s, m.handle)
}

// byID returns the forced constraint scoping an operation to one id (or,
// for a slice, a set of ids).
func (m *Model) byID(id any) *Settings {
	return &Settings{Where: Where{m.handle.IDField: id}}
}

// Get retrieves the record with the given id. Zero matches is ErrNotFound.
func (m *Model) Get(id any, settings *Settings) *task.Task[Record] {
	return task.New(func(ctx context.Context) (Record, error) {
		return m.findOne(ctx, m.op("get"), Merge(settings, m.byID(id)))
	})
}

// Find retrieves a single record, forcing limit 1. Zero matches resolves to
// a nil record, not an error; this is the only read where absence is not an
// error.
func (m *Model) Find(settings *Settings) *task.Task[Record] {
	return task.New(func(ctx context.Context) (Record, error) {
		q, err := m.translate(Merge(settings, &Settings{Limit: Limit(1)}))
		if err != nil {
			return nil, err
		}
		raw, err := m.handle.Model.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		return m.handle.format(raw), nil
	})
}

// FindOne retrieves the single record matching the settings. Limit 2 is
// forced, one more than needed, so a multi-match is detected and rejected
// as a cardinality violation instead of silently picking a row.
func (m *Model) FindOne(settings *Settings) *task.Task[Record] {
	return task.New(func(ctx context.Context) (Record, error) {
		return m.findOne(ctx, m.op("findOne"), settings)
	})
}

func (m *Model) findOne(ctx context.Context, op string, settings *Settings) (Record, error) {
	q, err := m.translate(Merge(settings, &Settings{Limit: Limit(2)}))
	if err != nil {
		return nil, err
	}
	rows, err := m.handle.Model.FindAll(ctx, q)
	if err != nil {
		return nil, err
	}
	raw, err := oneOrError(op, rows)
	if err != nil {
		return nil, err
	}
	return m.handle.format(raw), nil
}

// FindAll retrieves every record matching the settings.
func (m *Model) FindAll(settings *Settings) *task.Task[[]Record] {
	return task.New(func(ctx context.Context) ([]Record, error) {
		q, err := m.translate(settings)
		if err != nil {
			return nil, err
		}
		rows, err := m.handle.Model.FindAll(ctx, q)
		if err != nil {
			return nil, err
		}
		return m.handle.formatAll(rows), nil
	})
}

// FindAndCountAll retrieves one page of records plus the total count
// matching the filter.
func (m *Model) FindAndCountAll(settings *Settings) *task.Task[CountResult] {
	return task.New(func(ctx context.Context) (CountResult, error) {
		q, err := m.translate(settings)
		if err != nil {
			return CountResult{}, err
		}
		rows, count, err := m.handle.Model.FindAndCountAll(ctx, q)
		if err != nil {
			return CountResult{}, err
		}
		return CountResult{Rows: m.handle.formatAll(rows), Count: count}, nil
	})
}

// Create inserts a record. No cardinality enforcement: creation succeeds or
// surfaces the engine error.
func (m *Model) Create(data Record, settings *Settings) *task.Task[Record] {
	return task.New(func(ctx context.Context) (Record, error) {
		q, err := m.translate(settings)
		if err != nil {
			return nil, err
		}
		raw, err := m.handle.Model.Create(ctx, m.handle.To(data), q)
		if err != nil {
			return nil, err
		}
		return m.handle.format(raw), nil
	})
}

// FindAndUpdate updates every matching record, with no expectation on how
// many rows that is.
func (m *Model) FindAndUpdate(data Record, settings *Settings) *task.Task[UpdateResult] {
	return task.New(func(ctx context.Context) (UpdateResult, error) {
		return m.update(ctx, data, settings)
	})
}

func (m *Model) update(ctx context.Context, data Record, settings *Settings) (UpdateResult, error) {
	q, err := m.translate(settings)
	if err != nil {
		return UpdateResult{}, err
	}
	rows, count, err := m.handle.Model.Update(ctx, m.handle.To(data), q)
	if err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Rows: m.handle.formatAll(rows), Count: count}, nil
}

// FindOneAndUpdate updates the single matching record inside a transaction.
// Zero rows affected rolls back and resolves with ErrNotFound; more than
// one is a cardinality violation.
func (m *Model) FindOneAndUpdate(data Record, settings *Settings) *task.Task[UpdateResult] {
	op := m.op("findOneAndUpdate")
	return task.New(func(ctx context.Context) (UpdateResult, error) {
		return withTransaction(ctx, m.engine, settings, func(s *Settings) (UpdateResult, error) {
			res, err := m.update(ctx, data, s)
			if err != nil {
				return res, err
			}
			if err := enforceAffected(op, res.Count, 1, true); err != nil {
				return res, err
			}
			return res, nil
		})
	})
}

// Update updates the record with the given id. Delegates to the singleton
// form, so zero matches is ErrNotFound.
func (m *Model) Update(id any, data Record, settings *Settings) *task.Task[UpdateResult] {
	return m.FindOneAndUpdate(data, Merge(settings, m.byID(id)))
}

// UpdateMany updates the records with the given ids inside a transaction,
// expecting to affect exactly len(ids) rows. A shortfall rolls back and
// resolves with ErrUnprocessable: a partial match against a known id set is
// a data-integrity concern, not a missing-single-record one.
func (m *Model) UpdateMany(ids []any, data Record, settings *Settings) *task.Task[UpdateResult] {
	op := m.op("updateMany")
	expected := int64(len(ids))
	return task.New(func(ctx context.Context) (UpdateResult, error) {
		merged := Merge(settings, m.byID(ids))
		return withTransaction(ctx, m.engine, merged, func(s *Settings) (UpdateResult, error) {
			res, err := m.update(ctx, data, s)
			if err != nil {
				return res, err
			}
			if err := enforceAffected(op, res.Count, expected, false); err != nil {
				return res, err
			}
			return res, nil
		})
	})
}

// FindAndRemove deletes every matching record and resolves with the count,
// with no expectation on how many rows that is.
func (m *Model) FindAndRemove(settings *Settings) *task.Task[int64] {
	return task.New(func(ctx context.Context) (int64, error) {
		return m.remove(ctx, settings)
	})
}

func (m *Model) remove(ctx context.Context, settings *Settings) (int64, error) {
	q, err := m.translate(settings)
	if err != nil {
		return 0, err
	}
	return m.handle.Model.Remove(ctx, q)
}

// FindOneAndRemove deletes the single matching record inside a transaction.
// Zero rows affected rolls back and resolves with ErrNotFound.
func (m *Model) FindOneAndRemove(settings *Settings) *task.Task[int64] {
	op := m.op("findOneAndRemove")
	return task.New(func(ctx context.Context) (int64, error) {
		return withTransaction(ctx, m.engine, settings, func(s *Settings) (int64, error) {
			count, err := m.remove(ctx, s)
			if err != nil {
				return count, err
			}
			if err := enforceAffected(op, count, 1, true); err != nil {
				return count, err
			}
			return count, nil
		})
	})
}

// Remove deletes the record with the given id. Delegates to the singleton
// form, so zero matches is ErrNotFound.
func (m *Model) Remove(id any, settings *Settings) *task.Task[int64] {
	return m.FindOneAndRemove(Merge(settings, m.byID(id)))
}

// withTransaction runs body inside a transaction. A caller-supplied
// transaction is used as-is and never committed or rolled back here; its
// fate belongs to the caller. A self-managed transaction sees exactly one
// of commit or rollback: commit on success (a commit failure surfaces over
// the success), rollback on failure (a rollback failure is swallowed in
// favor of the original error).
func withTransaction[T any](ctx context.Context, engine Engine, settings *Settings, body func(*Settings) (T, error)) (T, error) {
	var zero T
	if settings != nil && settings.Transaction != nil {
		return body(settings)
	}
	tx, err := engine.Begin(ctx)
	if err != nil {
		return zero, err
	}
	out, err := body(Merge(settings, &Settings{Transaction: tx}))
	if err != nil {
		_ = tx.Rollback(ctx)
		return zero, err
	}
	if err := tx.Commit(ctx); err != nil {
		return zero, err
	}
	return out, nil
}
