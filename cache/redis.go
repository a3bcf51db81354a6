// Package cache provides a Redis read-through cache for engine models.
// Reads inside a transaction bypass the cache; writes bump a per-entity
// generation counter, invalidating every cached read for that entity at
// once. Redis failures degrade to the underlying model: the cache is a
// best-effort layer, never a failure source.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidtedmanjones/prequelize/core"
)

// Model wraps a core.EngineModel with read-through caching.
type Model struct {
	inner  core.EngineModel
	client *redis.Client
	entity string
	ttl    time.Duration
}

// Wrap caches reads of inner under the given entity name. A zero ttl means
// no expiration.
func Wrap(inner core.EngineModel, client *redis.Client, entity string, ttl time.Duration) *Model {
	return &Model{inner: inner, client: client, entity: entity, ttl: ttl}
}

// Engine wraps a core.Engine so that every resolved model is cached.
type Engine struct {
	inner  core.Engine
	client *redis.Client
	ttl    time.Duration
}

// WrapEngine caches every model resolved through the engine.
func WrapEngine(inner core.Engine, client *redis.Client, ttl time.Duration) *Engine {
	return &Engine{inner: inner, client: client, ttl: ttl}
}

func (e *Engine) Model(name string) (core.EngineModel, error) {
	m, err := e.inner.Model(name)
	if err != nil {
		return nil, err
	}
	return Wrap(m, e.client, name, e.ttl), nil
}

func (e *Engine) Begin(ctx context.Context) (core.Transaction, error) {
	return e.inner.Begin(ctx)
}

func (m *Model) genKey() string {
	return "prequelize:gen:" + m.entity
}

// generation returns the entity's invalidation counter. A missing key or a
// Redis failure reads as generation 0.
func (m *Model) generation(ctx context.Context) int64 {
	gen, err := m.client.Get(ctx, m.genKey()).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// queryKey renders a native query into a stable cache key. Map rendering
// via fmt is sorted by key, so equal filters produce equal keys.
func queryKey(op string, q *core.NativeQuery) string {
	if q == nil {
		q = &core.NativeQuery{}
	}
	limit, offset := -1, -1
	if q.Limit != nil {
		limit = *q.Limit
	}
	if q.Offset != nil {
		offset = *q.Offset
	}
	return fmt.Sprintf("%s|f=%v|c=%v|i=%v|l=%d|o=%d|s=%v", op, q.Filter, q.Fields, q.Include, limit, offset, q.Order)
}

func (m *Model) cacheKey(ctx context.Context, op string, q *core.NativeQuery) string {
	return fmt.Sprintf("prequelize:cache:%s:%d:%s", m.entity, m.generation(ctx), queryKey(op, q))
}

// invalidate bumps the generation counter after a write.
func (m *Model) invalidate(ctx context.Context) {
	m.client.Incr(ctx, m.genKey())
}

// lookup loads a cached payload into dest, reporting whether it was found.
func (m *Model) lookup(ctx context.Context, key string, dest any) bool {
	raw, err := m.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return decodePayload(raw, dest) == nil
}

// decodePayload unmarshals a cached payload. Numbers are decoded as
// json.Number and re-normalized so a cache hit carries the same value types
// as the engine read that populated it: int64 for integers, float64
// otherwise.
func decodePayload(raw []byte, dest any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return err
	}
	switch p := dest.(type) {
	case *findPayload:
		p.Row = normalizeRecord(p.Row)
	case *listPayload:
		p.Rows = normalizeRecords(p.Rows)
	case *countPayload:
		p.Rows = normalizeRecords(p.Rows)
	}
	return nil
}

func normalizeRecords(rows []core.Record) []core.Record {
	for i, r := range rows {
		rows[i] = normalizeRecord(r)
	}
	return rows
}

func normalizeRecord(r core.Record) core.Record {
	if r == nil {
		return nil
	}
	for k, v := range r {
		r[k] = normalizeValue(v)
	}
	return r
}

// normalizeValue rebuilds decoded JSON values in the record conventions:
// integers as int64, nested objects as records, homogeneous object arrays
// (preloaded relations) as record slices.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		return normalizeRecord(core.Record(t))
	case []any:
		recs := make([]core.Record, 0, len(t))
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				recs = nil
				break
			}
			recs = append(recs, normalizeRecord(core.Record(m)))
		}
		if recs != nil {
			return recs
		}
		for i, e := range t {
			t[i] = normalizeValue(e)
		}
		return t
	}
	return v
}

func (m *Model) store(ctx context.Context, key string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	m.client.Set(ctx, key, data, m.ttl)
}

type findPayload struct {
	Row core.Record
}

type listPayload struct {
	Rows []core.Record
}

type countPayload struct {
	Rows  []core.Record
	Count int64
}

func (m *Model) Find(ctx context.Context, q *core.NativeQuery) (core.Record, error) {
	if q != nil && q.Tx != nil {
		return m.inner.Find(ctx, q)
	}
	key := m.cacheKey(ctx, "find", q)
	var cached findPayload
	if m.lookup(ctx, key, &cached) {
		return cached.Row, nil
	}
	row, err := m.inner.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	m.store(ctx, key, findPayload{Row: row})
	return row, nil
}

func (m *Model) FindAll(ctx context.Context, q *core.NativeQuery) ([]core.Record, error) {
	if q != nil && q.Tx != nil {
		return m.inner.FindAll(ctx, q)
	}
	key := m.cacheKey(ctx, "findAll", q)
	var cached listPayload
	if m.lookup(ctx, key, &cached) {
		return cached.Rows, nil
	}
	rows, err := m.inner.FindAll(ctx, q)
	if err != nil {
		return nil, err
	}
	m.store(ctx, key, listPayload{Rows: rows})
	return rows, nil
}

func (m *Model) FindAndCountAll(ctx context.Context, q *core.NativeQuery) ([]core.Record, int64, error) {
	if q != nil && q.Tx != nil {
		return m.inner.FindAndCountAll(ctx, q)
	}
	key := m.cacheKey(ctx, "findAndCountAll", q)
	var cached countPayload
	if m.lookup(ctx, key, &cached) {
		return cached.Rows, cached.Count, nil
	}
	rows, count, err := m.inner.FindAndCountAll(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	m.store(ctx, key, countPayload{Rows: rows, Count: count})
	return rows, count, nil
}

func (m *Model) Create(ctx context.Context, data core.Record, q *core.NativeQuery) (core.Record, error) {
	rec, err := m.inner.Create(ctx, data, q)
	if err != nil {
		return nil, err
	}
	m.invalidate(ctx)
	return rec, nil
}

func (m *Model) Update(ctx context.Context, data core.Record, q *core.NativeQuery) ([]core.Record, int64, error) {
	rows, count, err := m.inner.Update(ctx, data, q)
	if err != nil {
		return nil, 0, err
	}
	m.invalidate(ctx)
	return rows, count, nil
}

func (m *Model) Remove(ctx context.Context, q *core.NativeQuery) (int64, error) {
	count, err := m.inner.Remove(ctx, q)
	if err != nil {
		return 0, err
	}
	m.invalidate(ctx)
	return count, nil
}
