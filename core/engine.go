package core

import "context"

// Record is the application-facing row shape: column (or include) name to
// value. Produced per call, never persisted by this layer.
type Record map[string]any

// Transaction is the engine's transaction primitive. A transaction found in
// Settings is caller-owned and never terminated by this layer; one opened
// by the coordinator sees exactly one of Commit or Rollback.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Engine is the underlying database engine this layer shapes calls to.
type Engine interface {
	// Model resolves the engine-side model bound to an entity name.
	Model(name string) (EngineModel, error)
	// Begin opens a new transaction.
	Begin(ctx context.Context) (Transaction, error)
}

// EngineModel is the per-entity surface of the engine. Engine errors pass
// through this layer unmodified.
type EngineModel interface {
	// Find returns the first matching record, or nil when none match.
	Find(ctx context.Context, q *NativeQuery) (Record, error)
	// FindAll returns every matching record.
	FindAll(ctx context.Context, q *NativeQuery) ([]Record, error)
	// FindAndCountAll returns matching records plus the total count of
	// rows matching the filter regardless of limit/offset.
	FindAndCountAll(ctx context.Context, q *NativeQuery) ([]Record, int64, error)
	// Create inserts data and returns the created record.
	Create(ctx context.Context, data Record, q *NativeQuery) (Record, error)
	// Update applies data to every matching row and returns the affected
	// rows (nil when the engine cannot report them) and the affected count.
	Update(ctx context.Context, data Record, q *NativeQuery) ([]Record, int64, error)
	// Remove deletes every matching row and returns the affected count.
	Remove(ctx context.Context, q *NativeQuery) (int64, error)
}

// IncludeSpec is one related entity to load alongside the main rows.
// Include carries the relations to resolve on the related rows in turn.
type IncludeSpec struct {
	Name    string
	Fields  []string
	Filter  map[string]any
	Include []IncludeSpec
}

// NativeQuery is the engine's query representation, produced by a
// Translator from merged Settings.
type NativeQuery struct {
	Filter  map[string]any
	Fields  []string
	Include []IncludeSpec
	Limit   *int
	Offset  *int
	Order   []Order
	Tx      Transaction
}

// Translator converts merged settings into the engine's query shape.
// Implementations must be pure: no side effects on the settings.
type Translator interface {
	Translate(s *Settings, h *Handle) (*NativeQuery, error)
}
