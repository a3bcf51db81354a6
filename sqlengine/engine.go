// Package sqlengine is the reference prequelize engine over database/sql.
// Entity models are registered with Define and resolved through the
// core.Engine contract; queries arrive as native queries produced by the
// settings translator.
package sqlengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/davidtedmanjones/prequelize/core"
	"github.com/davidtedmanjones/prequelize/dialect"
	"github.com/davidtedmanjones/prequelize/logger"
	"github.com/davidtedmanjones/prequelize/pool"
)

var (
	// ErrRelationNotFound is returned when an include names a relation the
	// model does not define.
	ErrRelationNotFound = errors.New("relation not found")
	// ErrForeignTransaction is returned when a query carries a transaction
	// handle that was not opened by this engine.
	ErrForeignTransaction = errors.New("transaction was not opened by this engine")
)

// Options defines the configuration for the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RelationKind distinguishes how a related entity joins to its parent.
type RelationKind int

const (
	// HasMany relations carry the foreign key on the related table.
	HasMany RelationKind = iota
	// BelongsTo relations carry the foreign key on the parent table.
	BelongsTo
)

// Relation describes one related entity reachable through an include.
type Relation struct {
	Kind RelationKind
	// Model is the related entity name, which must also be Defined.
	Model string
	// ForeignKey is the joining column: on the related table for HasMany,
	// on the parent table for BelongsTo.
	ForeignKey string
}

// ModelDef describes one entity's table.
type ModelDef struct {
	// Table is the table name. Default: the entity name.
	Table string
	// IDColumn is the primary key column. Default "id".
	IDColumn string
	// GenerateID assigns a UUID on create when the id column is absent
	// from the data, for tables without database-generated keys.
	GenerateID bool
	// Relations maps include names to relations.
	Relations map[string]Relation
}

// Engine implements core.Engine over a database/sql connection pool.
type Engine struct {
	pool    pool.Pool
	dialect dialect.Dialect
	log     logger.Logger
	models  map[string]*engineModel
}

// Open initializes an Engine for the given driver and DSN.
func Open(driver, dsn string, opts *Options) (*Engine, error) {
	d, ok := dialect.Get(driver)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %s", driver)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	p := pool.NewStdPool(sqlDB)
	if opts != nil {
		if opts.MaxOpenConns > 0 {
			p.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			p.SetMaxIdleConns(opts.MaxIdleConns)
		}
		if opts.ConnMaxLifetime > 0 {
			p.SetConnMaxLifetime(opts.ConnMaxLifetime)
		}
	}

	if err := p.Ping(); err != nil {
		return nil, err
	}

	return &Engine{
		pool:    p,
		dialect: d,
		log:     logger.NewStdLogger(),
		models:  make(map[string]*engineModel),
	}, nil
}

// Close closes the connection pool.
func (e *Engine) Close() error {
	return e.pool.Close()
}

// SetLogger sets a custom logger.
func (e *Engine) SetLogger(l logger.Logger) {
	e.log = l
}

// Define registers an entity model. Defaults are filled in: table name from
// the entity name, id column "id".
func (e *Engine) Define(name string, def ModelDef) {
	if def.Table == "" {
		def.Table = name
	}
	if def.IDColumn == "" {
		def.IDColumn = "id"
	}
	e.models[name] = &engineModel{engine: e, name: name, def: def}
}

// Model resolves a defined entity model.
func (e *Engine) Model(name string) (core.EngineModel, error) {
	m, err := e.model(name)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (e *Engine) model(name string) (*engineModel, error) {
	m, ok := e.models[name]
	if !ok {
		return nil, fmt.Errorf("model %q is not defined", name)
	}
	return m, nil
}

// Begin opens a new transaction.
func (e *Engine) Begin(ctx context.Context) (core.Transaction, error) {
	start := time.Now()
	sqlTx, err := e.pool.BeginTx(ctx, nil)
	e.log.SQL("BEGIN", time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Tx{sqlTx: sqlTx, log: e.log}, nil
}

// Exec executes a raw SQL statement against the pool, outside any
// transaction. Intended for setup work such as creating tables.
func (e *Engine) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := e.pool.ExecContext(ctx, query, args...)
	e.log.SQL(query, time.Since(start), args...)
	return res, err
}

// executor is the query surface shared by the pool and a transaction.
type executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Tx adapts *sql.Tx to the core.Transaction contract and the executor
// surface.
type Tx struct {
	sqlTx *sql.Tx
	log   logger.Logger
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	start := time.Now()
	err := t.sqlTx.Commit()
	t.log.SQL("COMMIT", time.Since(start))
	if err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	start := time.Now()
	err := t.sqlTx.Rollback()
	t.log.SQL("ROLLBACK", time.Since(start))
	if err != nil {
		return fmt.Errorf("transaction rollback failed: %w", err)
	}
	return nil
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.sqlTx.QueryContext(ctx, query, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.sqlTx.QueryRowContext(ctx, query, args...)
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.sqlTx.ExecContext(ctx, query, args...)
}
