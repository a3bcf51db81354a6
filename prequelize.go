// Package prequelize is a query-shaping and result-cardinality-enforcement
// layer between application code and a relational engine. Operations accept
// simplified where/include settings and a stated result cardinality, and
// convert cardinality mismatches into typed errors instead of silent
// partial success.
package prequelize

import (
	"github.com/davidtedmanjones/prequelize/core"
)

// Re-export core types and functions
type Settings = core.Settings
type Where = core.Where
type Include = core.Include
type Order = core.Order
type Record = core.Record
type UpdateResult = core.UpdateResult
type CountResult = core.CountResult
type Config = core.Config
type ModelConfig = core.ModelConfig
type Model = core.Model
type Store = core.Store
type Transform = core.Transform
type Engine = core.Engine
type EngineModel = core.EngineModel
type Transaction = core.Transaction
type Translator = core.Translator
type NativeQuery = core.NativeQuery
type CardinalityViolationError = core.CardinalityViolationError

var (
	Setup         = core.Setup
	Merge         = core.Merge
	NewTranslator = core.NewTranslator
	Identity      = core.Identity
	Limit         = core.Limit
	Offset        = core.Offset
	IsFatal       = core.IsFatal

	ErrNotFound        = core.ErrNotFound
	ErrUnprocessable   = core.ErrUnprocessable
	ErrUnknownModel    = core.ErrUnknownModel
	ErrInvalidSettings = core.ErrInvalidSettings
)
