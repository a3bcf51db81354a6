package core

import "fmt"

// Transform reshapes a record crossing the engine boundary: To on the way
// in (application shape to engine shape), From on the way out.
type Transform func(Record) Record

// Identity is the default transform.
func Identity(r Record) Record { return r }

// Handle binds an entity name to its engine model and transforms. Built
// once at setup, immutable thereafter, shared by every operation call for
// the entity.
type Handle struct {
	Name    string
	Model   EngineModel
	IDField string
	To      Transform
	From    Transform
}

func (h *Handle) format(r Record) Record {
	if r == nil {
		return nil
	}
	return h.From(r)
}

func (h *Handle) formatAll(rows []Record) []Record {
	if rows == nil {
		return nil
	}
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = h.From(r)
	}
	return out
}

// ModelConfig is the per-entity setup configuration.
type ModelConfig struct {
	// To and From override the global transforms for this entity.
	To   Transform
	From Transform
	// IDField is the field id-based operations filter on. Default "id".
	IDField string
}

// Config is the global setup configuration.
type Config struct {
	// Models maps entity name to its configuration. Every named entity must
	// resolve to a model on the engine.
	Models map[string]ModelConfig
	// Translator converts settings to native queries. Default NewTranslator().
	Translator Translator
	// To and From are the global default transforms. Default identity.
	To   Transform
	From Transform
}

// Store holds the bound operation sets produced by Setup.
type Store struct {
	models map[string]*Model
}

// Setup binds an operation set for every entity named in cfg.Models and
// returns the store holding them.
func Setup(engine Engine, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	translator := cfg.Translator
	if translator == nil {
		translator = NewTranslator()
	}
	globalTo, globalFrom := cfg.To, cfg.From
	if globalTo == nil {
		globalTo = Identity
	}
	if globalFrom == nil {
		globalFrom = Identity
	}

	store := &Store{models: make(map[string]*Model, len(cfg.Models))}
	for name, mc := range cfg.Models {
		em, err := engine.Model(name)
		if err != nil {
			return nil, fmt.Errorf("setup %q: %w", name, err)
		}
		h := &Handle{
			Name:    name,
			Model:   em,
			IDField: mc.IDField,
			To:      mc.To,
			From:    mc.From,
		}
		if h.IDField == "" {
			h.IDField = "id"
		}
		if h.To == nil {
			h.To = globalTo
		}
		if h.From == nil {
			h.From = globalFrom
		}
		store.models[name] = &Model{
			handle:     h,
			engine:     engine,
			translator: translator,
		}
	}
	return store, nil
}

// Model returns the bound operation set for an entity.
func (s *Store) Model(name string) (*Model, error) {
	m, ok := s.models[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownModel)
	}
	return m, nil
}
