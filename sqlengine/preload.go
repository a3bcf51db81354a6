package sqlengine

import (
	"context"
	"fmt"

	"github.com/davidtedmanjones/prequelize/core"
)

// preload resolves include specs with follow-up queries against the same
// executor, so includes observe the surrounding transaction. HasMany
// relations attach a slice of related records under the include name,
// BelongsTo a single record or nil.
func (m *engineModel) preload(ctx context.Context, ex executor, rows []core.Record, includes []core.IncludeSpec) error {
	if len(rows) == 0 || len(includes) == 0 {
		return nil
	}
	for _, spec := range includes {
		rel, ok := m.def.Relations[spec.Name]
		if !ok {
			return fmt.Errorf("%s.%s: %w", m.name, spec.Name, ErrRelationNotFound)
		}
		related, err := m.engine.model(rel.Model)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", m.name, spec.Name, err)
		}

		switch rel.Kind {
		case HasMany:
			if err := m.preloadHasMany(ctx, ex, rows, spec, rel, related); err != nil {
				return err
			}
		case BelongsTo:
			if err := m.preloadBelongsTo(ctx, ex, rows, spec, rel, related); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s.%s: unknown relation kind %d", m.name, spec.Name, rel.Kind)
		}
	}
	return nil
}

func (m *engineModel) preloadHasMany(ctx context.Context, ex executor, rows []core.Record, spec core.IncludeSpec, rel Relation, related *engineModel) error {
	ids := make([]any, 0, len(rows))
	for _, r := range rows {
		if id, ok := r[m.def.IDColumn]; ok {
			ids = append(ids, id)
		}
	}

	children, err := related.findAll(ctx, ex, &core.NativeQuery{
		Filter: childFilter(spec.Filter, rel.ForeignKey, ids),
		Fields: withColumns(spec.Fields, append([]string{rel.ForeignKey}, joinColumns(related, spec.Include)...)...),
	})
	if err != nil {
		return err
	}
	if err := related.preload(ctx, ex, children, spec.Include); err != nil {
		return err
	}

	grouped := make(map[string][]core.Record)
	for _, c := range children {
		k := scalarKey(c[rel.ForeignKey])
		grouped[k] = append(grouped[k], c)
	}
	for _, r := range rows {
		k := scalarKey(r[m.def.IDColumn])
		if grouped[k] == nil {
			r[spec.Name] = []core.Record{}
			continue
		}
		r[spec.Name] = grouped[k]
	}
	return nil
}

func (m *engineModel) preloadBelongsTo(ctx context.Context, ex executor, rows []core.Record, spec core.IncludeSpec, rel Relation, related *engineModel) error {
	keys := make([]any, 0, len(rows))
	for _, r := range rows {
		if k, ok := r[rel.ForeignKey]; ok && k != nil {
			keys = append(keys, k)
		}
	}

	parents, err := related.findAll(ctx, ex, &core.NativeQuery{
		Filter: childFilter(spec.Filter, related.def.IDColumn, keys),
		Fields: withColumns(spec.Fields, append([]string{related.def.IDColumn}, joinColumns(related, spec.Include)...)...),
	})
	if err != nil {
		return err
	}
	if err := related.preload(ctx, ex, parents, spec.Include); err != nil {
		return err
	}

	byID := make(map[string]core.Record, len(parents))
	for _, p := range parents {
		byID[scalarKey(p[related.def.IDColumn])] = p
	}
	for _, r := range rows {
		k, ok := r[rel.ForeignKey]
		if !ok || k == nil {
			r[spec.Name] = nil
			continue
		}
		if p, found := byID[scalarKey(k)]; found {
			r[spec.Name] = p
		} else {
			r[spec.Name] = nil
		}
	}
	return nil
}

// childFilter layers the join constraint over the include's own filter.
func childFilter(filter map[string]any, column string, values []any) map[string]any {
	out := make(map[string]any, len(filter)+1)
	for k, v := range filter {
		out[k] = v
	}
	out[column] = values
	return out
}

// withColumns ensures the joining columns survive an explicit field list.
func withColumns(fields []string, columns ...string) []string {
	if len(fields) == 0 {
		return nil
	}
	out := append([]string(nil), fields...)
	for _, column := range columns {
		present := false
		for _, f := range out {
			if f == column {
				present = true
				break
			}
		}
		if !present {
			out = append(out, column)
		}
	}
	return out
}

// joinColumns returns the columns m's nested includes join on, so a field
// list on the intermediate level cannot strip them. Unknown relation names
// are left for preload to report.
func joinColumns(m *engineModel, includes []core.IncludeSpec) []string {
	var cols []string
	for _, spec := range includes {
		rel, ok := m.def.Relations[spec.Name]
		if !ok {
			continue
		}
		switch rel.Kind {
		case HasMany:
			cols = append(cols, m.def.IDColumn)
		case BelongsTo:
			cols = append(cols, rel.ForeignKey)
		}
	}
	return cols
}

// scalarKey normalizes join values for grouping: the driver may report the
// same column as int64 on one side and int on the other.
func scalarKey(v any) string {
	return fmt.Sprintf("%v", v)
}
