package core

import (
	"fmt"
	"sort"
)

// translator is the default Translator. It copies the Where tree into the
// native filter, flattens the Include tree into a field list plus include
// specs, and carries limit/offset/order/transaction across.
type translator struct{}

// NewTranslator returns the default settings-to-native-query translator.
func NewTranslator() Translator {
	return translator{}
}

func (translator) Translate(s *Settings, h *Handle) (*NativeQuery, error) {
	q := &NativeQuery{}
	if s == nil {
		return q, nil
	}

	if s.Where != nil {
		q.Filter = copyTree(map[string]any(s.Where), make(map[uintptr]bool))
	}

	if s.Include != nil {
		fields, includes, err := translateInclude(s.Include)
		if err != nil {
			return nil, err
		}
		q.Fields = fields
		q.Include = includes
	}

	q.Limit = s.Limit
	q.Offset = s.Offset
	q.Order = s.Order
	q.Tx = s.Transaction
	return q, nil
}

// translateInclude splits an Include tree into the entity's own field list
// and the specs for related entities. Related names are emitted in sorted
// order so translation is deterministic.
func translateInclude(inc Include) ([]string, []IncludeSpec, error) {
	var fields []string
	var names []string
	for k := range inc {
		if k == FieldsKey {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	if fv, ok := inc[FieldsKey]; ok {
		fl, err := fieldList(fv)
		if err != nil {
			return nil, nil, err
		}
		fields = fl
	}

	specs, err := includeSpecs(inc, names)
	if err != nil {
		return nil, nil, err
	}
	return fields, specs, nil
}

// includeSpecs builds the specs for the given relation names, recursing
// into nested relations so no level of the tree is dropped.
func includeSpecs(inc map[string]any, names []string) ([]IncludeSpec, error) {
	var specs []IncludeSpec
	for _, name := range names {
		spec := IncludeSpec{Name: name}
		switch v := inc[name].(type) {
		case bool:
			if !v {
				continue
			}
		case map[string]any, Include:
			child, _ := asTree(inc[name])
			var childNames []string
			for k := range child {
				if k == FieldsKey || k == "where" {
					continue
				}
				childNames = append(childNames, k)
			}
			sort.Strings(childNames)

			if fv, ok := child[FieldsKey]; ok {
				fl, err := fieldList(fv)
				if err != nil {
					return nil, err
				}
				spec.Fields = fl
			}
			if wv, ok := child["where"]; ok {
				wt, ok := asTree(wv)
				if !ok {
					return nil, fmt.Errorf("include %q: where must be a mapping: %w", name, ErrInvalidSettings)
				}
				spec.Filter = copyTree(wt, make(map[uintptr]bool))
			}
			nested, err := includeSpecs(child, childNames)
			if err != nil {
				return nil, fmt.Errorf("include %q: %w", name, err)
			}
			spec.Include = nested
		default:
			return nil, fmt.Errorf("include %q: unsupported value %T: %w", name, inc[name], ErrInvalidSettings)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func fieldList(v any) ([]string, error) {
	switch fv := v.(type) {
	case []string:
		return append([]string(nil), fv...), nil
	case []any:
		out := make([]string, 0, len(fv))
		for _, f := range fv {
			s, ok := f.(string)
			if !ok {
				return nil, fmt.Errorf("field list entry %v is not a string: %w", f, ErrInvalidSettings)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field list must be a slice of strings, got %T: %w", v, ErrInvalidSettings)
	}
}
