package core

import "reflect"

// Where is the nested filter tree of a query: field name (or related entity
// name) to a value, a slice of values, an operator map, or a deeper Where.
type Where map[string]any

// Include describes which fields and related entities to project. The
// reserved key "fields" holds an explicit field list; every other key names
// a related entity whose value is a nested Include (or true for all fields).
type Include map[string]any

// FieldsKey is the reserved Include key holding an explicit field list.
const FieldsKey = "fields"

// Order is a single ordering rule.
type Order struct {
	Field string
	Desc  bool
}

// Settings is the request descriptor accepted by every operation.
// Limit and Offset use pointer presence so that a merge can distinguish
// "unset" from an explicit zero.
type Settings struct {
	Where       Where
	Include     Include
	Limit       *int
	Offset      *int
	Order       []Order
	Transaction Transaction
}

// Limit returns a pointer to n, for use in Settings literals.
func Limit(n int) *int { return &n }

// Offset returns a pointer to n, for use in Settings literals.
func Offset(n int) *int { return &n }

// Merge combines base settings with an override. The Where and Include
// trees are deep-extended: keys absent from the override survive at every
// nesting depth, keys present in the override replace only their own
// subtree. Every other field is taken from the override when present.
// Neither input is mutated.
func Merge(base, override *Settings) *Settings {
	out := &Settings{}
	if base != nil {
		*out = *base
	}
	if override == nil {
		out.Where = extendTree(nil, out.Where)
		out.Include = extendTree(nil, out.Include)
		return out
	}

	out.Where = extendTree(out.Where, override.Where)
	out.Include = extendTree(out.Include, override.Include)

	if override.Limit != nil {
		out.Limit = override.Limit
	}
	if override.Offset != nil {
		out.Offset = override.Offset
	}
	if override.Order != nil {
		out.Order = override.Order
	}
	if override.Transaction != nil {
		out.Transaction = override.Transaction
	}
	return out
}

// extendTree deep-merges src into a fresh copy of dst. Both trees are left
// untouched. Cyclic inputs are tolerated: a node already being copied is
// assigned by reference instead of recursed into.
func extendTree[M ~map[string]any](dst, src M) M {
	if dst == nil && src == nil {
		return nil
	}
	seen := make(map[uintptr]bool)
	out := copyTree(map[string]any(dst), seen)
	mergeTree(out, map[string]any(src), seen)
	return M(out)
}

func copyTree(m map[string]any, seen map[uintptr]bool) map[string]any {
	out := make(map[string]any, len(m))
	if m == nil {
		return out
	}
	id := mapID(m)
	if seen[id] {
		return out
	}
	seen[id] = true
	defer delete(seen, id)

	for k, v := range m {
		if child, ok := asTree(v); ok {
			if seen[mapID(child)] {
				out[k] = v
				continue
			}
			out[k] = copyTree(child, seen)
			continue
		}
		out[k] = v
	}
	return out
}

func mergeTree(dst, src map[string]any, seen map[uintptr]bool) {
	if src == nil {
		return
	}
	id := mapID(src)
	if seen[id] {
		return
	}
	seen[id] = true
	defer delete(seen, id)

	for k, v := range src {
		srcChild, srcIsTree := asTree(v)
		dstChild, dstIsTree := asTree(dst[k])
		if srcIsTree && dstIsTree {
			if seen[mapID(srcChild)] {
				dst[k] = v
				continue
			}
			merged := copyTree(dstChild, seen)
			mergeTree(merged, srcChild, seen)
			dst[k] = merged
			continue
		}
		if srcIsTree {
			if seen[mapID(srcChild)] {
				dst[k] = v
				continue
			}
			dst[k] = copyTree(srcChild, seen)
			continue
		}
		dst[k] = v
	}
}

// asTree reports whether v is a nested mapping that participates in the
// deep merge.
func asTree(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Where:
		return map[string]any(m), true
	case Include:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

// mapID returns a stable identity for a map value, used to detect cycles.
func mapID(m map[string]any) uintptr {
	if m == nil {
		return 0
	}
	return reflect.ValueOf(m).Pointer()
}
