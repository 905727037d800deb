package document

import "fmt"

// FromAny converts a decoded encoding/json tree (the any produced by
// json.Unmarshal into an interface{}) into a Value. Non-JSON-compatible
// inputs (channels, funcs, complex numbers) are rejected here, at the
// boundary, per the "cyclic-structure handling" design note: once a value
// is a Value, every other package may assume it is acyclic JSON.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case string:
		return String(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			cv, err := FromAny(item)
			if err != nil {
				return Undefined, err
			}
			items[i] = cv
		}
		return List(items), nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			cv, err := FromAny(item)
			if err != nil {
				return Undefined, err
			}
			m[k] = cv
		}
		return Map(m), nil
	default:
		return Undefined, fmt.Errorf("document: value of type %T is not JSON-compatible", v)
	}
}

// ToAny converts a Value back into the plain any tree encoding/json expects.
func ToAny(v Value) any {
	switch v.kind {
	case KindUndefined, KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = ToAny(item)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = ToAny(item)
		}
		return out
	}
	return nil
}

// MapOrEmpty returns the Value's map contents, or a fresh empty map if the
// Value is not a KindMap (used when a caller needs a mutable map view
// regardless of whether the field previously existed).
func MapOrEmpty(v Value) map[string]Value {
	if m, ok := v.Map(); ok {
		return m
	}
	return map[string]Value{}
}
