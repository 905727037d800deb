package document

import "strconv"

// SplitPath splits a dotted field path ("a.b.c") into its segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	segs := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}

// Resolve walks a dotted path through v and returns the resolved value(s).
//
// When an intermediate node is a list and the next path
// segment is a non-negative integer literal, it indexes into the list;
// otherwise the remaining path is mapped over every element of the list and
// the flattened non-undefined results become the value (a list). Reaching a
// non-object, non-list node before the path is exhausted yields Undefined.
func Resolve(v Value, path string) Value {
	return resolveSegs(v, SplitPath(path))
}

func resolveSegs(v Value, segs []string) Value {
	if len(segs) == 0 {
		return v
	}
	seg := segs[0]
	rest := segs[1:]

	switch v.Kind() {
	case KindMap:
		m, _ := v.Map()
		child, ok := m[seg]
		if !ok {
			return Undefined
		}
		return resolveSegs(child, rest)
	case KindList:
		list, _ := v.List()
		if idx, ok := parseIndex(seg); ok {
			if idx < 0 || idx >= len(list) {
				return Undefined
			}
			return resolveSegs(list[idx], rest)
		}
		// Map remaining path over every element; flatten non-undefined results.
		out := make([]Value, 0, len(list))
		for _, item := range list {
			r := resolveSegs(item, segs)
			if !r.IsUndefined() {
				out = append(out, r)
			}
		}
		return List(out)
	default:
		return Undefined
	}
}

func parseIndex(seg string) (int, bool) {
	if seg == "" {
		return 0, false
	}
	n, err := strconv.Atoi(seg)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SetPath writes value at a dotted path within v (expected to be a
// KindMap), creating intermediate maps as needed. Returns the (possibly
// new) root value.
func SetPath(root Value, path string, value Value) Value {
	segs := SplitPath(path)
	return setSegs(root, segs, value)
}

func setSegs(node Value, segs []string, value Value) Value {
	if len(segs) == 0 {
		return value
	}
	m := MapOrEmpty(node)
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	if len(segs) == 1 {
		out[segs[0]] = value
	} else {
		out[segs[0]] = setSegs(out[segs[0]], segs[1:], value)
	}
	return Map(out)
}

// UnsetPath removes the leaf named by a dotted path, no-op if any
// intermediate segment is missing.
func UnsetPath(root Value, path string) Value {
	segs := SplitPath(path)
	return unsetSegs(root, segs)
}

func unsetSegs(node Value, segs []string) Value {
	m, ok := node.Map()
	if !ok {
		return node
	}
	if len(segs) == 1 {
		if _, exists := m[segs[0]]; !exists {
			return node
		}
		out := make(map[string]Value, len(m)-1)
		for k, v := range m {
			if k != segs[0] {
				out[k] = v
			}
		}
		return Map(out)
	}
	child, exists := m[segs[0]]
	if !exists {
		return node
	}
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	out[segs[0]] = unsetSegs(child, segs[1:])
	return Map(out)
}
