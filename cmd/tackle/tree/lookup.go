package tree

import "strconv"

// Lookup walks path through nested maps and sequences starting at root.
// Sequence elements are addressed by decimal index.
func Lookup(root any, path ...string) (any, bool) {
	cur := root
	for _, seg := range path {
		switch x := cur.(type) {
		case *Map:
			v, ok := x.Get(seg)
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := x[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(x) {
				return nil, false
			}
			cur = x[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
