package hooks

import (
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// Decode constructs the hook for one directive from its rendered fields.
//
// Ambient values listed in s.Ambient are injected unless the directive sets
// the same field itself. Unknown fields fail with a *HookCallError naming the
// field, the directive key and the accepted fields. Missing required fields
// and badly typed values fail with a *FieldError.
func Decode(s *Spec, key string, fields *tree.Map, amb Ambient) (Hook, error) {
	in := tree.New()
	for _, k := range fields.Keys() {
		if k == "when" || k == "loop" {
			continue
		}
		v, _ := fields.Get(k)
		in.Set(k, v)
	}

	values := amb.values()
	for _, name := range s.Ambient {
		if !in.Has(name) {
			in.Set(name, values[name])
		}
	}

	for _, k := range in.Keys() {
		if IsBaseField(k) || s.schema.has(k) {
			continue
		}
		return nil, &HookCallError{Key: key, Type: s.Type, Field: k, Accepted: s.Fields()}
	}

	for _, f := range s.schema.fields {
		if !f.required {
			continue
		}
		if v, ok := in.Get(f.name); !ok || v == nil {
			return nil, &FieldError{Key: key, Type: s.Type, Field: f.name, Err: ErrMissingField}
		}
	}

	node, err := tree.ToNode(in)
	if err != nil {
		return nil, &FieldError{Key: key, Type: s.Type, Err: err}
	}
	h := s.New()
	if err := node.Decode(h); err != nil {
		return nil, &FieldError{Key: key, Type: s.Type, Field: offendingField(s, in), Err: err}
	}
	return h, nil
}

// offendingField decodes the fields one at a time to find the first that
// does not fit the hook struct.
func offendingField(s *Spec, in *tree.Map) string {
	for _, k := range in.Keys() {
		v, _ := in.Get(k)
		node, err := tree.ToNode(tree.FromPairs(k, v))
		if err != nil {
			return k
		}
		if err := node.Decode(s.New()); err != nil {
			return k
		}
	}
	return ""
}
