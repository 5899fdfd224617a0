package tree

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned when a document root is not a mapping.
var ErrNotMapping = errors.New("document root is not a mapping")

// Parse decodes a YAML (or JSON) document into an ordered Map.
func Parse(in []byte) (*Map, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(in, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("phase=parse path=<doc>: empty document")
	}
	v, err := FromNode(doc.Content[0])
	if err != nil {
		return nil, err
	}
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("phase=parse path=<doc>: %w", ErrNotMapping)
	}
	return m, nil
}

// FromNode converts a yaml.Node into tree values, keeping mapping order.
func FromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return FromNode(n.Content[0])

	case yaml.AliasNode:
		return FromNode(n.Alias)

	case yaml.MappingNode:
		m := New()
		// Content alternates key, value.
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			val, err := FromNode(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k.Value, err)
			}
			m.Set(k.Value, val)
		}
		return m, nil

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for i, c := range n.Content {
			val, err := FromNode(c)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, val)
		}
		return out, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil

	default:
		return nil, fmt.Errorf("line %d: unexpected yaml node kind %d", n.Line, n.Kind)
	}
}

// ToNode converts tree values into a yaml.Node, keeping mapping order.
func ToNode(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case *Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if x == nil {
			return n, nil
		}
		for _, k := range x.keys {
			vn, err := ToNode(x.values[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				vn,
			)
		}
		return n, nil

	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, e := range x {
			en, err := ToNode(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			n.Content = append(n.Content, en)
		}
		return n, nil

	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// UnmarshalYAML lets Map be a yaml.v3 decode target without losing order.
func (m *Map) UnmarshalYAML(n *yaml.Node) error {
	v, err := FromNode(n)
	if err != nil {
		return err
	}
	src, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	*m = *src
	return nil
}

// MarshalYAML encodes m with keys in order.
func (m *Map) MarshalYAML() (any, error) {
	return ToNode(m)
}

// Marshal renders v as a YAML document.
func Marshal(v any) ([]byte, error) {
	n, err := ToNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

// Value holds an arbitrary decoded value. Used for struct fields that accept
// any shape, so that nested mappings stay ordered *Map values.
type Value struct {
	v   any
	set bool
}

// ValueOf wraps v.
func ValueOf(v any) Value {
	return Value{v: v, set: true}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	x, err := FromNode(n)
	if err != nil {
		return err
	}
	v.v, v.set = x, true
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	return ToNode(v.v)
}

// Interface returns the held value.
func (v Value) Interface() any { return v.v }

// IsSet reports whether the field was present in the source.
func (v Value) IsSet() bool { return v.set }
