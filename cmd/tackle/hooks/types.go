package hooks

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// StringList accepts either a single string or a list of strings.
type StringList []string

func (l *StringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			*l = nil
			return nil
		}
		*l = StringList{n.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := n.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", n.Line)
	}
}

// Flag is a boolean control field that also accepts the rendered forms a
// template produces, such as "True", "no" or "0".
type Flag bool

func (f *Flag) UnmarshalYAML(n *yaml.Node) error {
	var v any
	if err := n.Decode(&v); err != nil {
		return err
	}
	*f = Flag(Truthy(v))
	return nil
}

// Truthy coerces a rendered value to a boolean. Strings such as "True",
// "no" or "0" are read as booleans; other values follow Go zero-ness.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "false", "no", "n", "off", "0", "none", "null":
			return false
		}
		return true
	case *tree.Map:
		return x.Len() > 0
	case []any:
		return len(x) > 0
	}
	return !reflect.ValueOf(v).IsZero()
}
