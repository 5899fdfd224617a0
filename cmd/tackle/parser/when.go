package parser

import (
	"fmt"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// when evaluates a condition. Strings are rendered then coerced, lists need
// every element true, and a mapping is one of {all: [...]}, {any: [...]} or
// {not: cond}.
func (r *run) when(f *frame, cond any) (bool, error) {
	switch c := cond.(type) {
	case bool:
		return c, nil
	case string:
		v, err := r.render(f, c)
		if err != nil {
			return false, err
		}
		return truthy(v), nil
	case []any:
		for i, sub := range c {
			ok, err := r.when(f, sub)
			if err != nil {
				return false, fmt.Errorf("[%d]: %w", i, err)
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case *tree.Map:
		return r.conditionObject(f, c)
	default:
		return truthy(c), nil
	}
}

func (r *run) conditionObject(f *frame, c *tree.Map) (bool, error) {
	if c.Len() != 1 {
		return false, fmt.Errorf("%w: expected exactly one of all, any, not; got %v", ErrInvalidCondition, c.Keys())
	}
	op := c.Keys()[0]
	arg, _ := c.Get(op)

	switch op {
	case "not":
		ok, err := r.when(f, arg)
		return !ok, err
	case "all", "any":
		list, ok := arg.([]any)
		if !ok {
			return false, fmt.Errorf("%w: %s needs a list, got %T", ErrInvalidCondition, op, arg)
		}
		for i, sub := range list {
			ok, err := r.when(f, sub)
			if err != nil {
				return false, fmt.Errorf("%s[%d]: %w", op, i, err)
			}
			if op == "any" && ok {
				return true, nil
			}
			if op == "all" && !ok {
				return false, nil
			}
		}
		return op == "all", nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrInvalidCondition, op)
	}
}

// truthy coerces a rendered value to a boolean with the rules control
// fields use.
func truthy(v any) bool {
	return hooks.Truthy(v)
}
