// Package render substitutes template expressions in tree values.
package render

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

var (
	ErrRender    = errors.New("render failed")
	ErrUndefined = errors.New("undefined variable")
)

// Renderer substitutes expressions inside value using scope.
//
// Strings are rendered, *tree.Map and []any are walked recursively and
// returned with the same shape. Everything else is returned unchanged.
type Renderer interface {
	Render(value any, scope map[string]any) (any, error)
}

// Error reports a failed expression together with the scope it was rendered
// against.
type Error struct {
	Expr  string
	Scope map[string]any
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rendering %q: %v (context keys: %s)", e.Expr, e.Err, strings.Join(scopeKeys(e.Scope), ", "))
}

func (e *Error) Unwrap() []error {
	return []error{ErrRender, e.Err}
}

// singleExprRe matches a string that is exactly one variable reference, such
// as "{{ items }}" or "{{ repo.name }}". Those render to the referenced value
// itself, so sequences and mappings survive rendering.
var singleExprRe = regexp.MustCompile(`^\s*\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)\s*\}\}\s*$`)

// walk applies fn to every string inside value.
func walk(value any, fn func(string) (any, error)) (any, error) {
	switch v := value.(type) {
	case string:
		return fn(v)
	case *tree.Map:
		out := tree.New()
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			r, err := walk(item, fn)
			if err != nil {
				return nil, err
			}
			out.Set(k, r)
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			r, err := walk(item, fn)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return value, nil
	}
}

// hasMarkers reports whether s contains anything the template engine would
// act on.
func hasMarkers(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

// lookupExpr resolves a single-variable expression directly against scope.
func lookupExpr(s string, scope map[string]any) (any, bool, error) {
	m := singleExprRe.FindStringSubmatch(s)
	if m == nil {
		return nil, false, nil
	}
	path := strings.Split(m[1], ".")
	v, ok := tree.Lookup(scope, path...)
	if !ok {
		return nil, true, &Error{Expr: s, Scope: scope, Err: fmt.Errorf("%w: %s", ErrUndefined, m[1])}
	}
	return tree.Clone(v), true, nil
}

func scopeKeys(scope map[string]any) []string {
	keys := make([]string, 0, len(scope))
	for k := range scope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
