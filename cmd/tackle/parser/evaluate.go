package parser

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// evaluateTree walks f.input in order and fills f.output.
func (r *run) evaluateTree(ctx context.Context, f *frame) (*tree.Map, error) {
	for _, key := range f.input.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := f.path(key)

		if f.parent == nil {
			if v, ok := r.opts.Existing.Get(key); ok {
				r.log.Debug("using existing value", zap.String("key", path))
				f.output.Set(key, tree.Clone(v))
				continue
			}
		}

		raw, _ := f.input.Get(key)
		d, ok := asDirective(raw)
		if !ok {
			v, err := r.render(f, raw)
			if err != nil {
				return nil, fmt.Errorf("phase=render key=%s: %w", path, err)
			}
			f.output.Set(key, v)
			continue
		}

		if _, _, err := r.evaluate(ctx, f, key, path, d, false); err != nil {
			return nil, err
		}
	}
	return f.output, nil
}

// asDirective reports whether v is a directive map: a mapping whose type
// field is a string.
func asDirective(v any) (*tree.Map, bool) {
	m, ok := v.(*tree.Map)
	if !ok {
		return nil, false
	}
	t, ok := m.Get("type")
	if !ok {
		return nil, false
	}
	_, ok = t.(string)
	return m, ok
}

// evaluate resolves one directive. The second result is false when the
// directive was skipped by its condition or a declined confirmation.
//
// With appendKey the value is returned to the caller (a loop step) instead
// of being written to the output tree.
func (r *run) evaluate(ctx context.Context, f *frame, key, path string, d *tree.Map, appendKey bool) (any, bool, error) {
	_, looped := d.Get("loop")
	looped = looped && !appendKey

	// A condition on item or index filters each iteration instead.
	if cond, ok := d.Get("when"); ok && !(looped && usesLoopVars(cond)) {
		pass, err := r.when(f, cond)
		if err != nil {
			return nil, false, fmt.Errorf("phase=when key=%s: %w", path, err)
		}
		if !pass {
			r.log.Debug("condition false, skipping", zap.String("key", path))
			return nil, false, nil
		}
	}

	if looped {
		target, _ := d.Get("loop")
		return r.loop(ctx, f, key, path, d, target)
	}

	typ, err := r.hookType(f, d)
	if err != nil {
		return nil, false, fmt.Errorf("phase=render key=%s: field type: %w", path, err)
	}
	spec, err := r.reg.Get(typ)
	if err != nil {
		return nil, false, fmt.Errorf("phase=dispatch key=%s: %w", path, err)
	}

	fields, err := r.renderFields(f, d, spec)
	if err != nil {
		return nil, false, fmt.Errorf("phase=render key=%s type=%s: %w", path, spec.Type, err)
	}
	fields.Set("type", typ)

	res, err := r.dispatch(ctx, f, key, path, spec, fields)
	if err != nil {
		return nil, false, err
	}
	if res.skipped {
		return nil, false, nil
	}
	if appendKey {
		return res.value, true, nil
	}

	if res.merge {
		if res.deferred {
			r.log.Debug("merge of deferred hook has no value", zap.String("key", path))
			return nil, true, nil
		}
		m, ok := res.value.(*tree.Map)
		if !ok {
			return nil, false, fmt.Errorf("phase=merge key=%s type=%s: %w, got %T", path, spec.Type, ErrMergeNotMapping, res.value)
		}
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			f.output.Set(k, v)
		}
		return m, true, nil
	}

	f.output.Set(key, res.value)
	return res.value, true, nil
}

// loop evaluates d once per element of the rendered target and writes the
// collected results at key.
func (r *run) loop(ctx context.Context, f *frame, key, path string, d *tree.Map, target any) (any, bool, error) {
	if merge, ok := d.Get("merge"); ok {
		v, err := r.render(f, merge)
		if err != nil {
			return nil, false, fmt.Errorf("phase=loop key=%s: field merge: %w", path, err)
		}
		if truthy(v) {
			return nil, false, fmt.Errorf("phase=loop key=%s: %w", path, ErrMergeInLoop)
		}
	}

	rendered, err := r.render(f, target)
	if err != nil {
		return nil, false, fmt.Errorf("phase=loop key=%s: %w", path, err)
	}
	items, err := loopItems(rendered)
	if err != nil {
		return nil, false, fmt.Errorf("phase=loop key=%s: %w", path, err)
	}

	step := d.Clone()
	step.Delete("loop")
	if cond, ok := step.Get("when"); ok && !usesLoopVars(cond) {
		// Checked once for the whole loop.
		step.Delete("when")
	}

	results := make([]any, 0, len(items))
	for i, item := range items {
		v, ok, err := r.evaluate(ctx, f.iteration(i, item), key, fmt.Sprintf("%s[%d]", path, i), step, true)
		if err != nil {
			return nil, false, err
		}
		if ok {
			results = append(results, v)
		}
	}

	f.output.Set(key, results)
	return results, true, nil
}

var loopVar = regexp.MustCompile(`\b(item|index)\b`)

// usesLoopVars reports whether a condition mentions item or index.
func usesLoopVars(cond any) bool {
	switch c := cond.(type) {
	case string:
		return loopVar.MatchString(c)
	case []any:
		for _, sub := range c {
			if usesLoopVars(sub) {
				return true
			}
		}
	case *tree.Map:
		for _, k := range c.Keys() {
			v, _ := c.Get(k)
			if usesLoopVars(v) {
				return true
			}
		}
	}
	return false
}

// hookType renders the type field, so a directive may pick its hook from
// the context.
func (r *run) hookType(f *frame, d *tree.Map) (string, error) {
	raw, _ := d.Get("type")
	v, err := r.render(f, raw)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w, got %T", ErrInvalidType, v)
	}
	return s, nil
}

// loopItems turns a rendered loop target into the elements to iterate.
// A mapping iterates over its keys.
func loopItems(v any) ([]any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case *tree.Map:
		keys := x.Keys()
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrLoopTarget, v)
	}
}

// renderFields renders the directive's fields for decoding. when and loop
// are consumed already. Lazy hooks only get their control fields rendered.
func (r *run) renderFields(f *frame, d *tree.Map, spec *hooks.Spec) (*tree.Map, error) {
	out := tree.New()
	for _, k := range d.Keys() {
		if k == "when" || k == "loop" {
			continue
		}
		v, _ := d.Get(k)
		if spec.LazyFields && !hooks.IsBaseField(k) {
			out.Set(k, tree.Clone(v))
			continue
		}
		rv, err := r.render(f, v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out.Set(k, rv)
	}
	return out, nil
}
