package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

type outcome struct {
	value    any
	merge    bool
	deferred bool
	skipped  bool
}

// dispatch decodes the rendered directive into a hook, asks for
// confirmation if the directive wants it, then executes the hook or queues
// it for after the pass.
func (r *run) dispatch(ctx context.Context, f *frame, key, path string, spec *hooks.Spec, fields *tree.Map) (outcome, error) {
	h, err := hooks.Decode(spec, key, fields, r.ambient(key))
	if err != nil {
		return outcome{}, fmt.Errorf("phase=decode key=%s: %w", path, err)
	}
	base := h.Control()

	ok, err := r.confirm(f, key, base.Confirm)
	if err != nil {
		return outcome{}, fmt.Errorf("phase=confirm key=%s: %w", path, err)
	}
	if !ok {
		r.log.Info("declined, skipping", zap.String("key", path), zap.String("type", spec.Type))
		return outcome{skipped: true}, nil
	}

	inst := &instance{
		key:  key,
		path: path,
		spec: spec,
		hook: h,
		rt:   &runtime{r: r, f: f, path: path},
		log:  r.log,
	}

	if base.Deferred(spec) {
		r.queue.push(inst)
		r.log.Debug("queued post-gen hook", zap.String("key", path), zap.String("type", spec.Type))
		return outcome{merge: bool(base.Merge), deferred: true}, nil
	}

	r.log.Debug("executing hook", zap.String("key", path), zap.String("type", spec.Type))
	v, err := inst.execute(ctx)
	if err != nil {
		return outcome{}, err
	}
	return outcome{value: v, merge: bool(base.Merge)}, nil
}

// confirm handles the confirm control field. Without it, when it is false,
// or when its own condition is false, the hook runs. true asks with the
// default message. In no-input mode the default answer is taken without
// prompting.
func (r *run) confirm(f *frame, key string, c tree.Value) (bool, error) {
	if !c.IsSet() || c.Interface() == nil {
		return true, nil
	}

	var message string
	var def bool
	switch x := c.Interface().(type) {
	case bool:
		if !x {
			return true, nil
		}
	case string:
		// A condition rendered to text reads as a switch, anything else
		// is the message.
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "false", "":
			return true, nil
		case "true":
		default:
			message = x
		}
	case *tree.Map:
		if cond, ok := x.Get("when"); ok {
			pass, err := r.when(f, cond)
			if err != nil {
				return false, err
			}
			if !pass {
				return true, nil
			}
		}
		for _, k := range x.Keys() {
			switch k {
			case "message", "default", "when":
			default:
				return false, fmt.Errorf("%w: unknown field %q", ErrInvalidConfirm, k)
			}
		}
		if m, ok := x.Get("message"); ok {
			message = fmt.Sprint(m)
		}
		if d, ok := x.Get("default"); ok {
			def = truthy(d)
		}
	default:
		return false, fmt.Errorf("%w: expected a string or mapping, got %T", ErrInvalidConfirm, x)
	}
	if message == "" {
		message = fmt.Sprintf("Run %s?", key)
	}

	if r.opts.Mode.NoInput {
		return def, nil
	}
	return r.opts.Prompter.Confirm(message, def)
}

// instance is a constructed hook bound to the frame it was dispatched from.
type instance struct {
	key  string
	path string
	spec *hooks.Spec
	hook hooks.Hook
	rt   *runtime
	log  *zap.Logger
	done bool
}

// execute runs the hook once, inside its chdir.
func (i *instance) execute(ctx context.Context) (any, error) {
	if i.done {
		return nil, fmt.Errorf("phase=execute key=%s: %w", i.path, ErrAlreadyExecuted)
	}
	i.done = true

	v, err := inDir(i.hook.Control().Chdir, i.log, func() (any, error) {
		return i.hook.Execute(ctx, i.rt)
	})
	if err != nil {
		var hce *hooks.HookCallError
		if errors.As(err, &hce) && hce.Key == "" {
			hce.Key, hce.Type = i.key, i.spec.Type
		}
		return nil, fmt.Errorf("phase=execute key=%s type=%s: %w", i.path, i.spec.Type, err)
	}
	return tree.Normalize(v), nil
}

// runtime implements hooks.Runtime for one dispatched hook.
type runtime struct {
	r    *run
	f    *frame
	path string
}

func (rt *runtime) Stdout() io.Writer { return rt.r.opts.Stdout }
func (rt *runtime) Prompter() hooks.Prompter { return rt.r.opts.Prompter }
func (rt *runtime) Logger() *zap.Logger { return rt.r.log.With(zap.String("key", rt.path)) }

func (rt *runtime) Evaluate(ctx context.Context, items *tree.Map) (*tree.Map, error) {
	if items == nil {
		return tree.New(), nil
	}
	return rt.r.evaluateTree(ctx, rt.f.child(items, rt.path))
}
