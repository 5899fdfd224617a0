// Package parser resolves a tackle document into an output tree.
//
// Keys are evaluated one at a time in declaration order. Plain values are
// rendered and copied, directives are gated, looped, rendered, decoded into
// hooks and executed or queued. Queued hooks run once the tree is complete.
package parser

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// Resolve evaluates document[contextKey] with the hooks of reg and returns
// the resolved output tree after the post-generation queue has drained.
// Any error aborts the run; no partial output is returned.
func Resolve(ctx context.Context, document *tree.Map, contextKey string, reg *hooks.Registry, opts Options) (*tree.Map, error) {
	if contextKey == "" {
		return nil, ErrMissingContextKey
	}
	raw, ok := document.Get(contextKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q (have: %v)", ErrContextKeyNotFound, contextKey, document.Keys())
	}
	input, ok := raw.(*tree.Map)
	if !ok {
		return nil, fmt.Errorf("phase=resolve key=%s: %w", contextKey, ErrNotMapping)
	}

	r := newRun(reg, contextKey, opts.withDefaults())
	r.log.Debug("resolve started", zap.String("context_key", contextKey), zap.Int("keys", input.Len()))

	root := &frame{input: input, output: tree.New()}
	out, err := r.evaluateTree(ctx, root)
	if err != nil {
		return nil, err
	}
	if err := r.drain(ctx); err != nil {
		return nil, err
	}
	r.log.Debug("resolve finished", zap.Int("keys", out.Len()))
	return out, nil
}

// run is the state shared by every frame of one Resolve call.
type run struct {
	reg        *hooks.Registry
	contextKey string
	opts       Options
	log        *zap.Logger
	queue      queue
}

func newRun(reg *hooks.Registry, contextKey string, opts Options) *run {
	return &run{
		reg:        reg,
		contextKey: contextKey,
		opts:       opts,
		log:        opts.Logger.With(zap.String("run", uuid.NewString())),
	}
}

func (r *run) ambient(key string) hooks.Ambient {
	m := r.opts.Mode
	return hooks.Ambient{
		NoInput:           m.NoInput,
		OverwriteIfExists: m.OverwriteIfExists,
		SkipIfFileExists:  m.SkipIfFileExists,
		AcceptHooks:       string(m.AcceptHooks),
		OutputDir:         m.OutputDir,
		ContextKey:        r.contextKey,
		Key:               key,
		CallingDirectory:  r.opts.CallingDirectory,
	}
}

// frame is one level of evaluation: the input being walked and the output
// being built. Blocks evaluate in a child frame; loop iterations evaluate in
// a sibling frame that shares input and output and adds index/item.
type frame struct {
	input   *tree.Map
	output  *tree.Map
	parent  *frame
	scratch *tree.Map
	prefix  string
}

// iteration returns the frame a loop step is evaluated in.
func (f *frame) iteration(index int, item any) *frame {
	return &frame{
		input:   f.input,
		output:  f.output,
		parent:  f.parent,
		scratch: tree.FromPairs("index", index, "item", item),
		prefix:  f.prefix,
	}
}

// child returns the frame a block's items are evaluated in.
func (f *frame) child(items *tree.Map, path string) *frame {
	return &frame{input: items, output: tree.New(), parent: f, prefix: path + "."}
}

func (f *frame) path(key string) string {
	return f.prefix + key
}

// scope flattens what rendering can see: the existing seed, then every
// frame's output and scratch from the outermost inwards.
func (r *run) scope(f *frame) map[string]any {
	var chain []*frame
	for cur := f; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}

	s := make(map[string]any)
	put := func(m *tree.Map) {
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			s[k] = v
		}
	}
	put(r.opts.Existing)
	for i := len(chain) - 1; i >= 0; i-- {
		put(chain[i].output)
		put(chain[i].scratch)
	}
	return s
}

func (r *run) render(f *frame, v any) (any, error) {
	return r.opts.Renderer.Render(v, r.scope(f))
}
