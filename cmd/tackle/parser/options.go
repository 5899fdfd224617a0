package parser

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/render"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

var (
	ErrMissingContextKey  = errors.New("context key is required")
	ErrContextKeyNotFound = errors.New("context key not found in document")
	ErrNotMapping         = errors.New("value is not a mapping")
	ErrMergeInLoop        = errors.New("merge cannot be combined with loop")
	ErrMergeNotMapping    = errors.New("merge requires the hook to return a mapping")
	ErrLoopTarget         = errors.New("loop target must be a sequence or mapping")
	ErrInvalidCondition   = errors.New("invalid condition")
	ErrInvalidConfirm     = errors.New("invalid confirm")
	ErrInvalidType        = errors.New("hook type must render to a string")
	ErrAlreadyExecuted    = errors.New("hook already executed")
)

// HookPolicy decides whether post-generation hooks run.
type HookPolicy string

const (
	AcceptYes HookPolicy = "yes"
	AcceptNo  HookPolicy = "no"
	AcceptAsk HookPolicy = "ask"
)

// Mode holds run-wide flags. It is never modified during a pass.
type Mode struct {
	NoInput           bool
	OverwriteIfExists bool
	SkipIfFileExists  bool
	AcceptHooks       HookPolicy // empty means AcceptYes
	OutputDir         string
}

// Options configures one Resolve call. Zero values are usable: rendering
// uses gonja, prompting returns defaults, output is discarded and logging
// is disabled.
type Options struct {
	Mode Mode

	// Existing seeds the run with already-known values, e.g. a replayed
	// output tree or key=value overrides. A top-level key present here is
	// written from the seed and its directive is not evaluated.
	Existing *tree.Map

	Renderer render.Renderer
	Prompter hooks.Prompter
	Stdout   io.Writer
	Logger   *zap.Logger

	// CallingDirectory is the directory the run was started from.
	CallingDirectory string
}

func (o Options) withDefaults() Options {
	if o.Renderer == nil {
		o.Renderer = render.NewJinja()
	}
	if o.Prompter == nil {
		o.Prompter = hooks.Defaults{}
	}
	if o.Stdout == nil {
		o.Stdout = io.Discard
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Existing == nil {
		o.Existing = tree.New()
	}
	if o.Mode.AcceptHooks == "" {
		o.Mode.AcceptHooks = AcceptYes
	}
	return o
}
