// Package hooks defines the contract between the evaluator and the typed
// units of work a directive dispatches to.
package hooks

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// BaseFields are the reserved fields every directive may carry, as reported
// to users in unpermitted-field errors.
var BaseFields = []string{"type", "when", "loop", "chdir"}

// controlFields are accepted on every directive in addition to BaseFields.
var controlFields = []string{"merge", "confirm", "post_gen"}

// IsBaseField reports whether name is a reserved directive field.
func IsBaseField(name string) bool {
	for _, f := range BaseFields {
		if f == name {
			return true
		}
	}
	for _, f := range controlFields {
		if f == name {
			return true
		}
	}
	return false
}

// Hook is a validated unit of work constructed from one directive.
//
// Implementations embed Base inline and declare their own fields with yaml
// tags. Execute is called at most once.
type Hook interface {
	Execute(ctx context.Context, rt Runtime) (any, error)
	Control() *Base
}

// Base carries the control fields shared by every hook. `when` and `loop`
// are consumed by the evaluator before decoding.
type Base struct {
	Type    string     `yaml:"type"`
	Chdir   string     `yaml:"chdir"`
	Merge   Flag       `yaml:"merge"`
	Confirm tree.Value `yaml:"confirm"`
	PostGen *Flag      `yaml:"post_gen"`
}

// Control returns b. It makes every struct embedding Base satisfy the
// control half of Hook.
func (b *Base) Control() *Base { return b }

// Deferred reports whether the hook runs after the primary pass. An explicit
// post_gen field wins over the type's default.
func (b *Base) Deferred(s *Spec) bool {
	if b.PostGen != nil {
		return bool(*b.PostGen)
	}
	return s.Deferred
}

// Runtime is what an executing hook can reach besides its own fields.
type Runtime interface {
	Stdout() io.Writer
	Prompter() Prompter
	Logger() *zap.Logger

	// Evaluate resolves items as a nested tree. The enclosing output tree
	// and loop variables are visible to rendering inside it.
	Evaluate(ctx context.Context, items *tree.Map) (*tree.Map, error)
}

// Prompter asks the user for input.
type Prompter interface {
	Confirm(message string, def bool) (bool, error)
	Input(message, def string) (string, error)
	Select(message string, choices []string, def string) (string, error)
}

// Defaults is a Prompter that never asks and returns the default.
type Defaults struct{}

func (Defaults) Confirm(_ string, def bool) (bool, error) { return def, nil }

func (Defaults) Input(_ string, def string) (string, error) { return def, nil }

func (Defaults) Select(_ string, choices []string, def string) (string, error) {
	if def == "" && len(choices) > 0 {
		return choices[0], nil
	}
	return def, nil
}

// Provider contributes hook types to a Registry.
type Provider interface {
	Name() string
	Hooks() []Spec
}

// Spec describes one hook type.
type Spec struct {
	Type        string
	Description string

	// New returns a pointer to a zero hook struct to decode into.
	New func() Hook

	// Ambient lists the run-wide fields (see Ambient) the hook reads. Each
	// must also be a yaml field of the hook struct.
	Ambient []string

	// LazyFields hooks receive their own fields unrendered and evaluate them
	// through Runtime.Evaluate.
	LazyFields bool

	// Deferred hooks run after the primary pass unless post_gen says otherwise.
	Deferred bool

	provider string
	schema   schema
}

// Provider returns the name of the provider that registered the spec.
func (s *Spec) Provider() string { return s.provider }

// Fields returns the hook's own declared fields, excluding base and ambient
// fields.
func (s *Spec) Fields() []string {
	return s.schema.own(s.Ambient)
}

// Ambient carries run-wide settings a hook may receive.
type Ambient struct {
	NoInput           bool
	OverwriteIfExists bool
	SkipIfFileExists  bool
	AcceptHooks       string
	OutputDir         string
	ContextKey        string
	Key               string
	CallingDirectory  string
}

// ambientNames is the closed set of names a Spec may list in Ambient.
var ambientNames = map[string]bool{
	"no_input":            true,
	"overwrite_if_exists": true,
	"skip_if_file_exists": true,
	"accept_hooks":        true,
	"output_dir":          true,
	"context_key":         true,
	"key":                 true,
	"calling_directory":   true,
}

func (a Ambient) values() map[string]any {
	return map[string]any{
		"no_input":            a.NoInput,
		"overwrite_if_exists": a.OverwriteIfExists,
		"skip_if_file_exists": a.SkipIfFileExists,
		"accept_hooks":        a.AcceptHooks,
		"output_dir":          a.OutputDir,
		"context_key":         a.ContextKey,
		"key":                 a.Key,
		"calling_directory":   a.CallingDirectory,
	}
}
