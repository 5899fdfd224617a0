package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nikolalohinski/gonja/v2/builtins"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/nikolalohinski/gonja/v2/loaders"

	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// Jinja renders strings with gonja, a Jinja2 implementation.
//
// Undefined variables are errors. Compiled templates are cached by source, so
// a Jinja value may be shared by several runs.
type Jinja struct {
	cfg *config.Config
	env *exec.Environment

	mu    sync.Mutex
	cache map[string]*exec.Template
}

// NewJinja returns a renderer with the gonja builtin filters, tests and
// global functions.
func NewJinja() *Jinja {
	return &Jinja{
		cfg: &config.Config{
			BlockStartString:    "{%",
			BlockEndString:      "%}",
			VariableStartString: "{{",
			VariableEndString:   "}}",
			CommentStartString:  "{#",
			CommentEndString:    "#}",
			AutoEscape:          false,
			StrictUndefined:     true,
		},
		env: &exec.Environment{
			Filters:           builtins.Filters,
			Tests:             builtins.Tests,
			ControlStructures: builtins.ControlStructures,
			Methods:           builtins.Methods,
			Context:           builtins.GlobalFunctions,
		},
		cache: make(map[string]*exec.Template),
	}
}

// Render implements Renderer.
func (j *Jinja) Render(value any, scope map[string]any) (any, error) {
	var plain map[string]any
	return walk(value, func(s string) (any, error) {
		if !hasMarkers(s) {
			return s, nil
		}
		if v, matched, err := lookupExpr(s, scope); matched {
			return v, err
		}
		if plain == nil {
			plain = make(map[string]any, len(scope))
			for k, v := range scope {
				plain[k] = tree.Plain(v)
			}
		}
		return j.renderString(s, plain, scope)
	})
}

func (j *Jinja) renderString(s string, plain, scope map[string]any) (string, error) {
	tpl, err := j.compile(s)
	if err != nil {
		return "", &Error{Expr: s, Scope: scope, Err: err}
	}
	out, err := tpl.ExecuteToString(exec.NewContext(plain))
	if err != nil {
		return "", &Error{Expr: s, Scope: scope, Err: err}
	}
	return out, nil
}

func (j *Jinja) compile(s string) (*exec.Template, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if tpl, ok := j.cache[s]; ok {
		return tpl, nil
	}
	name := fmt.Sprintf("expr-%d", len(j.cache))
	tpl, err := exec.NewTemplate(name, j.cfg, &sourceLoader{name: name, source: s}, j.env)
	if err != nil {
		return nil, err
	}
	j.cache[s] = tpl
	return tpl, nil
}

// sourceLoader serves a single in-memory template. Rendered values are
// self-contained, so include/extends resolve to nothing.
type sourceLoader struct {
	name   string
	source string
}

func (l *sourceLoader) Read(path string) (io.Reader, error) {
	if path != l.name {
		return nil, fmt.Errorf("template %q not found", path)
	}
	return strings.NewReader(l.source), nil
}

func (l *sourceLoader) Resolve(path string) (string, error) {
	return path, nil
}

func (l *sourceLoader) Inherit(from string) (loaders.Loader, error) {
	return l, nil
}
