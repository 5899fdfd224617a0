package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

func mustContain(t *testing.T, got string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(got, sub) {
			t.Fatalf("expected %q to contain %q", got, sub)
		}
	}
}

func parse(t *testing.T, src string) *tree.Map {
	t.Helper()
	doc, err := tree.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// resolve runs input under the context key "tackle".
func resolve(t *testing.T, reg *hooks.Registry, src string, opts Options) (*tree.Map, error) {
	t.Helper()
	return Resolve(context.Background(), tree.FromPairs("tackle", parse(t, src)), "tackle", reg, opts)
}

func mustResolve(t *testing.T, reg *hooks.Registry, src string, opts Options) *tree.Map {
	t.Helper()
	out, err := resolve(t, reg, src, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

// recorder collects the names of executed spy hooks in order.
type recorder struct {
	calls []string
}

type printHook struct {
	hooks.Base `yaml:",inline"`
	Statement  string `yaml:"statement"`
}

func (h *printHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	fmt.Fprintln(rt.Stdout(), h.Statement)
	return h.Statement, nil
}

type echoHook struct {
	hooks.Base `yaml:",inline"`
	Value      tree.Value `yaml:"value"`
}

func (h *echoHook) Execute(context.Context, hooks.Runtime) (any, error) {
	return h.Value.Interface(), nil
}

type spyHook struct {
	hooks.Base `yaml:",inline"`
	Name       string `yaml:"name"`

	rec *recorder
}

func (h *spyHook) Execute(context.Context, hooks.Runtime) (any, error) {
	h.rec.calls = append(h.rec.calls, h.Name)
	return h.Name, nil
}

type pwdHook struct {
	hooks.Base `yaml:",inline"`
	Fail       bool `yaml:"fail"`
}

func (h *pwdHook) Execute(context.Context, hooks.Runtime) (any, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if h.Fail {
		return nil, hooks.Failf("failing in %s", wd)
	}
	return wd, nil
}

type blockHook struct {
	hooks.Base `yaml:",inline"`
	Items      *tree.Map `yaml:"items"`
}

func (h *blockHook) Execute(ctx context.Context, rt hooks.Runtime) (any, error) {
	return rt.Evaluate(ctx, h.Items)
}

type ambientHook struct {
	hooks.Base `yaml:",inline"`
	NoInput    bool   `yaml:"no_input"`
	Key        string `yaml:"key"`
}

func (h *ambientHook) Execute(context.Context, hooks.Runtime) (any, error) {
	return fmt.Sprintf("%v:%s", h.NoInput, h.Key), nil
}

type testProvider struct {
	rec *recorder
}

func (p testProvider) Name() string { return "test" }

func (p testProvider) Hooks() []hooks.Spec {
	spy := func() hooks.Hook { return &spyHook{rec: p.rec} }
	return []hooks.Spec{
		{Type: "print", New: func() hooks.Hook { return &printHook{} }},
		{Type: "echo", New: func() hooks.Hook { return &echoHook{} }},
		{Type: "spy", New: spy},
		{Type: "later", New: spy, Deferred: true},
		{Type: "pwd", New: func() hooks.Hook { return &pwdHook{} }},
		{Type: "block", New: func() hooks.Hook { return &blockHook{} }, LazyFields: true},
		{Type: "ambient", New: func() hooks.Hook { return &ambientHook{} }, Ambient: []string{"no_input", "key"}},
	}
}

func testRegistry(t *testing.T) (*hooks.Registry, *recorder) {
	t.Helper()
	rec := &recorder{}
	reg, err := hooks.NewRegistry(testProvider{rec: rec})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg, rec
}

// scriptedPrompter answers confirmations from a script, then with defaults.
type scriptedPrompter struct {
	answers []bool
	asked   []string
}

func (p *scriptedPrompter) Confirm(message string, def bool) (bool, error) {
	p.asked = append(p.asked, message)
	if len(p.answers) == 0 {
		return def, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Input(_ string, def string) (string, error) { return def, nil }

func (p *scriptedPrompter) Select(_ string, _ []string, def string) (string, error) {
	return def, nil
}

func stdout() (*bytes.Buffer, Options) {
	var buf bytes.Buffer
	return &buf, Options{Stdout: &buf}
}
