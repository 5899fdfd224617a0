package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// printHook prints the first of statement, out or input that is set.
type printHook struct {
	hooks.Base `yaml:",inline"`
	Statement  tree.Value `yaml:"statement"`
	Out        tree.Value `yaml:"out"`
	Input      tree.Value `yaml:"input"`
}

func firstSet(values ...tree.Value) any {
	for _, v := range values {
		if v.IsSet() && v.Interface() != nil {
			return v.Interface()
		}
	}
	return nil
}

func (h *printHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	v := firstSet(h.Statement, h.Out, h.Input)
	if v == nil {
		fmt.Fprintln(rt.Stdout())
		return nil, nil
	}
	fmt.Fprintln(rt.Stdout(), tree.Plain(v))
	return v, nil
}

var (
	pprintScalarStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	pprintBlockStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
)

type pprintHook struct {
	hooks.Base `yaml:",inline"`
	Statement  tree.Value `yaml:"statement"`
	Out        tree.Value `yaml:"out"`
	Input      tree.Value `yaml:"input"`
}

func (h *pprintHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	v := firstSet(h.Statement, h.Out, h.Input)
	switch v.(type) {
	case *tree.Map, []any:
		b, err := tree.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("pprint: %w", err)
		}
		fmt.Fprintln(rt.Stdout(), pprintBlockStyle.Render(strings.TrimRight(string(b), "\n")))
	case nil:
		fmt.Fprintln(rt.Stdout())
	default:
		fmt.Fprintln(rt.Stdout(), pprintScalarStyle.Render(fmt.Sprint(v)))
	}
	return v, nil
}

type echoHook struct {
	hooks.Base `yaml:",inline"`
	Value      tree.Value `yaml:"value"`
}

func (h *echoHook) Execute(context.Context, hooks.Runtime) (any, error) {
	return h.Value.Interface(), nil
}

// blockHook evaluates its items as a nested tree and returns the result.
type blockHook struct {
	hooks.Base `yaml:",inline"`
	Items      *tree.Map `yaml:"items"`
}

func (h *blockHook) Execute(ctx context.Context, rt hooks.Runtime) (any, error) {
	return rt.Evaluate(ctx, h.Items)
}
