package system

import (
	"context"
	"errors"
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
)

func question(message, key string) string {
	if message != "" {
		return message
	}
	return key + "?"
}

type inputHook struct {
	hooks.Base `yaml:",inline"`
	Message    string `yaml:"message"`
	Default    string `yaml:"default"`
	NoInput    bool   `yaml:"no_input"`
	Key        string `yaml:"key"`
}

func (h *inputHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	if h.NoInput {
		return h.Default, nil
	}
	return rt.Prompter().Input(question(h.Message, h.Key), h.Default)
}

type confirmHook struct {
	hooks.Base `yaml:",inline"`
	Message    string `yaml:"message"`
	Default    bool   `yaml:"default"`
	NoInput    bool   `yaml:"no_input"`
	Key        string `yaml:"key"`
}

func (h *confirmHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	if h.NoInput {
		return h.Default, nil
	}
	return rt.Prompter().Confirm(question(h.Message, h.Key), h.Default)
}

// selectHook picks one of choices. With fuzzy set, the choice is made in a
// fuzzy finder instead of the regular prompt.
type selectHook struct {
	hooks.Base `yaml:",inline"`
	Message    string           `yaml:"message"`
	Choices    hooks.StringList `yaml:"choices" hook:"required"`
	Default    string           `yaml:"default"`
	Fuzzy      bool             `yaml:"fuzzy"`
	NoInput    bool             `yaml:"no_input"`
	Key        string           `yaml:"key"`
}

func (h *selectHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	if len(h.Choices) == 0 {
		return nil, hooks.Failf("No choices to select from.")
	}
	if h.Default != "" && !contains(h.Choices, h.Default) {
		return nil, hooks.Failf("Default %q is not one of the choices.", h.Default)
	}
	if h.NoInput {
		if h.Default != "" {
			return h.Default, nil
		}
		return h.Choices[0], nil
	}
	if h.Fuzzy {
		return fuzzySelect(question(h.Message, h.Key), h.Choices)
	}
	return rt.Prompter().Select(question(h.Message, h.Key), h.Choices, h.Default)
}

func fuzzySelect(message string, choices []string) (string, error) {
	idx, err := fuzzyfinder.Find(
		choices,
		func(i int) string {
			return choices[i]
		},
		fuzzyfinder.WithPromptString(message+" "),
	)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return "", hooks.Failf("Selection aborted.")
	}
	if err != nil {
		return "", fmt.Errorf("fuzzy select: %w", err)
	}
	return choices[idx], nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
