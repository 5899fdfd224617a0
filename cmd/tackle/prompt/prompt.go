// Package prompt asks questions on the terminal for hooks and the
// post-generation confirmation.
package prompt

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

var ErrAborted = errors.New("prompt aborted")

// Terminal is the interactive hooks.Prompter. Confirmations and selections
// are huh fields; free text goes through a small bubbletea text input.
type Terminal struct{}

func (Terminal) Confirm(message string, def bool) (bool, error) {
	v := def
	err := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&v).
		Run()
	if err != nil {
		return false, wrap(err)
	}
	return v, nil
}

func (Terminal) Input(message, def string) (string, error) {
	return runInput(message, def)
}

func (Terminal) Select(message string, choices []string, def string) (string, error) {
	v := def
	if v == "" && len(choices) > 0 {
		v = choices[0]
	}
	err := huh.NewSelect[string]().
		Title(message).
		Options(huh.NewOptions(choices...)...).
		Value(&v).
		Run()
	if err != nil {
		return "", wrap(err)
	}
	return v, nil
}

func wrap(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return fmt.Errorf("prompt: %w", err)
}
