package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
)

var (
	styleProvider = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleType     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	styleFields   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available hook types",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := newRegistry()
		if err != nil {
			return err
		}
		return printHooks(cmd.OutOrStdout(), reg)
	},
}

// printHooks prints hook types grouped by provider, with their own fields.
func printHooks(w io.Writer, reg *hooks.Registry) error {
	types := reg.Types()
	if len(types) == 0 {
		fmt.Fprintln(w, "no hooks registered")
		return nil
	}

	width := 0
	byProvider := map[string][]*hooks.Spec{}
	var providers []string
	for _, name := range types {
		s, err := reg.Get(name)
		if err != nil {
			return err
		}
		if _, ok := byProvider[s.Provider()]; !ok {
			providers = append(providers, s.Provider())
		}
		byProvider[s.Provider()] = append(byProvider[s.Provider()], s)
		width = max(width, len(name))
	}

	for _, p := range providers {
		fmt.Fprintln(w, styleProvider.Render(p))
		for _, s := range byProvider[p] {
			line := "  " + styleType.Width(width+2).Render(s.Type) + s.Description
			if f := s.Fields(); len(f) > 0 {
				line += "  " + styleFields.Render("["+strings.Join(f, ", ")+"]")
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}
