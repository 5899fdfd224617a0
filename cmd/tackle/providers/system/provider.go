// Package system provides the built-in hook types: printing, blocks, file
// operations, shell commands, prompts and host facts.
package system

import (
	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
)

// Provider registers the built-in hooks.
type Provider struct{}

// fileAmbient are the run flags that file writing hooks pick up.
var fileAmbient = []string{"overwrite_if_exists", "skip_if_file_exists", "output_dir"}

func (Provider) Name() string { return "system" }

func (Provider) Hooks() []hooks.Spec {
	return []hooks.Spec{
		{Type: "print", Description: "Print a statement to stdout", New: func() hooks.Hook { return &printHook{} }},
		{Type: "pprint", Description: "Pretty print a value, structures as YAML", New: func() hooks.Hook { return &pprintHook{} }},
		{Type: "echo", Description: "Return a value unchanged", New: func() hooks.Hook { return &echoHook{} }},
		{Type: "block", Description: "Evaluate nested items as a sub-tree", New: func() hooks.Hook { return &blockHook{} }, LazyFields: true},

		{
			Type:        "copy",
			Description: "Copy files or directories",
			New:         func() hooks.Hook { return &copyHook{CreatePath: true} },
			Ambient:     fileAmbient,
		},
		{
			Type:        "move",
			Description: "Move files or directories",
			New:         func() hooks.Hook { return &moveHook{CreatePath: true} },
			Ambient:     fileAmbient,
		},
		{Type: "remove", Description: "Remove files or directories", New: func() hooks.Hook { return &removeHook{} }},
		{Type: "shred", Description: "Overwrite files with random data and delete them", New: func() hooks.Hook { return &shredHook{Passes: 10} }},
		{Type: "chmod", Description: "Change the mode of a path", New: func() hooks.Hook { return &chmodHook{} }},
		{
			Type:        "create_file",
			Description: "Create an empty file",
			New:         func() hooks.Hook { return &createFileHook{} },
			Ambient:     fileAmbient,
		},
		{Type: "listdir", Description: "List the entries of one or more directories", New: func() hooks.Hook { return &listdirHook{} }},

		{
			Type:        "command",
			Description: "Run a shell command and return its stdout",
			New:         func() hooks.Hook { return &commandHook{} },
			Ambient:     []string{"no_input"},
			Deferred:    true,
		},

		{Type: "input", Description: "Prompt for a string", New: func() hooks.Hook { return &inputHook{} }, Ambient: []string{"no_input", "key"}},
		{Type: "confirm", Description: "Prompt for a yes/no answer", New: func() hooks.Hook { return &confirmHook{} }, Ambient: []string{"no_input", "key"}},
		{Type: "select", Description: "Prompt for one of several choices", New: func() hooks.Hook { return &selectHook{} }, Ambient: []string{"no_input", "key"}},

		{Type: "host", Description: "Facts about the host system", New: func() hooks.Hook { return &hostHook{} }},
	}
}
