package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/parser"
	"github.com/robcxyz/tackle-box/cmd/tackle/prompt"
	"github.com/robcxyz/tackle-box/cmd/tackle/providers/system"
	"github.com/robcxyz/tackle-box/cmd/tackle/replay"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

var (
	ErrNoDocument     = errors.New("no tackle file found")
	ErrBadOverride    = errors.New("override must be key=value")
	ErrReplayConflict = errors.New("--replay, --replay-file and --rerun are mutually exclusive")
)

// documentNames are tried in order when no file, or a directory, is given.
var documentNames = []string{"tackle.yml", "tackle.yaml", ".tackle.yml", ".tackle.yaml"}

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   appName + " [file] [key=value ...]",
	Short: "Resolve a declarative " + appName + " file",
	Long: "Resolve a " + appName + " file: plain keys are rendered and copied, keys with a\n" +
		"`type` run the matching hook. key=value arguments seed the run with\n" +
		"known values; those keys are not evaluated.\n\n" +
		"Without a file, " + strings.Join(documentNames, ", ") + " in the working\n" +
		"directory are tried in order.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if flagVerbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runTackle,
}

func runTackle(cmd *cobra.Command, args []string) error {
	if replayModes() > 1 {
		return ErrReplayConflict
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	applyFlags(cmd, &settings)

	target, pairs := splitArgs(args)
	overrides, err := parseOverrides(pairs)
	if err != nil {
		return err
	}
	policy, err := parsePolicy(flagAcceptHooks)
	if err != nil {
		return err
	}

	file, err := findDocument(target)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("tackle file %s: %w", file, err)
	}
	doc, err := tree.Parse(data)
	if err != nil {
		return fmt.Errorf("tackle file %s: %w", file, err)
	}

	store := settings.replayStore()
	existing := overrides
	var rec *tree.Map
	switch {
	case flagReplayFile != "":
		rec, err = replay.LoadFile(flagReplayFile)
	case flagReplay || (flagRerun && store.Exists(file, settings.ContextKey)):
		rec, err = store.Load(file, settings.ContextKey)
	}
	if err != nil {
		return err
	}
	if rec != nil {
		for _, k := range overrides.Keys() {
			v, _ := overrides.Get(k)
			rec.Set(k, v)
		}
		existing = rec
		logger.Debug("replaying record", zap.String("file", file))
	}

	reg, err := newRegistry()
	if err != nil {
		return err
	}
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	var prompter hooks.Prompter = prompt.Terminal{}
	if settings.NoInput {
		prompter = hooks.Defaults{}
	}

	out, err := parser.Resolve(cmd.Context(), document(doc, settings.ContextKey), settings.ContextKey, reg, parser.Options{
		Mode: parser.Mode{
			NoInput:           settings.NoInput,
			OverwriteIfExists: flagOverwrite,
			SkipIfFileExists:  flagSkip,
			AcceptHooks:       policy,
			OutputDir:         settings.OutputDir,
		},
		Existing:         existing,
		Prompter:         prompter,
		Stdout:           cmd.OutOrStdout(),
		Logger:           logger.With(zap.String("file", file)),
		CallingDirectory: wd,
	})
	if err != nil {
		return err
	}

	if flagRecord || flagRerun {
		path, err := store.Dump(file, settings.ContextKey, out)
		if err != nil {
			return err
		}
		logger.Info("recorded output", zap.String("path", path))
	}
	if flagPrint {
		b, err := replay.Encode(out, store.Format)
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(b); err != nil {
			return err
		}
	}
	return nil
}

func replayModes() int {
	n := 0
	for _, on := range []bool{flagReplay, flagReplayFile != "", flagRerun} {
		if on {
			n++
		}
	}
	return n
}

// document returns doc when it carries contextKey at the top level.
// Otherwise the whole file is the tree to resolve.
func document(doc *tree.Map, contextKey string) *tree.Map {
	if doc.Has(contextKey) {
		return doc
	}
	return tree.FromPairs(contextKey, doc)
}

func newRegistry() (*hooks.Registry, error) {
	return hooks.NewRegistry(system.Provider{})
}

// applyFlags lets explicitly set flags win over config file and environment.
func applyFlags(cmd *cobra.Command, s *Settings) {
	if cmd.Flags().Changed("context-key") {
		s.ContextKey = flagContextKey
	}
	if cmd.Flags().Changed("no-input") {
		s.NoInput = flagNoInput
	}
	if cmd.Flags().Changed("output-dir") {
		s.OutputDir = flagOutputDir
	}
}

// splitArgs separates the optional file argument from key=value overrides.
func splitArgs(args []string) (string, []string) {
	if len(args) > 0 && !strings.Contains(args[0], "=") {
		return args[0], args[1:]
	}
	return "", args
}

// parseOverrides reads key=value pairs in order. Values are YAML scalars,
// so `n=3` is an int and `ok=true` a bool.
func parseOverrides(pairs []string) (*tree.Map, error) {
	out := tree.New()
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadOverride, p)
		}
		var node yaml.Node
		if err := yaml.Unmarshal([]byte(v), &node); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadOverride, p, err)
		}
		if len(node.Content) == 0 {
			out.Set(k, v)
			continue
		}
		val, err := tree.FromNode(node.Content[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadOverride, p, err)
		}
		out.Set(k, val)
	}
	return out, nil
}

func parsePolicy(s string) (parser.HookPolicy, error) {
	switch p := parser.HookPolicy(strings.ToLower(s)); p {
	case parser.AcceptYes, parser.AcceptNo, parser.AcceptAsk:
		return p, nil
	default:
		return "", fmt.Errorf("--accept-hooks: want yes, no or ask, got %q", s)
	}
}

// findDocument returns the file to resolve: target itself, or the first of
// documentNames inside target (a directory) or the working directory.
func findDocument(target string) (string, error) {
	dir := "."
	if target != "" {
		fi, err := os.Stat(target)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNoDocument, target)
		}
		if !fi.IsDir() {
			return target, nil
		}
		dir = target
	}
	for _, name := range documentNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNoDocument, dir, strings.Join(documentNames, ", "))
}
