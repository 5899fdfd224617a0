package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robcxyz/tackle-box/cmd/tackle/replay"
)

// appName is the single source of truth for the application name.
// Env var names and config paths are derived from it.
const appName = "tackle"

var (
	envConfigDir  = strings.ToUpper(appName) + "_CONFIG_DIR"
	envReplayDir  = strings.ToUpper(appName) + "_REPLAY_DIR"
	envContextKey = strings.ToUpper(appName) + "_CONTEXT_KEY"
	envDumpOutput = strings.ToUpper(appName) + "_DUMP_OUTPUT"
	envNoInput    = strings.ToUpper(appName) + "_NO_INPUT"
	envOutputDir  = strings.ToUpper(appName) + "_OUTPUT_DIR"
)

const configFileName = "config.yml"

// Settings are the persistent defaults of the CLI. Precedence, lowest
// first: built-in defaults, config.yml, environment, flags.
type Settings struct {
	ContextKey string `yaml:"context_key"`
	ReplayDir  string `yaml:"replay_dir"`
	DumpOutput string `yaml:"dump_output"`
	OutputDir  string `yaml:"output_dir"`
	NoInput    bool   `yaml:"no_input"`

	// path is the config file the settings were read from, if any.
	path string
}

// resolveConfigDir returns the base config directory for the application.
// Priority: $TACKLE_CONFIG_DIR > $XDG_CONFIG_HOME/tackle > ~/.config/tackle
func resolveConfigDir() (string, error) {
	if v := os.Getenv(envConfigDir); v != "" {
		return v, nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

func defaultSettings(configDir string) Settings {
	return Settings{
		ContextKey: appName,
		ReplayDir:  filepath.Join(configDir, "replay"),
		DumpOutput: string(replay.YAML),
		OutputDir:  ".",
	}
}

// loadSettings layers config.yml and the environment over the defaults.
// A missing config file is not an error.
func loadSettings() (Settings, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return Settings{}, err
	}
	s := defaultSettings(dir)

	path := filepath.Join(dir, configFileName)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Settings{}, fmt.Errorf("config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("config file %s: %w", path, err)
		}
		s.path = path
	}

	if err := s.applyEnv(); err != nil {
		return Settings{}, err
	}
	if _, err := replay.ParseFormat(s.DumpOutput); err != nil {
		return Settings{}, fmt.Errorf("dump_output: %w", err)
	}
	return s, nil
}

func (s *Settings) applyEnv() error {
	if v := os.Getenv(envContextKey); v != "" {
		s.ContextKey = v
	}
	if v := os.Getenv(envReplayDir); v != "" {
		s.ReplayDir = v
	}
	if v := os.Getenv(envDumpOutput); v != "" {
		s.DumpOutput = v
	}
	if v := os.Getenv(envOutputDir); v != "" {
		s.OutputDir = v
	}
	if v := os.Getenv(envNoInput); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envNoInput, err)
		}
		s.NoInput = b
	}
	return nil
}

func (s Settings) replayStore() replay.Store {
	f, _ := replay.ParseFormat(s.DumpOutput)
	return replay.Store{Dir: s.ReplayDir, Format: f}
}
