package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
)

// commandHook runs a shell command through `sh -c`. Its stdout is echoed as
// it runs and returned with trailing newlines stripped, like $() in shell.
type commandHook struct {
	hooks.Base `yaml:",inline"`
	Command    string            `yaml:"command" hook:"required"`
	Timeout    string            `yaml:"timeout"`
	Env        map[string]string `yaml:"env"`
	NoInput    bool              `yaml:"no_input"`
}

func (h *commandHook) Execute(ctx context.Context, rt hooks.Runtime) (any, error) {
	if h.Timeout != "" {
		d, err := time.ParseDuration(h.Timeout)
		if err != nil {
			return nil, hooks.Failf("Bad timeout %q: %v", h.Timeout, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)

	// Start from the process env, then overlay the hook's vars.
	cmd.Env = os.Environ()
	for k, v := range h.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = io.MultiWriter(&stdout, rt.Stdout())
	cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	if !h.NoInput {
		cmd.Stdin = os.Stdin
	}

	rt.Logger().Debug("running command", zap.String("command", h.Command))
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, hooks.Failf("Command %q timed out after %s.", h.Command, h.Timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, hooks.Failf("Command %q exited with code %d: %s",
				h.Command, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("command %q: %w", h.Command, err)
	}
	return strings.TrimRight(stdout.String(), "\r\n"), nil
}
