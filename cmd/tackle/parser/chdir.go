package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// inDir runs fn with the working directory switched to dir and restores the
// previous one on every exit path, panics included. An empty dir runs fn in
// place; a dir that does not exist is logged and ignored.
func inDir(dir string, log *zap.Logger, fn func() (any, error)) (any, error) {
	if dir == "" {
		return fn()
	}
	target, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	if fi, err := os.Stat(target); err != nil || !fi.IsDir() {
		log.Warn("chdir target is not a directory, running in place", zap.String("chdir", dir))
		return fn()
	}

	prev, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("chdir: %w", err)
	}
	if err := os.Chdir(target); err != nil {
		return nil, fmt.Errorf("chdir: %w", err)
	}
	defer func() {
		if err := os.Chdir(prev); err != nil {
			log.Error("restoring working directory", zap.String("dir", prev), zap.Error(err))
		}
	}()
	return fn()
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
