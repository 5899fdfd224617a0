package system

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/robcxyz/tackle-box/cmd/tackle/hooks"
	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

// expand resolves a path argument through filepath.Glob. A path that
// matches nothing is an error.
func expand(p string) ([]string, error) {
	matches, err := filepath.Glob(p)
	if err != nil {
		return nil, hooks.Failf("Bad path pattern %s: %v", p, err)
	}
	if len(matches) == 0 {
		return nil, hooks.Failf("Can't find path %s.", p)
	}
	return matches, nil
}

func expandAll(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		m, err := expand(p)
		if err != nil {
			return nil, err
		}
		out = append(out, m...)
	}
	return out, nil
}

// destination returns where src lands when copied or moved to dst. With
// several sources, or when dst is an existing directory, dst is a directory.
func destination(src, dst string, many bool) string {
	if fi, err := os.Stat(dst); (err == nil && fi.IsDir()) || many || strings.HasSuffix(dst, string(filepath.Separator)) {
		return filepath.Join(dst, filepath.Base(src))
	}
	return dst
}

// outputPath places a relative p under dir.
func outputPath(dir, p string) string {
	if dir == "" || p == "" || filepath.IsAbs(p) {
		return p
	}
	out := filepath.Join(dir, p)
	if strings.HasSuffix(p, string(filepath.Separator)) {
		out += string(filepath.Separator)
	}
	return out
}

// overwrite decides whether target may be written. An existing file is left
// alone with skip, replaced with replace, and is an error otherwise.
func overwrite(target string, replace, skip bool, log *zap.Logger) (bool, error) {
	if _, err := os.Lstat(target); err != nil {
		return true, nil
	}
	if skip {
		log.Debug("skipping existing file", zap.String("path", target))
		return false, nil
	}
	if !replace {
		return false, hooks.Failf("Path %s already exists, set overwrite_if_exists to replace it.", target)
	}
	return true, nil
}

func prepare(target string, createPath bool) error {
	parent := filepath.Dir(target)
	if _, err := os.Stat(parent); err == nil {
		return nil
	}
	if !createPath {
		return hooks.Failf("Can't find path %s.", parent)
	}
	return os.MkdirAll(parent, 0o755)
}

type copyHook struct {
	hooks.Base        `yaml:",inline"`
	Src               hooks.StringList `yaml:"src" hook:"required"`
	Dst               string           `yaml:"dst" hook:"required"`
	CreatePath        bool             `yaml:"create_path"`
	OverwriteIfExists bool             `yaml:"overwrite_if_exists"`
	SkipIfFileExists  bool             `yaml:"skip_if_file_exists"`
	OutputDir         string           `yaml:"output_dir"`
}

func (h *copyHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	srcs, err := expandAll(h.Src)
	if err != nil {
		return nil, err
	}
	dst := outputPath(h.OutputDir, h.Dst)
	many := len(srcs) > 1
	for _, src := range srcs {
		target := destination(src, dst, many)
		if err := prepare(target, h.CreatePath); err != nil {
			return nil, err
		}
		if err := h.copyPath(src, target, rt.Logger()); err != nil {
			return nil, fmt.Errorf("copy %s -> %s: %w", src, target, err)
		}
	}
	return dst, nil
}

// copyPath copies a file or a directory tree, keeping file modes.
func (h *copyHook) copyPath(src, dst string, log *zap.Logger) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		write, err := overwrite(target, h.OverwriteIfExists, h.SkipIfFileExists, log)
		if !write {
			return err
		}
		return copyFile(p, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

type moveHook struct {
	hooks.Base        `yaml:",inline"`
	Src               hooks.StringList `yaml:"src" hook:"required"`
	Dst               string           `yaml:"dst" hook:"required"`
	CreatePath        bool             `yaml:"create_path"`
	OverwriteIfExists bool             `yaml:"overwrite_if_exists"`
	SkipIfFileExists  bool             `yaml:"skip_if_file_exists"`
	OutputDir         string           `yaml:"output_dir"`
}

func (h *moveHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	srcs, err := expandAll(h.Src)
	if err != nil {
		return nil, err
	}
	dst := outputPath(h.OutputDir, h.Dst)
	many := len(srcs) > 1
	for _, src := range srcs {
		target := destination(src, dst, many)
		if err := prepare(target, h.CreatePath); err != nil {
			return nil, err
		}
		write, err := overwrite(target, h.OverwriteIfExists, h.SkipIfFileExists, rt.Logger())
		if err != nil {
			return nil, err
		}
		if !write {
			continue
		}
		if fi, err := os.Stat(target); err == nil && fi.IsDir() {
			if err := os.RemoveAll(target); err != nil {
				return nil, fmt.Errorf("move %s -> %s: %w", src, target, err)
			}
		}
		rt.Logger().Debug("moving", zap.String("src", src), zap.String("dst", target))
		if err := os.Rename(src, target); err != nil {
			return nil, fmt.Errorf("move %s -> %s: %w", src, target, err)
		}
	}
	return dst, nil
}

type removeHook struct {
	hooks.Base   `yaml:",inline"`
	Path         hooks.StringList `yaml:"path" hook:"required"`
	FailSilently bool             `yaml:"fail_silently"`
}

func (h *removeHook) Execute(context.Context, hooks.Runtime) (any, error) {
	removed := []string{}
	for _, p := range h.Path {
		matches, err := expand(p)
		if err != nil {
			if h.FailSilently {
				continue
			}
			return nil, err
		}
		for _, m := range matches {
			if err := os.RemoveAll(m); err != nil {
				return nil, fmt.Errorf("remove %s: %w", m, err)
			}
			removed = append(removed, m)
		}
	}
	return removed, nil
}

// shredHook overwrites each file with random bytes, renames it to a random
// name and deletes it.
type shredHook struct {
	hooks.Base `yaml:",inline"`
	Src        hooks.StringList `yaml:"src" hook:"required"`
	Passes     int              `yaml:"passes"`
}

func (h *shredHook) Execute(context.Context, hooks.Runtime) (any, error) {
	srcs, err := expandAll(h.Src)
	if err != nil {
		return nil, err
	}
	for _, src := range srcs {
		if err := shred(src, h.Passes); err != nil {
			return nil, fmt.Errorf("shred %s: %w", src, err)
		}
	}
	return srcs, nil
}

func shred(path string, passes int) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return hooks.Failf("Can't shred directory %s.", path)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	for i := 0; i < passes; i++ {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return err
		}
		if _, err := io.CopyN(f, rand.Reader, fi.Size()); err != nil {
			f.Close()
			return err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}

	renamed := filepath.Join(filepath.Dir(path), uuid.NewString())
	if err := os.Rename(path, renamed); err != nil {
		return err
	}
	return os.Remove(renamed)
}

type chmodHook struct {
	hooks.Base `yaml:",inline"`
	Path       string     `yaml:"path" hook:"required"`
	Mode       tree.Value `yaml:"mode" hook:"required"`
}

func (h *chmodHook) Execute(context.Context, hooks.Runtime) (any, error) {
	mode, err := fileMode(h.Mode.Interface())
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(h.Path); err != nil {
		return nil, hooks.Failf("Can't find path %s.", h.Path)
	}
	if err := os.Chmod(h.Path, mode); err != nil {
		return nil, fmt.Errorf("chmod %s: %w", h.Path, err)
	}
	return nil, nil
}

// fileMode reads a mode written as an octal string ("0755", "755") or as
// an integer already parsed by YAML.
func fileMode(v any) (fs.FileMode, error) {
	switch x := v.(type) {
	case int:
		return fs.FileMode(x), nil
	case string:
		n, err := strconv.ParseUint(strings.TrimPrefix(x, "0o"), 8, 32)
		if err != nil {
			return 0, hooks.Failf("Mode %q is not an octal number.", x)
		}
		return fs.FileMode(n), nil
	default:
		return 0, hooks.Failf("Mode must be an octal string, got %T.", v)
	}
}

type createFileHook struct {
	hooks.Base        `yaml:",inline"`
	Path              string `yaml:"path" hook:"required"`
	OverwriteIfExists bool   `yaml:"overwrite_if_exists"`
	SkipIfFileExists  bool   `yaml:"skip_if_file_exists"`
	OutputDir         string `yaml:"output_dir"`
}

func (h *createFileHook) Execute(_ context.Context, rt hooks.Runtime) (any, error) {
	path := outputPath(h.OutputDir, h.Path)
	write, err := overwrite(path, h.OverwriteIfExists, h.SkipIfFileExists, rt.Logger())
	if !write {
		return path, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create_file %s: %w", path, err)
	}
	return path, f.Close()
}

type listdirHook struct {
	hooks.Base        `yaml:",inline"`
	Directory         string           `yaml:"directory"`
	Directories       hooks.StringList `yaml:"directories"`
	IgnoreHiddenFiles bool             `yaml:"ignore_hidden_files"`
}

func (h *listdirHook) Execute(context.Context, hooks.Runtime) (any, error) {
	switch {
	case h.Directory != "":
		return h.list(h.Directory)
	case len(h.Directories) > 0:
		out := tree.New()
		for _, d := range h.Directories {
			names, err := h.list(d)
			if err != nil {
				return nil, err
			}
			out.Set(d, names)
		}
		return out, nil
	default:
		return nil, hooks.Failf("One of directory or directories is required.")
	}
}

func (h *listdirHook) list(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, hooks.Failf("Can't find path %s.", dir)
	}
	names := []string{}
	for _, e := range entries {
		if h.IgnoreHiddenFiles && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
