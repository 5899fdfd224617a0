// Package replay records resolved output trees and loads them back as the
// seed of a later run.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/robcxyz/tackle-box/cmd/tackle/tree"
)

var (
	ErrNoRecord      = errors.New("no replay record")
	ErrUnknownFormat = errors.New("unknown dump format")
	ErrBadName       = errors.New("invalid replay name")
)

// Format is the encoding of a record on disk.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ParseFormat accepts yaml, yml and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: %q (want yaml or json)", ErrUnknownFormat, s)
	}
}

// Encode writes out in format f.
func Encode(out *tree.Map, f Format) ([]byte, error) {
	switch f {
	case JSON:
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case YAML:
		return tree.Marshal(out)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Store keeps one record per document and context key under Dir.
type Store struct {
	Dir    string
	Format Format
}

// Name is the record name for the document at file resolved under
// contextKey. It reads as <dir>-<file>-<key>-<hash>, where the hash covers
// the absolute path and the key, so two projects that both use tackle.yml
// never share a record.
func Name(file, contextKey string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if file == "" || base == "" || base == "." || base == string(filepath.Separator) || contextKey == "" {
		return "", ErrBadName
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadName, err)
	}
	sum := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)+"#"+contextKey))
	dir := filepath.Base(filepath.Dir(abs))
	return fmt.Sprintf("%s-%s-%s-%s", dir, base, contextKey, sum.String()[:8]), nil
}

// Path is where the record for file and contextKey lives.
func (s Store) Path(file, contextKey string) (string, error) {
	name, err := Name(file, contextKey)
	if err != nil {
		return "", err
	}
	ext := "yaml"
	if s.Format == JSON {
		ext = "json"
	}
	return filepath.Join(s.Dir, name+"."+ext), nil
}

// Dump writes out as the record for file and contextKey, creating Dir if
// needed.
func (s Store) Dump(file, contextKey string, out *tree.Map) (string, error) {
	path, err := s.Path(file, contextKey)
	if err != nil {
		return "", err
	}
	b, err := Encode(out, s.Format)
	if err != nil {
		return "", fmt.Errorf("phase=replay path=%s: %w", path, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("phase=replay: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", fmt.Errorf("phase=replay path=%s: %w", path, err)
	}
	return path, nil
}

// Load reads the record for file and contextKey.
func (s Store) Load(file, contextKey string) (*tree.Map, error) {
	path, err := s.Path(file, contextKey)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// Exists reports whether a record for file and contextKey is present.
func (s Store) Exists(file, contextKey string) bool {
	path, err := s.Path(file, contextKey)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// LoadFile reads a record from an explicit path. Both formats go through
// the YAML parser, which also accepts JSON.
func LoadFile(path string) (*tree.Map, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, path)
	}
	if err != nil {
		return nil, fmt.Errorf("phase=replay path=%s: %w", path, err)
	}
	m, err := tree.Parse(b)
	if err != nil {
		return nil, fmt.Errorf("phase=replay path=%s: %w", path, err)
	}
	return m, nil
}
