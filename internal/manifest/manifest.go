// Package manifest reads the root dependency list this tool resolves
// against. Parsing a real Gemfile's Ruby DSL is explicitly out of
// scope (see the project's spec); this is a deliberately minimal
// stand-in so cmd/bundle is runnable end to end: a YAML file listing
// gem names and optional requirement strings, found by walking up from
// the working directory the way the teacher's rope.json lookup did.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Dependency is one root-level requirement: a gem name and an optional
// requirement string (empty means "any version").
type Dependency struct {
	Name        string `yaml:"name"`
	Requirement string `yaml:"requirement,omitempty"`
}

// Manifest is the parsed root dependency list.
type Manifest struct {
	Dependencies []Dependency `yaml:"dependencies"`
}

// FileName is the manifest's on-disk name.
const FileName = "bundle.yaml"

// ErrNotFound is returned when no manifest exists in the working
// directory or any of its parents.
var ErrNotFound = fmt.Errorf("%s not found (or in any of the parent directories)", FileName)

// Find walks up from the current working directory looking for
// FileName, the way the teacher's FindRopefile walked up looking for
// rope.json.
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Read loads and parses the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return &m, nil
}

// Write serializes m back to path, matching the teacher's
// WriteRopefile indentation convention.
func Write(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
