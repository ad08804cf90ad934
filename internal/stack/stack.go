package stack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/ntse/terrarunt/internal/config"
	"github.com/ntse/terrarunt/internal/fileutil"
)

// Stack represents one independently-configured unit of infrastructure:
// a directory of provisioner configuration plus its declared dependencies.
// A Stack is immutable after discovery.
type Stack struct {
	// Name identifies the stack within a run. Defaults to the directory
	// base name unless overridden by the declaration file.
	Name string
	// Dir is the canonical absolute path of the stack directory.
	Dir string
	// RelPath is the path relative to the discovery root.
	RelPath string
	// Dependencies are the declared names of stacks that must complete
	// before this one.
	Dependencies []string
	// SkipOnDestroy excludes the stack from destroy operations.
	SkipOnDestroy bool
}

func (s *Stack) String() string {
	return s.Name
}

// Find returns the stack with the given name from a discovered set.
func Find(stacks []*Stack, name string) (*Stack, error) {
	available := make([]string, 0, len(stacks))
	for _, st := range stacks {
		if st.Name == name {
			return st, nil
		}
		available = append(available, st.Name)
	}
	return nil, fmt.Errorf("stack %q not found, available: %s", name, strings.Join(available, ", "))
}

// declaration is the on-disk stack declaration (terrarunt.yaml).
type declaration struct {
	Name          string   `yaml:"name"`
	Dependencies  []string `yaml:"dependencies"`
	SkipOnDestroy bool     `yaml:"skip_on_destroy"`
}

// legacyDeclaration is the dependencies.json format kept for compatibility.
// Dependency entries are paths whose base names are taken as stack names.
type legacyDeclaration struct {
	Dependencies struct {
		Paths []string `json:"paths"`
	} `json:"dependencies"`
	SkipOnDestroy bool `json:"skip_on_destroy"`
}

// FromDir builds a Stack from a qualifying directory, reading the
// declaration file when present.
func FromDir(dir, root string, cfg *config.Config) (*Stack, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		rel = abs
	}

	st := &Stack{
		Name:    filepath.Base(abs),
		Dir:     abs,
		RelPath: rel,
	}

	declFile := filepath.Join(abs, cfg.StackFile)
	if fileutil.FileExists(declFile) {
		data, err := os.ReadFile(declFile)
		if err != nil {
			return nil, err
		}
		var decl declaration
		if err := yaml.Unmarshal(data, &decl); err != nil {
			return nil, fmt.Errorf("invalid declaration in %s: %w", declFile, err)
		}
		if decl.Name != "" {
			st.Name = decl.Name
		}
		st.Dependencies = decl.Dependencies
		st.SkipOnDestroy = decl.SkipOnDestroy
		return st, nil
	}

	legacyFile := filepath.Join(abs, cfg.LegacyStackFile)
	if fileutil.FileExists(legacyFile) {
		data, err := os.ReadFile(legacyFile)
		if err != nil {
			return nil, err
		}
		var decl legacyDeclaration
		if err := json.Unmarshal(data, &decl); err != nil {
			return nil, fmt.Errorf("invalid JSON in %s: %w", legacyFile, err)
		}
		for _, p := range decl.Dependencies.Paths {
			st.Dependencies = append(st.Dependencies, filepath.Base(p))
		}
		st.SkipOnDestroy = decl.SkipOnDestroy
	}

	return st, nil
}
