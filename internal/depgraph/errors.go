package depgraph

import (
	"fmt"
	"strings"
)

// DuplicateStackNameError is returned when two discovered stacks share a
// name. Names must be unique within a run.
type DuplicateStackNameError struct {
	Name string
	Dirs []string
}

func (e *DuplicateStackNameError) Error() string {
	return fmt.Sprintf("duplicate stack name %q declared by: %s", e.Name, strings.Join(e.Dirs, ", "))
}

// UnresolvedDependencyError is returned when a declared dependency does not
// match any discovered stack.
type UnresolvedDependencyError struct {
	Stack      string
	Dependency string
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("stack %q depends on unknown stack %q", e.Stack, e.Dependency)
}

// CyclicDependencyError is returned when the dependency declarations form a
// cycle. Cycle lists the member stacks in cycle order.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}
