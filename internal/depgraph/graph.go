// Package depgraph builds the directed dependency graph over discovered
// stacks and computes deterministic execution orderings.
package depgraph

import (
	"sort"

	"github.com/ntse/terrarunt/internal/stack"
)

// DependencyGraph is a pure value over the discovered stacks: an adjacency
// mapping keyed by stack name, rebuilt each run. An edge A -> B means B must
// complete successfully before A starts.
type DependencyGraph struct {
	stacks map[string]*stack.Stack
	names  []string            // sorted for deterministic iteration
	deps   map[string][]string // stack name -> declared dependency names
}

// Build constructs the graph from discovered stacks. It fails with
// DuplicateStackNameError, UnresolvedDependencyError or
// CyclicDependencyError; a failed build never yields a partial graph.
func Build(stacks []*stack.Stack) (*DependencyGraph, error) {
	g := &DependencyGraph{
		stacks: make(map[string]*stack.Stack, len(stacks)),
		deps:   make(map[string][]string, len(stacks)),
	}

	for _, st := range stacks {
		if dup, ok := g.stacks[st.Name]; ok {
			return nil, &DuplicateStackNameError{
				Name: st.Name,
				Dirs: []string{dup.Dir, st.Dir},
			}
		}
		g.stacks[st.Name] = st
		g.deps[st.Name] = st.Dependencies
		g.names = append(g.names, st.Name)
	}
	sort.Strings(g.names)

	for _, name := range g.names {
		for _, dep := range g.deps[name] {
			if _, ok := g.stacks[dep]; !ok {
				return nil, &UnresolvedDependencyError{Stack: name, Dependency: dep}
			}
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CyclicDependencyError{Cycle: cycle}
	}

	return g, nil
}

// Len returns the number of stacks in the graph.
func (g *DependencyGraph) Len() int {
	return len(g.names)
}

// Get returns the stack with the given name.
func (g *DependencyGraph) Get(name string) (*stack.Stack, bool) {
	st, ok := g.stacks[name]
	return st, ok
}

// findCycle runs a depth-first traversal distinguishing in-progress nodes
// from completed ones: a back-edge to an in-progress node is a cycle, while
// a cross-edge to a completed node is not. Returns the cycle members in
// cycle order, or nil.
func (g *DependencyGraph) findCycle() []string {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(g.names))

	var path []string
	var cycle []string

	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = inProgress
		path = append(path, name)

		for _, dep := range g.deps[name] {
			switch state[dep] {
			case inProgress:
				// Slice the current path from the first occurrence of dep
				// to obtain the members in cycle order.
				for i, n := range path {
					if n == dep {
						cycle = append(cycle, path[i:]...)
						break
					}
				}
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		state[name] = done
		return false
	}

	for _, name := range g.names {
		if state[name] == unvisited && visit(name) {
			return cycle
		}
	}
	return nil
}
