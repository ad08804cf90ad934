package depgraph

import (
	"sort"

	"github.com/ntse/terrarunt/internal/stack"
)

// ExecutionPlan is an immutable ordered sequence of stacks. In apply order
// every dependency precedes its dependents; the destroy order is obtained
// with Reversed and is always the exact reverse of the apply order.
type ExecutionPlan struct {
	stacks []*stack.Stack
}

// Stacks returns the ordered stacks.
func (p *ExecutionPlan) Stacks() []*stack.Stack {
	return p.stacks
}

// Len returns the number of stacks in the plan.
func (p *ExecutionPlan) Len() int {
	return len(p.stacks)
}

// Names returns the ordered stack names.
func (p *ExecutionPlan) Names() []string {
	names := make([]string, len(p.stacks))
	for i, st := range p.stacks {
		names[i] = st.Name
	}
	return names
}

// Reversed returns a new plan in the exact reverse order. Teardown is never
// recomputed from the graph so it always undoes construction symmetrically,
// even when multiple valid topological orders exist.
func (p *ExecutionPlan) Reversed() *ExecutionPlan {
	reversed := make([]*stack.Stack, len(p.stacks))
	for i, st := range p.stacks {
		reversed[len(p.stacks)-1-i] = st
	}
	return &ExecutionPlan{stacks: reversed}
}

// Schedule computes the apply-order plan: a topological sort selecting
// zero-indegree stacks in lexicographic name order, so repeated runs over
// unchanged input always produce the same order. Build has already rejected
// cycles, so every stack is placed. An empty graph yields an empty plan.
func (g *DependencyGraph) Schedule() *ExecutionPlan {
	indegree := make(map[string]int, len(g.names))
	dependents := make(map[string][]string, len(g.names))

	for _, name := range g.names {
		indegree[name] = len(g.deps[name])
		for _, dep := range g.deps[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range g.names {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]*stack.Stack, 0, len(g.names))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, g.stacks[name])

		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
	}

	return &ExecutionPlan{stacks: ordered}
}
