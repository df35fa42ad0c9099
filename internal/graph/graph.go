// Package graph builds the dependency graph over a frozen Build Model and
// answers topological-order, cycle-detection, and transitive-closure
// queries for the Compile and Link Schedulers.
package graph

import (
	"fmt"

	"github.com/KhaosTian/LaurelBuildTool/internal/lbterrors"
	"github.com/KhaosTian/LaurelBuildTool/internal/model"
)

// Graph is the resolved dependency relation over one frozen Model's
// targets. forward[name] lists the targets name depends on; reverse[name]
// lists the targets that depend on name.
type Graph struct {
	m       *model.Model
	forward map[string][]string
	reverse map[string][]string
}

// Build validates that every target dependency names a real target and
// constructs the forward/reverse adjacency, grounded on
// qobsbuilder.go's topologicalSortTargets graph-construction step.
func Build(m *model.Model) (*Graph, error) {
	g := &Graph{
		m:       m,
		forward: make(map[string][]string),
		reverse: make(map[string][]string),
	}

	for _, t := range m.Targets() {
		g.forward[t.Name] = append([]string(nil), t.Dependencies...)
		if _, ok := g.reverse[t.Name]; !ok {
			g.reverse[t.Name] = nil
		}
		for _, dep := range t.Dependencies {
			if _, ok := m.Target(dep); !ok {
				return nil, &lbterrors.ConfigError{
					Msg: fmt.Sprintf("target %q lists a non-existent dependency %q", t.Name, dep),
				}
			}
			g.reverse[dep] = append(g.reverse[dep], t.Name)
		}
	}

	return g, nil
}

// TopologicalOrder returns targets in dependency-first order: every
// target appears after all of its dependencies. Ties among
// simultaneously-ready targets break by the targets' insertion order in
// the Model, not alphabetically, per the project's ordering guarantee.
// Grounded on qobsbuilder.go's Kahn's-algorithm topologicalSortTargets,
// with the tie-break corrected from an alphabetical sort to insertion
// order.
func (g *Graph) TopologicalOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.forward))
	for name, deps := range g.forward {
		inDegree[name] = len(deps)
	}

	var ready []string
	for _, t := range g.m.Targets() {
		if inDegree[t.Name] == 0 {
			ready = append(ready, t.Name)
		}
	}

	order := make([]string, 0, len(g.forward))
	for len(ready) > 0 {
		u := popLowestOrder(g.m, &ready)
		order = append(order, u)

		next := append([]string(nil), g.reverse[u]...)
		sortByInsertionOrder(g.m, next)
		for _, v := range next {
			inDegree[v]--
			if inDegree[v] == 0 {
				ready = append(ready, v)
			}
		}
	}

	if len(order) != len(g.forward) {
		cycle := g.FindCycle()
		return nil, &lbterrors.CycleError{Path: cycle}
	}
	return order, nil
}

// popLowestOrder removes and returns the element of *ready with the
// smallest Model insertion order.
func popLowestOrder(m *model.Model, ready *[]string) string {
	r := *ready
	best := 0
	for i := 1; i < len(r); i++ {
		if m.Order(r[i]) < m.Order(r[best]) {
			best = i
		}
	}
	u := r[best]
	r[best] = r[len(r)-1]
	*ready = r[:len(r)-1]
	return u
}

func sortByInsertionOrder(m *model.Model, names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && m.Order(names[j-1]) > m.Order(names[j]); j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

// FindCycle returns one cycle's path (e.g. ["a", "b", "c", "a"]) if the
// graph is not a DAG, or nil if it is acyclic. Uses a DFS with a
// recursion-stack marker, reporting the actual cycle path rather than
// just the unordered set of unresolved nodes qobsbuilder.go's
// topologicalSortTargets returns.
func (g *Graph) FindCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.forward))
	var stack []string
	var cyclePath []string

	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)

		for _, dep := range g.forward[name] {
			switch color[dep] {
			case gray:
				idx := indexOf(stack, dep)
				cyclePath = append(append([]string(nil), stack[idx:]...), dep)
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}

		color[name] = black
		stack = stack[:len(stack)-1]
		return false
	}

	for _, t := range g.m.Targets() {
		if color[t.Name] == white {
			if visit(t.Name) {
				return cyclePath
			}
		}
	}
	return nil
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

// TransitiveDeps returns every target name reachable by following
// dependency edges from name (not including name itself), deduplicated.
func (g *Graph) TransitiveDeps(name string) []string {
	seen := make(map[string]struct{})
	var order []string

	var visit func(n string)
	visit = func(n string) {
		for _, dep := range g.forward[n] {
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			order = append(order, dep)
			visit(dep)
		}
	}
	visit(name)
	return order
}

// Dependents returns every target that directly or transitively depends
// on name.
func (g *Graph) Dependents(name string) []string {
	seen := make(map[string]struct{})
	var order []string

	var visit func(n string)
	visit = func(n string) {
		for _, dependent := range g.reverse[n] {
			if _, ok := seen[dependent]; ok {
				continue
			}
			seen[dependent] = struct{}{}
			order = append(order, dependent)
			visit(dependent)
		}
	}
	visit(name)
	return order
}

// EffectiveIncludeDirs computes a target's full compile-time include
// path: its own private, public, and exported include directories, plus
// the exported and public include directories of every transitive
// dependency (the Public/Private visibility propagation law). An
// InterfaceOnly dependency contributes only its exported directories.
func (g *Graph) EffectiveIncludeDirs(name string) ([]string, error) {
	t, ok := g.m.Target(name)
	if !ok {
		return nil, &lbterrors.ConfigError{Msg: fmt.Sprintf("unknown target %q", name)}
	}

	var out []string
	seen := make(map[string]struct{})
	add := func(dirs []string) {
		for _, d := range dirs {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}

	add(t.PrivateIncludeDirs)
	add(t.PublicIncludeDirs)
	add(t.ExportedIncludeDirs)

	for _, depName := range g.TransitiveDeps(name) {
		dep, ok := g.m.Target(depName)
		if !ok {
			continue
		}
		if dep.Kind != model.InterfaceOnly {
			add(dep.PublicIncludeDirs)
		}
		add(dep.ExportedIncludeDirs)
	}

	return out, nil
}
