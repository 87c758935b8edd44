package hookflow

import (
	"sort"
)

// orderingGraph is the derived before/after constraint structure over
// registered hooks. Nodes are hook names; edges are runs_before and
// runs_after declarations normalized into a single directed
// must-run-before edge set.
//
// Constraints naming hooks that were never registered are tolerated:
// they impose no edge until such a hook appears, at which point the
// graph is rebuilt.
type orderingGraph struct {
	// index maps hook name to registration position, used for the
	// deterministic tie-break between unconstrained hooks.
	index map[string]int

	// succ[a] lists hooks that must run strictly after a.
	succ map[string][]string
}

// newOrderingGraph derives the constraint graph from the registered
// hooks, given in registration order.
func newOrderingGraph(hooks []Hook) *orderingGraph {
	g := &orderingGraph{
		index: make(map[string]int, len(hooks)),
		succ:  make(map[string][]string),
	}

	for i, h := range hooks {
		g.index[h.Name()] = i
	}

	seen := make(map[[2]string]bool)
	addEdge := func(from, to string) {
		// Skip edges to hooks that were never registered
		if _, ok := g.index[from]; !ok {
			return
		}
		if _, ok := g.index[to]; !ok {
			return
		}
		key := [2]string{from, to}
		if seen[key] {
			return
		}
		seen[key] = true
		g.succ[from] = append(g.succ[from], to)
	}

	for _, h := range hooks {
		for _, after := range h.RunsBefore() {
			addEdge(h.Name(), after)
		}
		for _, before := range h.RunsAfter() {
			addEdge(before, h.Name())
		}
	}

	return g
}

// order computes a total order over the given hooks consistent with
// the constraint graph restricted to that subset, breaking ties by
// registration order. Returns a CycleError if the restricted graph
// contains a cycle.
func (g *orderingGraph) order(hooks []Hook) ([]Hook, error) {
	if len(hooks) <= 1 {
		return hooks, nil
	}

	byName := make(map[string]Hook, len(hooks))
	for _, h := range hooks {
		byName[h.Name()] = h
	}

	// In-degrees over the restricted subgraph
	indegree := make(map[string]int, len(hooks))
	for _, h := range hooks {
		indegree[h.Name()] = 0
	}
	for from, targets := range g.succ {
		if _, ok := byName[from]; !ok {
			continue
		}
		for _, to := range targets {
			if _, ok := byName[to]; ok {
				indegree[to]++
			}
		}
	}

	// Kahn's algorithm, always picking the ready hook with the lowest
	// registration index so unconstrained hooks keep their
	// first-registered-first order.
	ready := make([]string, 0, len(hooks))
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	ordered := make([]Hook, 0, len(hooks))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return g.index[ready[i]] < g.index[ready[j]]
		})

		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byName[name])
		delete(indegree, name)

		for _, to := range g.succ[name] {
			if _, ok := indegree[to]; !ok {
				continue
			}
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}

	if len(ordered) != len(hooks) {
		// Remaining hooks all participate in (or depend on) a cycle
		remaining := make([]string, 0, len(indegree))
		for name := range indegree {
			remaining = append(remaining, name)
		}
		sort.Slice(remaining, func(i, j int) bool {
			return g.index[remaining[i]] < g.index[remaining[j]]
		})
		return nil, &CycleError{Names: remaining}
	}

	return ordered, nil
}
