package loader

import (
	"sort"
	"strings"
)

// inheritanceCycles returns every set of entity types whose base chains
// loop, each sorted by name and reported once. A type deriving from itself
// is a cycle of one.
//
// bases maps a type name to the name of its base; names absent from bases
// have no base.
func inheritanceCycles(bases map[string]string) [][]string {
	graph := make(map[string][]string, len(bases))
	for t, b := range bases {
		graph[t] = []string{b}
	}

	var cycles [][]string
	for _, scc := range tarjanSCC(graph) {
		if len(scc) == 1 && bases[scc[0]] != scc[0] {
			continue
		}
		sort.Strings(scc)
		cycles = append(cycles, scc)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the result is deterministic.
func tarjanSCC(graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// cyclePath renders a cycle by following base links from its first member,
// e.g. "A -> B -> A".
func cyclePath(cycle []string, bases map[string]string) string {
	path := []string{cycle[0]}
	for t := bases[cycle[0]]; t != cycle[0] && len(path) <= len(cycle); t = bases[t] {
		path = append(path, t)
	}
	return strings.Join(append(path, cycle[0]), " -> ")
}
