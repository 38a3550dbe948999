package compiler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/wodwiki/internal/ir"
)

// CycleWarning represents a loop in a forest's parent/next links.
//
// The runtime climbs parent and next links when a node is exhausted, so a
// loop there would never reach Done. Compile cannot produce one; forests
// loaded from JSON can.
type CycleWarning struct {
	Path    []int  `json:"path"`    // Cycle path: [12, 30, 12]
	Message string `json:"message"` // Human-readable description
	Level   string `json:"level"`   // "warning"
}

// AnalyzeCycles finds strongly connected components in the climb graph
// (node -> parent, node -> next) using Tarjan's algorithm. Each SCC with
// more than one node, or a self-loop, is reported. A forest without loops
// returns an empty list.
func AnalyzeCycles(nodes []ir.StatementNode) []CycleWarning {
	if len(nodes) == 0 {
		return []CycleWarning{}
	}

	graph, order := buildClimbGraph(nodes)
	sccs := tarjanSCC(graph, order)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	return warnings
}

// climbGraph maps node id -> ids the runtime may climb to.
type climbGraph map[int][]int

func buildClimbGraph(nodes []ir.StatementNode) (climbGraph, []int) {
	graph := make(climbGraph, len(nodes))
	order := make([]int, 0, len(nodes))
	for _, n := range nodes {
		if _, seen := graph[n.ID]; !seen {
			order = append(order, n.ID)
			graph[n.ID] = []int{}
		}
		if n.Parent != nil {
			graph[n.ID] = append(graph[n.ID], *n.Parent)
		}
		if n.Next != nil {
			graph[n.ID] = append(graph[n.ID], *n.Next)
		}
	}
	return graph, order
}

func hasSelfLoop(node int, graph climbGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components, visiting roots in the
// given order so results are deterministic.
func tarjanSCC(graph climbGraph, order []int) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, known := graph[w]; !known {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Ints(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []int, graph climbGraph) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []int{id, id},
			Message: fmt.Sprintf("node %d climbs to itself", id),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = strconv.Itoa(id)
	}
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("climb loop detected: %s", strings.Join(parts, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []int, graph climbGraph) []int {
	members := make(map[int]bool, len(scc))
	for _, id := range scc {
		members[id] = true
	}

	start := scc[0]
	current := start
	path := []int{current}
	visited := make(map[int]bool)

	for {
		visited[current] = true

		next, found := 0, false
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next, found = neighbor, true
				break
			}
		}
		if !found {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
