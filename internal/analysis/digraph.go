package analysis

import "sort"

// digraph is a directed dependency graph over entity qualified names,
// assembled from read queries before cycle enumeration.
type digraph struct {
	adjacency map[string][]string
	edgeSeen  map[string]bool
}

func newDigraph() *digraph {
	return &digraph{
		adjacency: make(map[string][]string),
		edgeSeen:  make(map[string]bool),
	}
}

func (g *digraph) addEdge(from, to string) {
	if from == "" || to == "" || from == to {
		return
	}
	key := from + "|" + to
	if g.edgeSeen[key] {
		return
	}
	g.edgeSeen[key] = true
	g.adjacency[from] = append(g.adjacency[from], to)
	if _, ok := g.adjacency[to]; !ok {
		g.adjacency[to] = nil
	}
}

func (g *digraph) nodeCount() int {
	return len(g.adjacency)
}

func (g *digraph) edgeCount() int {
	return len(g.edgeSeen)
}

// sortedNodes returns all node names in lexicographic order so enumeration
// is deterministic run to run.
func (g *digraph) sortedNodes() []string {
	nodes := make([]string, 0, len(g.adjacency))
	for node := range g.adjacency {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	return nodes
}

func (g *digraph) sortEdges() {
	for _, next := range g.adjacency {
		sort.Strings(next)
	}
}

// enumerateCycles lists elementary cycles up to maxLen nodes. The search
// only extends through nodes lexicographically greater than the start node,
// so every cycle is found exactly once and already begins at its smallest
// member. visitBudget caps total edge traversals; exceeding it stops the
// search and reports truncation instead of running unbounded on dense
// graphs.
func enumerateCycles(g *digraph, maxLen, maxCycles, visitBudget int) (cycles [][]string, truncated bool) {
	g.sortEdges()
	visits := 0
	path := make([]string, 0, maxLen)
	onPath := make(map[string]bool)

	var dfs func(start, current string) bool
	dfs = func(start, current string) bool {
		for _, next := range g.adjacency[current] {
			visits++
			if visits > visitBudget || len(cycles) >= maxCycles {
				return false
			}
			if next == start && len(path) >= 2 {
				cycles = append(cycles, append([]string(nil), path...))
				continue
			}
			if next <= start || onPath[next] || len(path) >= maxLen {
				continue
			}
			path = append(path, next)
			onPath[next] = true
			ok := dfs(start, next)
			delete(onPath, next)
			path = path[:len(path)-1]
			if !ok {
				return false
			}
		}
		return true
	}

	for _, start := range g.sortedNodes() {
		path = append(path[:0], start)
		onPath = map[string]bool{start: true}
		if !dfs(start, start) {
			return cycles, true
		}
	}
	return cycles, false
}

// normalizeCycle rotates a cycle path so its lexicographically smallest
// member comes first. Two rotations of the same cycle normalize to the same
// slice, which is what dedup keys on.
func normalizeCycle(path []string) []string {
	if len(path) == 0 {
		return path
	}
	smallest := 0
	for i, node := range path {
		if node < path[smallest] {
			smallest = i
		}
	}
	normalized := make([]string, 0, len(path))
	normalized = append(normalized, path[smallest:]...)
	normalized = append(normalized, path[:smallest]...)
	return normalized
}

func cycleKey(path []string) string {
	key := ""
	for _, node := range normalizeCycle(path) {
		key += node + "|"
	}
	return key
}

// classSetKey keys a cycle by its member set regardless of order, used to
// collapse an inheritance cycle and a call-chain cycle over the same
// classes into one finding.
func classSetKey(path []string) string {
	members := append([]string(nil), path...)
	sort.Strings(members)
	key := ""
	for _, m := range members {
		key += m + "|"
	}
	return key
}
