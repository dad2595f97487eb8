// Package topology provides shared directed-graph operations for team
// pipelines: topological sort with cycle detection, layer assignment for the
// layered canvas layout, and the role-based blueprint generator.
package topology

// Graph is an index-based directed graph over nodes 0..nodeCount.
type Graph struct {
	nodeCount int
	adjacency [][]int
}

// NewGraph creates an empty graph with nodeCount nodes.
func NewGraph(nodeCount int) *Graph {
	return &Graph{
		nodeCount: nodeCount,
		adjacency: make([][]int, nodeCount),
	}
}

// GraphFromEdges constructs a graph from (source, target) index pairs.
func GraphFromEdges(nodeCount int, edges [][2]int) *Graph {
	g := NewGraph(nodeCount)
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

// AddEdge adds a directed edge. Out-of-bounds indices are silently ignored.
func (g *Graph) AddEdge(from, to int) {
	if from >= 0 && from < g.nodeCount && to >= 0 && to < g.nodeCount {
		g.adjacency[from] = append(g.adjacency[from], to)
	}
}

// TopoSortResult is the outcome of a topological sort.
type TopoSortResult struct {
	// Order lists nodes of the acyclic portion in valid topological order.
	Order []int
	// CycleNodes lists nodes that participate in cycles.
	CycleNodes []int
}

// HasCycle reports whether the graph contains at least one cycle.
func (r TopoSortResult) HasCycle() bool {
	return len(r.CycleNodes) > 0
}

// TopologicalSort runs Kahn's algorithm, returning the acyclic ordering and
// any nodes left inside cycles.
func (g *Graph) TopologicalSort() TopoSortResult {
	inDegree := make([]int, g.nodeCount)
	for _, adj := range g.adjacency {
		for _, tgt := range adj {
			inDegree[tgt]++
		}
	}

	var queue []int
	for i, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, g.nodeCount)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)
		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	var cycleNodes []int
	for i, deg := range inDegree {
		if deg > 0 {
			cycleNodes = append(cycleNodes, i)
		}
	}

	return TopoSortResult{Order: order, CycleNodes: cycleNodes}
}

// LayerAssignment assigns each node its longest-path depth from a root.
// Nodes trapped in cycles land on maxLayer+1 so they still render.
func (g *Graph) LayerAssignment() []int {
	inDegree := make([]int, g.nodeCount)
	for _, adj := range g.adjacency {
		for _, tgt := range adj {
			inDegree[tgt]++
		}
	}

	layers := make([]int, g.nodeCount)
	remaining := make([]int, g.nodeCount)
	copy(remaining, inDegree)

	var queue []int
	for i, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, i)
		}
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, neighbor := range g.adjacency[node] {
			if layers[node]+1 > layers[neighbor] {
				layers[neighbor] = layers[node] + 1
			}
			remaining[neighbor]--
			if remaining[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	maxLayer := 0
	for _, l := range layers {
		if l > maxLayer {
			maxLayer = l
		}
	}
	for i, deg := range remaining {
		if deg > 0 {
			layers[i] = maxLayer + 1
		}
	}

	return layers
}

// NamedGraph is a string-keyed directed graph built from member/connection
// id pairs. Edges referencing unknown ids are dropped.
type NamedGraph struct {
	graph     *Graph
	idToIndex map[string]int
	indexToID []string
}

// NewNamedGraph builds a named graph from node ids and (source, target) id
// pairs.
func NewNamedGraph(nodeIDs []string, edges [][2]string) *NamedGraph {
	idToIndex := make(map[string]int, len(nodeIDs))
	for i, id := range nodeIDs {
		idToIndex[id] = i
	}

	g := NewGraph(len(nodeIDs))
	for _, e := range edges {
		si, okS := idToIndex[e[0]]
		ti, okT := idToIndex[e[1]]
		if okS && okT {
			g.AddEdge(si, ti)
		}
	}

	return &NamedGraph{
		graph:     g,
		idToIndex: idToIndex,
		indexToID: append([]string(nil), nodeIDs...),
	}
}

// NamedTopoSortResult mirrors TopoSortResult with string ids.
type NamedTopoSortResult struct {
	Order      []string
	CycleNodes []string
}

func (r NamedTopoSortResult) HasCycle() bool {
	return len(r.CycleNodes) > 0
}

// TopologicalSort returns the sort result keyed by node id.
func (ng *NamedGraph) TopologicalSort() NamedTopoSortResult {
	res := ng.graph.TopologicalSort()
	out := NamedTopoSortResult{
		Order:      make([]string, 0, len(res.Order)),
		CycleNodes: make([]string, 0, len(res.CycleNodes)),
	}
	for _, i := range res.Order {
		out.Order = append(out.Order, ng.indexToID[i])
	}
	for _, i := range res.CycleNodes {
		out.CycleNodes = append(out.CycleNodes, ng.indexToID[i])
	}
	return out
}

// HasCycle reports whether the named graph contains a cycle.
func (ng *NamedGraph) HasCycle() bool {
	return ng.graph.TopologicalSort().HasCycle()
}
