package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopologicalSortSimpleDAG(t *testing.T) {
	g := GraphFromEdges(3, [][2]int{{0, 1}, {1, 2}})
	res := g.TopologicalSort()
	assert.False(t, res.HasCycle())
	assert.Equal(t, []int{0, 1, 2}, res.Order)
	assert.Empty(t, res.CycleNodes)
}

func TestTopologicalSortDiamond(t *testing.T) {
	g := GraphFromEdges(4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}})
	res := g.TopologicalSort()
	assert.False(t, res.HasCycle())
	assert.Len(t, res.Order, 4)
	assert.Equal(t, 0, res.Order[0])
	assert.Equal(t, 3, res.Order[3])
}

func TestTopologicalSortFullCycle(t *testing.T) {
	g := GraphFromEdges(3, [][2]int{{0, 1}, {1, 2}, {2, 0}})
	res := g.TopologicalSort()
	assert.True(t, res.HasCycle())
	assert.Empty(t, res.Order)
	assert.Len(t, res.CycleNodes, 3)
}

func TestTopologicalSortPartialCycle(t *testing.T) {
	g := GraphFromEdges(3, [][2]int{{0, 1}, {1, 2}, {2, 1}})
	res := g.TopologicalSort()
	assert.True(t, res.HasCycle())
	assert.Equal(t, []int{0}, res.Order)
	assert.Len(t, res.CycleNodes, 2)
}

func TestTopologicalSortDisconnected(t *testing.T) {
	g := GraphFromEdges(3, nil)
	res := g.TopologicalSort()
	assert.False(t, res.HasCycle())
	assert.Len(t, res.Order, 3)
}

func TestLayerAssignment(t *testing.T) {
	g := GraphFromEdges(4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}})
	layers := g.LayerAssignment()
	assert.Equal(t, []int{0, 1, 1, 2}, layers)
}

func TestLayerAssignmentCycleOverflowRow(t *testing.T) {
	g := GraphFromEdges(3, [][2]int{{0, 1}, {1, 2}, {2, 1}})
	layers := g.LayerAssignment()
	assert.Equal(t, 0, layers[0])
	// Node 1 picks up layer 1 from the acyclic edge before the cycle stalls
	// Kahn's queue, so the overflow row is maxLayer+1 = 2.
	assert.Equal(t, 2, layers[1])
	assert.Equal(t, 2, layers[2])
}

func TestNamedGraph(t *testing.T) {
	g := NewNamedGraph(
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}},
	)
	res := g.TopologicalSort()
	assert.False(t, res.HasCycle())
	assert.Equal(t, []string{"a", "b", "c"}, res.Order)
}

func TestNamedGraphCycle(t *testing.T) {
	g := NewNamedGraph([]string{"x", "y"}, [][2]string{{"x", "y"}, {"y", "x"}})
	res := g.TopologicalSort()
	assert.True(t, res.HasCycle())
	assert.Len(t, res.CycleNodes, 2)
}

func TestNamedGraphDropsUnknownEndpoints(t *testing.T) {
	g := NewNamedGraph([]string{"a", "b"}, [][2]string{{"a", "ghost"}, {"a", "b"}})
	res := g.TopologicalSort()
	assert.False(t, res.HasCycle())
	assert.Equal(t, []string{"a", "b"}, res.Order)
}

func TestEmptyGraph(t *testing.T) {
	g := NewGraph(0)
	res := g.TopologicalSort()
	assert.False(t, res.HasCycle())
	assert.Empty(t, res.Order)
}

func TestSingleNode(t *testing.T) {
	g := NewGraph(1)
	res := g.TopologicalSort()
	assert.False(t, res.HasCycle())
	assert.Equal(t, []int{0}, res.Order)
}

func TestComputeDAGLayoutSingleton(t *testing.T) {
	pos := ComputeDAGLayout(1, nil, 180, 70, 60, 100)
	assert.Equal(t, [][2]float64{{200, 120}}, pos)
}

func TestComputeDAGLayoutLayeredRows(t *testing.T) {
	// 0 → 1, 0 → 2, 1 → 3, 2 → 3: three rows, middle row of two.
	pos := ComputeDAGLayout(4, [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}}, 180, 70, 60, 100)

	assert.Equal(t, pos[1][1], pos[2][1])
	assert.Less(t, pos[0][1], pos[1][1])
	assert.Less(t, pos[1][1], pos[3][1])
	// Middle row spreads horizontally.
	assert.NotEqual(t, pos[1][0], pos[2][0])
	// Single-node rows are centered over the widest row.
	assert.Greater(t, pos[0][0], pos[1][0])
}
