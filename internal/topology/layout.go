package topology

// ComputeDAGLayout positions nodes in layered rows, top to bottom, each layer
// centered horizontally. Cycle members are layered via LayerAssignment's
// overflow row. Returns one (x, y) pair per node.
func ComputeDAGLayout(nodeCount int, edges [][2]int, nodeWidth, nodeHeight, xGap, yGap float64) [][2]float64 {
	if nodeCount == 0 {
		return nil
	}
	if nodeCount == 1 {
		return [][2]float64{{200, 120}}
	}

	g := GraphFromEdges(nodeCount, edges)
	layers := g.LayerAssignment()

	totalLayers := 0
	for _, l := range layers {
		if l+1 > totalLayers {
			totalLayers = l + 1
		}
	}

	layerNodes := make([][]int, totalLayers)
	for i, l := range layers {
		layerNodes[l] = append(layerNodes[l], i)
	}

	maxPerLayer := 1
	for _, nodes := range layerNodes {
		if len(nodes) > maxPerLayer {
			maxPerLayer = len(nodes)
		}
	}
	totalWidth := float64(maxPerLayer) * (nodeWidth + xGap)

	positions := make([][2]float64, nodeCount)
	for layerIdx, nodes := range layerNodes {
		count := float64(len(nodes))
		layerWidth := count*(nodeWidth+xGap) - xGap
		startX := (totalWidth-layerWidth)/2 + 80
		y := 80 + float64(layerIdx)*(nodeHeight+yGap)

		for posInLayer, nodeIdx := range nodes {
			x := startX + float64(posInLayer)*(nodeWidth+xGap)
			positions[nodeIdx] = [2]float64{x, y}
		}
	}

	return positions
}
