package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agentdeck/backend/pkg/models"
)

func TestDeriverMemoizesOnStructuralIdentity(t *testing.T) {
	d := NewDeriver()

	s := baseSnapshot()
	first := d.Derive(s)

	// Structurally identical snapshot, separately allocated slices.
	same := baseSnapshot()
	second := d.Derive(same)
	assert.Same(t, first, second)
}

func TestDeriverRecomputesOnChange(t *testing.T) {
	d := NewDeriver()

	s := baseSnapshot()
	first := d.Derive(s)

	changed := baseSnapshot()
	changed.Statuses = []models.NodeStatus{status("m1", models.NodeRunStatusRunning)}
	second := d.Derive(changed)

	assert.NotSame(t, first, second)
	assert.NotNil(t, second.Nodes[0].Data.PipelineStatus)

	// Flipping back to the original shape recomputes again rather than
	// returning the stale decorated graph.
	third := d.Derive(baseSnapshot())
	assert.NotSame(t, second, third)
	assert.Nil(t, third.Nodes[0].Data.PipelineStatus)
}

func TestDeriverFirstCallComputes(t *testing.T) {
	d := NewDeriver()
	g := d.Derive(Snapshot{})
	assert.NotNil(t, g)
	assert.Empty(t, g.Nodes)
}
