package preview

import (
	"testing"

	"github.com/annel0/voxel-editor/internal/placement"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ghost struct {
	pos     mgl64.Vec3
	visible bool
	moves   int
}

func (g *ghost) SetPosition(p mgl64.Vec3) { g.pos = p; g.moves++ }
func (g *ghost) SetVisible(v bool)        { g.visible = v }

func addAt(x, y, z float64) placement.Target {
	return placement.Target{Kind: placement.TargetAdd, Position: mgl64.Vec3{x, y, z}}
}

func TestController_Transitions(t *testing.T) {
	g := &ghost{}
	c := NewController(g)
	assert.Equal(t, Hidden, c.State())
	assert.False(t, g.visible)

	// Hidden → Showing
	assert.Equal(t, Showing, c.Move(addAt(0.5, 0, 0.5), true))
	assert.True(t, g.visible)
	cell, ok := c.Cell()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0.5, 0, 0.5}, cell)

	// Showing → Showing(cell')
	assert.Equal(t, Showing, c.Move(addAt(1.5, 2, 0.5), true))
	cell, _ = c.Cell()
	assert.Equal(t, mgl64.Vec3{1.5, 2, 0.5}, cell)
	assert.Equal(t, mgl64.Vec3{1.5, 2, 0.5}, g.pos)
	assert.Equal(t, 2, g.moves)

	// Showing → Hidden: нет цели
	assert.Equal(t, Hidden, c.Move(placement.Target{}, true))
	assert.False(t, g.visible)
	_, ok = c.Cell()
	assert.False(t, ok)
}

func TestController_ModifierReleased(t *testing.T) {
	g := &ghost{}
	c := NewController(g)

	c.Move(addAt(0.5, 0, 0.5), true)
	c.Release()
	assert.Equal(t, Hidden, c.State())
	assert.False(t, g.visible)

	// Движение без модификатора не показывает превью
	assert.Equal(t, Hidden, c.Move(addAt(0.5, 0, 0.5), false))
	assert.False(t, g.visible)
}

func TestController_IgnoresRemoveTargets(t *testing.T) {
	c := NewController(nil)
	target := placement.Target{Kind: placement.TargetRemove, Position: mgl64.Vec3{0.5, 0, 0.5}}
	assert.Equal(t, Hidden, c.Move(target, true))
}
