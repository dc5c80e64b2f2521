package coords

import (
	"testing"

	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestMapper_RoundTrip(t *testing.T) {
	// Проверяем toIndex(toWorld(c)) == c для всех ячеек нескольких размеров,
	// включая нечётные
	for _, size := range []int{1, 2, 3, 7, 8, 16} {
		m := NewMapper(size)
		for x := 0; x < size; x++ {
			for y := 0; y < size; y++ {
				for z := 0; z < size; z++ {
					c := vec.Vec3{X: x, Y: y, Z: z}
					assert.Equal(t, c, m.ToIndex(m.ToWorld(c)), "size=%d cell=%v", size, c)
				}
			}
		}
	}
}

func TestMapper_ToWorld(t *testing.T) {
	m := NewMapper(16)

	w := m.ToWorld(vec.Vec3{X: 0, Y: 0, Z: 0})
	assert.InDelta(t, -7.5, w.X(), 1e-9)
	assert.InDelta(t, 0.0, w.Y(), 1e-9)
	assert.InDelta(t, -7.5, w.Z(), 1e-9)

	w = m.ToWorld(vec.Vec3{X: 15, Y: 3, Z: 8})
	assert.InDelta(t, 7.5, w.X(), 1e-9)
	assert.InDelta(t, 3.0, w.Y(), 1e-9)
	assert.InDelta(t, 0.5, w.Z(), 1e-9)
}

func TestMapper_SnapToCellCenter(t *testing.T) {
	m := NewMapper(16)

	p := m.SnapToCellCenter(2.3, 4.7)
	assert.True(t, p.ApproxEqual(mgl64.Vec3{2.5, 0, 4.5}), "получено %v", p)

	p = m.SnapToCellCenter(-0.2, -7.9)
	assert.True(t, p.ApproxEqual(mgl64.Vec3{-0.5, 0, -7.5}), "получено %v", p)

	// Результат привязки - всегда центр ячейки, который переводится в индекс без потерь
	c := m.ToIndex(m.SnapToCellCenter(3.99, -3.01))
	assert.Equal(t, vec.Vec3{X: 11, Y: 0, Z: 4}, c)
}

func TestMapper_SnapOddSize(t *testing.T) {
	// Для нечётного размера центры ячеек лежат на целых координатах
	m := NewMapper(7)
	p := m.SnapToCellCenter(0.2, -0.7)
	assert.True(t, p.ApproxEqual(mgl64.Vec3{0, 0, -1}), "получено %v", p)
	assert.Equal(t, vec.Vec3{X: 3, Y: 0, Z: 2}, m.ToIndex(p))
}

func TestMapper_Contains(t *testing.T) {
	m := NewMapper(8)
	assert.True(t, m.Contains(vec.Vec3{X: 7, Y: 0, Z: 7}))
	assert.False(t, m.Contains(vec.Vec3{X: 8, Y: 0, Z: 0}))
	assert.False(t, m.Contains(vec.Vec3{X: 0, Y: -1, Z: 0}))
}
