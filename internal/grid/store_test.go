package grid

import (
	"testing"

	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingScene считает объекты, присоединённые к сцене
type recordingScene struct {
	next     int
	attached map[int]palette.Color
}

type mesh struct {
	id    int
	color palette.Color
}

func newRecordingScene() *recordingScene {
	return &recordingScene{attached: make(map[int]palette.Color)}
}

func (s *recordingScene) CreateVoxel(position mgl64.Vec3, color palette.Color) Renderable {
	s.next++
	return &mesh{id: s.next, color: color}
}

func (s *recordingScene) Attach(obj Renderable) {
	m := obj.(*mesh)
	s.attached[m.id] = m.color
}

func (s *recordingScene) Detach(obj Renderable) {
	delete(s.attached, obj.(*mesh).id)
}

func TestStore_AddRemoveRoundTrip(t *testing.T) {
	scene := newRecordingScene()
	store := NewStore(scene, palette.Default(), 16)
	cell := vec.Vec3{X: 3, Y: 0, Z: 5}

	require.NoError(t, store.Set(cell, 2))
	assert.Equal(t, 1, store.Len())
	assert.Len(t, scene.attached, 1)

	assert.True(t, store.Remove(cell))
	_, ok := store.Get(cell)
	assert.False(t, ok, "после удаления записи для ячейки быть не должно")
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, scene.attached, "объект сцены должен быть отсоединён")

	assert.False(t, store.Remove(cell), "повторное удаление ничего не меняет")
}

func TestStore_OverwriteKeepsSingleEntry(t *testing.T) {
	scene := newRecordingScene()
	store := NewStore(scene, palette.Default(), 16)
	cell := vec.Vec3{X: 1, Y: 2, Z: 3}

	require.NoError(t, store.Set(cell, 1))
	require.NoError(t, store.Set(cell, 4))

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 4, store.ColorAt(cell))
	require.Len(t, scene.attached, 1, "старый объект должен быть заменён")
	for _, c := range scene.attached {
		assert.Equal(t, palette.Color(0xffff00), c)
	}
}

func TestStore_ZeroColorIsAbsence(t *testing.T) {
	store := NewStore(nil, nil, 8)
	cell := vec.Vec3{X: 0, Y: 0, Z: 0}

	require.NoError(t, store.Set(cell, palette.Empty))
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Set(cell, 3))
	require.NoError(t, store.Set(cell, palette.Empty))
	assert.Equal(t, 0, store.Len())
}

func TestStore_Rejects(t *testing.T) {
	store := NewStore(nil, palette.Default(), 8)

	err := store.Set(vec.Vec3{X: 8, Y: 0, Z: 0}, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	err = store.Set(vec.Vec3{X: 0, Y: 0, Z: 0}, 9)
	assert.ErrorIs(t, err, ErrUnknownColor)

	assert.Equal(t, 0, store.Len())
}

func TestStore_ResetDetachesEverything(t *testing.T) {
	scene := newRecordingScene()
	store := NewStore(scene, palette.Default(), 16)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Set(vec.Vec3{X: i, Y: i, Z: 15}, 1+i%8))
	}
	assert.Len(t, scene.attached, 10)

	store.Reset(8)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, scene.attached)
	assert.Equal(t, 8, store.Size())

	// Позиции вычисляются уже для нового размера
	require.NoError(t, store.Set(vec.Vec3{X: 0, Y: 0, Z: 0}, 1))
	v, ok := store.Get(vec.Vec3{X: 0, Y: 0, Z: 0})
	require.True(t, ok)
	assert.True(t, v.Position.ApproxEqual(mgl64.Vec3{-3.5, 0, -3.5}))
}

func TestStore_VoxelsSortedAndSurfaces(t *testing.T) {
	store := NewStore(nil, palette.Default(), 4)
	require.NoError(t, store.Set(vec.Vec3{X: 2, Y: 0, Z: 0}, 1))
	require.NoError(t, store.Set(vec.Vec3{X: 0, Y: 1, Z: 0}, 2))
	require.NoError(t, store.Set(vec.Vec3{X: 0, Y: 0, Z: 3}, 3))

	voxels := store.Voxels()
	require.Len(t, voxels, 3)
	assert.Equal(t, vec.Vec3{X: 0, Y: 0, Z: 3}, voxels[0].Cell)
	assert.Equal(t, vec.Vec3{X: 0, Y: 1, Z: 0}, voxels[1].Cell)
	assert.Equal(t, vec.Vec3{X: 2, Y: 0, Z: 0}, voxels[2].Cell)

	surfaces := store.Surfaces()
	require.Len(t, surfaces, 3)
	assert.True(t, surfaces[2].ApproxEqual(mgl64.Vec3{0.5, 0, -1.5}))
}
