package project

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"testing"

	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortCells(cells []voxelgrid.Cell) {
	sort.Slice(cells, func(i, j int) bool {
		a, b := cells[i].Index, cells[j].Index
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}

func TestSerialize_RoundTrip(t *testing.T) {
	for _, size := range []int{1, 2, 5, 8, 16} {
		var cells []voxelgrid.Cell
		for i := 0; i < size; i++ {
			cells = append(cells, voxelgrid.Cell{
				Index:      vec.Vec3{X: i, Y: (i * 3) % size, Z: size - 1 - i},
				ColorIndex: 1 + i%8,
			})
		}

		doc := Serialize(cells, size, palette.Default())
		data, err := doc.Marshal()
		require.NoError(t, err)

		gotSize, got, err := Deserialize(data)
		require.NoError(t, err, "size=%d", size)
		assert.Equal(t, size, gotSize)

		sortCells(cells)
		sortCells(got)
		assert.Equal(t, cells, got, "size=%d", size)
	}
}

func TestSerialize_DenseLayout(t *testing.T) {
	cells := []voxelgrid.Cell{{Index: vec.Vec3{X: 1, Y: 0, Z: 2}, ColorIndex: 6}}
	doc := Serialize(cells, 3, palette.Default())

	require.Len(t, doc.Grid, 3)
	for x := range doc.Grid {
		require.Len(t, doc.Grid[x], 3)
		for y := range doc.Grid[x] {
			require.Len(t, doc.Grid[x][y], 3)
		}
	}
	assert.Equal(t, 6, doc.Grid[1][0][2])
	assert.Len(t, doc.Palette, 8)

	data, err := doc.Marshal()
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "grid")
	assert.Contains(t, raw, "grid_size")
	assert.Contains(t, raw, "palette")
}

func TestDeserialize_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"grid": [`,
		"missing grid":      `{"grid_size": 2, "palette": []}`,
		"missing size":      `{"grid": [[[0]]], "palette": []}`,
		"size not integer":  `{"grid": [[[0]]], "grid_size": "2"}`,
		"zero size":         `{"grid": [], "grid_size": 0}`,
		"grid not array":    `{"grid": 5, "grid_size": 1}`,
		"negative color":    `{"grid": [[[-1]]], "grid_size": 1}`,
		"cell outside":      `{"grid": [[[0, 3]]], "grid_size": 1}`,
		"not object":        `[1, 2, 3]`,
		"size without data": `{"grid": [], "grid_size": 100000}`,
		"short x axis":      `{"grid": [[[0, 0], [0, 0]]], "grid_size": 2}`,
		"ragged y axis":     `{"grid": [[[0, 0], [0, 0]], [[0, 0]]], "grid_size": 2}`,
		"ragged z axis":     `{"grid": [[[0, 0], [0, 0]], [[0, 0], [0]]], "grid_size": 2}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Deserialize([]byte(input))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDeserialize_PaletteIsDocumentary(t *testing.T) {
	// Палитра из файла не влияет на индексы
	input := `{"grid": [[[0, 2], [0, 0]], [[0, 0], [7, 0]]], "grid_size": 2, "palette": [1, 2]}`
	size, cells, err := Deserialize([]byte(input))
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	assert.Equal(t, []voxelgrid.Cell{
		{Index: vec.Vec3{X: 0, Y: 0, Z: 1}, ColorIndex: 2},
		{Index: vec.Vec3{X: 1, Y: 1, Z: 0}, ColorIndex: 7},
	}, cells)

	// Палитра может отсутствовать
	_, _, err = Deserialize([]byte(`{"grid": [[[1]]], "grid_size": 1}`))
	assert.NoError(t, err)
}

func TestFile_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	cells := []voxelgrid.Cell{
		{Index: vec.Vec3{X: 0, Y: 0, Z: 0}, ColorIndex: 1},
		{Index: vec.Vec3{X: 7, Y: 7, Z: 7}, ColorIndex: 8},
	}
	doc := Serialize(cells, 8, palette.Default())

	for _, name := range []string{"scene.json", "scene.json.gz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, doc))

		loaded, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, 8, loaded.GridSize)
		assert.Equal(t, cells, loaded.Grid.Cells())
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
