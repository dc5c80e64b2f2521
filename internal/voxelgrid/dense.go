package voxelgrid

import (
	"fmt"

	"github.com/annel0/voxel-editor/internal/vec"
)

// Cell - непустая ячейка в индексном пространстве
type Cell struct {
	Index      vec.Vec3 `json:"index"`
	ColorIndex int      `json:"color_index"`
}

// Dense - плотный массив [x][y][z] индексов цвета, как на проводе и в файлах
type Dense [][][]int

// NewDense создаёт плотный массив size³, заполненный нулями
func NewDense(size int) Dense {
	d := make(Dense, size)
	for x := range d {
		d[x] = make([][]int, size)
		for y := range d[x] {
			d[x][y] = make([]int, size)
		}
	}
	return d
}

// Size возвращает внешнюю длину массива
func (d Dense) Size() int {
	return len(d)
}

// Cells возвращает все ненулевые ячейки в порядке x, y, z.
// Массив может быть «рваным» - обходятся фактические длины.
func (d Dense) Cells() []Cell {
	var out []Cell
	for x := range d {
		for y := range d[x] {
			for z, c := range d[x][y] {
				if c != 0 {
					out = append(out, Cell{Index: vec.Vec3{X: x, Y: y, Z: z}, ColorIndex: c})
				}
			}
		}
	}
	return out
}

// Validate проверяет, что ненулевые ячейки лежат внутри [0, size)
// и индексы цвета неотрицательны
func (d Dense) Validate(size int) error {
	for x := range d {
		for y := range d[x] {
			for z, c := range d[x][y] {
				if c < 0 {
					return fmt.Errorf("отрицательный индекс цвета %d в (%d,%d,%d)", c, x, y, z)
				}
				if c != 0 && !(vec.Vec3{X: x, Y: y, Z: z}).InBounds(size) {
					return fmt.Errorf("ячейка (%d,%d,%d) вне сетки размера %d", x, y, z, size)
				}
			}
		}
	}
	return nil
}

// CheckShape проверяет, что массив плотный: size по каждой из трёх осей
func (d Dense) CheckShape(size int) error {
	if len(d) != size {
		return fmt.Errorf("длина по x %d, ожидалось %d", len(d), size)
	}
	for x := range d {
		if len(d[x]) != size {
			return fmt.Errorf("длина по y в x=%d равна %d, ожидалось %d", x, len(d[x]), size)
		}
		for y := range d[x] {
			if len(d[x][y]) != size {
				return fmt.Errorf("длина по z в (%d,%d) равна %d, ожидалось %d", x, y, len(d[x][y]), size)
			}
		}
	}
	return nil
}

// FromCells строит плотный массив size³ из разреженного набора.
// Ячейки вне сетки пропускаются.
func FromCells(size int, cells []Cell) Dense {
	d := NewDense(size)
	for _, c := range cells {
		if !c.Index.InBounds(size) {
			continue
		}
		d[c.Index.X][c.Index.Y][c.Index.Z] = c.ColorIndex
	}
	return d
}
