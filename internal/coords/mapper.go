// Package coords переводит координаты между индексным пространством сетки
// (целые, начало в углу) и мировым пространством (начало в центре сетки).
//
// Смещение центрирования одно и то же в обе стороны:
//
//	world.x = ix - size/2 + 0.5, world.y = iy, world.z = iz - size/2 + 0.5
//
// Ось Y не центрируется: пол сетки лежит на высоте 0.
package coords

import (
	"math"

	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

// Mapper выполняет преобразования для сетки фиксированного размера
type Mapper struct {
	size   int
	offset float64 // size/2 - 0.5
}

// NewMapper создаёт преобразователь для сетки size×size×size
func NewMapper(size int) Mapper {
	return Mapper{
		size:   size,
		offset: float64(size)/2 - 0.5,
	}
}

// Size возвращает размер сетки
func (m Mapper) Size() int {
	return m.size
}

// ToWorld переводит индекс ячейки в мировые координаты её центра
func (m Mapper) ToWorld(c vec.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(c.X) - m.offset,
		float64(c.Y),
		float64(c.Z) - m.offset,
	}
}

// ToIndex переводит выровненную мировую позицию в индекс ячейки.
// Применять только к уже разрешённым позициям (центрам ячеек),
// а не к сырым точкам пересечения луча.
func (m Mapper) ToIndex(w mgl64.Vec3) vec.Vec3 {
	return vec.Vec3{
		X: int(math.Round(w.X() + m.offset)),
		Y: int(math.Round(w.Y())),
		Z: int(math.Round(w.Z() + m.offset)),
	}
}

// SnapToCellCenter привязывает точку на горизонтальной плоскости
// к центру единичной ячейки, которой она принадлежит. Высота всегда 0.
// Для чётных размеров это floor(x)+0.5.
func (m Mapper) SnapToCellCenter(x, z float64) mgl64.Vec3 {
	half := float64(m.size) / 2
	ix := math.Floor(x + half)
	iz := math.Floor(z + half)
	return mgl64.Vec3{ix - m.offset, 0, iz - m.offset}
}

// Contains проверяет, что индекс лежит внутри сетки
func (m Mapper) Contains(c vec.Vec3) bool {
	return c.InBounds(m.size)
}
