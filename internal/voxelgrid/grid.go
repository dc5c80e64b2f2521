// Package voxelgrid - авторитетная серверная копия сетки.
// Сервер хранит плотный массив size³ индексов цвета; клиенты
// получают его целиком и применяют подтверждённые значения.
package voxelgrid

import (
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/vec"
)

// DefaultSize - размер сетки при первом запуске
const DefaultSize = 16

// DefaultAllowedSizes - допустимые размеры сетки
var DefaultAllowedSizes = []int{8, 16, 32, 64}

var (
	ErrOutOfBounds = errors.New("coordinates out of bounds")
	ErrInvalidSize = errors.New("invalid grid size")
)

// Grid - потокобезопасная авторитетная сетка
type Grid struct {
	mu      sync.RWMutex
	size    int
	cells   []int // x*size*size + y*size + z
	palette *palette.Palette
	allowed []int
	version uint64
}

// NewGrid создаёт пустую сетку. Пустой allowed означает DefaultAllowedSizes.
func NewGrid(size int, pal *palette.Palette, allowed []int) (*Grid, error) {
	if pal == nil {
		pal = palette.Default()
	}
	if len(allowed) == 0 {
		allowed = DefaultAllowedSizes
	}
	g := &Grid{palette: pal, allowed: append([]int(nil), allowed...)}
	if !g.sizeAllowed(size) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	g.size = size
	g.cells = make([]int, size*size*size)
	return g, nil
}

func (g *Grid) sizeAllowed(size int) bool {
	for _, s := range g.allowed {
		if s == size {
			return true
		}
	}
	return false
}

// AllowedSizes возвращает копию списка допустимых размеров
func (g *Grid) AllowedSizes() []int {
	return append([]int(nil), g.allowed...)
}

// Palette возвращает палитру сервера
func (g *Grid) Palette() *palette.Palette {
	return g.palette
}

func (g *Grid) offset(c vec.Vec3) int {
	return c.X*g.size*g.size + c.Y*g.size + c.Z
}

// Size возвращает текущий размер
func (g *Grid) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.size
}

// Version растёт при каждом изменении сетки
func (g *Grid) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Set записывает индекс цвета и возвращает фактически сохранённое значение.
// Отрицательные индексы становятся 0, индексы больше палитры ограничиваются P.
func (g *Grid) Set(c vec.Vec3, colorIndex int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !c.InBounds(g.size) {
		return 0, fmt.Errorf("%w: %v (size %d)", ErrOutOfBounds, c, g.size)
	}
	value := g.palette.Clamp(colorIndex)
	g.cells[g.offset(c)] = value
	g.version++
	return value, nil
}

// Get возвращает индекс цвета ячейки
func (g *Grid) Get(c vec.Vec3) (int, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !c.InBounds(g.size) {
		return 0, fmt.Errorf("%w: %v (size %d)", ErrOutOfBounds, c, g.size)
	}
	return g.cells[g.offset(c)], nil
}

// Resize меняет размер и очищает сетку. Вызов с текущим размером - сброс.
func (g *Grid) Resize(size int) error {
	if !g.sizeAllowed(size) {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.size = size
	g.cells = make([]int, size*size*size)
	g.version++
	return nil
}

// Replace целиком заменяет содержимое (загрузка проекта, восстановление снимка).
// Данные проверяются до изменения состояния.
func (g *Grid) Replace(size int, d Dense) error {
	if !g.sizeAllowed(size) {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if err := d.Validate(size); err != nil {
		return err
	}

	cells := make([]int, size*size*size)
	for _, c := range d.Cells() {
		cells[c.Index.X*size*size+c.Index.Y*size+c.Index.Z] = g.palette.Clamp(c.ColorIndex)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.size = size
	g.cells = cells
	g.version++
	return nil
}

// Snapshot возвращает плотную копию сетки
func (g *Grid) Snapshot() Dense {
	g.mu.RLock()
	defer g.mu.RUnlock()

	d := NewDense(g.size)
	for x := 0; x < g.size; x++ {
		for y := 0; y < g.size; y++ {
			row := g.cells[x*g.size*g.size+y*g.size : x*g.size*g.size+(y+1)*g.size]
			copy(d[x][y], row)
		}
	}
	return d
}

// Count возвращает количество непустых ячеек
func (g *Grid) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, c := range g.cells {
		if c != 0 {
			n++
		}
	}
	return n
}
