// Package grid содержит клиентское хранилище состояния сетки -
// разреженное отображение ячейка → воксель, которое является
// единственным источником истины для того, что отрисовано.
package grid

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxel-editor/internal/coords"
	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrOutOfBounds - ячейка вне [0, size) хотя бы по одной оси
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrUnknownColor - индекс цвета вне палитры
	ErrUnknownColor = errors.New("unknown color index")
)

// Voxel - занятая ячейка вместе со своим объектом сцены
type Voxel struct {
	Cell       vec.Vec3
	ColorIndex int
	Position   mgl64.Vec3 // центр в мировых координатах
	Object     Renderable
}

// Store хранит воксели клиента. Записей с индексом цвета 0 не бывает.
type Store struct {
	mu      sync.RWMutex
	scene   Scene
	palette *palette.Palette
	mapper  coords.Mapper
	voxels  map[vec.Vec3]*Voxel
}

// NewStore создаёт пустое хранилище для сетки size×size×size
func NewStore(scene Scene, pal *palette.Palette, size int) *Store {
	if scene == nil {
		scene = NopScene{}
	}
	if pal == nil {
		pal = palette.Default()
	}
	return &Store{
		scene:   scene,
		palette: pal,
		mapper:  coords.NewMapper(size),
		voxels:  make(map[vec.Vec3]*Voxel),
	}
}

// Size возвращает текущий размер сетки
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapper.Size()
}

// Mapper возвращает преобразователь координат текущей сетки
func (s *Store) Mapper() coords.Mapper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapper
}

// Palette возвращает палитру хранилища
func (s *Store) Palette() *palette.Palette {
	return s.palette
}

// Set записывает цвет в ячейку. Индекс 0 удаляет воксель.
// Повторная запись в занятую ячейку заменяет объект сцены.
func (s *Store) Set(cell vec.Vec3, colorIndex int) error {
	if colorIndex == palette.Empty {
		s.Remove(cell)
		return nil
	}

	entry, ok := s.palette.Lookup(colorIndex)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownColor, colorIndex)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mapper.Contains(cell) {
		return fmt.Errorf("%w: %v (size %d)", ErrOutOfBounds, cell, s.mapper.Size())
	}

	if old, exists := s.voxels[cell]; exists {
		if old.ColorIndex == colorIndex {
			return nil
		}
		s.scene.Detach(old.Object)
	}

	pos := s.mapper.ToWorld(cell)
	obj := s.scene.CreateVoxel(pos, entry.Color)
	s.scene.Attach(obj)
	s.voxels[cell] = &Voxel{
		Cell:       cell,
		ColorIndex: colorIndex,
		Position:   pos,
		Object:     obj,
	}
	return nil
}

// Remove удаляет воксель и отсоединяет его объект от сцены.
// Возвращает false, если ячейка была пустой.
func (s *Store) Remove(cell vec.Vec3) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exists := s.voxels[cell]
	if !exists {
		return false
	}
	s.scene.Detach(v.Object)
	delete(s.voxels, cell)
	return true
}

// Get возвращает копию вокселя в ячейке
func (s *Store) Get(cell vec.Vec3) (Voxel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, exists := s.voxels[cell]
	if !exists {
		return Voxel{}, false
	}
	return *v, true
}

// ColorAt возвращает индекс цвета ячейки (0 для пустой)
func (s *Store) ColorAt(cell vec.Vec3) int {
	v, ok := s.Get(cell)
	if !ok {
		return palette.Empty
	}
	return v.ColorIndex
}

// Len возвращает количество вокселей
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.voxels)
}

// Clear удаляет все воксели, отсоединяя объекты от сцены
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// Reset очищает хранилище и меняет размер сетки.
// Используется при изменении размера и полной перезагрузке.
func (s *Store) Reset(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.mapper = coords.NewMapper(size)
}

func (s *Store) clearLocked() {
	for cell, v := range s.voxels {
		s.scene.Detach(v.Object)
		delete(s.voxels, cell)
	}
}

// Each вызывает fn для каждого вокселя. Порядок не определён.
// fn не должна изменять хранилище.
func (s *Store) Each(fn func(v Voxel)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.voxels {
		fn(*v)
	}
}

// Voxels возвращает снимок всех вокселей, отсортированный по индексу (x, y, z)
func (s *Store) Voxels() []Voxel {
	s.mu.RLock()
	out := make([]Voxel, 0, len(s.voxels))
	for _, v := range s.voxels {
		out = append(out, *v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Cell, out[j].Cell
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}

// Surfaces возвращает центры всех вокселей - кандидаты для пересечения лучом
func (s *Store) Surfaces() []mgl64.Vec3 {
	voxels := s.Voxels()
	out := make([]mgl64.Vec3, len(voxels))
	for i, v := range voxels {
		out[i] = v.Position
	}
	return out
}
