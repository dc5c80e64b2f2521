package editor

import (
	"sync"

	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/placement"
)

// Session - состояние сеанса редактирования, не относящееся к сетке:
// выбранный цвет, камера и размер окна
type Session struct {
	mu      sync.RWMutex
	palette *palette.Palette
	color   int
	camera  placement.Camera
	width   float64
	height  float64
}

// NewSession создаёт сеанс для сетки size и окна width×height
func NewSession(pal *palette.Palette, size int, width, height float64) *Session {
	if pal == nil {
		pal = palette.Default()
	}
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}
	return &Session{
		palette: pal,
		color:   1,
		camera:  placement.DefaultCamera(size, width/height),
		width:   width,
		height:  height,
	}
}

// Color возвращает выбранный индекс цвета (1..P)
func (s *Session) Color() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.color
}

// SetColor выбирает цвет; 0 и индекс вне палитры отклоняются
func (s *Session) SetColor(index int) bool {
	if index == palette.Empty || !s.palette.Valid(index) {
		return false
	}
	s.mu.Lock()
	s.color = index
	s.mu.Unlock()
	return true
}

// Camera возвращает текущую камеру
func (s *Session) Camera() placement.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// SetCamera заменяет камеру (орбитальное управление снаружи)
func (s *Session) SetCamera(c placement.Camera) {
	s.mu.Lock()
	s.camera = c
	s.mu.Unlock()
}

// Reframe наводит камеру по умолчанию на сетку нового размера
func (s *Session) Reframe(size int) {
	s.mu.Lock()
	s.camera = placement.DefaultCamera(size, s.width/s.height)
	s.mu.Unlock()
}

// Viewport возвращает размер окна в пикселях
func (s *Session) Viewport() (width, height float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

// SetViewport меняет размер окна и соотношение сторон камеры
func (s *Session) SetViewport(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	s.width, s.height = width, height
	s.camera.Aspect = width / height
	s.mu.Unlock()
}

// Palette возвращает палитру сеанса
func (s *Session) Palette() *palette.Palette {
	return s.palette
}
