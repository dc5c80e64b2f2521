package grid

import (
	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/go-gl/mathgl/mgl64"
)

// Renderable - непрозрачный объект движка рендеринга (меш куба)
type Renderable interface{}

// Scene - граница с внешним движком рендеринга.
// Хранилище создаёт по одному объекту на воксель и само отвечает
// за его добавление в сцену и удаление из неё.
type Scene interface {
	// CreateVoxel создаёт единичный куб заданного цвета в мировой позиции
	CreateVoxel(position mgl64.Vec3, color palette.Color) Renderable
	// Attach добавляет объект в граф сцены
	Attach(obj Renderable)
	// Detach удаляет объект из графа сцены
	Detach(obj Renderable)
}

// NopScene используется без рендеринга (CLI, тесты)
type NopScene struct{}

func (NopScene) CreateVoxel(position mgl64.Vec3, color palette.Color) Renderable {
	return position
}

func (NopScene) Attach(obj Renderable) {}

func (NopScene) Detach(obj Renderable) {}
