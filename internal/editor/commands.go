package editor

import (
	"io"

	"github.com/annel0/voxel-editor/internal/placement"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/go-gl/mathgl/mgl64"
)

// Command - дискретная команда редактора
type Command interface {
	Name() string
}

// AddVoxel добавляет воксель выбранного цвета под указателем
// (или в ячейку видимого превью)
type AddVoxel struct {
	Pointer  mgl64.Vec2 // NDC
	Opposite bool
}

// RemoveVoxel удаляет воксель под указателем
type RemoveVoxel struct {
	Pointer mgl64.Vec2
}

// ShowPreview двигает превью под указатель
type ShowPreview struct {
	Pointer  mgl64.Vec2
	Opposite bool
}

// HidePreview прячет превью
type HidePreview struct{}

// ResizeGrid меняет размер сетки на сервере (тот же размер - сброс)
type ResizeGrid struct {
	Size int
}

// LoadProject загружает локальный файл проекта. Сервер не затрагивается.
type LoadProject struct {
	Path string
}

// SaveProject сохраняет текущую сетку в локальный файл
type SaveProject struct {
	Path string
}

// SelectColor выбирает индекс цвета палитры
type SelectColor struct {
	Index int
}

// Reload перечитывает сетку с сервера
type Reload struct{}

// ExportModel выгружает сцену в бинарную модель
type ExportModel struct {
	Out io.Writer
}

// CaptureFrame сохраняет текущий кадр
type CaptureFrame struct {
	Out io.Writer
}

func (AddVoxel) Name() string     { return "add_voxel" }
func (RemoveVoxel) Name() string  { return "remove_voxel" }
func (ShowPreview) Name() string  { return "show_preview" }
func (HidePreview) Name() string  { return "hide_preview" }
func (ResizeGrid) Name() string   { return "resize_grid" }
func (LoadProject) Name() string  { return "load_project" }
func (SaveProject) Name() string  { return "save_project" }
func (SelectColor) Name() string  { return "select_color" }
func (Reload) Name() string       { return "reload" }
func (ExportModel) Name() string  { return "export_model" }
func (CaptureFrame) Name() string { return "capture_frame" }

// Result - итог выполнения команды
type Result struct {
	// Applied - состояние хранилища или сеанса изменилось
	Applied bool
	Target  placement.Target
	Cell    vec.Vec3
	Value   int
	// GridSize - размер сетки после команды
	GridSize int
}
