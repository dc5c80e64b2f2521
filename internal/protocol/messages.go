// Package protocol описывает JSON-сообщения REST API редактора
// и полезную нагрузку событий шины.
package protocol

import (
	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
)

// Значения поля status
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Маршруты API
const (
	PathGrid        = "/api/grid"
	PathUpdateVoxel = "/api/update_voxel"
	PathSetGridSize = "/api/set_grid_size"
	PathSave        = "/api/save"
	PathLoad        = "/api/load/"
	PathProjects    = "/api/projects"
	PathPalette     = "/api/palette"
	PathStats       = "/api/stats"
)

// UpdateVoxelRequest - запись одной ячейки.
// ColorIndex == nil означает индекс 1.
type UpdateVoxelRequest struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Z          int  `json:"z"`
	ColorIndex *int `json:"color_index,omitempty"`
}

// UpdateVoxelResponse - эхо фактически записанного значения
type UpdateVoxelResponse struct {
	Status     string `json:"status"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Z          int    `json:"z"`
	Value      int    `json:"value"`
	ColorIndex int    `json:"color_index"`
}

// SetGridSizeRequest - смена размера сетки
type SetGridSizeRequest struct {
	Size int `json:"size"`
}

// SetGridSizeResponse - подтверждённый размер
type SetGridSizeResponse struct {
	Status   string `json:"status"`
	GridSize int    `json:"grid_size"`
}

// ErrorResponse - тело любого неуспешного ответа
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// SaveRequest - сохранение проекта на сервере
type SaveRequest struct {
	Name string `json:"name"`
}

// SaveResponse возвращает фактическое имя файла
type SaveResponse struct {
	Status   string `json:"status"`
	Filename string `json:"filename"`
}

// LoadResponse - загруженный проект
type LoadResponse struct {
	Status   string          `json:"status"`
	Grid     voxelgrid.Dense `json:"grid"`
	GridSize int             `json:"grid_size"`
	Palette  []palette.Color `json:"palette"`
}

// ProjectsResponse - список сохранённых проектов
type ProjectsResponse struct {
	Status   string   `json:"status"`
	Projects []string `json:"projects"`
}

// PaletteEntry - цвет палитры с его индексом
type PaletteEntry struct {
	Index int    `json:"index"`
	Color string `json:"color"`
	Name  string `json:"name"`
}

// PaletteResponse - палитра сервера
type PaletteResponse struct {
	Status  string         `json:"status"`
	Palette []PaletteEntry `json:"palette"`
}

// StatsResponse - состояние сервера
type StatsResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	GridSize      int     `json:"grid_size"`
	VoxelCount    int     `json:"voxel_count"`
	Version       uint64  `json:"version"`
	MemoryMB      float64 `json:"memory_mb"`
	CPUPercent    float64 `json:"cpu_percent"`
	Goroutines    int     `json:"goroutines"`
}

// PaletteEntries переводит палитру в сообщения API
func PaletteEntries(p *palette.Palette) []PaletteEntry {
	entries := p.Entries()
	out := make([]PaletteEntry, len(entries))
	for i, e := range entries {
		out[i] = PaletteEntry{Index: i + 1, Color: e.Color.Hex(), Name: e.Name}
	}
	return out
}
