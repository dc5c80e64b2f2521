package protocol

// Типы событий шины
const (
	EventVoxelUpdated  = "VoxelUpdated"
	EventGridResized   = "GridResized"
	EventProjectLoaded = "ProjectLoaded"
	EventProjectSaved  = "ProjectSaved"
)

// VoxelUpdatedEvent - подтверждённая запись ячейки
type VoxelUpdatedEvent struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	Z        int `json:"z"`
	Value    int `json:"value"`
	Previous int `json:"previous"`
}

// GridResizedEvent - сетка очищена и получила новый размер
type GridResizedEvent struct {
	Size         int `json:"size"`
	PreviousSize int `json:"previous_size"`
}

// ProjectEvent - проект сохранён или загружен на сервере
type ProjectEvent struct {
	Filename   string `json:"filename"`
	GridSize   int    `json:"grid_size"`
	VoxelCount int    `json:"voxel_count"`
}
