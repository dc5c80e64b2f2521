package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxel-editor/internal/eventbus"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/project"
	"github.com/annel0/voxel-editor/internal/protocol"
	"github.com/annel0/voxel-editor/internal/storage"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
)

// eventSource - источник событий сервера в шине
const eventSource = "voxeld"

// GridService - операции над авторитетной сеткой. Мутации сериализуются,
// чтобы событие и метрики соответствовали именно этой правке.
type GridService struct {
	mu       sync.Mutex
	grid     *voxelgrid.Grid
	projects *storage.ProjectDir
	bus      eventbus.EventBus
	metrics  *GridMetrics
	logger   *logging.Logger
}

// NewGridService создаёт сервис. projects может быть nil: тогда серверные
// проекты недоступны. Без bus события уходят в глобальную шину, если она есть.
func NewGridService(grid *voxelgrid.Grid, projects *storage.ProjectDir, bus eventbus.EventBus, metrics *GridMetrics) *GridService {
	return &GridService{
		grid:     grid,
		projects: projects,
		bus:      bus,
		metrics:  metrics,
		logger:   logging.GetServerLogger(),
	}
}

// Grid возвращает авторитетную сетку
func (s *GridService) Grid() *voxelgrid.Grid { return s.grid }

// UpdateVoxel записывает ячейку и возвращает фактически сохранённое значение
func (s *GridService) UpdateVoxel(ctx context.Context, cell vec.Vec3, colorIndex int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, err := s.grid.Get(cell)
	if err != nil {
		s.reject("out_of_bounds")
		return 0, err
	}
	value, err := s.grid.Set(cell, colorIndex)
	if err != nil {
		s.reject("out_of_bounds")
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.edit(value)
	}

	s.publish(ctx, protocol.EventVoxelUpdated, protocol.VoxelUpdatedEvent{
		X: cell.X, Y: cell.Y, Z: cell.Z, Value: value, Previous: previous,
	})
	return value, nil
}

// Resize меняет размер и очищает сетку. Текущий размер означает сброс.
func (s *GridService) Resize(ctx context.Context, size int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.grid.Size()
	if err := s.grid.Resize(size); err != nil {
		s.reject("invalid_size")
		return err
	}
	if s.metrics != nil {
		s.metrics.resizes.Inc()
	}

	s.logger.Info("Сетка изменена: %d → %d", previous, size)
	s.publish(ctx, protocol.EventGridResized, protocol.GridResizedEvent{Size: size, PreviousSize: previous})
	return nil
}

// SaveProject сохраняет текущую сетку в каталог проектов
func (s *GridService) SaveProject(ctx context.Context, name string) (string, error) {
	if s.projects == nil {
		return "", fmt.Errorf("%w: projects directory not configured", storage.ErrNotFound)
	}

	s.mu.Lock()
	size := s.grid.Size()
	doc := &project.Document{Grid: s.grid.Snapshot(), GridSize: size, Palette: s.grid.Palette().Colors()}
	count := s.grid.Count()
	s.mu.Unlock()

	filename, err := s.projects.Save(name, doc)
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.projects.WithLabelValues("save").Inc()
	}

	s.logger.Info("Проект сохранён: %s (размер %d, вокселей %d)", filename, size, count)
	s.publish(ctx, protocol.EventProjectSaved, protocol.ProjectEvent{Filename: filename, GridSize: size, VoxelCount: count})
	return filename, nil
}

// LoadProject читает проект и заменяет им сетку. Документ проверяется
// до изменения состояния.
func (s *GridService) LoadProject(ctx context.Context, filename string) (*project.Document, error) {
	if s.projects == nil {
		return nil, fmt.Errorf("%w: projects directory not configured", storage.ErrNotFound)
	}

	doc, err := s.projects.Load(filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			s.reject("not_found")
		} else {
			s.reject("bad_project")
		}
		return nil, err
	}

	s.mu.Lock()
	err = s.grid.Replace(doc.GridSize, doc.Grid)
	count := s.grid.Count()
	s.mu.Unlock()
	if err != nil {
		s.reject("bad_project")
		return nil, fmt.Errorf("%w: %v", project.ErrFormat, err)
	}
	if s.metrics != nil {
		s.metrics.projects.WithLabelValues("load").Inc()
	}

	s.logger.Info("Проект загружен: %s (размер %d, вокселей %d)", filename, doc.GridSize, count)
	s.publish(ctx, protocol.EventProjectLoaded, protocol.ProjectEvent{Filename: filename, GridSize: doc.GridSize, VoxelCount: count})
	return doc, nil
}

// ListProjects возвращает имена сохранённых проектов
func (s *GridService) ListProjects() ([]string, error) {
	if s.projects == nil {
		return []string{}, nil
	}
	return s.projects.List()
}

// Restore заменяет сетку сохранённым снимком
func (s *GridService) Restore(snap *storage.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Replace(snap.GridSize, snap.Grid)
}

func (s *GridService) reject(reason string) {
	if s.metrics != nil {
		s.metrics.reject(reason)
	}
}

// publish отправляет событие в шину. Ошибка шины не отменяет правку.
func (s *GridService) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.bus == nil {
		if err := eventbus.PublishEvent(ctx, eventSource, eventType, payload); err != nil {
			s.logger.Warn("Не удалось опубликовать событие %s: %v", eventType, err)
		}
		return
	}
	ev, err := eventbus.NewEnvelope(eventSource, eventType, payload)
	if err != nil {
		s.logger.Warn("Не удалось сформировать событие %s: %v", eventType, err)
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Warn("Не удалось опубликовать событие %s: %v", eventType, err)
	}
}
