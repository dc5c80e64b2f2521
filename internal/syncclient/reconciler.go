package syncclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/annel0/voxel-editor/internal/grid"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrOutOfBounds - ячейка вне текущей сетки, запрос не отправлялся
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrCellBusy - по этой ячейке уже есть запрос в полёте
	ErrCellBusy = errors.New("cell has a pending request")
	// ErrStale - ответ пришёл после смены геометрии сетки и отброшен
	ErrStale = errors.New("stale response discarded")
)

// Reconciler применяет к хранилищу только подтверждённые сервером изменения.
//
// Поколение увеличивается при каждой смене геометрии сетки (resize, загрузка
// проекта, перезагрузка с другим размером). Ответ на правку, отправленную в
// старом поколении, отбрасывается.
type Reconciler struct {
	backend Backend
	store   *grid.Store
	logger  *logging.Logger

	mu         sync.Mutex
	generation uint64
	pending    map[vec.Vec3]struct{}

	reloads singleflight.Group
}

// NewReconciler создаёт согласователь для хранилища
func NewReconciler(backend Backend, store *grid.Store) *Reconciler {
	return &Reconciler{
		backend: backend,
		store:   store,
		logger:  logging.GetSyncLogger(),
		pending: make(map[vec.Vec3]struct{}),
	}
}

// Store возвращает хранилище, которым владеет согласователь
func (r *Reconciler) Store() *grid.Store { return r.store }

// Generation возвращает текущее поколение
func (r *Reconciler) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Pending возвращает число ячеек с запросами в полёте
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Invalidate начинает новое поколение: все ответы в полёте будут отброшены.
// Вызывается перед локальной заменой содержимого хранилища.
func (r *Reconciler) Invalidate() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	return r.generation
}

// Replace заменяет содержимое хранилища локальными данными (загрузка проекта)
// и начинает новое поколение. Ячейки проверяются до изменения хранилища.
func (r *Reconciler) Replace(size int, cells []voxelgrid.Cell) error {
	if size <= 0 {
		return fmt.Errorf("%w: grid size %d", ErrOutOfBounds, size)
	}
	pal := r.store.Palette()
	for _, c := range cells {
		if !c.Index.InBounds(size) {
			return fmt.Errorf("%w: %s", ErrOutOfBounds, c.Index)
		}
		if !pal.Valid(c.ColorIndex) {
			return fmt.Errorf("%w: %d at %s", grid.ErrUnknownColor, c.ColorIndex, c.Index)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.store.Reset(size)
	for _, c := range cells {
		if err := r.store.Set(c.Index, c.ColorIndex); err != nil {
			return err
		}
	}
	return nil
}

// Edit отправляет запись ячейки и применяет эхо сервера.
// Значение 0 в эхе удаляет ячейку, даже если запрашивалось добавление.
func (r *Reconciler) Edit(ctx context.Context, cell vec.Vec3, colorIndex int) (Update, error) {
	r.mu.Lock()
	if !cell.InBounds(r.store.Size()) {
		r.mu.Unlock()
		return Update{}, fmt.Errorf("%w: %s", ErrOutOfBounds, cell)
	}
	if _, busy := r.pending[cell]; busy {
		r.mu.Unlock()
		return Update{}, fmt.Errorf("%w: %s", ErrCellBusy, cell)
	}
	r.pending[cell] = struct{}{}
	gen := r.generation
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, cell)
		r.mu.Unlock()
	}()

	upd, err := r.backend.UpdateVoxel(ctx, cell, colorIndex)
	if err != nil {
		r.logger.Warn("Правка %s не подтверждена: %v", cell, err)
		return Update{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		r.logger.Debug("Ответ на правку %s устарел (поколение %d, текущее %d)", cell, gen, r.generation)
		return Update{}, ErrStale
	}
	if err := r.store.Set(upd.Cell, upd.Value); err != nil {
		return Update{}, fmt.Errorf("apply echo for %s: %w", upd.Cell, err)
	}

	r.logger.Debug("Ячейка %s = %d", upd.Cell, upd.Value)
	return upd, nil
}

// Reload заменяет содержимое хранилища снимком сервера.
// Одновременные вызовы в одном поколении выполняются одним запросом.
func (r *Reconciler) Reload(ctx context.Context) error {
	gen := r.Generation()
	_, err, shared := r.reloads.Do(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return nil, r.reload(ctx, gen)
	})
	if shared {
		r.logger.Trace("Перезагрузка сетки объединена с запросом в полёте")
	}
	return err
}

func (r *Reconciler) reload(ctx context.Context, gen uint64) error {
	dense, err := r.backend.QueryGrid(ctx)
	if err != nil {
		r.logger.Warn("Не удалось загрузить сетку: %v", err)
		return err
	}

	size := dense.Size()
	if err := dense.Validate(size); err != nil {
		return fmt.Errorf("%w: malformed grid: %v", ErrTransport, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		return ErrStale
	}

	if size != r.store.Size() {
		r.generation++
	}
	r.store.Reset(size)

	skipped := 0
	for _, c := range dense.Cells() {
		if err := r.store.Set(c.Index, c.ColorIndex); err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		r.logger.Warn("Пропущено %d ячеек с неизвестным цветом", skipped)
	}

	r.logger.Info("Сетка загружена: размер %d, вокселей %d", size, r.store.Len())
	return nil
}

// Resize меняет размер сетки на сервере и полностью перезагружает её
func (r *Reconciler) Resize(ctx context.Context, size int) error {
	confirmed, err := r.backend.ResizeGrid(ctx, size)
	if err != nil {
		r.logger.Warn("Смена размера на %d отклонена: %v", size, err)
		return err
	}

	r.mu.Lock()
	r.generation++
	r.store.Reset(confirmed)
	r.mu.Unlock()

	r.logger.Info("Размер сетки изменён на %d", confirmed)
	return r.Reload(ctx)
}
