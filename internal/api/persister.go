package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/voxel-editor/internal/eventbus"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/protocol"
	"github.com/annel0/voxel-editor/internal/storage"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
)

// Persister периодически сохраняет снимок сетки в GridStore.
// Снимок пишется, только если версия сетки изменилась. Загрузка
// проекта и смена размера сохраняются сразу, не дожидаясь тика.
type Persister struct {
	grid     *voxelgrid.Grid
	store    storage.GridStore
	interval time.Duration
	logger   *logging.Logger

	mu    sync.Mutex
	saved uint64

	kick    chan struct{}
	sub     eventbus.Subscription
	started bool
	quit    chan struct{}
	done    chan struct{}
}

// NewPersister создаёт сохранитель; interval <= 0 означает 5 секунд
func NewPersister(grid *voxelgrid.Grid, store storage.GridStore, interval time.Duration) *Persister {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Persister{
		grid:     grid,
		store:    store,
		interval: interval,
		logger:   logging.GetStorageLogger(),
		kick:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Restore загружает последний снимок в сервис. Отсутствие снимка не ошибка.
func (p *Persister) Restore(ctx context.Context, svc *GridService) error {
	snap, err := p.store.LoadGrid(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		p.logger.Info("Сохранённого снимка нет, сетка пуста")
		return nil
	}
	if err != nil {
		return fmt.Errorf("загрузка снимка: %w", err)
	}
	if err := svc.Restore(snap); err != nil {
		return fmt.Errorf("восстановление снимка: %w", err)
	}

	p.mu.Lock()
	p.saved = p.grid.Version()
	p.mu.Unlock()
	p.logger.Info("Сетка восстановлена из снимка: размер %d, версия %d", snap.GridSize, snap.Version)
	return nil
}

// Start запускает фоновое сохранение. bus может быть nil.
func (p *Persister) Start(ctx context.Context, bus eventbus.EventBus) error {
	if bus != nil {
		sub, err := bus.Subscribe(ctx, eventbus.Filter{
			Types: []string{protocol.EventGridResized, protocol.EventProjectLoaded},
		}, func(ctx context.Context, ev *eventbus.Envelope) {
			select {
			case p.kick <- struct{}{}:
			default:
			}
		})
		if err != nil {
			return fmt.Errorf("подписка на события сетки: %w", err)
		}
		p.sub = sub
	}
	p.started = true
	go p.loop()
	return nil
}

// Stop останавливает цикл и сохраняет последние изменения.
// Без Start только сохраняет.
func (p *Persister) Stop(ctx context.Context) error {
	if p.sub != nil {
		p.sub.Unsubscribe()
	}
	if p.started {
		p.started = false
		close(p.quit)
		<-p.done
	}
	return p.Flush(ctx)
}

// Flush сохраняет снимок, если сетка изменилась после прошлого сохранения
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	version := p.grid.Version()
	if version == p.saved {
		return nil
	}

	snap := &storage.Snapshot{
		GridSize: p.grid.Size(),
		Grid:     p.grid.Snapshot(),
		Version:  version,
		SavedAt:  time.Now().UTC(),
	}
	// Сетка могла измениться между Size и Snapshot
	snap.GridSize = snap.Grid.Size()

	if err := p.store.SaveGrid(ctx, snap); err != nil {
		return fmt.Errorf("сохранение снимка: %w", err)
	}
	p.saved = version
	p.logger.Debug("Снимок сетки сохранён: версия %d", version)
	return nil
}

func (p *Persister) loop() {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case <-p.kick:
		case <-p.quit:
			return
		}
		if err := p.Flush(context.Background()); err != nil {
			p.logger.Error("%v", err)
		}
	}
}
