package syncclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-editor/internal/grid"
	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend - сервер в памяти с возможностью задержать ответ
type fakeBackend struct {
	mu      sync.Mutex
	size    int
	cells   map[vec.Vec3]int
	err     error
	queries int
	updates int

	// echo подменяет значение в ответе
	echo func(colorIndex int) int
	// если задан, UpdateVoxel и QueryGrid ждут его закрытия
	block   chan struct{}
	entered chan struct{}
}

func newFakeBackend(size int) *fakeBackend {
	return &fakeBackend{size: size, cells: make(map[vec.Vec3]int)}
}

func (f *fakeBackend) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeBackend) QueryGrid(ctx context.Context) (voxelgrid.Dense, error) {
	f.mu.Lock()
	f.queries++
	f.mu.Unlock()
	f.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var cells []voxelgrid.Cell
	for c, v := range f.cells {
		cells = append(cells, voxelgrid.Cell{Index: c, ColorIndex: v})
	}
	return voxelgrid.FromCells(f.size, cells), nil
}

func (f *fakeBackend) UpdateVoxel(ctx context.Context, cell vec.Vec3, colorIndex int) (Update, error) {
	f.mu.Lock()
	f.updates++
	f.mu.Unlock()
	f.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return Update{}, f.err
	}
	value := colorIndex
	if f.echo != nil {
		value = f.echo(colorIndex)
	}
	if value == 0 {
		delete(f.cells, cell)
	} else {
		f.cells[cell] = value
	}
	return Update{Cell: cell, Value: value}, nil
}

func (f *fakeBackend) ResizeGrid(ctx context.Context, size int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.size = size
	f.cells = make(map[vec.Vec3]int)
	return size, nil
}

func newTestReconciler(backend *fakeBackend, size int) *Reconciler {
	return NewReconciler(backend, grid.NewStore(nil, palette.Default(), size))
}

func TestEdit_AppliesEcho(t *testing.T) {
	backend := newFakeBackend(8)
	r := newTestReconciler(backend, 8)
	cell := vec.Vec3{X: 1, Y: 2, Z: 3}

	upd, err := r.Edit(context.Background(), cell, 4)
	require.NoError(t, err)
	assert.Equal(t, Update{Cell: cell, Value: 4}, upd)

	assert.Equal(t, 4, r.Store().ColorAt(cell))

	_, err = r.Edit(context.Background(), cell, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Store().ColorAt(cell))
	assert.Equal(t, 0, r.Store().Len())
	assert.Equal(t, 0, r.Pending())
}

func TestEdit_ZeroEchoRemoves(t *testing.T) {
	backend := newFakeBackend(8)
	r := newTestReconciler(backend, 8)
	cell := vec.Vec3{X: 0, Y: 0, Z: 0}

	_, err := r.Edit(context.Background(), cell, 2)
	require.NoError(t, err)

	// Сервер вернул 0 на добавление: ячейка удаляется
	backend.echo = func(int) int { return 0 }
	upd, err := r.Edit(context.Background(), cell, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, upd.Value)
	assert.Equal(t, 0, r.Store().Len())
}

func TestEdit_OutOfBoundsNotSent(t *testing.T) {
	backend := newFakeBackend(8)
	r := newTestReconciler(backend, 8)

	for _, cell := range []vec.Vec3{{X: 8}, {Y: -1}, {Z: 100}} {
		_, err := r.Edit(context.Background(), cell, 1)
		assert.ErrorIs(t, err, ErrOutOfBounds)
	}
	assert.Equal(t, 0, backend.updates)
	assert.Equal(t, 0, r.Store().Len())
}

func TestEdit_TransportFailureLeavesStore(t *testing.T) {
	backend := newFakeBackend(8)
	r := newTestReconciler(backend, 8)
	backend.err = ErrTransport

	_, err := r.Edit(context.Background(), vec.Vec3{X: 1}, 1)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 0, r.Store().Len())
	assert.Equal(t, 0, r.Pending())
}

func TestEdit_SameCellBusy(t *testing.T) {
	backend := newFakeBackend(8)
	backend.block = make(chan struct{})
	backend.entered = make(chan struct{}, 4)
	r := newTestReconciler(backend, 8)
	cell := vec.Vec3{X: 2, Y: 2, Z: 2}

	done := make(chan error, 1)
	go func() {
		_, err := r.Edit(context.Background(), cell, 3)
		done <- err
	}()
	<-backend.entered

	_, err := r.Edit(context.Background(), cell, 5)
	assert.ErrorIs(t, err, ErrCellBusy)
	assert.Equal(t, 1, r.Pending())

	close(backend.block)
	require.NoError(t, <-done)

	assert.Equal(t, 3, r.Store().ColorAt(cell))
	assert.Equal(t, 0, r.Pending())
}

func TestEdit_StaleAfterInvalidate(t *testing.T) {
	backend := newFakeBackend(8)
	backend.block = make(chan struct{})
	backend.entered = make(chan struct{}, 1)
	r := newTestReconciler(backend, 8)

	done := make(chan error, 1)
	go func() {
		_, err := r.Edit(context.Background(), vec.Vec3{X: 1, Y: 1, Z: 1}, 2)
		done <- err
	}()
	<-backend.entered

	r.Invalidate()
	close(backend.block)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, 0, r.Store().Len())
}

func TestReload_RebuildsStore(t *testing.T) {
	backend := newFakeBackend(16)
	backend.cells[vec.Vec3{X: 0, Y: 0, Z: 0}] = 1
	backend.cells[vec.Vec3{X: 15, Y: 3, Z: 9}] = 7
	r := newTestReconciler(backend, 8)
	require.NoError(t, r.Store().Set(vec.Vec3{X: 5, Y: 5, Z: 5}, 2))

	gen := r.Generation()
	require.NoError(t, r.Reload(context.Background()))

	assert.Equal(t, 16, r.Store().Size())
	assert.Equal(t, 2, r.Store().Len())
	assert.Equal(t, 0, r.Store().ColorAt(vec.Vec3{X: 5, Y: 5, Z: 5}))
	// Размер изменился: новое поколение
	assert.Equal(t, gen+1, r.Generation())

	// Тот же размер: поколение не меняется
	require.NoError(t, r.Reload(context.Background()))
	assert.Equal(t, gen+1, r.Generation())
}

func TestReload_FailureLeavesStore(t *testing.T) {
	backend := newFakeBackend(8)
	backend.err = errors.New("down")
	r := newTestReconciler(backend, 8)
	require.NoError(t, r.Store().Set(vec.Vec3{X: 1, Y: 1, Z: 1}, 2))

	assert.Error(t, r.Reload(context.Background()))
	assert.Equal(t, 1, r.Store().Len())
}

func TestReload_Coalesced(t *testing.T) {
	backend := newFakeBackend(8)
	backend.block = make(chan struct{})
	backend.entered = make(chan struct{}, 2)
	r := newTestReconciler(backend, 8)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Reload(context.Background()))
	}()
	<-backend.entered
	go func() {
		defer wg.Done()
		assert.NoError(t, r.Reload(context.Background()))
	}()

	time.Sleep(50 * time.Millisecond)
	close(backend.block)
	wg.Wait()

	assert.Equal(t, 1, backend.queries)
}

func TestResize_ClearsAndReloads(t *testing.T) {
	backend := newFakeBackend(8)
	r := newTestReconciler(backend, 8)
	_, err := r.Edit(context.Background(), vec.Vec3{X: 1, Y: 1, Z: 1}, 2)
	require.NoError(t, err)

	gen := r.Generation()
	require.NoError(t, r.Resize(context.Background(), 32))

	assert.Equal(t, 32, r.Store().Size())
	assert.Equal(t, 0, r.Store().Len())
	assert.Greater(t, r.Generation(), gen)
	assert.Equal(t, 1, backend.queries)
}

func TestResize_ShrinkDropsOutOfRangeCells(t *testing.T) {
	backend := newFakeBackend(16)
	backend.cells[vec.Vec3{X: 2, Y: 2, Z: 2}] = 1
	backend.cells[vec.Vec3{X: 12, Y: 0, Z: 3}] = 4
	backend.cells[vec.Vec3{X: 15, Y: 15, Z: 15}] = 8
	r := newTestReconciler(backend, 16)
	require.NoError(t, r.Reload(context.Background()))
	require.Equal(t, 3, r.Store().Len())

	require.NoError(t, r.Resize(context.Background(), 8))

	assert.Equal(t, 8, r.Store().Size())
	r.Store().Each(func(v grid.Voxel) {
		assert.True(t, v.Cell.InBounds(8), "ячейка %s вне сетки 8", v.Cell)
	})
	assert.Equal(t, 0, r.Store().Len())
}

func TestEdit_StaleAfterResize(t *testing.T) {
	backend := newFakeBackend(16)
	backend.block = make(chan struct{})
	backend.entered = make(chan struct{}, 2)
	r := newTestReconciler(backend, 16)
	cell := vec.Vec3{X: 12, Y: 12, Z: 12}

	edited := make(chan error, 1)
	go func() {
		_, err := r.Edit(context.Background(), cell, 3)
		edited <- err
	}()
	<-backend.entered

	resized := make(chan error, 1)
	go func() {
		resized <- r.Resize(context.Background(), 8)
	}()
	// Resize уже сменил поколение и ждёт перезагрузки
	<-backend.entered

	close(backend.block)
	assert.ErrorIs(t, <-edited, ErrStale)
	require.NoError(t, <-resized)

	assert.Equal(t, 8, r.Store().Size())
	assert.Equal(t, 0, r.Store().Len())
	assert.Equal(t, 0, r.Pending())
}

func TestResize_RejectedLeavesStore(t *testing.T) {
	backend := newFakeBackend(8)
	r := newTestReconciler(backend, 8)
	require.NoError(t, r.Store().Set(vec.Vec3{X: 1, Y: 1, Z: 1}, 2))
	backend.err = &RejectedError{StatusCode: 400, Message: "bad size"}

	err := r.Resize(context.Background(), 12)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Equal(t, 8, r.Store().Size())
	assert.Equal(t, 1, r.Store().Len())
}
