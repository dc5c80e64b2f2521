// Package editor собирает сеанс редактирования: переводит ввод в команды,
// разрешает цели, управляет превью и отправляет правки через согласователь.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/annel0/voxel-editor/internal/grid"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/placement"
	"github.com/annel0/voxel-editor/internal/preview"
	"github.com/annel0/voxel-editor/internal/project"
	"github.com/annel0/voxel-editor/internal/syncclient"
	"github.com/annel0/voxel-editor/internal/vec"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrUnknownCommand - команда не поддерживается
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoExporter - экспорт не настроен
	ErrNoExporter = errors.New("exporter not configured")
	// ErrInvalidColor - индекс цвета вне палитры
	ErrInvalidColor = errors.New("invalid color index")
)

// ModelExporter выгружает воксели сцены в бинарную модель
type ModelExporter interface {
	Export(ctx context.Context, voxels []grid.Voxel, w io.Writer) error
}

// FrameCapturer сохраняет текущий кадр
type FrameCapturer interface {
	Capture(ctx context.Context, w io.Writer) error
}

// Options - необязательные внешние зависимости редактора
type Options struct {
	Caster   placement.RayCaster
	Preview  preview.Object
	Exporter ModelExporter
	Capturer FrameCapturer
	Width    float64
	Height   float64
}

// Editor - единая точка выполнения команд сеанса.
// Мутации состояния сериализуются mu, сетевые вызовы идут вне блокировки.
type Editor struct {
	mu         sync.Mutex
	session    *Session
	reconciler *syncclient.Reconciler
	resolver   *placement.Resolver
	preview    *preview.Controller
	exporter   ModelExporter
	capturer   FrameCapturer
	logger     *logging.Logger
}

// New создаёт редактор над согласователем
func New(reconciler *syncclient.Reconciler, opts Options) *Editor {
	store := reconciler.Store()
	return &Editor{
		session:    NewSession(store.Palette(), store.Size(), opts.Width, opts.Height),
		reconciler: reconciler,
		resolver:   placement.NewResolver(opts.Caster),
		preview:    preview.NewController(opts.Preview),
		exporter:   opts.Exporter,
		capturer:   opts.Capturer,
		logger:     logging.GetEditorLogger(),
	}
}

// Session возвращает состояние сеанса
func (e *Editor) Session() *Session { return e.session }

// Store возвращает хранилище сетки
func (e *Editor) Store() *grid.Store { return e.reconciler.Store() }

// Preview возвращает контроллер превью
func (e *Editor) Preview() *preview.Controller { return e.preview }

// HandleInput переводит событие ввода в команду и выполняет её
func (e *Editor) HandleInput(ctx context.Context, ev InputEvent) (Result, error) {
	w, h := e.session.Viewport()
	cmd, ok := Translate(ev, w, h)
	if !ok {
		return Result{}, nil
	}
	return e.Dispatch(ctx, cmd)
}

// Dispatch выполняет команду. Геометрический промах не ошибка:
// возвращается Result с пустой целью.
func (e *Editor) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case ShowPreview:
		return e.showPreview(c), nil
	case HidePreview:
		e.preview.Release()
		return Result{}, nil
	case AddVoxel:
		return e.addVoxel(ctx, c)
	case RemoveVoxel:
		return e.removeVoxel(ctx, c)
	case SelectColor:
		if !e.session.SetColor(c.Index) {
			return Result{}, fmt.Errorf("%w: %d", ErrInvalidColor, c.Index)
		}
		return Result{Applied: true, Value: c.Index}, nil
	case ResizeGrid:
		return e.resize(ctx, c.Size)
	case Reload:
		return e.reload(ctx)
	case LoadProject:
		return e.loadProject(c.Path)
	case SaveProject:
		return e.saveProject(c.Path)
	case ExportModel:
		if e.exporter == nil {
			return Result{}, ErrNoExporter
		}
		if err := e.exporter.Export(ctx, e.Store().Voxels(), c.Out); err != nil {
			return Result{}, fmt.Errorf("export model: %w", err)
		}
		return Result{Applied: true}, nil
	case CaptureFrame:
		if e.capturer == nil {
			return Result{}, ErrNoExporter
		}
		if err := e.capturer.Capture(ctx, c.Out); err != nil {
			return Result{}, fmt.Errorf("capture frame: %w", err)
		}
		return Result{Applied: true}, nil
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func (e *Editor) resolve(pointer mgl64.Vec2, intent placement.Intent, opposite bool) placement.Target {
	store := e.Store()
	q := placement.Query{
		Candidates: store.Surfaces(),
		Mapper:     store.Mapper(),
		Intent:     intent,
		Opposite:   opposite,
	}
	return e.resolver.ResolvePointer(e.session.Camera(), pointer, q)
}

func (e *Editor) showPreview(c ShowPreview) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	target := e.resolve(c.Pointer, placement.IntentAdd, c.Opposite)
	e.preview.Move(target, true)
	return Result{Target: target}
}

func (e *Editor) addVoxel(ctx context.Context, c AddVoxel) (Result, error) {
	e.mu.Lock()
	var target placement.Target
	if pos, ok := e.preview.Cell(); ok {
		target = placement.Target{Kind: placement.TargetAdd, Position: pos}
	} else {
		target = e.resolve(c.Pointer, placement.IntentAdd, c.Opposite)
	}
	mapper := e.Store().Mapper()
	color := e.session.Color()
	e.mu.Unlock()

	if !target.Found() {
		return Result{Target: target}, nil
	}
	return e.edit(ctx, target, mapper.ToIndex(target.Position), color)
}

func (e *Editor) removeVoxel(ctx context.Context, c RemoveVoxel) (Result, error) {
	e.mu.Lock()
	target := e.resolve(c.Pointer, placement.IntentRemove, false)
	mapper := e.Store().Mapper()
	e.mu.Unlock()

	if !target.Found() {
		return Result{Target: target}, nil
	}
	return e.edit(ctx, target, mapper.ToIndex(target.Position), 0)
}

func (e *Editor) edit(ctx context.Context, target placement.Target, cell vec.Vec3, color int) (Result, error) {
	res := Result{Target: target, Cell: cell, GridSize: e.Store().Size()}

	upd, err := e.reconciler.Edit(ctx, cell, color)
	if err != nil {
		e.logger.Debug("Правка %s не применена: %v", cell, err)
		return res, err
	}

	res.Applied = true
	res.Cell = upd.Cell
	res.Value = upd.Value
	return res, nil
}

func (e *Editor) resize(ctx context.Context, size int) (Result, error) {
	if err := e.reconciler.Resize(ctx, size); err != nil {
		return Result{GridSize: e.Store().Size()}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.preview.Release()
	size = e.Store().Size()
	e.session.Reframe(size)
	return Result{Applied: true, GridSize: size}, nil
}

func (e *Editor) reload(ctx context.Context) (Result, error) {
	before := e.Store().Size()
	if err := e.reconciler.Reload(ctx); err != nil {
		return Result{GridSize: before}, err
	}

	size := e.Store().Size()
	if size != before {
		e.mu.Lock()
		e.preview.Release()
		e.session.Reframe(size)
		e.mu.Unlock()
	}
	return Result{Applied: true, GridSize: size}, nil
}

func (e *Editor) loadProject(path string) (Result, error) {
	doc, err := project.Load(path)
	if err != nil {
		return Result{}, err
	}
	cells := doc.Grid.Cells()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reconciler.Replace(doc.GridSize, cells); err != nil {
		return Result{}, fmt.Errorf("%w: %v", project.ErrFormat, err)
	}
	e.preview.Release()
	e.session.Reframe(doc.GridSize)

	e.logger.Info("Проект %s загружен: размер %d, вокселей %d", path, doc.GridSize, len(cells))
	return Result{Applied: true, GridSize: doc.GridSize}, nil
}

func (e *Editor) saveProject(path string) (Result, error) {
	store := e.Store()
	voxels := store.Voxels()
	cells := make([]voxelgrid.Cell, len(voxels))
	for i, v := range voxels {
		cells[i] = voxelgrid.Cell{Index: v.Cell, ColorIndex: v.ColorIndex}
	}

	size := store.Size()
	if err := project.Save(path, project.Serialize(cells, size, store.Palette())); err != nil {
		return Result{}, err
	}
	e.logger.Info("Проект сохранён в %s", path)
	return Result{Applied: true, GridSize: size}, nil
}
