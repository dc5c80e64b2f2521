package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/annel0/voxel-editor/internal/eventbus"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/storage"
	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/prometheus/client_golang/prometheus"
)

// ServerIntegration собирает сервер сетки: сетку, хранилище снимков,
// шину событий и REST API. Отвечает за запуск и graceful shutdown.
type ServerIntegration struct {
	restServer      *RestServer
	service         *GridService
	persister       *Persister
	busMetrics      *eventbus.MetricsExporter
	busLogger       eventbus.Subscription
	bus             eventbus.EventBus
	store           storage.GridStore
	httpServer      *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
	logger          *logging.Logger
	ctx             context.Context
	cancel          context.CancelFunc
}

// IntegrationConfig содержит конфигурацию для интеграции
type IntegrationConfig struct {
	// REST API настройки
	RestPort   string
	EnableCORS bool

	// Сетка
	GridSize     int
	AllowedSizes []int
	Palette      *palette.Palette

	// Хранилище снимков; nil - в памяти
	GridStore       storage.GridStore
	PersistInterval time.Duration

	// Каталог серверных проектов; пусто - сохранение на сервере выключено
	ProjectsDir string

	// Шина событий; nil - шина в памяти
	Bus eventbus.EventBus

	// Регистр метрик; nil - глобальный
	Registerer prometheus.Registerer

	ShutdownTimeout time.Duration
}

// NewServerIntegration создает сервер сетки и восстанавливает последний снимок
func NewServerIntegration(config IntegrationConfig) (*ServerIntegration, error) {
	if config.GridSize <= 0 {
		config.GridSize = voxelgrid.DefaultSize
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 5 * time.Second
	}
	if config.GridStore == nil {
		config.GridStore = storage.NewMemoryGridStore()
	}
	if config.Bus == nil {
		config.Bus = eventbus.NewMemoryBus(1024)
	}

	grid, err := voxelgrid.NewGrid(config.GridSize, config.Palette, config.AllowedSizes)
	if err != nil {
		return nil, err
	}

	var projects *storage.ProjectDir
	if config.ProjectsDir != "" {
		if projects, err = storage.NewProjectDir(config.ProjectsDir); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger := logging.GetServerLogger()

	gridMetrics := NewGridMetrics(config.Registerer, grid)
	service := NewGridService(grid, projects, config.Bus, gridMetrics)

	persister := NewPersister(grid, config.GridStore, config.PersistInterval)
	if err := persister.Restore(ctx, service); err != nil {
		// Повреждённый снимок не мешает запуску с пустой сеткой
		logger.Warn("⚠️ %v", err)
	}

	restServer := NewRestServer(Config{
		Port:        config.RestPort,
		Service:     service,
		Registerer:  config.Registerer,
		EnableCORS:  config.EnableCORS,
		DefaultSize: config.GridSize,
	})

	return &ServerIntegration{
		restServer:      restServer,
		service:         service,
		persister:       persister,
		busMetrics:      eventbus.NewMetricsExporter(config.Bus, config.Registerer),
		bus:             config.Bus,
		store:           config.GridStore,
		shutdownTimeout: config.ShutdownTimeout,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}, nil
}

// Start запускает фоновые задачи и REST API сервер
func (si *ServerIntegration) Start() error {
	sub, err := eventbus.StartLoggingListener(si.bus)
	if err != nil {
		return err
	}
	si.busLogger = sub

	if err := si.persister.Start(si.ctx, si.bus); err != nil {
		return err
	}
	si.busMetrics.Start(time.Second)

	ln, err := net.Listen("tcp", si.restServer.port)
	if err != nil {
		return fmt.Errorf("не удалось открыть порт %s: %w", si.restServer.port, err)
	}
	si.listener = ln

	si.httpServer = &http.Server{
		Handler:           si.restServer.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := si.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			si.logger.Error("❌ Ошибка REST API сервера: %v", err)
		}
	}()

	si.logger.Info("✅ REST API сервер запущен на %s", ln.Addr())
	si.logger.Info("   GET  /api/grid, POST /api/update_voxel, POST /api/set_grid_size")
	si.logger.Info("   POST /api/save, GET /api/load/:filename, GET /api/projects")
	si.logger.Info("   GET  /api/palette, GET /api/stats, GET /health, GET /metrics")
	return nil
}

// Addr возвращает фактический адрес сервера после Start
func (si *ServerIntegration) Addr() string {
	if si.listener == nil {
		return ""
	}
	return si.listener.Addr().String()
}

// Stop останавливает сервер, сохраняет сетку и закрывает ресурсы
func (si *ServerIntegration) Stop() error {
	si.logger.Info("🛑 Остановка REST API сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), si.shutdownTimeout)
	defer cancel()

	var errs []error
	if si.httpServer != nil {
		if err := si.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	if si.busLogger != nil {
		si.busLogger.Unsubscribe()
	}
	if err := si.persister.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	si.busMetrics.Stop()

	if err := si.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	if err := si.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("grid store: %w", err))
	}

	si.cancel()

	if err := errors.Join(errs...); err != nil {
		si.logger.Error("❌ Ошибка при остановке: %v", err)
		return err
	}
	si.logger.Info("✅ REST API сервер остановлен")
	return nil
}

// Service возвращает сервис сетки
func (si *ServerIntegration) Service() *GridService { return si.service }

// GetRestServer возвращает REST сервер (для дополнительной настройки)
func (si *ServerIntegration) GetRestServer() *RestServer { return si.restServer }

// IsHealthy проверяет состояние интеграции
func (si *ServerIntegration) IsHealthy() bool {
	select {
	case <-si.ctx.Done():
		return false
	default:
		return true
	}
}
