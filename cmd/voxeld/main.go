package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/voxel-editor/internal/api"
	"github.com/annel0/voxel-editor/internal/config"
	"github.com/annel0/voxel-editor/internal/eventbus"
	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/annel0/voxel-editor/internal/observability"
	"github.com/annel0/voxel-editor/internal/palette"
	"github.com/annel0/voxel-editor/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config path (или VOXEL_CONFIG)")
		port       = flag.Int("port", 0, "REST API port (переопределяет конфиг)")
		backend    = flag.String("storage", "", "Grid snapshot storage: memory, badger, redis")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *port > 0 {
		cfg.Server.RESTPort = *port
	}
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}

	logging.Configure(logging.Options{
		Dir:          cfg.Logging.GetDir(),
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		ConsoleLevel: logging.ParseLevel(cfg.Logging.GetConsoleLevel()),
		FileLevel:    logging.ParseLevel(cfg.Logging.GetFileLevel()),
	})
	logging.GetLoggerManager().ApplyLevels(cfg.Logging.Components)
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🧊 Запуск сервера воксельной сетки...")

	ctx := context.Background()
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.GetServiceName(), cfg.Telemetry.GetEndpoint())
	if err != nil {
		logging.Warn("⚠️ Трассировка недоступна: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer shutdownTelemetry(ctx)

	store, err := openGridStore(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Ошибка открытия хранилища сетки: %v", err)
	}

	bus, err := openEventBus(cfg.EventBus)
	if err != nil {
		store.Close()
		log.Fatalf("❌ Ошибка подключения к шине событий: %v", err)
	}
	eventbus.Init(bus)

	gin.SetMode(gin.ReleaseMode)

	restAddr := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	logging.Info("📡 Конфигурация: REST API=%s, хранилище=%s, размер=%d, шина=%s",
		restAddr, cfg.Storage.GetBackend(), cfg.Grid.GetDefaultSize(), busName(cfg.EventBus))

	integration, err := api.NewServerIntegration(api.IntegrationConfig{
		RestPort:        restAddr,
		EnableCORS:      cfg.Server.EnableCORS,
		GridSize:        cfg.Grid.GetDefaultSize(),
		AllowedSizes:    cfg.Grid.GetAllowedSizes(),
		Palette:         palette.Default(),
		GridStore:       store,
		ProjectsDir:     cfg.Storage.GetProjectsDir(),
		Bus:             bus,
		ShutdownTimeout: cfg.Server.GetShutdownTimeout(),
	})
	if err != nil {
		bus.Close()
		store.Close()
		log.Fatalf("❌ Ошибка создания REST API: %v", err)
	}

	if err := integration.Start(); err != nil {
		integration.Stop()
		log.Fatalf("❌ Ошибка запуска REST API: %v", err)
	}

	logging.Info("✅ Сервер запущен")
	logging.Debug("Логгеры компонентов: %v", logging.GetLoggerManager().ListComponents())
	logging.Info("   ❤️  Health check: http://localhost%s/health", restAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	if err := integration.Stop(); err != nil {
		logging.Error("❌ Ошибка остановки: %v", err)
	}
	eventbus.Init(nil)

	logging.Info("👋 Сервер успешно остановлен")
}

// openGridStore выбирает хранилище снимков сетки по конфигурации
func openGridStore(cfg config.StorageConfig) (storage.GridStore, error) {
	switch cfg.GetBackend() {
	case "memory":
		return storage.NewMemoryGridStore(), nil
	case "badger":
		return storage.NewBadgerGridStore(cfg.GetBadgerPath())
	case "redis":
		rc := storage.DefaultRedisConfig()
		rc.Addr = cfg.GetRedisAddr()
		rc.Key = cfg.GetRedisKey()
		return storage.NewRedisGridStore(rc)
	default:
		return nil, fmt.Errorf("неизвестное хранилище %q", cfg.GetBackend())
	}
}

// openEventBus подключает JetStream, если задан адрес NATS, иначе шину в памяти
func openEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if url := cfg.GetURL(); url != "" {
		return eventbus.NewJetStreamBus(url, cfg.GetStream(), cfg.GetRetention())
	}
	return eventbus.NewMemoryBus(1024), nil
}

func busName(cfg config.EventBusConfig) string {
	if url := cfg.GetURL(); url != "" {
		return "jetstream " + url
	}
	return "memory"
}
