package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации редактора и сервера.
// Любой раздел может отсутствовать: геттеры возвращают значения
// из окружения или по умолчанию.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Grid      GridConfig      `yaml:"grid"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Client    ClientConfig    `yaml:"client"`
}

type ServerConfig struct {
	RESTPort        int  `yaml:"rest_port"`
	ShutdownSeconds int  `yaml:"shutdown_timeout_seconds"`
	EnableCORS      bool `yaml:"enable_cors"`
}

type GridConfig struct {
	DefaultSize  int   `yaml:"default_size"`
	AllowedSizes []int `yaml:"allowed_sizes"`
}

type StorageConfig struct {
	Backend     string `yaml:"backend"` // memory | badger | redis
	BadgerPath  string `yaml:"badger_path"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisKey    string `yaml:"redis_key"`
	ProjectsDir string `yaml:"projects_dir"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
	MaxSizeMB    int    `yaml:"max_size_mb"`
	MaxBackups   int    `yaml:"max_backups"`
	MaxAgeDays   int    `yaml:"max_age_days"`
	// Components задаёт уровень отдельных компонентов: sync: debug
	Components map[string]string `yaml:"components"`
}

type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

type ClientConfig struct {
	ServerURL      string `yaml:"server_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getIntWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8080)
}

// GetShutdownTimeout возвращает таймаут graceful shutdown
func (s *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(getIntWithEnvFallback(s.ShutdownSeconds, "VOXEL_SHUTDOWN_TIMEOUT", 5)) * time.Second
}

// GetDefaultSize возвращает начальный размер сетки
func (g *GridConfig) GetDefaultSize() int {
	return getIntWithEnvFallback(g.DefaultSize, "VOXEL_GRID_SIZE", 16)
}

// GetAllowedSizes возвращает допустимые размеры сетки
func (g *GridConfig) GetAllowedSizes() []int {
	if len(g.AllowedSizes) > 0 {
		return g.AllowedSizes
	}
	if envVal := os.Getenv("VOXEL_ALLOWED_SIZES"); envVal != "" {
		var sizes []int
		for _, part := range strings.Split(envVal, ",") {
			if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n > 0 {
				sizes = append(sizes, n)
			}
		}
		if len(sizes) > 0 {
			return sizes
		}
	}
	return []int{8, 16, 32, 64}
}

// GetBackend возвращает тип хранилища снимков сетки
func (s *StorageConfig) GetBackend() string {
	return strings.ToLower(getStringWithEnvFallback(s.Backend, "VOXEL_STORAGE", "memory"))
}

// GetBadgerPath возвращает каталог BadgerDB
func (s *StorageConfig) GetBadgerPath() string {
	return getStringWithEnvFallback(s.BadgerPath, "VOXEL_BADGER_PATH", "data/grid")
}

// GetRedisAddr возвращает адрес Redis
func (s *StorageConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(s.RedisAddr, "VOXEL_REDIS_ADDR", "localhost:6379")
}

// GetRedisKey возвращает ключ снимка сетки в Redis
func (s *StorageConfig) GetRedisKey() string {
	return getStringWithEnvFallback(s.RedisKey, "VOXEL_REDIS_KEY", "voxel:grid")
}

// GetProjectsDir возвращает каталог серверных проектов
func (s *StorageConfig) GetProjectsDir() string {
	return getStringWithEnvFallback(s.ProjectsDir, "VOXEL_PROJECTS_DIR", "projects")
}

// GetURL возвращает адрес NATS. Пустая строка - шина в памяти.
func (e *EventBusConfig) GetURL() string {
	return getStringWithEnvFallback(e.URL, "VOXEL_NATS_URL", "")
}

// GetStream возвращает имя потока JetStream
func (e *EventBusConfig) GetStream() string {
	return getStringWithEnvFallback(e.Stream, "VOXEL_NATS_STREAM", "VOXEL_EVENTS")
}

// GetRetention возвращает срок хранения событий
func (e *EventBusConfig) GetRetention() time.Duration {
	return time.Duration(getIntWithEnvFallback(e.Retention, "VOXEL_NATS_RETENTION_HOURS", 24)) * time.Hour
}

// GetDir возвращает каталог логов
func (l *LoggingConfig) GetDir() string {
	return getStringWithEnvFallback(l.Dir, "VOXEL_LOG_DIR", "logs")
}

// GetConsoleLevel возвращает уровень консольного вывода
func (l *LoggingConfig) GetConsoleLevel() string {
	return getStringWithEnvFallback(l.ConsoleLevel, "VOXEL_LOG_LEVEL", "info")
}

// GetFileLevel возвращает уровень файлового вывода
func (l *LoggingConfig) GetFileLevel() string {
	return getStringWithEnvFallback(l.FileLevel, "VOXEL_LOG_FILE_LEVEL", "debug")
}

// GetEndpoint возвращает адрес OTLP collector. Пусто - трассировка выключена.
func (t *TelemetryConfig) GetEndpoint() string {
	return getStringWithEnvFallback(t.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT", "")
}

// GetServiceName возвращает имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	return getStringWithEnvFallback(t.ServiceName, "OTEL_SERVICE_NAME", "voxeld")
}

// GetServerURL возвращает адрес сервера для клиента
func (c *ClientConfig) GetServerURL() string {
	return getStringWithEnvFallback(c.ServerURL, "VOXEL_SERVER_URL", "http://localhost:8080")
}

// GetTimeout возвращает таймаут запросов клиента
func (c *ClientConfig) GetTimeout() time.Duration {
	return time.Duration(getIntWithEnvFallback(c.TimeoutSeconds, "VOXEL_CLIENT_TIMEOUT", 10)) * time.Second
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configValue > 0 {
		return configValue
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	// Используем дефолтное значение
	return defaultValue
}

func getStringWithEnvFallback(configValue, envVar, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultValue
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает
// пустую конфигурацию (все значения по умолчанию).
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return &Config{}, nil // конфиг не задан - использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфигурацию %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	return &cfg, nil
}
