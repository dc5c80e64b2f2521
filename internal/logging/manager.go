package logging

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// LoggerManager раздаёт логгеры компонентов и хранит уровни,
// заданные для отдельных компонентов в конфигурации
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	overrides map[string]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:   make(map[string]*Logger),
		overrides: make(map[string]LogLevel),
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении.
// Уровень из SetComponentLevel применяется при создании.
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger for %s: %w", component, err)
	}
	if level, ok := lm.overrides[component]; ok {
		logger.minConsoleLevel = level
		logger.minFileLevel = level
	}
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или консольный логгер, если файл открыть не удалось
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}
	return &Logger{
		component:       component,
		consoleLogger:   current().consoleLogger,
		minConsoleLevel: INFO,
		minFileLevel:    ERROR,
	}
}

// SetComponentLevel задаёт уровень компонента для консоли и файла.
// Вызывается до создания логгеров (на старте); уже созданный логгер
// тоже перенастраивается.
func (lm *LoggerManager) SetComponentLevel(component string, level LogLevel) {
	lm.mu.Lock()
	lm.overrides[component] = level
	_, exists := lm.loggers[component]
	lm.mu.Unlock()

	if exists {
		_ = lm.SetLogLevel(component, level, level)
	}
}

// ApplyLevels разбирает карту компонент -> имя уровня из конфигурации
func (lm *LoggerManager) ApplyLevels(levels map[string]string) {
	for component, name := range levels {
		lm.SetComponentLevel(component, ParseLevel(name))
	}
}

// SetLogLevel меняет уровни уже созданного логгера
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	logger, ok := lm.loggers[component]
	if !ok {
		return fmt.Errorf("logger for component %s not found", component)
	}
	logger.minConsoleLevel = consoleLevel
	logger.minFileLevel = fileLevel
	return nil
}

// ListComponents возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close logger %s: %w", component, err))
		}
	}
	lm.loggers = make(map[string]*Logger)
	return errors.Join(errs...)
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetServerLogger() *Logger  { return GetComponentLogger("server") }
func GetSyncLogger() *Logger    { return GetComponentLogger("sync") }
func GetEditorLogger() *Logger  { return GetComponentLogger("editor") }
func GetStorageLogger() *Logger { return GetComponentLogger("storage") }
