package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает имя уровня (без учёта регистра). Неизвестное имя - INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Options задаёт параметры создаваемых логгеров
type Options struct {
	Dir          string // каталог для файлов; пусто - только консоль
	MaxSizeMB    int    // размер файла до ротации
	MaxBackups   int
	MaxAgeDays   int
	ConsoleLevel LogLevel
	FileLevel    LogLevel
	Console      io.Writer // по умолчанию os.Stdout
}

var (
	optionsMu sync.RWMutex
	options   = Options{
		Dir:          "logs",
		MaxSizeMB:    50,
		MaxBackups:   5,
		MaxAgeDays:   14,
		ConsoleLevel: INFO,
		FileLevel:    DEBUG,
	}
)

// Configure меняет параметры для логгеров, создаваемых после вызова
func Configure(opts Options) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	options = opts
}

func currentOptions() Options {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	return options
}

// Logger - логгер компонента: консоль + файл с ротацией
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            io.Closer
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

// NewLogger создаёт логгер компонента по текущим Options.
// Файл: <Dir>/<component>.log
func NewLogger(component string) (*Logger, error) {
	opts := currentOptions()

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	l := &Logger{
		component:       component,
		consoleLogger:   log.New(console, "", log.LstdFlags),
		minConsoleLevel: opts.ConsoleLevel,
		minFileLevel:    opts.FileLevel,
	}

	if opts.Dir != "" {
		// Создаем директорию для логов
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("ошибка создания директории %s: %w", opts.Dir, err)
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, component+".log"),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		l.fileLogger = log.New(rotator, "", log.LstdFlags)
		l.file = rotator
	}

	return l, nil
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Component возвращает имя компонента
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if l == nil {
		return
	}

	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

// Логгер по умолчанию: до InitDefaultLogger пишет только в консоль
var (
	defaultMu     sync.RWMutex
	defaultLogger = &Logger{
		component:       "main",
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		minConsoleLevel: INFO,
		minFileLevel:    ERROR,
	}
)

// InitDefaultLogger создаёт логгер по умолчанию для компонента
func InitDefaultLogger(component string) error {
	l, err := NewLogger(component)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()

	_ = old.Close()
	return nil
}

// CloseDefaultLogger закрывает файл логгера по умолчанию
func CloseDefaultLogger() {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	_ = defaultLogger.Close()
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func Trace(format string, args ...interface{}) { current().log(TRACE, format, args...) }
func Debug(format string, args ...interface{}) { current().log(DEBUG, format, args...) }
func Info(format string, args ...interface{})  { current().log(INFO, format, args...) }
func Warn(format string, args ...interface{})  { current().log(WARN, format, args...) }
func Error(format string, args ...interface{}) { current().log(ERROR, format, args...) }
