package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/annel0/voxel-editor/internal/project"
)

// ErrInvalidName - имя файла проекта указывает за пределы каталога
var ErrInvalidName = errors.New("invalid project file name")

const projectExt = ".json"

// ProjectDir - каталог серверных файлов проектов
type ProjectDir struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewProjectDir создаёт каталог при необходимости
func NewProjectDir(dir string) (*ProjectDir, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания каталога проектов %s: %w", dir, err)
	}
	return &ProjectDir{dir: dir, now: time.Now}, nil
}

// Dir возвращает путь каталога
func (p *ProjectDir) Dir() string { return p.dir }

// SanitizeName оставляет в имени буквы, цифры, пробел, '_' и '-'.
// Пустой результат заменяется на project_<unix time>.
func SanitizeName(name string, now time.Time) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := strings.TrimRight(b.String(), " ")
	if clean == "" {
		clean = fmt.Sprintf("project_%d", now.Unix())
	}
	return clean
}

// Save записывает проект под очищенным именем. Существующие файлы не
// перезаписываются: к имени добавляется суффикс _1, _2, ...
func (p *ProjectDir) Save(name string, doc *project.Document) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := SanitizeName(name, p.now())
	filename := base + projectExt
	for counter := 1; p.exists(filename); counter++ {
		filename = fmt.Sprintf("%s_%d%s", base, counter, projectExt)
	}

	if err := project.Save(filepath.Join(p.dir, filename), doc); err != nil {
		return "", err
	}
	return filename, nil
}

// Load читает и проверяет проект
func (p *ProjectDir) Load(filename string) (*project.Document, error) {
	path, err := p.path(filename)
	if err != nil {
		return nil, err
	}
	if !p.exists(filename) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	return project.Load(path)
}

// List возвращает имена файлов проектов по алфавиту
func (p *ProjectDir) List() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога проектов: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n := e.Name(); strings.HasSuffix(n, projectExt) || strings.HasSuffix(n, projectExt+".gz") {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (p *ProjectDir) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return filepath.Join(p.dir, filename), nil
}

func (p *ProjectDir) exists(filename string) bool {
	_, err := os.Stat(filepath.Join(p.dir, filename))
	return err == nil
}
