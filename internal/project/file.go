package project

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Файлы с суффиксом .gz пишутся и читаются в gzip
const gzipSuffix = ".gz"

// ReadFile читает содержимое файла проекта
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать %s: %w", path, err)
	}
	if !strings.HasSuffix(path, gzipSuffix) {
		return data, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return plain, nil
}

// WriteFile записывает содержимое файла проекта
func WriteFile(path string, data []byte) error {
	if strings.HasSuffix(path, gzipSuffix) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("ошибка сжатия проекта: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("ошибка сжатия проекта: %w", err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("не удалось записать %s: %w", path, err)
	}
	return nil
}

// Load читает и разбирает файл проекта
func Load(path string) (*Document, error) {
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Save кодирует и записывает документ
func Save(path string, doc *Document) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}
