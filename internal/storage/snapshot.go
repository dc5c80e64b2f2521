// Package storage сохраняет авторитетную сетку сервера между перезапусками
// и хранит серверные файлы проектов.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/klauspost/compress/zstd"
)

// ErrNotFound - снимок или проект отсутствует
var ErrNotFound = errors.New("not found")

// Snapshot - полное состояние сетки
type Snapshot struct {
	GridSize int             `json:"grid_size"`
	Grid     voxelgrid.Dense `json:"grid"`
	Version  uint64          `json:"version"`
	SavedAt  time.Time       `json:"saved_at"`
}

// GridStore хранит последний снимок сетки
type GridStore interface {
	SaveGrid(ctx context.Context, snap *Snapshot) error
	// LoadGrid возвращает ErrNotFound, если снимка ещё нет
	LoadGrid(ctx context.Context) (*Snapshot, error)
	Close() error
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// encodeSnapshot сериализует снимок в JSON и сжимает zstd
func encodeSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	return encoder.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

// decodeSnapshot распаковывает и проверяет снимок
func decodeSnapshot(data []byte) (*Snapshot, error) {
	plain, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки снимка: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(plain, &snap); err != nil {
		return nil, fmt.Errorf("ошибка десериализации снимка: %w", err)
	}
	if snap.GridSize <= 0 {
		return nil, fmt.Errorf("некорректный размер сетки в снимке: %d", snap.GridSize)
	}
	if err := snap.Grid.Validate(snap.GridSize); err != nil {
		return nil, fmt.Errorf("некорректный снимок: %w", err)
	}
	return &snap, nil
}
