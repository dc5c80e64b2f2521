package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

const badgerGridKey = "grid:current"

// BadgerGridStore хранит снимок сетки в BadgerDB
type BadgerGridStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerGridStore открывает (или создаёт) базу в dataPath/grid
func NewBadgerGridStore(dataPath string) (*BadgerGridStore, error) {
	dbPath := filepath.Join(dataPath, "grid")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerGridStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Close закрывает хранилище данных
func (bs *BadgerGridStore) Close() error {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if !bs.isReady {
		return nil
	}

	bs.isReady = false
	return bs.db.Close()
}

// SaveGrid заменяет сохранённый снимок
func (bs *BadgerGridStore) SaveGrid(ctx context.Context, snap *Snapshot) error {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	err = bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerGridKey), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// LoadGrid читает сохранённый снимок
func (bs *BadgerGridStore) LoadGrid(ctx context.Context) (*Snapshot, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()

	if !bs.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerGridKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	return decodeSnapshot(data)
}
