package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/voxel-editor/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr          string        // Адрес Redis сервера
	Password      string        // Пароль (пустой если не требуется)
	DB            int           // Номер базы данных
	Key           string        // Ключ текущего снимка
	History       int           // Сколько прошлых снимков хранить в списке <Key>:history
	FlushInterval time.Duration // Интервал отложенной записи
	DialTimeout   time.Duration
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:          "localhost:6379",
		Key:           "voxel:grid",
		History:       10,
		FlushInterval: 500 * time.Millisecond,
		DialTimeout:   5 * time.Second,
	}
}

// RedisGridStore хранит снимок сетки в Redis с отложенной записью:
// частые правки схлопываются в одну запись за интервал.
type RedisGridStore struct {
	client  *redis.Client
	key     string
	history int
	logger  *logging.Logger

	pendingMu sync.Mutex
	pending   []byte

	ticker   *time.Ticker
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewRedisGridStore подключается к Redis и запускает фоновую запись
func NewRedisGridStore(config *RedisConfig) (*RedisGridStore, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultRedisConfig().FlushInterval
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout+time.Second)
	defer cancel()

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := &RedisGridStore{
		client:   client,
		key:      config.Key,
		history:  config.History,
		logger:   logging.GetStorageLogger(),
		ticker:   time.NewTicker(config.FlushInterval),
		shutdown: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.flusher()

	store.logger.Info("Подключено к Redis %s, ключ %s", config.Addr, config.Key)
	return store, nil
}

// SaveGrid ставит снимок в очередь на запись
func (rs *RedisGridStore) SaveGrid(ctx context.Context, snap *Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	rs.pendingMu.Lock()
	rs.pending = data
	rs.pendingMu.Unlock()
	return nil
}

// LoadGrid возвращает ещё не записанный снимок или читает из Redis
func (rs *RedisGridStore) LoadGrid(ctx context.Context) (*Snapshot, error) {
	rs.pendingMu.Lock()
	pending := rs.pending
	rs.pendingMu.Unlock()
	if pending != nil {
		return decodeSnapshot(pending)
	}

	data, err := rs.client.Get(ctx, rs.key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из Redis: %w", err)
	}
	return decodeSnapshot(data)
}

// Flush немедленно записывает отложенный снимок
func (rs *RedisGridStore) Flush(ctx context.Context) error {
	rs.pendingMu.Lock()
	data := rs.pending
	rs.pending = nil
	rs.pendingMu.Unlock()

	if data == nil {
		return nil
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, rs.key, data, 0)
	if rs.history > 0 {
		historyKey := rs.key + ":history"
		pipe.LPush(ctx, historyKey, data)
		pipe.LTrim(ctx, historyKey, 0, int64(rs.history-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Возвращаем снимок в очередь, если новее ещё нет
		rs.pendingMu.Lock()
		if rs.pending == nil {
			rs.pending = data
		}
		rs.pendingMu.Unlock()
		return fmt.Errorf("ошибка записи в Redis: %w", err)
	}
	return nil
}

func (rs *RedisGridStore) flusher() {
	defer rs.wg.Done()
	for {
		select {
		case <-rs.ticker.C:
			if err := rs.Flush(context.Background()); err != nil {
				rs.logger.Warn("Отложенная запись снимка: %v", err)
			}
		case <-rs.shutdown:
			return
		}
	}
}

// Close записывает остаток и закрывает соединение
func (rs *RedisGridStore) Close() error {
	close(rs.shutdown)
	rs.ticker.Stop()
	rs.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rs.Flush(ctx); err != nil {
		rs.logger.Error("Финальная запись снимка: %v", err)
	}
	return rs.client.Close()
}
