package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed - шина закрыта
var ErrClosed = errors.New("event bus closed")

// Envelope описывает универсальный контейнер события.
// Все поля фиксированы для версиирования и трассировки.
type Envelope struct {
	ID            string            // Глобально уникальный идентификатор (UUID).
	Timestamp     time.Time         // Время создания события (UTC).
	Source        string            // Имя сервиса-источника.
	EventType     string            // Тип события (VoxelUpdated, GridResized…).
	Version       int               // Схема полезной нагрузки.
	CorrelationID string            // Для связывания цепочек.
	Tenant        string            // Для мульти-тенанности (пока пусто).
	Priority      int               // 0=Low … 9=Critical (для backpressure).
	Payload       []byte            // Полезная нагрузка в JSON.
	Metadata      map[string]string // Произвольные метаданные.
}

// NewEnvelope создаёт конверт с новым UUID и JSON-нагрузкой
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Payload:   data,
	}, nil
}

// Decode разбирает нагрузку конверта в out
func (e *Envelope) Decode(out interface{}) error {
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Если пусто - все типы.
	Sources []string // Если пусто - все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus определяет абстракцию шины событий.
// Реализации: в памяти и NATS JetStream.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

type memoryBus struct {
	mu          sync.RWMutex
	closeMu     sync.RWMutex
	statsMu     sync.Mutex
	subscribers map[int]subscriber
	nextID      int
	stats       Stats
	buffer      chan *Envelope
	capacity    int
	closed      bool
	done        chan struct{}
	handlers    sync.WaitGroup
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory Bus с указанным буфером.
func NewMemoryBus(capacity int) EventBus {
	mb := &memoryBus{
		subscribers: make(map[int]subscriber),
		buffer:      make(chan *Envelope, capacity),
		capacity:    capacity,
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	// closeMu держится до отправки: Close не закроет канал под пишущим
	mb.closeMu.RLock()
	defer mb.closeMu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		mb.count(func(s *Stats) { s.Published++ })
		return nil
	default:
		// Буфер заполнен - дропаём низкий приоритет (<5)
		if ev.Priority < 5 {
			mb.count(func(s *Stats) { s.Dropped++ })
			return nil
		}
		// Для High-priority блокируем до освобождения места или отмены контекста
		select {
		case mb.buffer <- ev:
			mb.count(func(s *Stats) { s.Published++ })
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}
	mb.mu.Unlock()

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) count(fn func(s *Stats)) {
	mb.statsMu.Lock()
	fn(&mb.stats)
	mb.statsMu.Unlock()
}

func (mb *memoryBus) Metrics() Stats {
	mb.statsMu.Lock()
	defer mb.statsMu.Unlock()
	s := mb.stats
	s.InFlight = len(mb.buffer)
	return s
}

// Close прекращает приём событий и ждёт доставки уже принятых
func (mb *memoryBus) Close() error {
	mb.closeMu.Lock()
	if mb.closed {
		mb.closeMu.Unlock()
		return nil
	}
	mb.closed = true
	close(mb.buffer)
	mb.closeMu.Unlock()

	<-mb.done
	mb.handlers.Wait()
	return nil
}

// dispatchLoop рассылает события подписчикам.
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for ev := range mb.buffer {
		mb.mu.RLock()
		subs := make([]subscriber, 0, len(mb.subscribers))
		for _, sub := range mb.subscribers {
			subs = append(subs, sub)
		}
		mb.mu.RUnlock()

		for _, sub := range subs {
			if !matchFilter(ev, sub.filter) {
				continue
			}
			mb.handlers.Add(1)
			go func(s subscriber) {
				defer mb.handlers.Done()
				select {
				case <-s.ctx.Done():
					return
				default:
					s.handler(s.ctx, ev)
					mb.count(func(st *Stats) { st.Consumed++ })
				}
			}(sub)
		}
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
