package eventbus

import (
	"context"
	"sync"
)

var (
	globalMu  sync.RWMutex
	globalBus EventBus
)

// Init устанавливает глобальную шину. nil отключает публикацию.
func Init(bus EventBus) {
	globalMu.Lock()
	globalBus = bus
	globalMu.Unlock()
}

// Global возвращает глобальную шину или nil
func Global() EventBus {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalBus
}

// Publish отправляет событие в глобальную шину, если она инициализирована.
func Publish(ctx context.Context, ev *Envelope) error {
	bus := Global()
	if bus == nil {
		return nil
	}
	return bus.Publish(ctx, ev)
}

// PublishEvent упаковывает нагрузку в конверт и публикует в глобальную шину
func PublishEvent(ctx context.Context, source, eventType string, payload interface{}) error {
	if Global() == nil {
		return nil
	}
	ev, err := NewEnvelope(source, eventType, payload)
	if err != nil {
		return err
	}
	return Publish(ctx, ev)
}
