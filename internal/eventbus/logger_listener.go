package eventbus

import (
	"context"

	"github.com/annel0/voxel-editor/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logging.Debug("[EventBus] %s %s src=%s size=%dB payload=%s", ev.ID, ev.EventType, ev.Source, len(ev.Payload), ev.Payload)
	})
	if err != nil {
		return nil, err
	}
	logging.Info("LoggingListener: подписка на все события активирована")
	return sub, nil
}
