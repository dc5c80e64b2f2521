package eventbus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsExporter периодически переносит Stats шины в Prometheus.
// Экспортер не делает предположений о конкретной реализации шины,
// он опирается только на EventBus.Metrics. Сами метрики отдаёт /metrics REST-сервера.
type MetricsExporter struct {
	bus  EventBus
	quit chan struct{}
	done chan struct{}
	prev Stats
	once sync.Once
	run  bool
	// Prometheus metrics
	published prometheus.Counter
	consumed  prometheus.Counter
	dropped   prometheus.Counter
	inflight  prometheus.Gauge
}

// NewMetricsExporter создаёт экспортер и регистрирует метрики в reg
// (nil - глобальный регистр Prometheus). Обновление не запускается.
func NewMetricsExporter(bus EventBus, reg prometheus.Registerer) *MetricsExporter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	me := &MetricsExporter{
		bus:  bus,
		quit: make(chan struct{}),
		done: make(chan struct{}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных сообщений.",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных сообщений подписчикам.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "Сообщений, отброшенных из-за ошибок или ограничения back-pressure.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений, находящихся в очереди (не доставленных).",
		}),
	}

	reg.MustRegister(me.published, me.consumed, me.dropped, me.inflight)
	return me
}

// Start запускает обновление метрик с интервалом interval
func (m *MetricsExporter) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	m.run = true
	go m.loop(interval)
}

// Stop останавливает обновление метрик; повторный вызов ничего не делает
func (m *MetricsExporter) Stop() {
	m.once.Do(func() {
		close(m.quit)
		if m.run {
			<-m.done
		}
	})
}

func (m *MetricsExporter) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(m.done)

	for {
		select {
		case <-ticker.C:
			m.collect()
		case <-m.quit:
			m.collect()
			return
		}
	}
}

// collect прибавляет к счётчикам приращение с прошлого вызова
func (m *MetricsExporter) collect() {
	stats := m.bus.Metrics()

	if d := stats.Published - m.prev.Published; stats.Published > m.prev.Published {
		m.published.Add(float64(d))
	}
	if d := stats.Consumed - m.prev.Consumed; stats.Consumed > m.prev.Consumed {
		m.consumed.Add(float64(d))
	}
	if d := stats.Dropped - m.prev.Dropped; stats.Dropped > m.prev.Dropped {
		m.dropped.Add(float64(d))
	}
	m.inflight.Set(float64(stats.InFlight))

	m.prev = stats
}
