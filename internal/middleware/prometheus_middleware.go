package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMiddleware регистрирует базовые HTTP-метрики для Gin.
// Маршрут /metrics добавляется отдельно с помощью метода RegisterMetricsEndpoint.
// Использование:
//
//	mw := middleware.NewPrometheusMiddleware("voxel_api", nil)
//	r.Use(mw.Handler())
//	mw.RegisterMetricsEndpoint(r)
//
// Метрики:
//   - http_request_duration_seconds{method,path,status} - histogram
//   - http_requests_inflight - gauge
//   - http_request_errors_total{method,path,status} - counter (4xx/5xx)
type PrometheusMiddleware struct {
	gatherer    prometheus.Gatherer
	reqDuration *prometheus.HistogramVec
	reqInflight prometheus.Gauge
	reqErrors   *prometheus.CounterVec
}

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики в reg.
// nil - дефолтный регистр. Если reg ещё и Gatherer, /metrics отдаёт именно его.
func NewPrometheusMiddleware(service string, reg prometheus.Registerer) *PrometheusMiddleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	pm := &PrometheusMiddleware{
		gatherer: gatherer,
		reqDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: service,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "path", "status"}),
		reqInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: service,
			Name:      "http_requests_inflight",
			Help:      "Текущее количество обрабатываемых HTTP-запросов.",
		}),
		reqErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: service,
			Name:      "http_request_errors_total",
			Help:      "Общее число запросов, завершившихся ошибкой (4xx/5xx).",
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(pm.reqDuration, pm.reqInflight, pm.reqErrors)
	return pm
}

// Handler возвращает gin.HandlerFunc, которую нужно добавить через router.Use().
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.reqInflight.Inc()
		c.Next()
		pm.reqInflight.Dec()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched" // не раздуваем кардинальность произвольными URL
		}
		method := c.Request.Method

		pm.reqDuration.WithLabelValues(method, path, status).Observe(duration)

		if c.Writer.Status() >= 400 {
			pm.reqErrors.WithLabelValues(method, path, status).Inc()
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics в указанный router.
func (pm *PrometheusMiddleware) RegisterMetricsEndpoint(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(pm.gatherer, promhttp.HandlerOpts{})))
}
