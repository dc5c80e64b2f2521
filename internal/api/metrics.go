package api

import (
	"os"
	"runtime"
	"time"

	"github.com/annel0/voxel-editor/internal/voxelgrid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics содержит метрики процесса сервера
type ServerMetrics struct {
	StartTime time.Time
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{
		StartTime: time.Now(),
	}
}

// Uptime возвращает время работы сервера
func (sm *ServerMetrics) Uptime() time.Duration {
	return time.Since(sm.StartTime)
}

// GetMemoryUsage возвращает использование памяти в MB
func (sm *ServerMetrics) GetMemoryUsage() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / 1024 / 1024
}

// GetCPUUsage возвращает использование CPU процессом в процентах
func (sm *ServerMetrics) GetCPUUsage() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, попробуем системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return 0, err
		}
		return cpuPercents[0], nil
	}

	return cpuPercent, nil
}

// GridMetrics - доменные метрики Prometheus сервера сетки
type GridMetrics struct {
	edits    *prometheus.CounterVec
	rejected *prometheus.CounterVec
	resizes  prometheus.Counter
	projects *prometheus.CounterVec
}

// NewGridMetrics регистрирует метрики в reg. Количество вокселей
// снимается с grid в момент сбора.
func NewGridMetrics(reg prometheus.Registerer, grid *voxelgrid.Grid) *GridMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gm := &GridMetrics{
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "edits_total",
			Help:      "Применённые правки ячеек.",
		}, []string{"op"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "rejected_requests_total",
			Help:      "Отклонённые запросы к сетке.",
		}, []string{"reason"}),
		resizes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "grid_resizes_total",
			Help:      "Смены размера и сбросы сетки.",
		}),
		projects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "projects_total",
			Help:      "Сохранённые и загруженные проекты.",
		}, []string{"op"}),
	}

	count := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "voxel",
		Name:      "grid_voxels",
		Help:      "Непустые ячейки сетки.",
	}, func() float64 { return float64(grid.Count()) })
	size := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "voxel",
		Name:      "grid_size",
		Help:      "Размер стороны сетки.",
	}, func() float64 { return float64(grid.Size()) })

	reg.MustRegister(gm.edits, gm.rejected, gm.resizes, gm.projects, count, size)
	return gm
}

func (gm *GridMetrics) edit(value int) {
	if value == 0 {
		gm.edits.WithLabelValues("remove").Inc()
		return
	}
	gm.edits.WithLabelValues("set").Inc()
}

func (gm *GridMetrics) reject(reason string) {
	gm.rejected.WithLabelValues(reason).Inc()
}
